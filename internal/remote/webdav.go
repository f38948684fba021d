package remote

import (
	"context"
	"os"
	"path"

	"github.com/pkg/errors"
	"github.com/studio-b12/gowebdav"
)

type davClient interface {
	Read(path string) ([]byte, error)
	Write(path string, data []byte, mode os.FileMode) error
	MkdirAll(path string, mode os.FileMode) error
}

// WebDAV stores the snapshot on a WebDAV server.
type WebDAV struct {
	client   davClient
	endpoint string
	file     string
}

func NewWebDAV(cfg Config) (*WebDAV, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("webdav: remote.endpoint is required")
	}
	c := gowebdav.NewClient(cfg.Endpoint, cfg.User, cfg.Secret)
	return &WebDAV{client: c, endpoint: cfg.Endpoint, file: "/" + cfg.objectPath()}, nil
}

func (w *WebDAV) Pull(ctx context.Context) ([]byte, error) {
	data, err := w.client.Read(w.file)
	if err != nil {
		if gowebdav.IsErrNotFound(err) || errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "webdav")
	}
	return data, nil
}

func (w *WebDAV) Push(ctx context.Context, data []byte) error {
	if dir := path.Dir(w.file); dir != "/" {
		if err := w.client.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "webdav")
		}
	}
	return errors.Wrap(w.client.Write(w.file, data, 0o644), "webdav")
}

func (w *WebDAV) String() string { return w.endpoint + w.file }

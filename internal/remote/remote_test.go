package remote

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studio-b12/gowebdav"

	"github.com/charlesinwald/mani/internal/constants"
	"github.com/charlesinwald/mani/internal/journal"
	"github.com/charlesinwald/mani/internal/models"
	"github.com/charlesinwald/mani/internal/snapshot"
	"github.com/charlesinwald/mani/internal/storage"
	"github.com/charlesinwald/mani/internal/storage/sqlite"
	"github.com/charlesinwald/mani/internal/storage/sqlstore"
)

type fakeDAV struct {
	files   map[string][]byte
	dirs    []string
	readErr error
}

func (f *fakeDAV) Read(p string) ([]byte, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	data, ok := f.files[p]
	if !ok {
		return nil, gowebdav.NewPathError("ReadFile", p, 404)
	}
	return data, nil
}

func (f *fakeDAV) Write(p string, data []byte, _ os.FileMode) error {
	f.files[p] = data
	return nil
}

func (f *fakeDAV) MkdirAll(p string, _ os.FileMode) error {
	f.dirs = append(f.dirs, p)
	return nil
}

type fakeS3 struct {
	objects map[string][]byte
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func TestNewRejectsBadConfig(t *testing.T) {
	ctx := context.Background()
	cases := []Config{
		{},
		{Type: "ftp"},
		{Type: constants.RemoteLocalFS},
		{Type: constants.RemoteWebDAV},
		{Type: constants.RemoteS3},
	}
	for _, cfg := range cases {
		_, err := New(ctx, cfg)
		assert.Error(t, err, "config %+v", cfg)
	}
	assert.False(t, Config{}.Enabled())
}

func TestObjectPath(t *testing.T) {
	assert.Equal(t, constants.SnapshotFileName, Config{}.objectPath())
	assert.Equal(t, "journal/"+constants.SnapshotFileName, Config{Path: "/journal/"}.objectPath())
	assert.Equal(t, "a/b/custom.json", Config{Path: "a/b", Key: "custom.json"}.objectPath())
}

func TestLocalFSRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	target, err := New(context.Background(), Config{Type: constants.RemoteLocalFS, Path: dir})
	require.NoError(t, err)

	_, err = target.Pull(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, target.Push(context.Background(), []byte(`{"version":2}`)))
	data, err := target.Pull(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":2}`, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestWebDAVTarget(t *testing.T) {
	dav := &fakeDAV{files: map[string][]byte{}}
	w := &WebDAV{client: dav, endpoint: "https://dav.example", file: "/mani/" + constants.SnapshotFileName}

	_, err := w.Pull(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, w.Push(context.Background(), []byte("x")))
	assert.Equal(t, []string{"/mani"}, dav.dirs)

	data, err := w.Pull(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), data)
	assert.Equal(t, "https://dav.example/mani/"+constants.SnapshotFileName, w.String())
}

func TestWebDAVPullErrors(t *testing.T) {
	file := "/mani/" + constants.SnapshotFileName
	cases := []struct {
		name    string
		err     error
		missing bool
	}{
		{"not found status", gowebdav.NewPathError("ReadFile", file, 404), true},
		{"missing file", &os.PathError{Op: "ReadFile", Path: file, Err: os.ErrNotExist}, true},
		{"forbidden", gowebdav.NewPathError("ReadFile", file, 403), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := &WebDAV{client: &fakeDAV{readErr: tc.err}, file: file}
			_, err := w.Pull(context.Background())
			require.Error(t, err)
			assert.Equal(t, tc.missing, errors.Is(err, ErrNotFound), "err = %v", err)
		})
	}
}

func TestS3Target(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}}
	s := &S3{client: fake, bucket: "journal", key: "mani/" + constants.SnapshotFileName}

	_, err := s.Pull(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Push(context.Background(), []byte("payload")))
	assert.Contains(t, fake.objects, "journal/mani/"+constants.SnapshotFileName)

	data, err := s.Pull(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

// tick is shared by every store in a test so modification times across
// devices are strictly ordered.
type tick struct{ t time.Time }

func (c *tick) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func setupStore(t *testing.T, clock *tick) (*journal.Store, *sqlite.Store) {
	t.Helper()
	b := sqlite.NewStore(filepath.Join(t.TempDir(), "sync.db"), sqlstore.WithClock(clock.now))
	require.NoError(t, b.Init())
	t.Cleanup(func() { b.Close() })
	s := journal.New(b, journal.WithClock(clock.now))
	require.NoError(t, s.Hydrate())
	return s, b
}

func TestSyncTwoDevices(t *testing.T) {
	ctx := context.Background()
	target, err := NewLocalFS(Config{Path: t.TempDir()})
	require.NoError(t, err)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	clock := &tick{t: now}
	phone, phoneDB := setupStore(t, clock)
	laptop, laptopDB := setupStore(t, clock)

	e, err := phone.AddEntry(models.DiaryEntry{Entry: models.Entry{Date: "2024-05-01", Description: "from phone"}})
	require.NoError(t, err)

	report, err := Sync(ctx, target, phone, phoneDB, now)
	require.NoError(t, err)
	assert.False(t, report.Pulled)
	assert.Positive(t, report.Pushed)

	report, err = Sync(ctx, target, laptop, laptopDB, now)
	require.NoError(t, err)
	assert.True(t, report.Pulled)
	assert.Equal(t, 1, report.Merged.Diary.Created)
	_, ok := laptop.FindEntryByID(e.ID)
	assert.True(t, ok)

	// A deletion on the laptop reaches the phone and is purged on both
	require.NoError(t, laptop.DeleteEntry(e.ID))
	_, err = Sync(ctx, target, laptop, laptopDB, now)
	require.NoError(t, err)

	report, err = Sync(ctx, target, phone, phoneDB, now)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Merged.Diary.Purged)
	_, ok = phone.FindEntryByID(e.ID)
	assert.False(t, ok)

	all, err := phoneDB.ListDiaryEntries(storage.ListOptions{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Empty(t, all)

	data, err := target.Pull(ctx)
	require.NoError(t, err)
	s, err := snapshot.Decode(data)
	require.NoError(t, err)
	assert.Empty(t, s.DiaryEntries)
	require.Len(t, s.Purged, 1)
	assert.Equal(t, e.ID, s.Purged[0].ID)
}

func TestSyncRejectsCorruptRemote(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, constants.SnapshotFileName), []byte("{nope"), 0o600))
	target, err := NewLocalFS(Config{Path: dir})
	require.NoError(t, err)

	store, b := setupStore(t, &tick{t: time.Now()})
	_, err = Sync(context.Background(), target, store, b, time.Now())
	assert.Error(t, err)

	data, err := target.Pull(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "{nope", string(data), "corrupt remote must not be overwritten")
}

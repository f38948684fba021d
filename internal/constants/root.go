package constants

import "time"

const (
	AppName           = "mani"
	Version           = "v0.3.0"
	DefaultConfigDir  = "~/.config/mani"
	DefaultConfigName = "config"
	DefaultConfigType = "yaml"
	DefaultDBName     = "mani.db"
	EnvPrefix         = "MANI"

	// DateFormat is the calendar date format used for entries (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// LogTimestampFormat is used for progress log timestamps
	LogTimestampFormat = time.RFC3339

	// Keyring
	KeyringService      = "mani"
	KeyringDatabaseUser = "database-connection"
	KeyringPasscodeUser = "passcode"
	KeyringRemoteUser   = "remote-secret"
	RemoteSecretEnv     = "MANI_REMOTE_SECRET"

	// Backups
	MaxBackups            = 14
	BackupDirName         = "backups"
	BackupFilePrefix      = "mani-"
	BackupFileSuffix      = ".db"
	DefaultBackupSchedule = "@daily"

	// Lock
	LockfileName = "mani.lock"

	// Snapshots
	SnapshotVersion  = 2
	SnapshotFileName = "mani-snapshot.json"

	// Remote target kinds
	RemoteNone    = ""
	RemoteLocalFS = "localfs"
	RemoteWebDAV  = "webdav"
	RemoteS3      = "s3"

	// Entity kinds, as recorded in the purge ledger
	KindDiary     = "diary"
	KindMemoir    = "memoir"
	KindChecklist = "checklist"
)

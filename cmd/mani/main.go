package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/charlesinwald/mani/internal/cli"
	"github.com/charlesinwald/mani/internal/cli/backups"
	"github.com/charlesinwald/mani/internal/cli/entries"
	"github.com/charlesinwald/mani/internal/cli/goals"
	"github.com/charlesinwald/mani/internal/cli/system"
	"github.com/charlesinwald/mani/internal/cli/transfer"
	"github.com/charlesinwald/mani/internal/config"
	"github.com/charlesinwald/mani/internal/constants"
	clierrors "github.com/charlesinwald/mani/internal/errors"
	"github.com/charlesinwald/mani/internal/gate"
	"github.com/charlesinwald/mani/internal/logger"
	"github.com/charlesinwald/mani/internal/storage/postgres"
	"github.com/charlesinwald/mani/internal/storage/sqlite"
)

var CLI struct {
	Version  kong.VersionFlag
	Config   string `help:"Config file path." type:"path" default:"${config_file}"`
	Database string `help:"SQLite database path or PostgreSQL connection string. Overrides the config file. PostgreSQL passwords must NOT be embedded; use .pgpass or 'mani secret set database'."`
	Debug    bool   `help:"Write debug logs to stderr and the log file."`

	Init    system.InitCmd    `cmd:"" help:"Initialize mani storage."`
	Migrate system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Doctor  system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Tui     system.TuiCmd     `cmd:"" help:"Launch the interactive journal." default:"1"`
	Entry   struct {
		Add    entries.EntryAddCmd    `cmd:"" help:"Write a diary entry."`
		Edit   entries.EntryEditCmd   `cmd:"" help:"Edit a diary entry."`
		Delete entries.EntryDeleteCmd `cmd:"" help:"Delete a diary entry."`
		List   entries.EntryListCmd   `cmd:"" help:"List diary entries."`
		Show   entries.EntryShowCmd   `cmd:"" help:"Show one diary entry."`
	} `cmd:"" help:"Manage diary entries."`
	Memoir struct {
		Add    entries.MemoirAddCmd    `cmd:"" help:"Write a memoir."`
		Edit   entries.MemoirEditCmd   `cmd:"" help:"Edit a memoir."`
		Delete entries.MemoirDeleteCmd `cmd:"" help:"Delete a memoir."`
		List   entries.MemoirListCmd   `cmd:"" help:"List memoirs."`
		Show   entries.MemoirShowCmd   `cmd:"" help:"Show one memoir."`
	} `cmd:"" help:"Manage memoirs."`
	Goal struct {
		Add      goals.GoalAddCmd      `cmd:"" help:"Add a goal."`
		Edit     goals.GoalEditCmd     `cmd:"" help:"Edit a goal."`
		List     goals.GoalListCmd     `cmd:"" help:"List goals." default:"1"`
		Toggle   goals.GoalToggleCmd   `cmd:"" help:"Toggle a think/talk/act flag."`
		Complete goals.GoalCompleteCmd `cmd:"" help:"Mark a goal completed."`
		Log      goals.GoalLogCmd      `cmd:"" help:"Log progress on a goal."`
		Unlog    goals.GoalUnlogCmd    `cmd:"" help:"Remove a progress log."`
		Delete   goals.GoalDeleteCmd   `cmd:"" help:"Delete a goal."`
	} `cmd:"" help:"Manage checklist goals."`
	Export transfer.ExportCmd `cmd:"" help:"Export the journal to a snapshot file."`
	Import transfer.ImportCmd `cmd:"" help:"Merge a snapshot file into the journal."`
	Sync   transfer.SyncCmd   `cmd:"" help:"Merge with the snapshot on the configured remote."`
	Backup struct {
		Create   backups.BackupCreateCmd   `cmd:"" help:"Create a manual backup." default:"1"`
		List     backups.BackupListCmd     `cmd:"" help:"List available backups."`
		Restore  backups.BackupRestoreCmd  `cmd:"" help:"Restore from a backup."`
		Schedule backups.BackupScheduleCmd `cmd:"" help:"Run scheduled backups in the foreground."`
	} `cmd:"" help:"Manage database backups."`
	Passcode struct {
		Set    system.PasscodeSetCmd    `cmd:"" help:"Set or change the passcode."`
		Clear  system.PasscodeClearCmd  `cmd:"" help:"Remove the passcode."`
		Status system.PasscodeStatusCmd `cmd:"" help:"Show whether a passcode is set." default:"1"`
	} `cmd:"" help:"Protect the journal with a passcode."`
	Secret struct {
		Set    system.SecretSetCmd    `cmd:"" help:"Store a secret in the OS keyring."`
		Get    system.SecretGetCmd    `cmd:"" help:"Show a stored secret (masked)."`
		Delete system.SecretDeleteCmd `cmd:"" help:"Remove a secret from the OS keyring."`
		Status system.SecretStatusCmd `cmd:"" help:"Check OS keyring availability." default:"1"`
	} `cmd:"" help:"Manage secrets in the OS keyring."`
}

// noLoad lists commands that open (or create) the database themselves, or
// never touch it.
var noLoad = []string{"init", "migrate", "doctor", "passcode", "secret", "backup restore"}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Personal diary, memoirs and goals"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":     constants.Version,
			"config_file": config.DefaultFile(),
		},
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		clierrors.Fatal(err)
	}
	if CLI.Database != "" {
		cfg.Database = CLI.Database
	}
	if CLI.Debug {
		cfg.Debug = true
	}

	command := ctx.Command()
	if err := logger.Init(logger.Config{
		Debug:     cfg.Debug,
		ConfigDir: cfg.Dir,
		Quiet:     command == "tui",
	}); err != nil {
		clierrors.Fatal(fmt.Errorf("failed to initialize logger: %w", err))
	}
	logger.Debug("Starting", "version", constants.Version, "command", command, "config", cfg.File)

	backend, err := openBackend(cfg)
	if err != nil {
		clierrors.Fatal(err)
	}
	defer backend.Close()

	appCtx := &cli.Context{
		Config:  cfg,
		Backend: backend,
		Gate:    gate.New(),
	}

	if needsLoad(command) {
		if err := backend.Load(); err != nil {
			clierrors.Fatal(err)
		}
	}

	clierrors.Fatal(ctx.Run(appCtx))
}

func needsLoad(command string) bool {
	for _, prefix := range noLoad {
		if strings.HasPrefix(command, prefix) {
			return false
		}
	}
	return true
}

func openBackend(cfg *config.Config) (cli.Backend, error) {
	if !cfg.IsPostgres() {
		return sqlite.NewStore(cfg.Database), nil
	}

	connStr, err := cfg.Connection()
	if err != nil {
		return nil, err
	}
	if _, err := postgres.ValidateConnString(connStr); err != nil {
		// the keyring is the one place a password may live
		if !errors.Is(err, postgres.ErrEmbeddedCredentials) || cfg.Database != config.DatabaseFromKeyring {
			return nil, fmt.Errorf("%w\n       Store it with 'mani secret set database' and set database: keyring, or use a .pgpass file", err)
		}
	}
	return postgres.New(connStr), nil
}

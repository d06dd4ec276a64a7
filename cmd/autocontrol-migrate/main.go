// Command autocontrol-migrate moves a device's locally stored sanitary
// control records to the multi-tenant remote service, with backup, integrity
// verification, and rollback.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/rujopadi/autocontrol-sanitario-app-sub004/internal/blob"
	"github.com/rujopadi/autocontrol-sanitario-app-sub004/internal/config"
	"github.com/rujopadi/autocontrol-sanitario-app-sub004/internal/localstore"
	"github.com/rujopadi/autocontrol-sanitario-app-sub004/internal/migration"
	"github.com/rujopadi/autocontrol-sanitario-app-sub004/internal/remote"
)

const usage = `usage: autocontrol-migrate [-config FILE] COMMAND

Commands:
  status    report migratable data and completion state
  run       execute the full migration wizard
  backup    write a backup artifact to stdout or the configured destination
  restore   restore the on-device store from the restore point
  import    load a backup artifact file into the on-device store
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, os.Stdin))
}

func run(args []string, stdout, stderr io.Writer, stdin io.Reader) int {
	fs := flag.NewFlagSet("autocontrol-migrate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", "", "path to YAML config file")
	yes := fs.Bool("yes", false, "skip interactive confirmations")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	command := fs.Arg(0)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}

	log := newLogger(cfg.Log, stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := localstore.Open(localstore.Driver(cfg.Store.Driver), cfg.Store.Path)
	if err != nil {
		log.Error().Err(err).Msg("open local store")
		return 1
	}
	defer closeStore(store, log)

	app := &cli{cfg: cfg, store: store, log: log, stdout: stdout, stdin: stdin, autoYes: *yes}

	switch command {
	case "status":
		return app.status()
	case "run":
		return app.runWizard(ctx)
	case "backup":
		return app.backup(ctx)
	case "restore":
		return app.restore()
	case "import":
		return app.importArtifact(fs.Args()[1:])
	default:
		fmt.Fprintf(stderr, "unknown command %q\n%s", command, usage)
		return 2
	}
}

func newLogger(cfg config.LogConfig, stderr io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var out io.Writer = stderr
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func closeStore(store localstore.Store, log zerolog.Logger) {
	if closer, ok := store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			log.Warn().Err(err).Msg("close local store")
		}
	}
}

type cli struct {
	cfg     *config.Config
	store   localstore.Store
	log     zerolog.Logger
	stdout  io.Writer
	stdin   io.Reader
	autoYes bool
}

func (c *cli) backupManager(ctx context.Context) (*migration.BackupManager, error) {
	var blobs blob.Store
	if c.cfg.Backup.Driver != "none" && c.cfg.Backup.Driver != "" {
		var err error
		blobs, err = blob.Open(ctx, blob.Config{
			Driver: blob.Driver(c.cfg.Backup.Driver),
			Root:   c.cfg.Backup.Root,
			S3: blob.S3Config{
				Bucket:          c.cfg.Backup.S3.Bucket,
				Region:          c.cfg.Backup.S3.Region,
				Endpoint:        c.cfg.Backup.S3.Endpoint,
				AccessKeyID:     c.cfg.Backup.S3.AccessKey,
				SecretAccessKey: c.cfg.Backup.S3.SecretKey,
				PathStyle:       c.cfg.Backup.S3.PathStyle,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("open backup destination: %w", err)
		}
	}
	return migration.NewBackupManager(c.store, blobs, c.log), nil
}

func (c *cli) status() int {
	reader := migration.NewReader(c.store, c.log)
	state, err := migration.LoadState(c.store)
	if err != nil {
		c.log.Error().Err(err).Msg("read migration state")
		return 1
	}
	if state.Completed {
		fmt.Fprintf(c.stdout, "migration completed at %s\n", state.CompletedAt.Format(time.RFC3339))
	}
	point, err := migration.NewBackupManager(c.store, nil, c.log).RestorePointInfo()
	if err != nil {
		c.log.Error().Err(err).Msg("inspect restore point")
		return 1
	}
	if point.Exists {
		fmt.Fprintf(c.stdout, "restore point from %s (%d bytes)\n",
			point.CreatedAt.Format(time.RFC3339), point.SizeBytes)
	}
	if !reader.HasMigratableData() {
		fmt.Fprintln(c.stdout, "no migratable data on this device")
		return 0
	}
	stats := migration.ComputeStats(reader.ReadDataset())
	fmt.Fprintf(c.stdout, "migratable records: %d\n", stats.Total())
	for t, n := range stats.Counts {
		fmt.Fprintf(c.stdout, "  %-22s %d\n", t, n)
	}
	if stats.HasProfile {
		fmt.Fprintln(c.stdout, "  establishment profile present")
	}
	return 0
}

func (c *cli) runWizard(ctx context.Context) int {
	backups, err := c.backupManager(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("backup destination")
		return 1
	}
	writer, err := remote.Open(remote.Config{
		Driver:     remote.Driver(c.cfg.Remote.Driver),
		BaseURL:    c.cfg.Remote.BaseURL,
		Token:      c.cfg.Remote.Token,
		Timeout:    c.cfg.Remote.Timeout,
		MaxElapsed: c.cfg.Remote.MaxElapsed,
		DSN:        c.cfg.Remote.DSN,
		TenantID:   c.cfg.Remote.TenantID,
	}, c.log)
	if err != nil {
		c.log.Error().Err(err).Msg("open remote writer")
		return 1
	}

	orch := migration.NewOrchestrator(c.store, writer, backups, migration.OrchestratorConfig{
		Logger:     c.log,
		GraceDelay: c.cfg.GraceDelay,
	})

	stats, skipped, err := orch.Begin()
	if err != nil {
		c.log.Error().Err(err).Msg("begin migration")
		return 1
	}
	if skipped {
		fmt.Fprintln(c.stdout, "nothing to migrate")
		return 0
	}

	fmt.Fprintf(c.stdout, "detected %d migratable record(s)\n", stats.Total())
	if report := orch.Validation(); !report.Valid {
		fmt.Fprintf(c.stdout, "%d record(s) have issues and will be skipped:\n", len(report.Errors))
		for _, msg := range report.Errors {
			fmt.Fprintf(c.stdout, "  %s\n", msg)
		}
	}
	if !c.confirm("proceed with migration?") {
		fmt.Fprintln(c.stdout, "aborted")
		return 0
	}
	if err := orch.ConfirmReview(); err != nil {
		c.log.Error().Err(err).Msg("confirm review")
		return 1
	}

	if c.confirm("create a backup before migrating?") {
		artifact, err := orch.CreateBackup(ctx)
		if err != nil {
			c.log.Error().Err(err).Msg("create backup")
			return 1
		}
		fmt.Fprintf(c.stdout, "backup %s created\n", artifact.ID)
	} else {
		if err := orch.SkipBackup(); err != nil {
			c.log.Error().Err(err).Msg("skip backup")
			return 1
		}
	}

	result, err := orch.Migrate(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("migrate")
		return 1
	}
	for _, msg := range result.Errors {
		fmt.Fprintf(c.stdout, "error: %s\n", msg)
	}
	if !result.Success {
		fmt.Fprintln(c.stdout, "migration failed; on-device data is untouched")
		fmt.Fprintln(c.stdout, "run again to retry, or 'autocontrol-migrate restore' to roll back")
		return 1
	}
	fmt.Fprintf(c.stdout, "migrated %d record(s) in %s\n",
		result.TotalMigrated(), result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond))
	return 0
}

func (c *cli) backup(ctx context.Context) int {
	backups, err := c.backupManager(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("backup destination")
		return 1
	}
	reader := migration.NewReader(c.store, c.log)
	dataset := reader.ReadDataset()
	if dataset.IsEmpty() {
		fmt.Fprintln(c.stdout, "nothing to back up")
		return 0
	}
	artifact, payload, err := backups.CreateArtifact(dataset)
	if err != nil {
		c.log.Error().Err(err).Msg("create backup artifact")
		return 1
	}
	if c.cfg.Backup.Driver == "none" || c.cfg.Backup.Driver == "" {
		if _, err := c.stdout.Write(payload); err != nil {
			c.log.Error().Err(err).Msg("write artifact")
			return 1
		}
		return 0
	}
	info, err := backups.ExportArtifact(ctx, artifact, payload)
	if err != nil {
		c.log.Error().Err(err).Msg("export backup artifact")
		return 1
	}
	fmt.Fprintf(c.stdout, "backup exported to %s\n", info.Key)
	return 0
}

func (c *cli) restore() int {
	backups := migration.NewBackupManager(c.store, nil, c.log)
	rollback := migration.NewRollbackManager(c.store, backups, c.log)
	restored, err := rollback.Restore(nil)
	if err != nil {
		c.log.Error().Err(err).Msg("restore")
		return 1
	}
	if !restored {
		fmt.Fprintln(c.stdout, "no restore point available")
		return 1
	}
	fmt.Fprintln(c.stdout, "on-device data restored")
	return 0
}

func (c *cli) importArtifact(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(c.stdout, "usage: autocontrol-migrate import FILE")
		return 2
	}
	raw, err := os.ReadFile(args[0])
	if err != nil {
		c.log.Error().Err(err).Msg("read artifact file")
		return 1
	}
	backups := migration.NewBackupManager(c.store, nil, c.log)
	rollback := migration.NewRollbackManager(c.store, backups, c.log)
	result := rollback.ImportArtifact(raw)
	fmt.Fprintln(c.stdout, result.Message)
	if !result.Success {
		return 1
	}
	fmt.Fprintf(c.stdout, "record counts now:\n")
	for t, n := range result.Stats.Counts {
		fmt.Fprintf(c.stdout, "  %-22s %d\n", t, n)
	}
	return 0
}

func (c *cli) confirm(prompt string) bool {
	if c.autoYes {
		return true
	}
	fmt.Fprintf(c.stdout, "%s [y/N] ", prompt)
	scanner := bufio.NewScanner(c.stdin)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}

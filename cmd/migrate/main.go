// Command migrate applies the ledger's SQL migrations to a postgres database.
//
//	migrate up [N]      apply all or N pending migrations
//	migrate down [N]    roll back N migrations (default 1)
//	migrate version     print the current version
//	migrate force V     mark version V as clean after a failed run
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"cryptostock/internal/database"
	"cryptostock/internal/logger"
)

const usage = "usage: migrate <up|down|version|force> [N]"

// migrator is the part of *migrate.Migrate the commands drive.
type migrator interface {
	Up() error
	Steps(n int) error
	Version() (uint, bool, error)
	Force(version int) error
}

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(os.Args[1:]); err != nil {
		logger.Get().Fatalf("Migration error: %v", err)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	cfg, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}
	if cfg.Driver != database.DriverPostgres {
		return fmt.Errorf("SQL migrations target postgres; the %s ledger is auto-migrated on startup", cfg.Driver)
	}

	m, err := migrate.New(cfg.MigrationsSource(), cfg.MigrateURL())
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.Get().Warnw("closing migrate", "source_error", srcErr, "database_error", dbErr)
		}
	}()

	return execute(m, args, logger.Named("migrate"))
}

func execute(m migrator, args []string, log *zap.SugaredLogger) error {
	command, rest := args[0], args[1:]

	switch command {
	case "up":
		n, err := optionalCount(rest, 0)
		if err != nil {
			return err
		}
		if n == 0 {
			err = m.Up()
		} else {
			err = m.Steps(n)
		}
		if ignoreNoChange(err) != nil {
			return fmt.Errorf("migration up failed: %w", err)
		}
	case "down":
		n, err := optionalCount(rest, 1)
		if err != nil {
			return err
		}
		if err := ignoreNoChange(m.Steps(-n)); err != nil {
			return fmt.Errorf("migration down failed: %w", err)
		}
	case "force":
		if len(rest) != 1 {
			return errors.New("usage: migrate force V")
		}
		v, err := strconv.Atoi(rest[0])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", rest[0], err)
		}
		if err := m.Force(v); err != nil {
			return fmt.Errorf("force failed: %w", err)
		}
	case "version":
	default:
		return fmt.Errorf("unknown command %q; %s", command, usage)
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		log.Infow("no migrations applied", "command", command)
	case err != nil:
		return fmt.Errorf("failed to read version: %w", err)
	default:
		log.Infow("ledger schema", "command", command, "version", version, "dirty", dirty)
	}
	return nil
}

func optionalCount(args []string, def int) (int, error) {
	if len(args) == 0 {
		return def, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid step count %q", args[0])
	}
	return n, nil
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

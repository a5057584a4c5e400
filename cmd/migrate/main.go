// Command migrate applies or reverts the embedded schema migrations against
// DATABASE_URL.
//
//	migrate up          apply every pending migration
//	migrate down [n]    revert n migrations (default 1)
//	migrate version     print the current version
//	migrate force <v>   mark version v as applied after a failed run
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"

	"ballotbox/internal/platform/database"
	"ballotbox/internal/platform/logger"
)

func main() {
	log := logger.New(os.Getenv("ENVIRONMENT"), os.Getenv("LOG_LEVEL"))
	if err := run(flag.CommandLine, os.Args[1:], log); err != nil {
		log.Error("migrate failed", "error", err)
		os.Exit(1)
	}
}

func run(fs *flag.FlagSet, args []string, log *slog.Logger) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	url := fs.String("database-url", os.Getenv("DATABASE_URL"), "postgres connection URL")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *url == "" {
		return errors.New("DATABASE_URL or -database-url is required")
	}
	cmd, rest := fs.Arg(0), fs.Args()
	if len(rest) > 0 {
		rest = rest[1:]
	}

	m, err := database.NewMigrator(*url)
	if err != nil {
		return err
	}
	defer m.Close()

	switch cmd {
	case "up":
		err = m.Up()
	case "down":
		n := 1
		if len(rest) > 0 {
			if n, err = strconv.Atoi(rest[0]); err != nil || n < 1 {
				return fmt.Errorf("down expects a positive step count, got %q", rest[0])
			}
		}
		err = m.Steps(-n)
	case "version":
		v, dirty, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			log.Info("no migrations applied")
			return nil
		}
		if verr != nil {
			return fmt.Errorf("read version: %w", verr)
		}
		log.Info("schema version", "version", v, "dirty", dirty)
		return nil
	case "force":
		if len(rest) == 0 {
			return errors.New("force expects a version")
		}
		v, perr := strconv.Atoi(rest[0])
		if perr != nil {
			return fmt.Errorf("force expects a numeric version, got %q", rest[0])
		}
		err = m.Force(v)
	default:
		return fmt.Errorf("unknown command %q: want up, down, version or force", cmd)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		log.Info("schema already up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", cmd, err)
	}
	log.Info("migration complete", "command", cmd)
	return nil
}

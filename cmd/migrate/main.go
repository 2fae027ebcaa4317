// Command migrate manages the marketplace settlement schema. It applies the
// SQL pairs under migrations/ through golang-migrate, and scaffolds new ones.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/marketplace/backend/internal/infrastructure/config"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"github.com/marketplace/backend/internal/infrastructure/migration"
)

func main() {
	var (
		dir      string
		logLevel string
	)
	flag.StringVar(&dir, "path", "migrations", "Path to the migrations directory")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	if err := run(args[0], args[1:], dir, log); err != nil {
		log.Fatal("Migration command failed", zap.Error(err))
	}
}

func run(command string, args []string, dir string, log *zap.Logger) error {
	// new and list work on the filesystem alone
	switch command {
	case "new":
		if len(args) < 1 {
			return fmt.Errorf("migration name required, usage: migrate new <name>")
		}
		pair, err := migration.Scaffold(dir, args[0])
		if err != nil {
			return err
		}
		log.Info("Migration scaffolded",
			zap.String("version", pair.Version),
			zap.String("up", pair.UpPath),
			zap.String("down", pair.DownPath))
		return nil

	case "list":
		names, err := migration.Available(dir)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			log.Info("No migrations found", zap.String("path", dir))
			return nil
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	runner, err := migration.NewRunner(db, dir, log)
	if err != nil {
		return err
	}
	defer runner.Close()

	switch command {
	case "up":
		return runner.Up()

	case "down":
		return runner.Down()

	case "step":
		if len(args) < 1 {
			return fmt.Errorf("step count required, usage: migrate step <n>")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid step count %q", args[0])
		}
		return runner.Steps(n)

	case "version":
		version, dirty, err := runner.Version()
		if err != nil {
			return err
		}
		if version == 0 {
			log.Info("No migrations applied yet")
		} else {
			log.Info("Current schema version",
				zap.Uint("version", version), zap.Bool("dirty", dirty))
		}
		return nil

	case "force":
		if len(args) < 1 {
			return fmt.Errorf("version required, usage: migrate force <version>")
		}
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}
		return runner.Force(version)

	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func printUsage() {
	fmt.Println(`Marketplace schema migration tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up               Apply all pending migrations
  down             Roll back all applied migrations
  step <n>         Apply n migrations (negative rolls back)
  version          Show the current schema version
  force <version>  Overwrite the recorded version (dirty-state recovery)
  new <name>       Scaffold an empty up/down migration pair
  list             List the migration pairs on disk

Flags:
  -path string       Migrations directory (default "migrations")
  -log-level string  debug, info, warn or error (default "info")

Database connection comes from config.toml or the MKT_DATABASE_* environment
variables, the same as the server.`)
}

package main

import (
	"database/sql"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/foodontracks/backend/internal/infrastructure/config"
	"github.com/foodontracks/backend/internal/infrastructure/logger"
	"github.com/foodontracks/backend/internal/infrastructure/migration"
	"github.com/foodontracks/backend/migrations"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

func main() {
	var (
		migrationsPath string
		logLevel       string
	)

	flag.StringVar(&migrationsPath, "path", "", "Read migrations from this directory instead of the embedded set")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(config.LogConfig{Level: logLevel, Format: "console"},
		logger.WithTimeLayout("2006-01-02 15:04:05"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	// create and list work on files only
	switch command {
	case "create":
		if len(args) < 2 {
			log.Fatal("Migration name required. Usage: migrate create <name> [description]")
		}
		description := ""
		if len(args) > 2 {
			description = args[2]
		}
		dir := migrationsPath
		if dir == "" {
			dir = defaultMigrationsPath
		}
		nm, err := migration.CreateMigration(dir, args[1], description)
		if err != nil {
			log.Fatal("Failed to create migration", zap.Error(err))
		}
		log.Info("Migration created",
			zap.Uint("version", nm.Version),
			zap.String("up_file", nm.UpPath),
			zap.String("down_file", nm.DownPath),
		)
		return
	case "list":
		var src fs.FS = migrations.FS
		if migrationsPath != "" {
			src = os.DirFS(migrationsPath)
		}
		list, err := migration.ListMigrations(src)
		if err != nil {
			log.Fatal("Failed to list migrations", zap.Error(err))
		}
		if len(list) == 0 {
			log.Info("No migrations found", zap.String("path", migrationsPath))
			return
		}
		for _, m := range list {
			if m.Complete() {
				fmt.Println("  -", m)
			} else {
				fmt.Println("  -", m, "(incomplete pair)")
			}
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if cfg.Database.Driver != "postgres" {
		log.Fatal("SQL migrations target PostgreSQL; SQLite schemas are created on server start",
			zap.String("driver", cfg.Database.Driver))
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database", zap.Error(err))
	}

	src := migration.Source{Dir: migrationsPath, FS: migrations.FS}
	m, err := migration.New(db, src, log)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Error("Failed to close migrator", zap.Error(err))
		}
	}()

	if err := run(m, src, command, args[1:]); err != nil {
		log.Fatal("Migration command failed", zap.String("command", command), zap.Error(err))
	}
}

func run(m *migration.Migrator, src migration.Source, command string, args []string) error {
	switch command {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "step":
		n, err := intArg(args, "step <n>")
		if err != nil {
			return err
		}
		return m.Steps(n)
	case "goto":
		n, err := intArg(args, "goto <version>")
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("version must not be negative")
		}
		return m.GoTo(uint(n))
	case "force":
		n, err := intArg(args, "force <version>")
		if err != nil {
			return err
		}
		return m.Force(n)
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		fmt.Printf("version: %d\ndirty: %t\n", version, dirty)
		return nil
	case "status":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		files := src.FS
		if src.Dir != "" {
			files = os.DirFS(src.Dir)
		}
		list, err := migration.ListMigrations(files)
		if err != nil {
			return err
		}
		for _, st := range migration.Annotate(list, version, dirty) {
			mark := "pending"
			switch {
			case st.Dirty:
				mark = "dirty"
			case st.Applied:
				mark = "applied"
			}
			fmt.Printf("  %-8s %s\n", mark, st)
		}
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func intArg(args []string, usage string) (int, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("missing argument. Usage: migrate %s", usage)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", args[0], err)
	}
	return n, nil
}

func printUsage() {
	fmt.Fprint(os.Stderr, `FoodONtracks Database Migration Tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                     Apply all pending migrations
  down                   Roll back all migrations
  step <n>               Apply n migrations (negative rolls back)
  goto <version>         Migrate to a specific version
  version                Print the current version
  status                 Show each migration as applied, pending or dirty
  force <version>        Set the version without running migrations
  create <name> [desc]   Create a new migration pair in -path (default ./migrations)
  list                   List migrations in -path (default: the embedded set)

Flags:
  -path string           Read migrations from a directory instead of the embedded set
  -log-level string      Log level (default "info")

Database settings come from config.toml and FOT_DATABASE_* environment variables.
`)
}

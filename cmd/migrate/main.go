// Package main implements the database migration utility for the cloudsms service.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/qhosting/cloudsms/internal/config"
	"github.com/qhosting/cloudsms/internal/infrastructure/migrate"
)

const defaultMigrateSteps = 0

func main() {
	var (
		configPath     string
		migrationsPath string
		steps          int
	)

	flag.StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")
	flag.StringVar(&migrationsPath, "path", "", "Path to migrations directory (overrides database.migrations_path)")
	flag.IntVar(&steps, "steps", defaultMigrateSteps, "Number of migrations to apply or roll back; 0 applies all pending on up")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	args := flag.Args()
	if len(args) == 0 {
		logger.Fatal("Please specify a command: up, down, version or force <version>")
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		databaseURL = cfg.Database.GetURL()
	}
	if migrationsPath == "" {
		migrationsPath = cfg.Database.MigrationsPath
	}

	runner := migrate.NewRunner(&migrate.Config{
		DatabaseURL:    databaseURL,
		MigrationsPath: migrationsPath,
	}, logger)

	switch args[0] {
	case "up":
		if steps > 0 {
			err = runner.Steps(steps)
		} else {
			err = runner.Up()
		}
		if err != nil {
			logger.Fatal("Failed to run migrations up", zap.Error(err))
		}

	case "down":
		if steps <= 0 {
			steps = 1
		}
		if err := runner.Steps(-steps); err != nil {
			logger.Fatal("Failed to run migrations down", zap.Error(err))
		}

	case "force":
		if len(args) < 2 {
			logger.Fatal("force requires a version argument")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			logger.Fatal("Invalid version", zap.String("version", args[1]), zap.Error(err))
		}
		if err := runner.Force(version); err != nil {
			logger.Fatal("Failed to force version", zap.Error(err))
		}

	case "version":
		version, dirty, err := runner.Version()
		if err != nil {
			logger.Fatal("Failed to get version", zap.Error(err))
		}
		if dirty {
			fmt.Printf("Current version: %d (dirty)\n", version)
		} else {
			fmt.Printf("Current version: %d\n", version)
		}

	default:
		logger.Fatal("Unknown command. Use 'up', 'down', 'version' or 'force'", zap.String("command", args[0]))
	}
}

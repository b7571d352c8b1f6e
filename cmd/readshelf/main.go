package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/emilythestrangee/readshelf/backend/internal/config"
	"github.com/emilythestrangee/readshelf/backend/internal/database"
	"github.com/emilythestrangee/readshelf/backend/internal/logger"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "readshelf",
		Short:         "Readshelf social reading tracker API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "path to an optional .env file")

	root.AddCommand(serveCommand(&envFile), migrateCommand(&envFile))
	return root
}

// bootstrap loads configuration and opens the logger and database shared by
// every command.
func bootstrap(envFile string) (*config.Config, *zap.Logger, database.Service, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, nil, err
	}

	log, err := logger.New(cfg.App.Environment, cfg.App.LogLevel)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}

	db, err := database.New(cfg.Database, log)
	if err != nil {
		_ = log.Sync()
		return nil, nil, nil, err
	}
	return cfg, log, db, nil
}

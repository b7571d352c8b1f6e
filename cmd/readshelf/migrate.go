package main

import (
	"github.com/spf13/cobra"
)

func migrateCommand(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, log, db, err := bootstrap(*envFile)
			if err != nil {
				return err
			}
			defer log.Sync()
			defer db.Close()

			return db.Migrate(cmd.Context())
		},
	}
}

package main

import (
	"fmt"
	"strings"

	"github.com/rekorded/rekorded/src/infra/database"
	"github.com/spf13/cobra"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgManager, err := opts.loadConfig()
			if err != nil {
				return err
			}
			db := cfgManager.Get().Database
			store, err := database.NewSqliteStore(cmd.Context(), db.Driver, db.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			versions, err := store.SchemaVersions(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): %s\n", db.Path, db.Driver, strings.Join(versions, ", "))
			return nil
		},
	}
}

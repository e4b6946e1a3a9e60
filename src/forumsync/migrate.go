package forumsync

import (
	"context"
	"fmt"
	"time"

	"git.handmade.network/hmn/forumsync/src/logging"
	"git.handmade.network/hmn/forumsync/src/oops"
	"git.handmade.network/hmn/forumsync/src/persist"
	"git.handmade.network/hmn/forumsync/src/persist/types"
	"github.com/spf13/cobra"
)

// The zero version migrates to the newest migration.
var persistLatest = types.MigrationVersion{}

func init() {
	var listMigrations bool

	migrateCommand := &cobra.Command{
		Use:   "migrate [target migration id]",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logging.AttachLoggerToContext(logging.GlobalLogger(), context.Background())

			backend, err := persist.Open(ctx, cfg.Store)
			if err != nil {
				return err
			}
			if backend == nil {
				return oops.New(nil, "the %s store has no schema to migrate", cfg.Store.Driver)
			}
			defer backend.Close()

			if listMigrations {
				statuses, err := backend.ListMigrations(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, s := range statuses {
					marker := " "
					if s.Current {
						marker = "✔"
					} else if s.Applied {
						marker = "·"
					}
					fmt.Fprintf(out, "%s %v (%s: %s)\n", marker, s.Version, s.Name, s.Description)
				}
				return nil
			}

			target := persistLatest
			if len(args) > 0 {
				t, err := time.Parse(time.RFC3339, args[0])
				if err != nil {
					return oops.New(err, "bad version string")
				}
				target = types.MigrationVersion(t)
			}
			return backend.Migrate(ctx, target)
		},
	}
	migrateCommand.Flags().BoolVar(&listMigrations, "list", false, "List available migrations")
	ForumsyncCommand.AddCommand(migrateCommand)
}

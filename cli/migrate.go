package cli

import (
	"github.com/spf13/cobra"

	"ghlicense/db"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			version, err := db.Migrate(cfg.DB.URL())
			if err != nil {
				return err
			}
			printf(cmd, "schema at version %d\n", version)
			return nil
		},
	}
}

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ghlicense/cursor"
	"ghlicense/github"
	"ghlicense/models"
)

func newCursorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cursor",
		Short: "Inspect or replace the stored crawl cursor",
	}
	cmd.AddCommand(newCursorShowCmd(), newCursorSetCmd())
	return cmd
}

func newCursorShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stored crawl cursor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCursors(cmd, func(store *cursor.Store) error {
				c, ok, err := store.Load()
				if err != nil {
					return err
				}
				if !ok {
					printf(cmd, "no cursor stored\n")
					return nil
				}
				printf(cmd, "next_url=%s\nlast_repo_id=%d\nupdated_at=%s\n",
					c.NextURL, c.LastRepoID, c.UpdatedAt.Format(time.RFC3339))
				return nil
			})
		},
	}
}

func newCursorSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <url>",
		Short: "Replace the stored crawl cursor, even backwards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCursors(cmd, func(store *cursor.Store) error {
				c := models.Cursor{NextURL: args[0], LastRepoID: github.SinceOf(args[0])}
				if err := store.Override(c); err != nil {
					return err
				}
				printf(cmd, "cursor set to %s\n", c.NextURL)
				return nil
			})
		},
	}
}

// withCursors opens only the cursor file, so cursor commands work without a
// database.
func withCursors(cmd *cobra.Command, fn func(*cursor.Store) error) (err error) {
	cfg, err := configFrom(cmd)
	if err != nil {
		return err
	}
	store, err := cursor.Open(cfg.CursorDBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close cursor store: %w", closeErr)
		}
	}()
	return fn(store)
}

package main

import (
	"context"
	"fmt"

	"podcast-sync/pkg/domain"

	"github.com/spf13/cobra"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var tableOutput bool
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show stored episodes, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			defer ctx.syncLogger()

			store, err := ctx.openStore(cmd.Context(), cfg.Store)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close(context.Background())

			episodes, err := store.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list episodes: %w", err)
			}
			domain.SortNewestFirst(episodes)
			if limit > 0 && len(episodes) > limit {
				episodes = episodes[:limit]
			}

			asTable := tableOutput || (!jsonOutput && isTerminal(cmd.OutOrStdout()))
			if !asTable {
				if episodes == nil {
					episodes = []domain.Episode{}
				}
				return writeJSON(cmd, episodes)
			}
			if len(episodes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No episodes stored")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderEpisodes(episodes))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Always print JSON")
	cmd.Flags().BoolVar(&tableOutput, "table", false, "Always print a table")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most n episodes (0 shows all)")
	cmd.MarkFlagsMutuallyExclusive("json", "table")
	return cmd
}

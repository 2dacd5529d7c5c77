package main

import (
	"context"
	"fmt"
	"strings"

	"podcast-sync/pkg/config"
	"podcast-sync/pkg/replication"

	"github.com/spf13/cobra"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	var to string
	var overwrite bool
	var workers int

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy every stored episode into another store backend",
		Long: "Copy every stored episode from the configured backend into the backend named by --to.\n" +
			"The target uses the connection settings of the same [store] section. Episodes the\n" +
			"target already has are skipped unless --overwrite is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			defer ctx.syncLogger()

			targetCfg, err := migrationTarget(cfg, to)
			if err != nil {
				return err
			}

			source, err := ctx.openStore(cmd.Context(), cfg.Store)
			if err != nil {
				return fmt.Errorf("open source store: %w", err)
			}
			defer source.Close(context.Background())

			target, err := ctx.openStore(cmd.Context(), targetCfg.Store)
			if err != nil {
				return fmt.Errorf("open target store: %w", err)
			}
			defer target.Close(context.Background())

			r, err := replication.NewReplicator(replication.Config{
				Source:    source,
				Target:    target,
				Overwrite: overwrite,
				Workers:   workers,
				Logger:    logger,
			})
			if err != nil {
				return err
			}
			stats, err := r.Replicate(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Copied %d of %d episodes from %s to %s (%d already present)\n",
				stats.Copied, stats.Processed, cfg.Store.Backend, targetCfg.Store.Backend, stats.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Target backend (json, sqlite, mongo, postgres)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Re-copy episodes the target already has")
	cmd.Flags().IntVar(&workers, "workers", 0, "Parallel copy workers (default 4)")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

// migrationTarget returns a copy of cfg whose store points at the target backend
func migrationTarget(cfg *config.Config, to string) (*config.Config, error) {
	to = strings.ToLower(strings.TrimSpace(to))
	if to == cfg.Store.Backend {
		return nil, fmt.Errorf("target backend %q is the configured source backend", to)
	}
	target := *cfg
	target.Store.Backend = to
	if err := target.Validate(); err != nil {
		return nil, fmt.Errorf("target store: %w", err)
	}
	return &target, nil
}

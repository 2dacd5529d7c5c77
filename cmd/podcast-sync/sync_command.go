package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"podcast-sync/pkg/config"
	"podcast-sync/pkg/credential"
	"podcast-sync/pkg/httpclient"
	"podcast-sync/pkg/media"
	"podcast-sync/pkg/pipeline"
	"podcast-sync/pkg/provider"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch every episode of the configured profile and upsert it into the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireProfile(); err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			defer ctx.syncLogger()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := ctx.openStore(runCtx, cfg.Store)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close(context.Background())

			p, err := buildPipeline(cfg, store, logger)
			if err != nil {
				return err
			}
			res, err := p.Run(runCtx)
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, res.Episodes)
			}
			printSyncSummary(cmd, res)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the synced episodes as JSON")
	return cmd
}

// buildPipeline wires the provider clients, resolvers, and store into a pipeline
func buildPipeline(cfg *config.Config, store pipeline.EpisodeSaver, logger *zap.Logger) (*pipeline.Pipeline, error) {
	httpOpts := []httpclient.Option{
		httpclient.WithUserAgent(cfg.Provider.UserAgent),
		httpclient.WithTimeout(cfg.Timeout()),
	}
	browser := httpclient.NewClient(httpclient.BrowserClient, httpOpts...)
	api := httpclient.NewClient(httpclient.APIClient, httpOpts...)

	prov := provider.NewClient(api,
		provider.WithAPIBase(cfg.Provider.APIBase),
		provider.WithPageSize(cfg.Provider.PageSize),
		provider.WithLogger(logger),
	)
	creds := credential.NewResolver(credential.Config{
		ProfileURL:      cfg.Provider.ProfileURL,
		ScriptFragments: cfg.Provider.ScriptFragments,
		FallbackTokens:  cfg.Provider.FallbackTokens,
	}, browser, provider.NewProber(prov, cfg.Provider.ProfileURL), logger)

	var feed *media.FeedIndex
	if cfg.Provider.FeedURL != "" {
		feed = media.NewFeedIndex(cfg.Provider.FeedURL, browser)
	}

	return pipeline.New(pipeline.Config{
		ProfileURL:  cfg.Provider.ProfileURL,
		Credentials: creds,
		Owners:      prov,
		Items:       prov,
		Details:     prov,
		Media:       media.NewResolver(api, feed, logger),
		Store:       store,
		Logger:      logger,
	})
}

func printSyncSummary(cmd *cobra.Command, res *pipeline.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s for %s\n", res.RunID, res.Owner.Username)
	fmt.Fprintf(out, "Stored %d episodes, skipped %d not streamable, dropped %d (%s)\n",
		len(res.Episodes), res.Skipped, res.Failed, res.Elapsed.Round(time.Millisecond))
	if len(res.Episodes) == 0 {
		return
	}
	fmt.Fprintln(out, renderEpisodes(res.Episodes))
}

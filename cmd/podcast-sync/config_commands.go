package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"podcast-sync/pkg/config"

	"github.com/spf13/cobra"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the podcast-sync configuration",
	}
	configCmd.AddCommand(newConfigShowCommand(ctx), newConfigInitCommand())
	return configCmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (file, environment, and defaults merged)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			data, err := cfg.Marshal()
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			out := cmd.OutOrStdout()
			if ctx.configFound {
				fmt.Fprintf(out, "# loaded from %s\n", ctx.configPath)
			} else {
				fmt.Fprintln(out, "# no config file found, showing defaults")
			}
			_, err = out.Write(data)
			return err
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a podcast-sync.toml with default store, provider, and logging settings",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				target = config.DefaultFileName
			}
			cfg := config.Default()
			if err := writeDefaultConfig(target, cfg, overwrite); err != nil {
				return err
			}
			printInitHints(cmd.OutOrStdout(), target, cfg)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing configuration file")
	return cmd
}

// writeDefaultConfig encodes cfg to target. Without overwrite the file is created
// exclusively, so an existing configuration is never clobbered.
func writeDefaultConfig(target string, cfg config.Config, overwrite bool) error {
	data, err := cfg.Marshal()
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	file, err := os.OpenFile(target, flags, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
	}
	if err != nil {
		return fmt.Errorf("create config: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		return fmt.Errorf("write config: %w", err)
	}
	return file.Close()
}

func printInitHints(out io.Writer, target string, cfg config.Config) {
	fmt.Fprintf(out, "Wrote default configuration to %s\n", target)
	fmt.Fprintf(out, "Set provider.profile_url (or export %s) before running sync.\n", config.EnvProfileURL)
	if len(cfg.Provider.FallbackTokens) == 0 {
		fmt.Fprintln(out, "provider.fallback_tokens starts empty; add known client_id values to use when script discovery fails.")
	}
	fmt.Fprintf(out, "Episodes go to the %s store at %s.\n", cfg.Store.Backend, cfg.Store.Path)
}

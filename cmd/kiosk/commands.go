package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pders01/kiosk/internal/config"
	"github.com/pders01/kiosk/internal/search"
	"github.com/pders01/kiosk/internal/tui"
)

func newReindexCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the search index from the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			idx, err := search.OpenIndex(cfg.Database.SearchIndex)
			if err != nil {
				return err
			}
			defer idx.Close()

			n, err := idx.Reindex(cmd.Context(), store)
			if err != nil {
				return fmt.Errorf("reindex: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d items into %s\n", n, cfg.Database.SearchIndex)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			if short {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", tui.AppName, Version)
				return
			}
			theme := tui.NewTheme(config.Default().UI.Colors)
			fmt.Fprintln(cmd.OutOrStdout(), theme.VersionBanner(Version))
			fmt.Fprintln(cmd.OutOrStdout(), "github.com/pders01/kiosk")
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only name and version")
	return cmd
}

func newGenerateConfigCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "generate-config",
		Short: "Write the default configuration file",
		Long: `Write the default configuration to --config, or to
~/.config/kiosk/config.toml when no path is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := opts.configPath
			if path == "" {
				path = config.DefaultPath()
			}
			if err := config.GenerateDefaultConfig(path); err != nil {
				return fmt.Errorf("failed to generate config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated default configuration at: %s\n", path)
			return nil
		},
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"github.com/pders01/kiosk/internal/config"
	"github.com/pders01/kiosk/internal/content"
	"github.com/pders01/kiosk/internal/debuglog"
	"github.com/pders01/kiosk/internal/remote"
	"github.com/pders01/kiosk/internal/search"
	"github.com/pders01/kiosk/internal/storage"
	"github.com/pders01/kiosk/internal/tui"
	"github.com/pders01/kiosk/internal/validation"
)

// Version is the version of the application, set at build time
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	dbPath     string
	quiet      bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   tui.AppName,
		Short: "Browse a searchable collection of feed items",
		Long: `kiosk browses a collection of feed items in the terminal.

Type to search, cycle categories and page through results. The collection
is read from the local store or, with source.mode = "remote", from another
kiosk running "kiosk serve".`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if err := setupLogging(cfg); err != nil {
				return err
			}
			defer debuglog.Close()
			return runBrowser(cmd, cfg, opts.quiet)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	pf.StringVar(&opts.dbPath, "db", "", "Path to database file (overrides config)")
	pf.BoolVar(&opts.quiet, "quiet", false, "Skip banners and per-source output")

	root.AddCommand(
		newServeCmd(opts),
		newImportCmd(opts),
		newSourcesCmd(opts),
		newReindexCmd(opts),
		newVersionCmd(),
		newGenerateConfigCmd(opts),
	)
	return root
}

// load reads the configuration and applies the flag overrides. A --db
// path also moves the search index next to it.
func (o *globalOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if o.dbPath != "" {
		db, err := validation.NewPermissivePathValidator().Clean(o.dbPath)
		if err != nil {
			return nil, fmt.Errorf("invalid --db: %w", err)
		}
		cfg.Database.Path = db
		cfg.Database.SearchIndex = strings.TrimSuffix(db, filepath.Ext(db)) + ".bleve"
	}
	return cfg, nil
}

func setupLogging(cfg *config.Config) error {
	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.Path); err != nil {
		return fmt.Errorf("setting up log: %w", err)
	}
	return nil
}

func runBrowser(cmd *cobra.Command, cfg *config.Config, quiet bool) error {
	if !quiet {
		fmt.Fprintln(cmd.OutOrStdout(), tui.NewTheme(cfg.UI.Colors).VersionBanner(Version))
	}

	repo, closeRepo, err := openRepository(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	app := tui.NewApp(repo, cfg)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running browser: %w", err)
	}
	return nil
}

// openRepository returns the content source selected by source.mode.
func openRepository(ctx context.Context, cfg *config.Config) (content.Repository, func(), error) {
	if cfg.Source.Mode == config.SourceRemote {
		client, err := remote.NewClient(cfg.Source.RemoteURL,
			remote.WithTimeout(cfg.Source.HTTPTimeout),
			remote.WithUserAgent(cfg.Source.UserAgent),
		)
		if err != nil {
			return nil, nil, err
		}
		if err := client.Health(ctx); err != nil {
			return nil, nil, fmt.Errorf("remote collection at %s unreachable: %w", cfg.Source.RemoteURL, err)
		}
		debuglog.Infof("browsing remote collection at %s", cfg.Source.RemoteURL)
		return client, func() {}, nil
	}

	store, repo, err := openLocal(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return repo, func() {
		repo.Close()
		store.Close()
	}, nil
}

// openStore opens the database, creating its directory on first use.
func openStore(cfg *config.Config) (*storage.Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return storage.NewStore(cfg.Database.Path, cfg.Database.Timeout)
}

// openLocal opens the store and the search repository over it.
func openLocal(ctx context.Context, cfg *config.Config) (*storage.Store, search.Repository, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	repo, err := search.Open(ctx, cfg.Database.SearchIndex, store)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return store, repo, nil
}

package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pders01/kiosk/internal/config"
	"github.com/pders01/kiosk/internal/debuglog"
	"github.com/pders01/kiosk/internal/ingest"
	"github.com/pders01/kiosk/internal/search"
	"github.com/pders01/kiosk/internal/storage"
	"github.com/pders01/kiosk/internal/tui"
)

func newImportCmd(opts *globalOptions) *cobra.Command {
	var (
		force        bool
		save         bool
		allowPrivate bool
		category     string
	)

	cmd := &cobra.Command{
		Use:   "import [url...]",
		Short: "Fetch feeds into the local collection",
		Long: `Import fetches the given feed URLs into the local store and search index.

Without URLs it refreshes every known source: the entries of the sources
file plus every source imported before.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if err := setupLogging(cfg); err != nil {
				return err
			}
			defer debuglog.Close()

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			index, closeIndex := openIndexer(cmd.ErrOrStderr(), cfg)
			defer closeIndex()

			im := ingest.NewImporter(store, index, cfg)
			im.SetForceRefresh(force)
			im.SetPermissiveValidation(allowPrivate)

			var report *ingest.Report
			if len(args) > 0 {
				entries := make([]ingest.SourceEntry, 0, len(args))
				for _, u := range args {
					entries = append(entries, ingest.SourceEntry{URL: u, Category: category})
				}
				report, err = im.Import(cmd.Context(), entries)
				if err == nil && save {
					err = saveSources(cfg.Ingest.SourcesFile, report)
				}
			} else {
				report, err = importKnown(cmd, im, store, cfg)
			}
			if report != nil && !opts.quiet {
				printReport(cmd.OutOrStdout(), tui.NewTheme(cfg.UI.Colors), report)
			}
			if err != nil {
				return err
			}

			if failed := len(report.Failed()); failed > 0 {
				return fmt.Errorf("%d of %d sources failed", failed, len(report.Results))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&force, "force", "f", false, "Ignore ETag and Last-Modified and fetch everything")
	f.BoolVar(&save, "save", false, "Add the given URLs to the sources file")
	f.BoolVar(&allowPrivate, "allow-private", false, "Allow feeds on localhost and private networks")
	f.StringVarP(&category, "category", "c", "", "Category for every item of the given feeds")
	return cmd
}

// importKnown refreshes the sources file entries together with the stored
// sources. With no sources file it refreshes the store alone.
func importKnown(cmd *cobra.Command, im *ingest.Importer, store *storage.Store, cfg *config.Config) (*ingest.Report, error) {
	listed, err := ingest.LoadSources(cfg.Ingest.SourcesFile)
	if err != nil {
		return nil, err
	}
	if len(listed) == 0 {
		return im.Refresh(cmd.Context())
	}

	stored, err := store.AllSources()
	if err != nil {
		return nil, fmt.Errorf("getting sources: %w", err)
	}
	entries := make([]ingest.SourceEntry, 0, len(stored))
	for _, s := range stored {
		entries = append(entries, ingest.SourceEntry{URL: s.URL, Title: s.Title, Category: s.Category})
	}
	return im.Import(cmd.Context(), ingest.MergeSources(listed, entries))
}

// saveSources adds the successfully imported URLs to the sources file.
func saveSources(path string, report *ingest.Report) error {
	if path == "" {
		return errors.New("no sources file configured (ingest.sources_file)")
	}
	existing, err := ingest.LoadSources(path)
	if err != nil {
		return err
	}

	var add []ingest.SourceEntry
	for _, res := range report.Results {
		if res.Err == nil {
			add = append(add, ingest.SourceEntry{URL: res.URL})
		}
	}
	return ingest.SaveSources(path, ingest.MergeSources(existing, add))
}

// openIndexer opens the search index for writing. When it is unavailable,
// for example while a browser holds it, the import only writes the store.
func openIndexer(stderr io.Writer, cfg *config.Config) (search.Indexer, func()) {
	idx, err := search.OpenIndex(cfg.Database.SearchIndex)
	if err != nil {
		fmt.Fprintf(stderr, "search index unavailable, run `kiosk reindex` later: %v\n", err)
		return nil, func() {}
	}
	return idx, func() { idx.Close() }
}

func printReport(w io.Writer, theme tui.Theme, report *ingest.Report) {
	for _, res := range report.Results {
		name := res.Title
		if name == "" {
			name = res.URL
		}
		switch {
		case res.Err != nil:
			fmt.Fprintf(w, "%s %s: %v\n", theme.StatusError.Render("✗"), res.URL, res.Err)
		case res.NotModified:
			fmt.Fprintf(w, "%s %s (not modified)\n", theme.StatusInfo.Render("·"), name)
		default:
			fmt.Fprintf(w, "%s %s (%d items)\n", theme.StatusOK.Render("✓"), name, res.Items)
		}
	}
	fmt.Fprintf(w, "%d items from %d sources\n", report.Items(), len(report.Results)-len(report.Failed()))
}

func newSourcesCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List imported sources",
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

			sources, err := store.AllSources()
			if err != nil {
				return fmt.Errorf("getting sources: %w", err)
			}
			if len(sources) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sources yet. Add one with `kiosk import <url>`.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TITLE\tCATEGORY\tITEMS\tLAST FETCHED\tURL")
			for _, s := range sources {
				items, err := store.ItemsBySource(s.ID)
				if err != nil {
					return fmt.Errorf("getting items of %s: %w", s.URL, err)
				}
				fetched := "never"
				if !s.LastFetched.IsZero() {
					fetched = s.LastFetched.Local().Format("2006-01-02 15:04")
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", s.Title, s.Category, len(items), fetched, s.URL)
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(newRemoveCmd(opts))
	return cmd
}

func newRemoveCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <url>",
		Short: "Remove a source and its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			index, closeIndex := openIndexer(cmd.ErrOrStderr(), cfg)
			defer closeIndex()

			im := ingest.NewImporter(store, index, cfg)
			im.SetPermissiveValidation(true)
			n, err := im.RemoveURL(cmd.Context(), args[0])
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("no source with URL %s", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s and %d items\n", args[0], n)
			return nil
		},
	}
}

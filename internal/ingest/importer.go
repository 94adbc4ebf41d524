package ingest

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pders01/kiosk/internal/config"
	"github.com/pders01/kiosk/internal/debuglog"
	"github.com/pders01/kiosk/internal/plugins"
	"github.com/pders01/kiosk/internal/plugins/builtin"
	"github.com/pders01/kiosk/internal/search"
	"github.com/pders01/kiosk/internal/storage"
	"github.com/pders01/kiosk/internal/validation"
)

const maxFeedBytes = 32 << 20

// Result describes the import of one source.
type Result struct {
	SourceID    string
	URL         string
	Title       string
	Items       int
	NotModified bool
	Err         error
}

type Report struct {
	Results []Result
}

// Items is the number of items saved across all sources.
func (r *Report) Items() int {
	n := 0
	for _, res := range r.Results {
		n += res.Items
	}
	return n
}

func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// Err joins the per-source failures, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, res := range r.Failed() {
		errs = append(errs, fmt.Errorf("%s: %w", res.URL, res.Err))
	}
	return errors.Join(errs...)
}

// Importer fetches feeds into the store and keeps the search index in step.
type Importer struct {
	store    *storage.Store
	index    search.Indexer
	fetcher  *Fetcher
	parser   *Parser
	urls     *validation.URLValidator
	resolver *plugins.Registry
	workers  int
	fallback string
	now      func() time.Time
}

// NewImporter wires an importer from cfg. index may be nil when only the
// store should be written.
func NewImporter(store *storage.Store, index search.Indexer, cfg *config.Config) *Importer {
	workers := cfg.Ingest.Workers
	if workers < 1 {
		workers = 1
	}
	return &Importer{
		store:    store,
		index:    index,
		fetcher:  NewFetcher(cfg.Source.HTTPTimeout, cfg.Source.UserAgent),
		parser:   NewParser(),
		urls:     validation.NewURLValidator(),
		resolver: builtin.NewRegistry(cfg.Source.HTTPTimeout),
		workers:  workers,
		fallback: cfg.Ingest.DefaultCategory,
		now:      time.Now,
	}
}

// SetForceRefresh makes the next imports ignore ETag and Last-Modified.
func (im *Importer) SetForceRefresh(force bool) {
	im.fetcher.SetIgnoreCache(force)
}

// SetPermissiveValidation allows localhost and private network feeds.
func (im *Importer) SetPermissiveValidation(permissive bool) {
	if permissive {
		im.urls = validation.NewPermissiveURLValidator()
	} else {
		im.urls = validation.NewURLValidator()
	}
}

// SetRegistry replaces the plugins that map site URLs to feeds.
func (im *Importer) SetRegistry(r *plugins.Registry) {
	im.resolver = r
}

// SourceID is the stable key of a feed URL.
func SourceID(normalizedURL string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(normalizedURL)))
}

// Import fetches every entry with at most the configured number of workers.
// Failures of single sources are reported in the Report; the error is only
// set when ctx ends or bookkeeping fails.
func (im *Importer) Import(ctx context.Context, entries []SourceEntry) (*Report, error) {
	report := &Report{Results: make([]Result, len(entries))}
	if len(entries) == 0 {
		return report, nil
	}

	var g errgroup.Group
	g.SetLimit(im.workers)
	for i := range entries {
		g.Go(func() error {
			report.Results[i] = im.importOne(ctx, entries[i])
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return report, err
	}

	if len(report.Failed()) < len(entries) {
		if err := im.store.SetMeta(storage.MetaLastImport, im.now().UTC().Format(time.RFC3339)); err != nil {
			return report, fmt.Errorf("recording import time: %w", err)
		}
	}

	debuglog.WithFields(map[string]any{
		"sources": len(entries),
		"items":   report.Items(),
		"failed":  len(report.Failed()),
	}).Infof("import finished")
	return report, nil
}

// Refresh re-imports every source already in the store.
func (im *Importer) Refresh(ctx context.Context) (*Report, error) {
	sources, err := im.store.AllSources()
	if err != nil {
		return nil, fmt.Errorf("getting sources: %w", err)
	}
	entries := make([]SourceEntry, len(sources))
	for i, s := range sources {
		entries[i] = SourceEntry{URL: s.URL, Title: s.Title, Category: s.Category}
	}
	return im.Import(ctx, entries)
}

// RemoveSource deletes a source with its items from the store and index.
func (im *Importer) RemoveSource(id string) (int, error) {
	if _, err := im.store.GetSource(id); err != nil {
		return 0, err
	}
	removed, err := im.store.DeleteSource(id)
	if err != nil {
		return 0, fmt.Errorf("deleting source: %w", err)
	}
	if im.index != nil {
		if err := im.index.Delete(removed...); err != nil {
			return len(removed), fmt.Errorf("updating index: %w", err)
		}
	}
	return len(removed), nil
}

// RemoveURL removes the source imported from rawURL, which may be the feed
// itself or a page a plugin resolved to it.
func (im *Importer) RemoveURL(ctx context.Context, rawURL string) (int, error) {
	normalized, err := im.urls.Normalize(rawURL)
	if err != nil {
		return 0, fmt.Errorf("invalid feed URL: %w", err)
	}
	n, err := im.RemoveSource(SourceID(normalized))
	if !errors.Is(err, storage.ErrNotFound) {
		return n, err
	}

	feedURL, _, rerr := im.resolve(ctx, normalized)
	if rerr != nil || feedURL == normalized {
		return 0, err
	}
	return im.RemoveSource(SourceID(feedURL))
}

// resolve maps a normalized URL to the feed behind it.
func (im *Importer) resolve(ctx context.Context, normalized string) (string, *plugins.FeedInfo, error) {
	info, err := im.resolver.Resolve(ctx, normalized)
	if err != nil {
		return "", nil, fmt.Errorf("resolving feed: %w", err)
	}
	if info.FeedURL == normalized {
		return normalized, info, nil
	}
	feedURL, err := im.urls.Normalize(info.FeedURL)
	if err != nil {
		return "", nil, fmt.Errorf("invalid feed URL: %w", err)
	}
	return feedURL, info, nil
}

func (im *Importer) importOne(ctx context.Context, e SourceEntry) Result {
	res := Result{URL: e.URL}

	normalized, err := im.urls.Normalize(e.URL)
	if err != nil {
		res.Err = fmt.Errorf("invalid feed URL: %w", err)
		return res
	}
	normalized, info, err := im.resolve(ctx, normalized)
	if err != nil {
		res.Err = err
		return res
	}
	res.URL = normalized
	res.SourceID = SourceID(normalized)

	src, err := im.store.GetSource(res.SourceID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		src = &storage.Source{ID: res.SourceID, URL: normalized}
	case err != nil:
		res.Err = err
		return res
	}
	if e.Title != "" {
		src.Title = e.Title
	}
	if e.Category != "" {
		src.Category = e.Category
	}

	log := debuglog.WithFields(map[string]any{"source": normalized})

	resp, updated, err := im.fetcher.Fetch(ctx, src)
	if err != nil {
		res.Err = err
		log.Warnf("fetch failed: %v", err)
		return res
	}
	if !updated {
		src.LastFetched = im.now()
		res.Title = src.Title
		res.NotModified = true
		if err := im.store.SaveSource(src); err != nil {
			res.Err = fmt.Errorf("saving source: %w", err)
		}
		log.Debugf("not modified")
		return res
	}
	defer resp.Body.Close()

	fallback := im.fallback
	if info.Category != "" {
		fallback = info.Category
	}
	parsed, err := im.parser.Parse(io.LimitReader(resp.Body, maxFeedBytes), src.ID, src.Category, fallback)
	if err != nil {
		res.Err = err
		return res
	}

	if src.Title == "" {
		src.Title = info.Title
	}
	if src.Title == "" {
		src.Title = parsed.Title
	}
	if src.Title == "" {
		src.Title = hostOf(normalized)
	}
	im.fetcher.UpdateMetadata(src, resp)
	src.UpdatedAt = im.now()

	if err := im.store.SaveSource(src); err != nil {
		res.Err = fmt.Errorf("saving source: %w", err)
		return res
	}
	if err := im.store.SaveItems(src.ID, parsed.Items); err != nil {
		res.Err = fmt.Errorf("saving items: %w", err)
		return res
	}
	if im.index != nil {
		if err := im.index.Index(parsed.Items); err != nil {
			res.Err = fmt.Errorf("indexing items: %w", err)
			return res
		}
	}

	res.Title = src.Title
	res.Items = len(parsed.Items)
	log.Infof("imported %d items", res.Items)
	return res
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "Unknown Feed"
	}
	return u.Host
}

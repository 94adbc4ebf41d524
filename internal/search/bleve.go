package search

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/pders01/kiosk/internal/content"
	"github.com/pders01/kiosk/internal/debuglog"
)

const (
	categoryFacet = "category"
	docField      = "doc"
	facetSize     = 1000
)

// Index is a bleve full text index over content items. It implements
// content.Repository.
type Index struct {
	idx bleve.Index
}

// OpenIndex opens the index at path, creating it when missing.
func OpenIndex(path string) (*Index, error) {
	idx, err := bleve.Open(path)
	if err == nil {
		return &Index{idx: idx}, nil
	}

	if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
		return nil, fmt.Errorf("create index directory: %w", mkErr)
	}
	idx, err = bleve.New(path, buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index %s: %w", path, err)
	}
	return &Index{idx: idx}, nil
}

// NewMemIndex returns an index that lives only in memory.
func NewMemIndex() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, err
	}
	return &Index{idx: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name
	im.StoreDynamic = false
	im.IndexDynamic = false
	im.DocValuesDynamic = false

	text := func(store bool) *mapping.FieldMapping {
		f := bleve.NewTextFieldMapping()
		f.Analyzer = standard.Name
		f.Store = store
		f.IncludeTermVectors = false
		return f
	}

	title := text(false)
	title.IncludeTermVectors = true

	category := bleve.NewTextFieldMapping()
	category.Analyzer = keyword.Name
	category.Store = false
	category.DocValues = true
	category.IncludeInAll = false

	published := bleve.NewDateTimeFieldMapping()
	published.Store = false
	published.IncludeInAll = false

	raw := bleve.NewTextFieldMapping()
	raw.Index = false
	raw.Store = true
	raw.IncludeInAll = false
	raw.DocValues = false

	dm := bleve.NewDocumentMapping()
	dm.Dynamic = false
	dm.AddFieldMappingsAt("title", title)
	dm.AddFieldMappingsAt("excerpt", text(false))
	dm.AddFieldMappingsAt("tags", text(false))
	dm.AddFieldMappingsAt("body", text(false))
	dm.AddFieldMappingsAt("category", category)
	dm.AddFieldMappingsAt("published", published)
	dm.AddFieldMappingsAt(docField, raw)

	im.DefaultMapping = dm
	return im
}

func document(it content.Item) (map[string]any, error) {
	raw, err := json.Marshal(it)
	if err != nil {
		return nil, err
	}
	doc := map[string]any{
		"title":    it.Title,
		"excerpt":  it.Excerpt,
		"tags":     it.Tags,
		"body":     it.Body,
		"category": it.Category,
		docField:   string(raw),
	}
	if !it.Published.IsZero() {
		doc["published"] = it.Published
	}
	return doc, nil
}

// Index adds or replaces items in one batch.
func (x *Index) Index(items []content.Item) error {
	batch := x.idx.NewBatch()
	for i := range items {
		doc, err := document(items[i])
		if err != nil {
			return fmt.Errorf("encode item %s: %w", items[i].ID, err)
		}
		if err := batch.Index(items[i].ID, doc); err != nil {
			return fmt.Errorf("index item %s: %w", items[i].ID, err)
		}
	}
	return x.idx.Batch(batch)
}

func (x *Index) Delete(ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	batch := x.idx.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	return x.idx.Batch(batch)
}

// Reindex makes the index mirror src: every item is re-indexed and documents
// that src no longer has are dropped.
func (x *Index) Reindex(ctx context.Context, src ItemSource) (int, error) {
	items, err := src.AllItems()
	if err != nil {
		return 0, fmt.Errorf("load items: %w", err)
	}

	keep := make(map[string]struct{}, len(items))
	for i := range items {
		keep[items[i].ID] = struct{}{}
	}

	existing, err := x.docIDs(ctx)
	if err != nil {
		return 0, err
	}
	var stale []string
	for _, id := range existing {
		if _, ok := keep[id]; !ok {
			stale = append(stale, id)
		}
	}

	if err := x.Delete(stale...); err != nil {
		return 0, fmt.Errorf("drop stale documents: %w", err)
	}
	if err := x.Index(items); err != nil {
		return 0, err
	}

	debuglog.WithFields(map[string]any{
		"indexed": len(items),
		"dropped": len(stale),
	}).Infof("reindex complete")
	return len(items), nil
}

func (x *Index) docIDs(ctx context.Context) ([]string, error) {
	n, err := x.idx.DocCount()
	if err != nil || n == 0 {
		return nil, err
	}
	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), int(n), 0, false)
	res, err := x.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	ids := make([]string, len(res.Hits))
	for i, h := range res.Hits {
		ids[i] = h.ID
	}
	return ids, nil
}

func (x *Index) DocCount() (int, error) {
	n, err := x.idx.DocCount()
	return int(n), err
}

func (x *Index) Close() error {
	return x.idx.Close()
}

// Search runs q against the index. Items come back newest first, or by
// relevance when a term is given. AvailableCategories counts the items that
// match the term across every category, so the caller can show what a
// category switch would yield.
func (x *Index) Search(ctx context.Context, q content.Query) (*content.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	term := strings.TrimSpace(q.SearchTerm)
	if term != "" && len([]rune(term)) < MinTermLength {
		return &content.Response{Items: []content.Item{}, AvailableCategories: []content.CategoryCount{}}, nil
	}

	base := textQuery(term)

	facetReq := bleve.NewSearchRequestOptions(base, 0, 0, false)
	facetReq.AddFacet(categoryFacet, bleve.NewFacetRequest("category", facetSize))
	facetRes, err := x.idx.SearchInContext(ctx, facetReq)
	if err != nil {
		return nil, fmt.Errorf("category facet: %w", err)
	}

	filtered := base
	if q.Category != "" {
		cq := bleve.NewTermQuery(q.Category)
		cq.SetField("category")
		filtered = bleve.NewConjunctionQuery(base, cq)
	}

	req := bleve.NewSearchRequestOptions(filtered, effectiveLimit(q.Limit), 0, false)
	req.Fields = []string{docField}
	if term != "" {
		req.SortBy([]string{"-_score", "-published", "_id"})
	} else {
		req.SortBy([]string{"-published", "_id"})
	}
	res, err := x.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	items := make([]content.Item, 0, len(res.Hits))
	for _, h := range res.Hits {
		raw, ok := h.Fields[docField].(string)
		if !ok {
			continue
		}
		var it content.Item
		if err := json.Unmarshal([]byte(raw), &it); err != nil {
			debuglog.Warnf("skip undecodable document %s: %v", h.ID, err)
			continue
		}
		items = append(items, it)
	}

	return &content.Response{
		Items:               items,
		AvailableCategories: facetCounts(facetRes),
	}, nil
}

// textQuery ORs a boosted match and prefix query per token across the text
// fields. An empty term matches everything.
func textQuery(term string) bleveQuery.Query {
	if term == "" {
		return bleve.NewMatchAllQuery()
	}
	tokens := tokenize(term)
	if len(tokens) == 0 {
		return bleve.NewMatchNoneQuery()
	}

	fields := []struct {
		name        string
		match, pref float64
	}{
		{"title", 4.0, 3.5},
		{"excerpt", 2.0, 1.8},
		{"tags", 1.5, 1.2},
		{"body", 1.0, 0.8},
	}

	var qs []bleveQuery.Query
	for _, tok := range tokens {
		for _, f := range fields {
			m := bleve.NewMatchQuery(tok)
			m.SetField(f.name)
			m.SetBoost(f.match)
			p := bleve.NewPrefixQuery(tok)
			p.SetField(f.name)
			p.SetBoost(f.pref)
			qs = append(qs, m, p)
		}
	}
	return bleve.NewDisjunctionQuery(qs...)
}

func facetCounts(res *bleve.SearchResult) []content.CategoryCount {
	out := []content.CategoryCount{}
	if res == nil {
		return out
	}
	fr, ok := res.Facets[categoryFacet]
	if !ok || fr == nil || fr.Terms == nil {
		return out
	}
	for _, t := range fr.Terms.Terms() {
		if t.Term == "" {
			continue
		}
		out = append(out, content.CategoryCount{Name: t.Term, Count: t.Count})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

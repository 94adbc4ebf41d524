package search

import (
	"time"

	"github.com/pders01/kiosk/internal/content"
)

type sliceSource []content.Item

func (s sliceSource) AllItems() ([]content.Item, error) {
	out := make([]content.Item, len(s))
	copy(out, s)
	return out, nil
}

var day = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

func corpus() []content.Item {
	return []content.Item{
		{ID: "n1", Title: "Release notes for Go 1.24", Excerpt: "What changed in the toolchain", Category: "News", Tags: []string{"golang"}, Published: day},
		{ID: "n2", Title: "Market report", Excerpt: "Stocks rallied", Category: "News", Published: day.Add(-1 * time.Hour)},
		{ID: "n3", Title: "Weather outlook", Excerpt: "Sunny all week", Category: "News", Published: day.Add(-2 * time.Hour)},
		{ID: "f1", Title: "Recipe of the week", Excerpt: "Slow roasted tomatoes", Category: "Food", Tags: []string{"recipes"}, Published: day.Add(-3 * time.Hour)},
		{ID: "f2", Title: "Bread basics", Excerpt: "Flour, water, salt", Category: "Food", Published: day.Add(-4 * time.Hour)},
		{ID: "t1", Title: "Bleve in practice", Excerpt: "Full text search for Go", Category: "Tech", Tags: []string{"golang", "search"}, Body: "Indexing and faceting with bleve.", Published: day.Add(-5 * time.Hour)},
	}
}

func ids(items []content.Item) []string {
	out := make([]string, len(items))
	for i := range items {
		out[i] = items[i].ID
	}
	return out
}

func countOf(cats []content.CategoryCount, name string) int {
	for _, c := range cats {
		if c.Name == name {
			return c.Count
		}
	}
	return 0
}

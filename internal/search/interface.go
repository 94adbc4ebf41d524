package search

import "github.com/pders01/kiosk/internal/content"

// ItemSource supplies the full collection for scanning and reindexing.
// *storage.Store satisfies it.
type ItemSource interface {
	AllItems() ([]content.Item, error)
}

// Indexer keeps an external index in step with the store.
type Indexer interface {
	Index(items []content.Item) error
	Delete(ids ...string) error
}

// DocCounter reports how many documents an engine holds.
type DocCounter interface {
	DocCount() (int, error)
}

const (
	// MinTermLength matches the browser's validation rule; shorter terms
	// return nothing.
	MinTermLength = 2
	// DefaultLimit applies when a query carries no limit.
	DefaultLimit = 200
	// MaxLimit caps what a single query may ask for.
	MaxLimit = 1000
)

func effectiveLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultLimit
	case n > MaxLimit:
		return MaxLimit
	default:
		return n
	}
}

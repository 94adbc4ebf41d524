package content

import (
	"context"
	"errors"
	"time"
)

// AllCategory is the synthetic category that selects every item.
const AllCategory = "All"

// ErrSuperseded is returned (or wrapped) by a Repository when an operation
// was abandoned because a newer one replaced it.
var ErrSuperseded = errors.New("operation superseded")

type Item struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Excerpt   string    `json:"excerpt"`
	Category  string    `json:"category"`
	Tags      []string  `json:"tags"`
	Published time.Time `json:"published_date"`
	Image     string    `json:"image"`
	URL       string    `json:"url,omitempty"`
	Body      string    `json:"body,omitempty"`
}

type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Query describes a single search against a Repository. An empty SearchTerm
// means no text filter and an empty Category means every category.
type Query struct {
	Limit      int    `json:"limit"`
	SearchTerm string `json:"searchTerm,omitempty"`
	Category   string `json:"category,omitempty"`
}

// Unfiltered reports whether q selects the whole collection.
func (q Query) Unfiltered() bool {
	return q.SearchTerm == "" && q.Category == ""
}

type Response struct {
	Items               []Item          `json:"items"`
	AvailableCategories []CategoryCount `json:"available_categories"`
}

// Repository is the content source the browser queries.
type Repository interface {
	Search(ctx context.Context, q Query) (*Response, error)
}

// CategoryParam maps the "All" sentinel to the empty category used in a Query.
func CategoryParam(name string) string {
	if name == AllCategory {
		return ""
	}
	return name
}

// IsSuperseded reports whether err means the operation was replaced rather
// than failed.
func IsSuperseded(err error) bool {
	return errors.Is(err, ErrSuperseded) || errors.Is(err, context.Canceled)
}

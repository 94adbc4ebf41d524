package storage

import (
	"time"

	"github.com/pders01/kiosk/internal/content"
)

// Source is a feed kiosk imports items from. ETag and LastModified drive
// conditional requests on the next import.
type Source struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	Category     string    `json:"category"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"last_modified"`
	LastFetched  time.Time `json:"last_fetched"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// record is the stored form of an item.
type record struct {
	content.Item
	SourceID string `json:"source_id,omitempty"`
}

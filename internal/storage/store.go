package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/pders01/kiosk/internal/content"
)

var ErrNotFound = errors.New("not found")

var (
	itemsBucket   = []byte("items")
	sourcesBucket = []byte("sources")
	metaBucket    = []byte("metadata")
)

// Metadata keys.
const (
	MetaLastImport = "last_import"
	MetaIndexedAt  = "indexed_at"
)

type Store struct {
	db *bolt.DB
}

// NewStore opens or creates the database at dbPath. timeout bounds the wait
// for the file lock held by another kiosk process; zero means one second.
func NewStore(dbPath string, timeout time.Duration) (*Store, error) {
	if timeout <= 0 {
		timeout = time.Second
	}
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{itemsBucket, sourcesBucket, metaBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.db.Path()
}

func (s *Store) SaveSource(src *Source) error {
	if src.ID == "" {
		return fmt.Errorf("source has no id")
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(src)
		if err != nil {
			return err
		}
		return tx.Bucket(sourcesBucket).Put([]byte(src.ID), data)
	})
}

func (s *Store) GetSource(id string) (*Source, error) {
	var src Source
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(sourcesBucket).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("source %s: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &src)
	})
	if err != nil {
		return nil, err
	}
	return &src, nil
}

// AllSources returns every source ordered by title, falling back to URL.
func (s *Store) AllSources() ([]*Source, error) {
	var sources []*Source
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(sourcesBucket).ForEach(func(_, v []byte) error {
			var src Source
			if err := json.Unmarshal(v, &src); err != nil {
				return err
			}
			sources = append(sources, &src)
			return nil
		})
	})
	sort.Slice(sources, func(i, j int) bool {
		return strings.ToLower(sourceLabel(sources[i])) < strings.ToLower(sourceLabel(sources[j]))
	})
	return sources, err
}

func sourceLabel(s *Source) string {
	if s.Title != "" {
		return s.Title
	}
	return s.URL
}

// DeleteSource removes a source and every item imported from it. It returns
// the removed item IDs so the search index can drop them too.
func (s *Store) DeleteSource(id string) ([]string, error) {
	var removed []string
	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(sourcesBucket).Delete([]byte(id)); err != nil {
			return err
		}

		c := tx.Bucket(itemsBucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var rec record
			if err := json.Unmarshal(v, &rec); err != nil {
				continue
			}
			if rec.SourceID != id {
				continue
			}
			if err := c.Delete(); err != nil {
				return err
			}
			removed = append(removed, string(k))
		}
		return nil
	})
	return removed, err
}

// SaveItems upserts items in one transaction. sourceID may be empty for
// items that did not come from a feed.
func (s *Store) SaveItems(sourceID string, items []content.Item) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(itemsBucket)
		for i := range items {
			if items[i].ID == "" {
				return fmt.Errorf("item %q has no id", items[i].Title)
			}
			data, err := json.Marshal(record{Item: items[i], SourceID: sourceID})
			if err != nil {
				return err
			}
			if err := b.Put([]byte(items[i].ID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) GetItem(id string) (content.Item, error) {
	var rec record
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(itemsBucket).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("item %s: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &rec)
	})
	return rec.Item, err
}

// AllItems returns every item, newest first. Undecodable records are skipped.
func (s *Store) AllItems() ([]content.Item, error) {
	return s.items(func(record) bool { return true })
}

// ItemsBySource returns the items imported from one source, newest first.
func (s *Store) ItemsBySource(sourceID string) ([]content.Item, error) {
	return s.items(func(r record) bool { return r.SourceID == sourceID })
}

func (s *Store) items(keep func(record) bool) ([]content.Item, error) {
	var items []content.Item
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(itemsBucket).ForEach(func(_, v []byte) error {
			var rec record
			if err := json.Unmarshal(v, &rec); err != nil {
				return nil
			}
			if keep(rec) {
				items = append(items, rec.Item)
			}
			return nil
		})
	})
	SortNewestFirst(items)
	return items, err
}

// SortNewestFirst orders items by publication date, newest first, breaking
// ties by ID so the order is stable across calls.
func SortNewestFirst(items []content.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Published.Equal(items[j].Published) {
			return items[i].Published.After(items[j].Published)
		}
		return items[i].ID < items[j].ID
	})
}

// CountCategories tallies items per category, ordered by name. Items without
// a category are not counted.
func CountCategories(items []content.Item) []content.CategoryCount {
	counts := make(map[string]int)
	for i := range items {
		if items[i].Category == "" {
			continue
		}
		counts[items[i].Category]++
	}

	out := make([]content.CategoryCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, content.CategoryCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Count returns the number of stored items.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(itemsBucket).Stats().KeyN
		return nil
	})
	return n, err
}

func (s *Store) SetMeta(key, value string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(metaBucket).Put([]byte(key), []byte(value))
	})
}

// Meta returns the value stored under key, or "" when unset.
func (s *Store) Meta(key string) (string, error) {
	var value string
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(metaBucket).Get([]byte(key)); v != nil {
			value = string(v)
		}
		return nil
	})
	return value, err
}

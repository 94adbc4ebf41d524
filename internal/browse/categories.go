package browse

import (
	"errors"

	"github.com/pders01/kiosk/internal/content"
)

// ErrCacheFrozen is returned when the baseline counts are loaded twice.
var ErrCacheFrozen = errors.New("category counts already loaded")

// CategoryCache holds the per-category counts captured from the first
// unfiltered load. It is written once and only read afterwards, so later
// filtering can never change the numbers shown next to each category.
type CategoryCache struct {
	entries []content.CategoryCount
	index   map[string]int
	total   int
	loaded  bool
}

func NewCategoryCache() *CategoryCache {
	return &CategoryCache{index: make(map[string]int)}
}

// Load freezes counts as the baseline. Duplicate names are merged and an
// entry named "All" is ignored since that total is derived.
func (c *CategoryCache) Load(counts []content.CategoryCount) error {
	if c.loaded {
		return ErrCacheFrozen
	}

	for _, cc := range counts {
		if cc.Name == "" || cc.Name == content.AllCategory {
			continue
		}
		if i, ok := c.index[cc.Name]; ok {
			c.entries[i].Count += cc.Count
		} else {
			c.index[cc.Name] = len(c.entries)
			c.entries = append(c.entries, cc)
		}
		c.total += cc.Count
	}

	c.loaded = true
	return nil
}

func (c *CategoryCache) Loaded() bool {
	return c.loaded
}

// Count returns the baseline count for name. "All" is the sum over every
// cached category; unknown names count zero.
func (c *CategoryCache) Count(name string) int {
	if name == content.AllCategory {
		return c.total
	}
	if i, ok := c.index[name]; ok {
		return c.entries[i].Count
	}
	return 0
}

// Categories returns a copy of the baseline with "All" first.
func (c *CategoryCache) Categories() []content.CategoryCount {
	out := make([]content.CategoryCount, 0, len(c.entries)+1)
	out = append(out, content.CategoryCount{Name: content.AllCategory, Count: c.total})
	return append(out, c.entries...)
}

package browse

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pders01/kiosk/internal/content"
)

// fakeRepo is an in-memory content source that filters like the real one.
type fakeRepo struct {
	mu    sync.Mutex
	items []content.Item
	fail  error
	calls []content.Query
}

func newFakeRepo(items []content.Item) *fakeRepo {
	return &fakeRepo{items: items}
}

func (r *fakeRepo) Search(ctx context.Context, q content.Query) (*content.Response, error) {
	r.mu.Lock()
	r.calls = append(r.calls, q)
	fail := r.fail
	r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if fail != nil {
		return nil, fail
	}

	term := strings.ToLower(q.SearchTerm)
	counts := map[string]int{}
	var order []string
	var out []content.Item
	for _, it := range r.items {
		if term != "" && !strings.Contains(strings.ToLower(it.Title), term) {
			continue
		}
		if _, ok := counts[it.Category]; !ok {
			order = append(order, it.Category)
		}
		counts[it.Category]++
		if q.Category != "" && it.Category != q.Category {
			continue
		}
		if q.Limit > 0 && len(out) >= q.Limit {
			continue
		}
		out = append(out, it)
	}

	cats := make([]content.CategoryCount, 0, len(order))
	for _, name := range order {
		cats = append(cats, content.CategoryCount{Name: name, Count: counts[name]})
	}
	return &content.Response{Items: out, AvailableCategories: cats}, nil
}

func (r *fakeRepo) setFail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = err
}

func (r *fakeRepo) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// makeItems builds n items per category, in the order given.
func makeItems(pairs ...any) []content.Item {
	var items []content.Item
	for i := 0; i+1 < len(pairs); i += 2 {
		cat := pairs[i].(string)
		n := pairs[i+1].(int)
		for j := 0; j < n; j++ {
			items = append(items, content.Item{
				ID:       fmt.Sprintf("%s-%d", strings.ToLower(cat), j),
				Slug:     fmt.Sprintf("%s-story-%d", strings.ToLower(cat), j),
				Title:    fmt.Sprintf("%s story %d", cat, j),
				Category: cat,
			})
		}
	}
	return items
}

func ids(items []content.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

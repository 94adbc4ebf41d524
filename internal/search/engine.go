package search

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/pders01/kiosk/internal/content"
	"github.com/pders01/kiosk/internal/storage"
)

// Engine answers queries by scanning every item from its source. It needs no
// index and serves as the fallback when the bleve index cannot be opened.
type Engine struct {
	src ItemSource
}

func NewEngine(src ItemSource) *Engine {
	return &Engine{src: src}
}

type scored struct {
	item  content.Item
	score float64
}

// Search implements content.Repository with the same filtering rules as
// Index: the term narrows the set, categories are counted on the narrowed
// set, then the category filter and limit apply.
func (e *Engine) Search(ctx context.Context, q content.Query) (*content.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	term := strings.TrimSpace(q.SearchTerm)
	if term != "" && len([]rune(term)) < MinTermLength {
		return &content.Response{Items: []content.Item{}, AvailableCategories: []content.CategoryCount{}}, nil
	}

	all, err := e.src.AllItems()
	if err != nil {
		return nil, err
	}

	terms := tokenize(term)
	var matched []scored
	for i := range all {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if term == "" {
			matched = append(matched, scored{item: all[i]})
			continue
		}
		if s := scoreItem(&all[i], terms); s > 0 {
			matched = append(matched, scored{item: all[i], score: s})
		}
	}

	if term != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].score > matched[j].score
		})
	}

	narrowed := make([]content.Item, len(matched))
	for i := range matched {
		narrowed[i] = matched[i].item
	}
	cats := storage.CountCategories(narrowed)
	sort.SliceStable(cats, func(i, j int) bool { return cats[i].Count > cats[j].Count })

	limit := effectiveLimit(q.Limit)
	items := make([]content.Item, 0, min(limit, len(narrowed)))
	for i := range narrowed {
		if len(items) == limit {
			break
		}
		if q.Category != "" && narrowed[i].Category != q.Category {
			continue
		}
		items = append(items, narrowed[i])
	}

	return &content.Response{Items: items, AvailableCategories: cats}, nil
}

// DocCount reports the size of the scanned collection.
func (e *Engine) DocCount() (int, error) {
	all, err := e.src.AllItems()
	return len(all), err
}

func scoreItem(it *content.Item, terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}
	score := scoreField(it.Title, terms, 4.0) +
		scoreField(it.Excerpt, terms, 2.0) +
		scoreField(strings.Join(it.Tags, " "), terms, 1.5) +
		scoreField(it.Body, terms, 1.0)
	return score
}

// scoreField rewards whole-word matches over prefix, suffix and substring
// matches, with a bonus when several terms hit the same field.
func scoreField(text string, terms []string, weight float64) float64 {
	if text == "" {
		return 0
	}

	words := tokenize(text)
	if len(words) == 0 {
		return 0
	}

	var score float64
	matched := 0
	for _, term := range terms {
		for _, w := range words {
			switch {
			case w == term:
				score += 1.5
				matched++
			case strings.HasPrefix(w, term):
				score += 1.0
				matched++
			case strings.Contains(w, term):
				score += 0.5
				matched++
			}
		}
	}
	if matched == 0 {
		return 0
	}

	if len(terms) > 1 && matched > 1 {
		score *= 1.0 + float64(matched)/float64(len(terms))
	}
	tf := float64(matched) / float64(len(words))
	score *= 1.0 + math.Log(1.0+tf)

	return score * weight
}

// tokenize lowercases text and splits it on anything that is not a letter or
// digit. Single characters are dropped.
func tokenize(text string) []string {
	var terms []string
	var current strings.Builder

	flush := func() {
		if t := current.String(); len([]rune(t)) > 1 {
			terms = append(terms, t)
		}
		current.Reset()
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
		} else if current.Len() > 0 {
			flush()
		}
	}
	flush()

	return terms
}

package browse

import (
	"context"

	"github.com/pders01/kiosk/internal/content"
	"github.com/pders01/kiosk/internal/debuglog"
)

const (
	DefaultPageSize = 10
	DefaultLimit    = 200
)

// Options configures a Controller.
type Options struct {
	PageSize int
	Limit    int
}

// View is a read-only snapshot for the presentation layer.
type View struct {
	Results          []content.Item
	AllResults       []content.Item
	TotalPages       int
	CurrentPage      int
	Categories       []content.CategoryCount
	SearchTerm       string
	SelectedCategory string
	Querying         bool
	ValidationError  error
	LastError        error
	State            State
}

// Controller owns the search term, selected category, committed results and
// page. It is not safe for concurrent use; drive it from one event loop and
// run Handles elsewhere, feeding their settlements back through Apply.
type Controller struct {
	gate  *Gate
	cache *CategoryCache

	pageSize int
	limit    int

	state       State
	searchTerm  string
	category    string
	results     []content.Item
	page        int
	validateErr error
	lastErr     error
	closed      bool

	baselineGen uint64
}

func NewController(repo content.Repository, opts Options) *Controller {
	if opts.PageSize < 1 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Limit < 1 {
		opts.Limit = DefaultLimit
	}
	return &Controller{
		gate:     NewGate(repo.Search),
		cache:    NewCategoryCache(),
		pageSize: opts.PageSize,
		limit:    opts.Limit,
		state:    StateIdle,
		category: content.AllCategory,
		page:     1,
	}
}

// Load issues the initial unfiltered query. Its response freezes the baseline
// category counts. Later requests do not cancel it: if the user filters before
// it settles, its items are discarded but its counts still seed the cache.
func (c *Controller) Load(ctx context.Context) *Handle {
	c.transition(EventInput)
	c.transition(EventValid)
	h := c.gate.IssueDetached(ctx, c.query())
	c.baselineGen = h.Generation
	return h
}

// SubmitSearch applies text as the search term. A one character term is
// rejected without a request; an empty term clears the text filter.
func (c *Controller) SubmitSearch(ctx context.Context, text string) (*Handle, error) {
	c.transition(EventInput)

	term := SanitizeSearchInput(text)
	if err := ValidateSearchTerm(term); err != nil {
		c.validateErr = err
		c.transition(EventInvalid)
		debuglog.Debugf("search rejected: %v", err)
		return nil, err
	}

	c.transition(EventValid)
	c.setFilters(term, c.category)
	return c.issue(ctx), nil
}

// SelectCategory filters by name, keeping the current search term.
func (c *Controller) SelectCategory(ctx context.Context, name string) *Handle {
	if name == "" {
		name = content.AllCategory
	}
	c.transition(EventInput)
	c.transition(EventValid)
	c.setFilters(c.searchTerm, name)
	return c.issue(ctx)
}

// ClearFilters resets term and category and reloads the whole collection.
func (c *Controller) ClearFilters(ctx context.Context) *Handle {
	c.transition(EventInput)
	c.transition(EventValid)
	c.setFilters("", content.AllCategory)
	return c.issue(ctx)
}

// GoToPage moves within the committed results. It never queries.
func (c *Controller) GoToPage(n int) {
	c.page = Paginate(c.results, c.pageSize, n).Page
}

// NextPage and PrevPage step one page, staying in range.
func (c *Controller) NextPage() { c.GoToPage(c.page + 1) }
func (c *Controller) PrevPage() { c.GoToPage(c.page - 1) }

// Apply feeds a settlement back into the controller and reports how it was
// classified. Only the current generation can change visible state.
func (c *Controller) Apply(s Settlement) Outcome {
	if c.closed {
		return OutcomeIgnored
	}

	if s.Generation == c.baselineGen && s.Err == nil && s.Response != nil && s.Query.Unfiltered() {
		c.seedCategories(s.Response.AvailableCategories)
	}

	outcome := c.gate.Settle(s)
	switch outcome {
	case OutcomeAccepted:
		c.commit(s)
	case OutcomeFailed:
		c.lastErr = s.Err
		c.transition(EventFailed)
	case OutcomeIgnored:
		if !c.gate.Pending() && c.state == StateQuerying {
			// Current request was itself superseded at the source.
			c.transition(EventFailed)
		}
	}
	return outcome
}

// Acknowledge returns a Committed or Rejected controller to Idle.
func (c *Controller) Acknowledge() {
	c.transition(EventAck)
}

// DismissError clears the transient transport error.
func (c *Controller) DismissError() {
	c.lastErr = nil
}

// Close supersedes any outstanding request so no late settlement can touch
// state. The controller ignores everything after Close.
func (c *Controller) Close() {
	c.gate.Supersede()
	c.closed = true
	c.results = nil
	c.transition(EventTeardown)
}

// Count returns the baseline count for a category.
func (c *Controller) Count(name string) int {
	return c.cache.Count(name)
}

func (c *Controller) Snapshot() View {
	p := Paginate(c.results, c.pageSize, c.page)
	return View{
		Results:          p.Items,
		AllResults:       c.results,
		TotalPages:       p.TotalPages,
		CurrentPage:      p.Page,
		Categories:       c.cache.Categories(),
		SearchTerm:       c.searchTerm,
		SelectedCategory: c.category,
		Querying:         c.gate.Pending(),
		ValidationError:  c.validateErr,
		LastError:        c.lastErr,
		State:            c.state,
	}
}

func (c *Controller) State() State { return c.state }

func (c *Controller) setFilters(term, category string) {
	if term != c.searchTerm || category != c.category {
		c.page = 1
	}
	c.searchTerm = term
	c.category = category
	c.validateErr = nil
}

func (c *Controller) issue(ctx context.Context) *Handle {
	return c.gate.Issue(ctx, c.query())
}

func (c *Controller) query() content.Query {
	return content.Query{
		Limit:      c.limit,
		SearchTerm: c.searchTerm,
		Category:   content.CategoryParam(c.category),
	}
}

// seedCategories freezes the baseline counts the first time an unfiltered
// response arrives.
func (c *Controller) seedCategories(cats []content.CategoryCount) {
	if c.cache.Loaded() {
		return
	}
	if err := c.cache.Load(cats); err != nil {
		debuglog.Errorf("loading category counts: %v", err)
	}
}

func (c *Controller) commit(s Settlement) {
	items := make([]content.Item, len(s.Response.Items))
	copy(items, s.Response.Items)

	c.results = items
	c.page = 1
	c.lastErr = nil
	c.transition(EventAccepted)

	if s.Query.Unfiltered() {
		c.seedCategories(s.Response.AvailableCategories)
	}

	debuglog.Debugf("committed gen=%d items=%d", s.Generation, len(items))
}

func (c *Controller) transition(e Event) {
	next := Next(c.state, e)
	if next != c.state {
		debuglog.Debugf("state %s -[%s]-> %s", c.state, e, next)
	}
	c.state = next
}

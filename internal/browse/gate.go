package browse

import (
	"context"
	"fmt"
	"sync"

	"github.com/pders01/kiosk/internal/content"
	"github.com/pders01/kiosk/internal/debuglog"
)

// Outcome classifies a settled request.
type Outcome int

const (
	// OutcomeIgnored means the request was superseded; nothing observable happens.
	OutcomeIgnored Outcome = iota
	OutcomeAccepted
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeAccepted:
		return "accepted"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FetchFunc performs one query against the content source.
type FetchFunc func(ctx context.Context, q content.Query) (*content.Response, error)

// Settlement is the result of running a Handle.
type Settlement struct {
	Generation uint64
	Query      content.Query
	Response   *content.Response
	Err        error
}

// Handle is an issued request. Run may be called from any goroutine; it only
// reads the handle's own fields.
type Handle struct {
	Generation uint64
	Query      content.Query

	ctx   context.Context
	fetch FetchFunc
	done  context.CancelFunc
}

// Run performs the fetch and reports its settlement. A fetch that panics
// settles with an error instead of unwinding into the caller.
func (h *Handle) Run() (s Settlement) {
	s = Settlement{Generation: h.Generation, Query: h.Query}
	if h.done != nil {
		defer h.done()
	}
	defer func() {
		if r := recover(); r != nil {
			s.Response = nil
			s.Err = fmt.Errorf("search panic: %v", r)
		}
	}()

	if err := h.ctx.Err(); err != nil {
		s.Err = err
		return s
	}

	resp, err := h.fetch(h.ctx, h.Query)
	if err != nil {
		s.Err = fmt.Errorf("search: %w", err)
		return s
	}
	if resp == nil {
		resp = &content.Response{}
	}
	s.Response = resp
	return s
}

// Gate sequences requests so only the most recently issued one can ever be
// accepted. Older requests have their context canceled and their settlements
// are ignored whenever they arrive.
type Gate struct {
	fetch FetchFunc

	mu         sync.Mutex
	generation uint64
	pending    bool
	cancel     context.CancelFunc
	detached   context.CancelFunc
}

func NewGate(fetch FetchFunc) *Gate {
	return &Gate{fetch: fetch}
}

// Issue starts a new generation for q and cancels the outstanding one.
func (g *Gate) Issue(ctx context.Context, q content.Query) *Handle {
	g.mu.Lock()
	defer g.mu.Unlock()

	h := g.issueLocked(ctx, q)
	g.cancel = h.done
	h.done = nil
	return h
}

// IssueDetached is Issue for a request whose response is still wanted after
// a newer issue supersedes it, such as the initial load that seeds the
// baseline category counts. Later issues do not cancel it; Supersede does.
func (g *Gate) IssueDetached(ctx context.Context, q content.Query) *Handle {
	g.mu.Lock()
	defer g.mu.Unlock()

	h := g.issueLocked(ctx, q)
	g.cancel = nil
	if g.detached != nil {
		g.detached()
	}
	g.detached = h.done
	return h
}

func (g *Gate) issueLocked(ctx context.Context, q content.Query) *Handle {
	if g.cancel != nil {
		g.cancel()
	}

	g.generation++
	reqCtx, cancel := context.WithCancel(ctx)
	g.pending = true

	debuglog.WithFields(map[string]interface{}{
		"gen":      g.generation,
		"term":     q.SearchTerm,
		"category": q.Category,
		"limit":    q.Limit,
	}).Debugf("issue query")

	return &Handle{
		Generation: g.generation,
		Query:      q,
		ctx:        reqCtx,
		fetch:      g.fetch,
		done:       cancel,
	}
}

// Settle decides what a settlement means for visible state.
func (g *Gate) Settle(s Settlement) Outcome {
	g.mu.Lock()
	defer g.mu.Unlock()

	if s.Generation != g.generation {
		debuglog.Debugf("discard stale settlement gen=%d current=%d", s.Generation, g.generation)
		return OutcomeIgnored
	}

	g.pending = false
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}

	switch {
	case s.Err == nil:
		return OutcomeAccepted
	case content.IsSuperseded(s.Err):
		debuglog.Debugf("settlement gen=%d superseded: %v", s.Generation, s.Err)
		return OutcomeIgnored
	default:
		debuglog.Warnf("query gen=%d failed: %v", s.Generation, s.Err)
		return OutcomeFailed
	}
}

// Supersede invalidates the outstanding generation without starting a new
// request. Used on teardown.
func (g *Gate) Supersede() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.generation++
	g.pending = false
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	if g.detached != nil {
		g.detached()
		g.detached = nil
	}
}

// Current returns the generation a settlement must carry to be accepted.
func (g *Gate) Current() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.generation
}

// Pending reports whether the current generation is still in flight.
func (g *Gate) Pending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending
}

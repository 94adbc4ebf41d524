package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/pders01/kiosk/internal/content"
	"github.com/pders01/kiosk/internal/debuglog"
	"github.com/pders01/kiosk/internal/storage"
)

const maxLimit = 1000

// ItemGetter looks up a single item. *storage.Store satisfies it.
type ItemGetter interface {
	GetItem(id string) (content.Item, error)
}

type handler struct {
	repo  content.Repository
	items ItemGetter
}

// NewRouter exposes repo over HTTP:
//
//	GET /api/search?limit=&q=&category=
//	GET /api/items/{id}
//	GET /healthz
//
// items may be nil, in which case item lookups answer 404.
func NewRouter(repo content.Repository, items ItemGetter) chi.Router {
	h := &handler{repo: repo, items: items}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/search", h.search)
		r.Get("/items/{id}", h.item)
	})
	return r
}

type searchParams struct {
	Limit    int
	Term     string
	Category string
}

func (p *searchParams) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Limit, validation.Min(0), validation.Max(maxLimit)),
		validation.Field(&p.Term, validation.RuneLength(2, 256)),
		validation.Field(&p.Category, validation.RuneLength(0, 256)),
	)
}

func (h *handler) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	p := searchParams{Term: q.Get("q"), Category: content.CategoryParam(q.Get("category"))}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("limit must be an integer"))
			return
		}
		p.Limit = n
	}
	if err := p.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	res, err := h.repo.Search(r.Context(), content.Query{
		Limit:      p.Limit,
		SearchTerm: p.Term,
		Category:   p.Category,
	})
	switch {
	case err == nil:
	case content.IsSuperseded(err):
		// client went away
		return
	default:
		debuglog.Errorf("search %q/%q failed: %v", p.Term, p.Category, err)
		writeJSON(w, http.StatusInternalServerError, errorBody("search failed"))
		return
	}

	out := content.Response{
		Items:               make([]content.Item, len(res.Items)),
		AvailableCategories: res.AvailableCategories,
	}
	// listings carry summaries; bodies come from /api/items/{id}
	for i, it := range res.Items {
		it.Body = ""
		out.Items[i] = it
	}
	if out.AvailableCategories == nil {
		out.AvailableCategories = []content.CategoryCount{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) item(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if h.items == nil {
		writeJSON(w, http.StatusNotFound, errorBody("item not found"))
		return
	}

	it, err := h.items.GetItem(id)
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody("item not found"))
		return
	}
	if err != nil {
		debuglog.Errorf("get item %s: %v", id, err)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		debuglog.Errorf("json encode failed: %v", err)
	}
}

type errResponse struct {
	Error string `json:"error"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		debuglog.WithFields(map[string]any{
			"req":      middleware.GetReqID(r.Context()),
			"status":   ww.Status(),
			"bytes":    ww.BytesWritten(),
			"duration": time.Since(start).Round(time.Microsecond),
		}).Infof("%s %s", r.Method, r.URL.RequestURI())
	})
}

// Serve runs handler on addr until ctx is canceled, then shuts down
// gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		debuglog.Infof("listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

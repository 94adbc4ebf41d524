package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pders01/kiosk/internal/content"
	"github.com/pders01/kiosk/internal/validation"
)

const (
	defaultUserAgent = "kiosk/1.0 (https://github.com/pders01/kiosk)"
	defaultTimeout   = 15 * time.Second
	maxBodyBytes     = 16 << 20
)

// ErrNotFound is returned by Item for unknown IDs.
var ErrNotFound = errors.New("not found")

// StatusError is a non-2xx answer from the server.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d", e.Code)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Message)
}

// Client is a content.Repository backed by another kiosk's HTTP API.
type Client struct {
	base      *url.URL
	http      *http.Client
	userAgent string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient validates baseURL and returns a client for it. Loopback and
// private addresses are allowed since a kiosk server usually runs nearby.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	normalized, err := validation.NewPermissiveURLValidator().Normalize(baseURL)
	if err != nil {
		return nil, fmt.Errorf("remote url: %w", err)
	}
	u, err := url.Parse(strings.TrimRight(normalized, "/"))
	if err != nil {
		return nil, fmt.Errorf("remote url: %w", err)
	}

	c := &Client{
		base:      u,
		http:      &http.Client{Timeout: defaultTimeout},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Search implements content.Repository. Cancellation of ctx aborts the
// request and surfaces as context.Canceled.
func (c *Client) Search(ctx context.Context, q content.Query) (*content.Response, error) {
	params := url.Values{}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.SearchTerm != "" {
		params.Set("q", q.SearchTerm)
	}
	if q.Category != "" {
		params.Set("category", q.Category)
	}

	var res content.Response
	if err := c.get(ctx, "/api/search", params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Item fetches one item by ID.
func (c *Client) Item(ctx context.Context, id string) (content.Item, error) {
	var it content.Item
	err := c.get(ctx, "/api/items/"+url.PathEscape(id), nil, &it)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return it, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	return it, err
}

// Health checks that the server answers.
func (c *Client) Health(ctx context.Context) error {
	var body map[string]string
	return c.get(ctx, "/healthz", nil, &body)
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body := io.LimitReader(resp.Body, maxBodyBytes)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e errResponse
		_ = json.NewDecoder(body).Decode(&e)
		return &StatusError{Code: resp.StatusCode, Message: e.Error}
	}

	if err := json.NewDecoder(body).Decode(out); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

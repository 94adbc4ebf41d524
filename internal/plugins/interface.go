package plugins

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"
)

// FeedInfo is what a plugin learned about a URL the user wants to import.
type FeedInfo struct {
	// OriginalURL is the URL as given
	OriginalURL string
	// FeedURL is the address of the actual feed, e.g. a subreddit's .rss
	FeedURL string
	// Title replaces the host name when the feed carries no title
	Title string
	// Category is suggested for items of the feed
	Category string
	Metadata map[string]string
}

// Plugin turns site URLs into the feed URLs behind them.
type Plugin interface {
	Name() string

	// CanHandle reports whether the plugin understands u.
	CanHandle(u *url.URL) bool

	// Resolve returns the feed behind u. It may use client to look
	// things up, e.g. a channel id on a profile page.
	Resolve(ctx context.Context, u *url.URL, client *http.Client) (*FeedInfo, error)

	// Priority orders plugins that handle the same URL; higher wins.
	Priority() int
}

// Registry manages all registered plugins
type Registry struct {
	plugins []Plugin
	client  *http.Client
}

func NewRegistry(timeout time.Duration) *Registry {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Registry{
		plugins: make([]Plugin, 0),
		client:  &http.Client{Timeout: timeout},
	}
}

// SetHTTPClient replaces the client handed to plugins.
func (r *Registry) SetHTTPClient(c *http.Client) {
	r.client = c
}

func (r *Registry) Register(plugins ...Plugin) {
	r.plugins = append(r.plugins, plugins...)
}

// FindPlugin returns the plugin with the highest priority that can handle
// rawURL, or nil.
func (r *Registry) FindPlugin(rawURL string) Plugin {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	return r.find(u)
}

func (r *Registry) find(u *url.URL) Plugin {
	var best Plugin
	highest := -1
	for _, p := range r.plugins {
		if p.CanHandle(u) && p.Priority() > highest {
			best = p
			highest = p.Priority()
		}
	}
	return best
}

// Resolve maps rawURL to its feed. URLs no plugin handles are returned
// unchanged.
func (r *Registry) Resolve(ctx context.Context, rawURL string) (*FeedInfo, error) {
	passthrough := &FeedInfo{
		OriginalURL: rawURL,
		FeedURL:     rawURL,
		Metadata:    make(map[string]string),
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return passthrough, nil
	}
	p := r.find(u)
	if p == nil {
		return passthrough, nil
	}

	info, err := p.Resolve(ctx, u, r.client)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.Name(), err)
	}
	info.OriginalURL = rawURL
	if info.Metadata == nil {
		info.Metadata = make(map[string]string)
	}
	info.Metadata["plugin"] = p.Name()
	return info, nil
}

// ListPlugins returns the registered plugins by descending priority.
func (r *Registry) ListPlugins() []Plugin {
	out := append([]Plugin(nil), r.plugins...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority() > out[j].Priority() })
	return out
}

package builtin

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pders01/kiosk/internal/plugins"
)

// RedditPlugin maps subreddit and user pages to their RSS feeds.
type RedditPlugin struct{}

func NewRedditPlugin() *RedditPlugin {
	return &RedditPlugin{}
}

func (p *RedditPlugin) Name() string {
	return "reddit"
}

func (p *RedditPlugin) Priority() int {
	return 50
}

func (p *RedditPlugin) CanHandle(u *url.URL) bool {
	if !isRedditHost(u.Hostname()) {
		return false
	}
	kind, name := redditTarget(u.Path)
	return kind != "" && name != "" && !strings.HasSuffix(u.Path, ".rss")
}

func (p *RedditPlugin) Resolve(_ context.Context, u *url.URL, _ *http.Client) (*plugins.FeedInfo, error) {
	kind, name := redditTarget(u.Path)
	if name == "" {
		return nil, fmt.Errorf("no subreddit or user in %s", u.Path)
	}

	prefix, key := "r/", "subreddit"
	if kind != "r" {
		kind, prefix, key = "user", "u/", "user"
	}
	return &plugins.FeedInfo{
		FeedURL:  fmt.Sprintf("https://www.reddit.com/%s/%s/.rss", kind, name),
		Title:    "Reddit - " + prefix + name,
		Category: "Reddit",
		Metadata: map[string]string{key: name},
	}, nil
}

func isRedditHost(host string) bool {
	host = strings.ToLower(host)
	return host == "reddit.com" || strings.HasSuffix(host, ".reddit.com")
}

// redditTarget splits "/r/golang/top" into ("r", "golang").
func redditTarget(path string) (kind, name string) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 {
		return "", ""
	}
	switch parts[0] {
	case "r", "user", "u":
		return parts[0], strings.TrimSuffix(parts[1], ".rss")
	}
	return "", ""
}

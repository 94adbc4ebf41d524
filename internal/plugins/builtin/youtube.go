package builtin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pders01/kiosk/internal/plugins"
)

const (
	youtubeFeedBase = "https://www.youtube.com/feeds/videos.xml"
	maxPageBytes    = 4 << 20
)

var errNoChannel = errors.New("no channel feed found on page")

// YouTubePlugin maps channel, handle and playlist pages to the uploads feed.
// Channel ids and playlists are mapped directly; handles need the channel
// page to learn the id.
type YouTubePlugin struct{}

func NewYouTubePlugin() *YouTubePlugin {
	return &YouTubePlugin{}
}

func (p *YouTubePlugin) Name() string {
	return "youtube"
}

func (p *YouTubePlugin) Priority() int {
	return 50
}

func (p *YouTubePlugin) CanHandle(u *url.URL) bool {
	host := strings.ToLower(u.Hostname())
	if host != "youtube.com" && !strings.HasSuffix(host, ".youtube.com") {
		return false
	}
	path := strings.Trim(u.Path, "/")
	switch {
	case strings.HasPrefix(path, "feeds/"):
		return false
	case path == "playlist":
		return u.Query().Get("list") != ""
	case strings.HasPrefix(path, "@"),
		strings.HasPrefix(path, "channel/"),
		strings.HasPrefix(path, "c/"),
		strings.HasPrefix(path, "user/"):
		return true
	}
	return false
}

func (p *YouTubePlugin) Resolve(ctx context.Context, u *url.URL, client *http.Client) (*plugins.FeedInfo, error) {
	path := strings.Trim(u.Path, "/")

	if path == "playlist" {
		list := u.Query().Get("list")
		return &plugins.FeedInfo{
			FeedURL:  youtubeFeedBase + "?playlist_id=" + url.QueryEscape(list),
			Category: "Video",
			Metadata: map[string]string{"playlist_id": list},
		}, nil
	}

	if id, ok := strings.CutPrefix(path, "channel/"); ok {
		id, _, _ = strings.Cut(id, "/")
		return channelFeed(id, ""), nil
	}

	return p.resolvePage(ctx, u, client)
}

// resolvePage reads the channel page and takes the feed from its alternate
// link, falling back to the channel id meta tag.
func (p *YouTubePlugin) resolvePage(ctx context.Context, u *url.URL, client *http.Client) (*plugins.FeedInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept-Language", "en")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching channel page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching channel page: HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("parsing channel page: %w", err)
	}

	title, _ := doc.Find(`meta[property="og:title"]`).Attr("content")

	if href, ok := doc.Find(`link[rel="alternate"][type="application/rss+xml"]`).Attr("href"); ok && href != "" {
		feed, err := u.Parse(href)
		if err != nil {
			return nil, fmt.Errorf("bad feed link %q: %w", href, err)
		}
		return &plugins.FeedInfo{
			FeedURL:  feed.String(),
			Title:    youtubeTitle(title),
			Category: "Video",
			Metadata: map[string]string{"channel_id": feed.Query().Get("channel_id")},
		}, nil
	}

	if id, ok := doc.Find(`meta[itemprop="identifier"], meta[itemprop="channelId"]`).Attr("content"); ok && id != "" {
		return channelFeed(id, title), nil
	}
	return nil, errNoChannel
}

func channelFeed(id, title string) *plugins.FeedInfo {
	return &plugins.FeedInfo{
		FeedURL:  youtubeFeedBase + "?channel_id=" + url.QueryEscape(id),
		Title:    youtubeTitle(title),
		Category: "Video",
		Metadata: map[string]string{"channel_id": id},
	}
}

func youtubeTitle(channel string) string {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return ""
	}
	return "YouTube - " + channel
}

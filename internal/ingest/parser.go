package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"html"
	"io"
	"path"
	"strings"
	"unicode"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/pders01/kiosk/internal/content"
	"github.com/pders01/kiosk/internal/debuglog"
)

const (
	excerptLength = 280
	maxSlugLength = 80
)

// Parsed is one decoded feed.
type Parsed struct {
	Title string
	Items []content.Item
}

type Parser struct {
	parser *gofeed.Parser
	strict *bluemonday.Policy
}

func NewParser() *Parser {
	return &Parser{
		parser: gofeed.NewParser(),
		strict: bluemonday.StrictPolicy(),
	}
}

// Parse decodes an RSS, Atom or JSON feed into items. category is the
// source's assigned category; when empty each item takes its first feed
// category, then fallback.
func (p *Parser) Parse(reader io.Reader, sourceID, category, fallback string) (*Parsed, error) {
	feed, err := p.parser.Parse(reader)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	out := &Parsed{
		Title: strings.TrimSpace(feed.Title),
		Items: make([]content.Item, 0, len(feed.Items)),
	}
	seen := make(map[string]bool, len(feed.Items))

	for _, fi := range feed.Items {
		key := itemKey(fi)
		if key == "" {
			debuglog.Debugf("skip feed item without guid, link or title in %s", sourceID)
			continue
		}
		id := generateID(sourceID, key)
		if seen[id] {
			continue
		}
		seen[id] = true

		tags := cleanTags(fi.Categories)
		it := content.Item{
			ID:       id,
			Title:    p.plainText(fi.Title),
			Slug:     Slugify(fi.Title),
			Category: pickCategory(category, tags, fallback),
			Tags:     tags,
			URL:      fi.Link,
			Image:    findImage(fi),
		}
		if it.Slug == "" {
			it.Slug = id
		}

		summary := fi.Description
		if summary == "" {
			summary = fi.Content
		}
		it.Excerpt = truncateRunes(p.plainText(summary), excerptLength)
		it.Body = toMarkdown(getContent(fi))

		if fi.PublishedParsed != nil {
			it.Published = fi.PublishedParsed.UTC()
		} else if fi.UpdatedParsed != nil {
			it.Published = fi.UpdatedParsed.UTC()
		}

		out.Items = append(out.Items, it)
	}

	return out, nil
}

func getContent(item *gofeed.Item) string {
	if item.Content != "" {
		return item.Content
	}
	return item.Description
}

func itemKey(item *gofeed.Item) string {
	switch {
	case item.GUID != "":
		return item.GUID
	case item.Link != "":
		return item.Link
	default:
		return strings.TrimSpace(item.Title)
	}
}

// generateID derives a stable item ID so re-importing a feed updates items
// in place.
func generateID(sourceID, key string) string {
	sum := sha256.Sum256([]byte(sourceID + "\x00" + key))
	return hex.EncodeToString(sum[:10])
}

func pickCategory(assigned string, tags []string, fallback string) string {
	if assigned != "" {
		return assigned
	}
	if len(tags) > 0 {
		return tags[0]
	}
	return fallback
}

func cleanTags(cats []string) []string {
	tags := make([]string, 0, len(cats))
	seen := make(map[string]bool, len(cats))
	for _, c := range cats {
		c = strings.TrimSpace(c)
		if c == "" || seen[strings.ToLower(c)] {
			continue
		}
		seen[strings.ToLower(c)] = true
		tags = append(tags, c)
	}
	return tags
}

// plainText strips markup and collapses whitespace.
func (p *Parser) plainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(html.UnescapeString(p.strict.Sanitize(s))), " ")
}

func toMarkdown(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	md, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		debuglog.Debugf("html to markdown: %v", err)
		return s
	}
	return strings.TrimSpace(md)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimRightFunc(string(r[:n-1]), unicode.IsSpace) + "…"
}

// findImage prefers the item image, then an image enclosure, then the first
// <img> in the item's markup.
func findImage(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		if strings.HasPrefix(enc.Type, "image/") || (enc.Type == "" && isImagePath(enc.URL)) {
			return enc.URL
		}
	}
	for _, markup := range []string{item.Content, item.Description} {
		if src := firstImgSrc(markup); src != "" {
			return src
		}
	}
	return ""
}

func firstImgSrc(markup string) string {
	if !strings.Contains(markup, "<img") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return ""
	}
	var src string
	doc.Find("img[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, ok := s.Attr("src"); ok && strings.TrimSpace(v) != "" {
			src = strings.TrimSpace(v)
			return false
		}
		return true
	})
	return src
}

func isImagePath(u string) bool {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	switch strings.ToLower(path.Ext(u)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".avif", ".svg":
		return true
	}
	return false
}

// Slugify turns a title into a lowercase, dash separated ASCII-friendly
// slug. Letters outside ASCII survive once their accents are removed.
func Slugify(title string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), title)
	if err != nil {
		folded = title
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}

	slug := strings.TrimSuffix(b.String(), "-")
	if r := []rune(slug); len(r) > maxSlugLength {
		slug = strings.TrimSuffix(string(r[:maxSlugLength]), "-")
	}
	return slug
}

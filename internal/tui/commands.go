package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/pders01/kiosk/internal/browse"
	"github.com/pders01/kiosk/internal/content"
	"github.com/pders01/kiosk/internal/debuglog"
)

// runHandle executes an issued request off the event loop.
func runHandle(h *browse.Handle) tea.Cmd {
	if h == nil {
		return nil
	}
	return func() tea.Msg {
		return settledMsg{settlement: h.Run()}
	}
}

// loadDetail renders it, first fetching the full item when the listing left
// out its body. A failed fetch renders the listed summary.
func loadDetail(ctx context.Context, f ItemFetcher, r *glamour.TermRenderer, it content.Item) tea.Cmd {
	if f == nil || it.Body != "" {
		return renderDetail(r, it)
	}
	return func() tea.Msg {
		full, err := f.Item(ctx, it.ID)
		if err != nil {
			debuglog.Warnf("loading item %s: %v", it.ID, err)
			full = it
		}
		return renderDetail(r, full)()
	}
}

func openLinkCmd(o LinkOpener, link string) tea.Cmd {
	return func() tea.Msg {
		return linkOpenedMsg{link: link, err: o.Open(link)}
	}
}

func flashAfter(d time.Duration, seq int) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return flashExpiredMsg{seq: seq}
	})
}

// itemMarkdown lays out an item for the detail view.
func itemMarkdown(it content.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", it.Title)

	var meta []string
	if it.Category != "" {
		meta = append(meta, it.Category)
	}
	if !it.Published.IsZero() {
		meta = append(meta, it.Published.Format("Mon, 02 Jan 2006"))
	}
	if len(meta) > 0 {
		fmt.Fprintf(&b, "*%s*\n\n", strings.Join(meta, " • "))
	}

	if len(it.Tags) > 0 {
		tags := make([]string, len(it.Tags))
		for i, t := range it.Tags {
			tags[i] = "`" + t + "`"
		}
		b.WriteString(strings.Join(tags, " ") + "\n\n")
	}

	if it.URL != "" {
		fmt.Fprintf(&b, "[Read online](%s)\n\n", it.URL)
	}
	if it.Image != "" {
		fmt.Fprintf(&b, "Image: %s\n\n", it.Image)
	}

	b.WriteString("---\n\n")
	switch {
	case it.Body != "":
		b.WriteString(it.Body)
	case it.Excerpt != "":
		b.WriteString(it.Excerpt)
	default:
		b.WriteString("_No content._")
	}
	b.WriteString("\n")
	return b.String()
}

func renderDetail(r *glamour.TermRenderer, it content.Item) tea.Cmd {
	return func() tea.Msg {
		md := itemMarkdown(it)
		if r == nil {
			return detailRenderedMsg{id: it.ID, content: md}
		}
		out, err := r.Render(md)
		if err != nil {
			return detailRenderedMsg{id: it.ID, content: fmt.Sprintf("Failed to render item: %v\n\n%s", err, md)}
		}
		return detailRenderedMsg{id: it.ID, content: out}
	}
}

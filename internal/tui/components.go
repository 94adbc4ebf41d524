package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/kiosk/internal/browse"
	"github.com/pders01/kiosk/internal/content"
)

func (a *App) browseView() string {
	v := a.ctrl.Snapshot()

	rows := []string{
		a.renderHeader(v),
		a.renderSearch(),
		a.renderCategoryBar(v),
		"",
	}

	if len(v.AllResults) == 0 && !v.Querying && v.SearchTerm == "" && v.SelectedCategory == content.AllCategory {
		rows = append(rows, a.renderEmpty())
	} else {
		rows = append(rows, a.renderResults(v))
	}

	body := lipgloss.JoinVertical(lipgloss.Left, rows...)
	if a.height > 0 {
		body = lipgloss.NewStyle().Height(max(a.height-2, 1)).MaxHeight(max(a.height-2, 1)).Render(body)
	}

	return lipgloss.JoinVertical(lipgloss.Left, body, a.renderSeparator(), a.renderStatusBar())
}

func (a *App) detailView() string {
	var body string
	if a.loadingDetail {
		body = lipgloss.NewStyle().
			Width(a.width).
			Height(max(a.height-3, 1)).
			Align(lipgloss.Center, lipgloss.Center).
			Render(a.theme.Meta.Render(MsgRendering))
	} else {
		body = a.viewport.View()
	}

	title, link := "", ""
	if a.current != nil {
		title, link = a.current.Title, a.current.URL
	}
	header := a.theme.Header.Render(truncateEnd("› "+singleLine(title), max(a.width-2, 10)))
	if link != "" {
		header = lipgloss.JoinVertical(lipgloss.Left, header, a.theme.Meta.Render(truncateMiddle(link, max(a.width-2, 10))))
	}
	scroll := a.theme.Meta.Render(fmt.Sprintf("%3.f%% • %s back", a.viewport.ScrollPercent()*100, a.keys.Back.Help().Key))

	return lipgloss.JoinVertical(lipgloss.Left, header, body, a.renderSeparator(), scroll)
}

func (a *App) renderHeader(v browse.View) string {
	logo := a.theme.Logo.Render(CompactLogo)
	summary := MsgResultsCount(len(v.AllResults))
	if v.Querying {
		summary = MsgSearching
	}
	return logo + " " + a.theme.Meta.Render(summary)
}

func (a *App) renderSearch() string {
	frame := a.theme.InputFrame
	if a.searchInput.Focused() {
		frame = a.theme.InputFocused
	}
	if a.width > 0 {
		frame = frame.Width(max(a.width-2, 10))
	}
	return frame.Render(a.searchInput.View())
}

// renderCategoryBar lists the baseline counts with the selection
// highlighted. The counts never follow the active filters.
func (a *App) renderCategoryBar(v browse.View) string {
	parts := make([]string, 0, len(v.Categories))
	for _, c := range v.Categories {
		label := fmt.Sprintf("%s %d", c.Name, c.Count)
		if c.Name == v.SelectedCategory {
			parts = append(parts, a.theme.CategoryOn.Render(label))
		} else {
			parts = append(parts, a.theme.Category.Render(label))
		}
	}
	bar := strings.Join(parts, "")
	if a.width > 0 {
		bar = lipgloss.NewStyle().MaxWidth(a.width).Render(bar)
	}
	return bar
}

func (a *App) renderResults(v browse.View) string {
	if len(v.Results) == 0 {
		if v.Querying {
			return a.theme.Meta.Render(MsgSearching)
		}
		return a.theme.Meta.Render(MsgNoResults)
	}

	width := a.width
	if width <= 0 {
		width = 80
	}

	rows := make([]string, 0, len(v.Results)*2+2)
	for i, it := range v.Results {
		rows = append(rows, a.renderRow(it, i == a.cursor, width)...)
	}
	rows = append(rows, "", a.theme.Meta.Render(MsgPage(v.CurrentPage, v.TotalPages)))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (a *App) renderRow(it content.Item, selected bool, width int) []string {
	marker, titleStyle := "  ", a.theme.Item
	if selected {
		marker, titleStyle = "› ", a.theme.Selected
	}
	title := titleStyle.Render(marker + truncateEnd(singleLine(it.Title), width-4))

	var meta []string
	if it.Category != "" {
		meta = append(meta, it.Category)
	}
	if !it.Published.IsZero() {
		meta = append(meta, it.Published.Format("Jan 2, 15:04"))
	}
	if it.Excerpt != "" {
		meta = append(meta, truncateEnd(singleLine(it.Excerpt), a.config.UI.Detail.ExcerptLength))
	}
	line := truncateEnd(strings.Join(meta, " • "), width-4)

	return []string{title, a.theme.Meta.Render("  " + line)}
}

func (a *App) renderEmpty() string {
	box := lipgloss.NewStyle().Align(lipgloss.Center)
	if a.width > 0 {
		box = box.Width(a.width)
	}
	return box.Render(a.theme.Banner("Nothing here yet. Run `kiosk import` to fetch some feeds."))
}

func (a *App) renderSeparator() string {
	return a.theme.Separator.Render(strings.Repeat("─", max(a.width, 1)))
}

// renderStatusBar shows the current flash, the last error or the key help.
func (a *App) renderStatusBar() string {
	style := lipgloss.NewStyle().Padding(0, 1)
	if a.width > 0 {
		style = style.Width(a.width)
	}

	v := a.ctrl.Snapshot()
	switch {
	case a.status != "":
		return style.Render(a.theme.StatusStyle(a.statusKind).Render(truncateEnd(a.status, max(a.width-2, 10))))
	case v.LastError != nil:
		return style.Render(a.theme.StatusError.Render(truncateEnd("✗ "+v.LastError.Error(), max(a.width-2, 10))))
	}
	return style.Render(a.help.View(a.keys))
}

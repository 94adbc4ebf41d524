package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/pders01/kiosk/internal/browse"
	"github.com/pders01/kiosk/internal/config"
	"github.com/pders01/kiosk/internal/content"
	"github.com/pders01/kiosk/internal/debuglog"
	"github.com/pders01/kiosk/internal/media"
)

// LinkOpener hands a link to an external program.
type LinkOpener interface {
	Open(link string) error
}

// ItemFetcher loads a full item. Repositories whose listings leave out item
// bodies implement it.
type ItemFetcher interface {
	Item(ctx context.Context, id string) (content.Item, error)
}

type App struct {
	config     *config.Config
	ctrl       *browse.Controller
	keys       KeyMap
	keyHandler *KeyHandler
	theme      Theme
	router     *browse.KeystrokeRouter
	opener     LinkOpener
	items      ItemFetcher

	searchInput textinput.Model
	viewport    viewport.Model
	help        help.Model

	view          View
	cursor        int
	current       *content.Item
	loadingDetail bool
	width         int
	height        int

	ctx    context.Context
	cancel context.CancelFunc

	status     string
	statusKind StatusKind
	flashSeq   int

	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
}

func NewApp(repo content.Repository, cfg *config.Config) *App {
	ctx, cancel := context.WithCancel(context.Background())

	si := textinput.New()
	si.Placeholder = "Type to search…"
	si.Prompt = "› "
	si.CharLimit = browse.MaxSearchLength

	app := &App{
		config: cfg,
		ctrl: browse.NewController(repo, browse.Options{
			PageSize: cfg.Browse.PageSize,
			Limit:    cfg.Browse.SearchLimit,
		}),
		keys:        NewKeyMap(cfg.Keys),
		theme:       NewTheme(cfg.UI.Colors),
		opener:      media.NewLauncher(cfg.Media),
		searchInput: si,
		viewport:    viewport.New(0, 0),
		help:        help.New(),
		view:        ViewBrowse,
		ctx:         ctx,
		cancel:      cancel,
	}

	if f, ok := repo.(ItemFetcher); ok {
		app.items = f
	}

	app.router = browse.NewKeystrokeRouter(&app.searchInput, func() bool {
		return app.view != ViewBrowse
	})
	app.router.Attach()
	app.keyHandler = NewKeyHandler(app)

	return app
}

func (a *App) Init() tea.Cmd {
	a.setStatus(MsgLoading, StatusInfo)
	return tea.Batch(
		runHandle(a.ctrl.Load(a.ctx)),
		tea.EnterAltScreen,
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case settledMsg:
		return a, a.applySettlement(msg.settlement)

	case flashExpiredMsg:
		if msg.seq == a.flashSeq {
			a.status = ""
			a.ctrl.Acknowledge()
			a.ctrl.DismissError()
		}
		return a, nil

	case linkOpenedMsg:
		if msg.err != nil {
			return a, a.flash(fmt.Sprintf("✗ %v", msg.err), StatusError)
		}
		return a, a.flash(MsgOpened(msg.link), StatusSuccess)

	case detailRenderedMsg:
		if a.view == ViewDetail && a.current != nil && a.current.ID == msg.id {
			a.viewport.SetContent(msg.content)
			a.viewport.GotoTop()
			a.loadingDetail = false
		}
		return a, nil
	}

	var cmd tea.Cmd
	if a.view == ViewDetail {
		a.viewport, cmd = a.viewport.Update(msg)
	} else {
		a.searchInput, cmd = a.searchInput.Update(msg)
	}
	return a, cmd
}

func (a *App) resize(width, height int) {
	a.width = width
	a.height = height
	a.viewport.Width = width
	a.viewport.Height = max(height-3, 1)
	a.help.Width = width

	inputWidth := width - 8
	if inputWidth < 10 {
		inputWidth = max(width-4, 1)
	}
	a.searchInput.Width = inputWidth
}

func (a *App) applySettlement(s browse.Settlement) tea.Cmd {
	outcome := a.ctrl.Apply(s)
	debuglog.Debugf("settlement gen=%d %s", s.Generation, outcome)

	switch outcome {
	case browse.OutcomeAccepted:
		a.cursor = 0
		v := a.ctrl.Snapshot()
		if len(v.AllResults) == 0 {
			return a.flash(MsgNoResults, StatusWarn)
		}
		return a.flash(MsgFilterSummary(v.SearchTerm, content.CategoryParam(v.SelectedCategory), len(v.AllResults)), StatusSuccess)
	case browse.OutcomeFailed:
		return a.flash(fmt.Sprintf("✗ %v", s.Err), StatusError)
	}

	if !a.ctrl.Snapshot().Querying && a.status == MsgSearching {
		a.status = ""
	}
	return nil
}

// setStatus shows a message until the next status change.
func (a *App) setStatus(text string, kind StatusKind) {
	a.flashSeq++
	a.status = text
	a.statusKind = kind
}

// flash shows a message that clears after the configured duration.
func (a *App) flash(text string, kind StatusKind) tea.Cmd {
	a.setStatus(text, kind)
	return flashAfter(a.config.Browse.FlashDuration, a.flashSeq)
}

func (a *App) submitSearch() tea.Cmd {
	h, err := a.ctrl.SubmitSearch(a.ctx, a.searchInput.Value())
	if err != nil {
		return a.flash(err.Error(), StatusWarn)
	}
	a.searchInput.SetValue(a.ctrl.Snapshot().SearchTerm)
	a.searchInput.Blur()
	a.cursor = 0
	a.setStatus(MsgSearching, StatusInfo)
	return runHandle(h)
}

func (a *App) selectCategory(delta int) tea.Cmd {
	v := a.ctrl.Snapshot()
	if len(v.Categories) < 2 {
		return nil
	}

	idx := 0
	for i, c := range v.Categories {
		if c.Name == v.SelectedCategory {
			idx = i
			break
		}
	}
	n := len(v.Categories)
	next := v.Categories[((idx+delta)%n+n)%n].Name

	a.cursor = 0
	a.setStatus(MsgSearching, StatusInfo)
	return runHandle(a.ctrl.SelectCategory(a.ctx, next))
}

func (a *App) clearFilters() tea.Cmd {
	a.searchInput.Reset()
	a.searchInput.Blur()
	a.cursor = 0
	a.setStatus(MsgSearching, StatusInfo)
	return runHandle(a.ctrl.ClearFilters(a.ctx))
}

func (a *App) changePage(delta int) {
	if delta > 0 {
		a.ctrl.NextPage()
	} else {
		a.ctrl.PrevPage()
	}
	a.cursor = 0
}

// moveCursor steps through the current page and rolls over to the
// neighbouring page at either end.
func (a *App) moveCursor(delta int) {
	v := a.ctrl.Snapshot()
	next := a.cursor + delta

	switch {
	case next < 0:
		if v.CurrentPage > 1 {
			a.ctrl.PrevPage()
			a.cursor = len(a.ctrl.Snapshot().Results) - 1
		}
	case next >= len(v.Results):
		if v.CurrentPage < v.TotalPages {
			a.ctrl.NextPage()
			a.cursor = 0
		}
	default:
		a.cursor = next
	}
}

func (a *App) selectedItem() (content.Item, bool) {
	v := a.ctrl.Snapshot()
	if a.cursor < 0 || a.cursor >= len(v.Results) {
		return content.Item{}, false
	}
	return v.Results[a.cursor], true
}

func (a *App) openSelected() tea.Cmd {
	it, ok := a.selectedItem()
	if !ok {
		return nil
	}
	a.current = &it
	a.view = ViewDetail
	a.loadingDetail = true
	a.router.Detach()
	a.viewport.SetContent("")

	r, err := a.getRenderer()
	if err != nil {
		debuglog.Warnf("glamour renderer: %v", err)
	}
	return loadDetail(a.ctx, a.items, r, it)
}

// openLink opens the link of the item in view, or of the selected row.
func (a *App) openLink() tea.Cmd {
	var it content.Item
	if a.view == ViewDetail && a.current != nil {
		it = *a.current
	} else {
		var ok bool
		if it, ok = a.selectedItem(); !ok {
			return nil
		}
	}

	link := it.URL
	if link == "" {
		link = it.Image
	}
	if link == "" {
		return a.flash(MsgNoLink, StatusWarn)
	}
	return openLinkCmd(a.opener, link)
}

func (a *App) back() {
	switch {
	case a.view == ViewDetail:
		a.view = ViewBrowse
		a.current = nil
		a.loadingDetail = false
		a.router.Attach()
	case a.searchInput.Focused():
		a.searchInput.Blur()
	}
}

func (a *App) quit() tea.Cmd {
	a.router.Detach()
	a.ctrl.Close()
	a.cancel()
	return tea.Quit
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	d := a.config.UI.Detail
	wrap := (a.width * 9) / 10
	wrap = min(wrap, d.WordWrapMaxWidth)
	wrap = max(wrap, d.WordWrapMinWidth)
	if a.width > 0 && a.width < d.WordWrapMinWidth+10 {
		wrap = max(a.width-4, 20)
	}

	if a.glamourRenderer == nil || abs(a.rendererWidth-wrap) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wrap),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wrap
	}
	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (a *App) View() string {
	if a.view == ViewDetail {
		return a.detailView()
	}
	return a.browseView()
}

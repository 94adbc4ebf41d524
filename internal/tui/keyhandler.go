package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type KeyHandler struct {
	app *App
}

func NewKeyHandler(app *App) *KeyHandler {
	return &KeyHandler{app: app}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app

	if key.Matches(msg, a.keys.Quit) {
		return a, a.quit()
	}

	switch {
	case a.view == ViewDetail:
		return kh.handleDetail(msg)
	case a.searchInput.Focused():
		return kh.handleTextInputMode(msg)
	default:
		return kh.handleBrowse(msg)
	}
}

func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app

	switch {
	case key.Matches(msg, a.keys.Open):
		return a, a.submitSearch()
	case key.Matches(msg, a.keys.Back), key.Matches(msg, a.keys.Down):
		a.back()
		return a, nil
	case key.Matches(msg, a.keys.ClearFilters):
		return a, a.clearFilters()
	}

	var cmd tea.Cmd
	a.searchInput, cmd = a.searchInput.Update(msg)
	return a, cmd
}

func (kh *KeyHandler) handleBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	k := a.keys

	switch {
	case key.Matches(msg, k.Search):
		return a, a.searchInput.Focus()
	case key.Matches(msg, k.ClearFilters):
		return a, a.clearFilters()
	case key.Matches(msg, k.NextCategory):
		return a, a.selectCategory(1)
	case key.Matches(msg, k.PrevCategory):
		return a, a.selectCategory(-1)
	case key.Matches(msg, k.NextPage):
		a.changePage(1)
		return a, nil
	case key.Matches(msg, k.PrevPage):
		a.changePage(-1)
		return a, nil
	case key.Matches(msg, k.Up):
		a.moveCursor(-1)
		return a, nil
	case key.Matches(msg, k.Down):
		a.moveCursor(1)
		return a, nil
	case key.Matches(msg, k.Open):
		return a, a.openSelected()
	case key.Matches(msg, k.OpenLink):
		return a, a.openLink()
	case key.Matches(msg, k.Help):
		a.help.ShowAll = !a.help.ShowAll
		return a, nil
	case key.Matches(msg, k.Back):
		a.back()
		return a, nil
	}

	if cmd, ok := a.router.Route(msg); ok {
		return a, cmd
	}
	return a, nil
}

func (kh *KeyHandler) handleDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app

	switch {
	case key.Matches(msg, a.keys.Back):
		a.back()
		return a, nil
	case key.Matches(msg, a.keys.OpenLink):
		return a, a.openLink()
	}

	var cmd tea.Cmd
	a.viewport, cmd = a.viewport.Update(msg)
	return a, cmd
}

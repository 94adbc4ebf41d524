package tui

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/pders01/kiosk/internal/config"
)

func TestNewKeyMap_Modifier(t *testing.T) {
	cfg := config.TestConfig()

	km := NewKeyMap(cfg.Keys)
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyCtrlF}, km.Search))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyCtrlC}, km.Quit))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyEsc}, km.Back))
	assert.False(t, key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'f'}}, km.Search))

	cfg.Keys.Modifier = "alt"
	km = NewKeyMap(cfg.Keys)
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'f'}, Alt: true}, km.Search))
	assert.False(t, key.Matches(tea.KeyMsg{Type: tea.KeyCtrlF}, km.Search))
}

func TestNewKeyMap_CustomBindings(t *testing.T) {
	cfg := config.TestConfig()
	cfg.Keys.Bindings.NextPage = "j"
	cfg.Keys.Bindings.Back = "backspace"

	km := NewKeyMap(cfg.Keys)
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyCtrlJ}, km.NextPage))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyRight}, km.NextPage))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyBackspace}, km.Back))
	assert.Equal(t, "ctrl+j", km.NextPage.Keys()[0])
}

func TestKeyMap_Help(t *testing.T) {
	km := NewKeyMap(config.TestConfig().Keys)

	assert.NotEmpty(t, km.ShortHelp())
	full := km.FullHelp()
	assert.Len(t, full, 3)
	assert.Equal(t, "ctrl+f", km.Search.Help().Key)
}

func TestKeyHandler_PlainKeysNeverTriggerActions(t *testing.T) {
	app, repo := newTestApp(t, sampleItems())
	drain(t, app, app.Init())
	queries := len(repo.queries)

	// "q", "r" and "l" are bound only with the modifier
	typeText(t, app, "qrl")

	assert.Equal(t, "qrl", app.searchInput.Value())
	assert.Len(t, repo.queries, queries)
	assert.Equal(t, ViewBrowse, app.view)
}

func TestKeyHandler_DownLeavesSearchBox(t *testing.T) {
	app, _ := newTestApp(t, sampleItems())
	drain(t, app, app.Init())

	typeText(t, app, "ab")
	assert.True(t, app.searchInput.Focused())

	press(t, app, keyDown)
	assert.False(t, app.searchInput.Focused())
	assert.Equal(t, "ab", app.searchInput.Value(), "pending text is kept")
}

func TestKeyHandler_ClearFromSearchBox(t *testing.T) {
	app, repo := newTestApp(t, sampleItems())
	drain(t, app, app.Init())

	typeText(t, app, "bread")
	press(t, app, keyEnter)
	press(t, app, tea.KeyMsg{Type: tea.KeyCtrlF})

	press(t, app, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Empty(t, app.searchInput.Value())
	assert.False(t, app.searchInput.Focused())
	assert.True(t, repo.lastQuery().Unfiltered())
}

func TestKeyHandler_EnterWithoutResults(t *testing.T) {
	app, _ := newTestApp(t, nil)
	drain(t, app, app.Init())

	press(t, app, keyEnter)
	assert.Equal(t, ViewBrowse, app.view)
	assert.Nil(t, app.current)
}

package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/pders01/kiosk/internal/config"
)

// KeyMap is the set of bindings the browser reacts to. Action keys carry
// the configured modifier so plain characters stay free for typing.
type KeyMap struct {
	Quit         key.Binding
	Search       key.Binding
	ClearFilters key.Binding
	NextCategory key.Binding
	PrevCategory key.Binding
	NextPage     key.Binding
	PrevPage     key.Binding
	Back         key.Binding
	Help         key.Binding
	Up           key.Binding
	Down         key.Binding
	Open         key.Binding
	OpenLink     key.Binding
}

func NewKeyMap(cfg config.KeyConfig) KeyMap {
	mod := func(k string) string { return cfg.Modifier + "+" + k }
	b := cfg.Bindings

	return KeyMap{
		Quit:         key.NewBinding(key.WithKeys(mod(b.Quit), "ctrl+c"), key.WithHelp(mod(b.Quit), "quit")),
		Search:       key.NewBinding(key.WithKeys(mod(b.Search)), key.WithHelp(mod(b.Search), "search")),
		ClearFilters: key.NewBinding(key.WithKeys(mod(b.ClearFilters)), key.WithHelp(mod(b.ClearFilters), "clear")),
		NextCategory: key.NewBinding(key.WithKeys(mod(b.NextCategory), "tab"), key.WithHelp(mod(b.NextCategory), "next category")),
		PrevCategory: key.NewBinding(key.WithKeys(mod(b.PrevCategory), "shift+tab"), key.WithHelp(mod(b.PrevCategory), "prev category")),
		NextPage:     key.NewBinding(key.WithKeys(mod(b.NextPage), "right", "pgdown"), key.WithHelp("→", "next page")),
		PrevPage:     key.NewBinding(key.WithKeys(mod(b.PrevPage), "left", "pgup"), key.WithHelp("←", "prev page")),
		Back:         key.NewBinding(key.WithKeys(b.Back), key.WithHelp(b.Back, "back")),
		Help:         key.NewBinding(key.WithKeys(mod(b.Help)), key.WithHelp(mod(b.Help), "help")),
		Up:           key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "up")),
		Down:         key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "down")),
		Open:         key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		OpenLink:     key.NewBinding(key.WithKeys(mod(b.OpenLink)), key.WithHelp(mod(b.OpenLink), "open link")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.NextCategory, k.NextPage, k.Open, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Open, k.OpenLink, k.Back},
		{k.NextPage, k.PrevPage, k.NextCategory, k.PrevCategory},
		{k.Search, k.ClearFilters, k.Help, k.Quit},
	}
}

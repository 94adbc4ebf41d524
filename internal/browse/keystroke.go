package browse

import (
	"unicode"

	tea "github.com/charmbracelet/bubbletea"
)

// SearchField is the editable search box keystrokes are redirected into.
// *textinput.Model satisfies it.
type SearchField interface {
	Focused() bool
	Focus() tea.Cmd
	Value() string
	SetValue(string)
	CursorEnd()
}

// KeystrokeRouter sends stray printable keys to the search field so the user
// can start typing from anywhere. It only edits the pending text; submitting
// is still up to the user.
type KeystrokeRouter struct {
	field    SearchField
	editing  func() bool
	attached bool
}

// NewKeystrokeRouter returns a detached router. editing reports whether some
// other editable control currently has focus; it may be nil.
func NewKeystrokeRouter(field SearchField, editing func() bool) *KeystrokeRouter {
	return &KeystrokeRouter{field: field, editing: editing}
}

func (r *KeystrokeRouter) Attach() { r.attached = true }

func (r *KeystrokeRouter) Detach() { r.attached = false }

func (r *KeystrokeRouter) Attached() bool { return r.attached }

// Route handles msg if it qualifies and reports whether it did.
func (r *KeystrokeRouter) Route(msg tea.KeyMsg) (tea.Cmd, bool) {
	if !r.attached || r.field == nil {
		return nil, false
	}
	if r.field.Focused() || (r.editing != nil && r.editing()) {
		return nil, false
	}

	ch, ok := PrintableRune(msg)
	if !ok {
		return nil, false
	}

	cmd := r.field.Focus()
	r.field.SetValue(r.field.Value() + string(ch))
	r.field.CursorEnd()
	return cmd, true
}

// PrintableRune returns the single printable character typed by msg. Named
// keys, ctrl combinations, alt-modified keys and pastes do not qualify.
// Terminals deliver shift only as the shifted character, so 'A' is routed.
func PrintableRune(msg tea.KeyMsg) (rune, bool) {
	if msg.Alt || msg.Paste {
		return 0, false
	}

	switch msg.Type {
	case tea.KeySpace:
		return ' ', true
	case tea.KeyRunes:
		if len(msg.Runes) != 1 {
			return 0, false
		}
		ch := msg.Runes[0]
		if !unicode.IsPrint(ch) {
			return 0, false
		}
		return ch, true
	default:
		return 0, false
	}
}

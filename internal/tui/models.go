package tui

import "github.com/pders01/kiosk/internal/browse"

type View int

const (
	ViewBrowse View = iota
	ViewDetail
)

// settledMsg carries a finished request back into the event loop, where
// the controller decides whether it may change state.
type settledMsg struct {
	settlement browse.Settlement
}

type detailRenderedMsg struct {
	id      string
	content string
}

type linkOpenedMsg struct {
	link string
	err  error
}

// flashExpiredMsg clears the status line if no newer flash replaced it.
type flashExpiredMsg struct {
	seq int
}

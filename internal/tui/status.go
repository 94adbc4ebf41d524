package tui

import (
	"fmt"
	"strings"
)

// StatusKind indicates severity for status messages.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarn
	StatusError
)

// Canonical short status messages used across the app.
const (
	MsgLoading        = "Loading…"
	MsgSearching      = "Searching…"
	MsgNoResults      = "No results"
	MsgFiltersCleared = "Filters cleared"
	MsgRendering      = "Rendering…"
	MsgNoLink         = "No link to open"
)

func MsgOpened(link string) string {
	return "Opened " + link
}

func MsgResultsCount(n int) string {
	if n == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", n)
}

func MsgFilterSummary(term, category string, n int) string {
	parts := []string{MsgResultsCount(n)}
	if term != "" {
		parts = append(parts, fmt.Sprintf("for %q", term))
	}
	if category != "" {
		parts = append(parts, "in "+category)
	}
	return strings.Join(parts, " ")
}

func MsgPage(page, total int) string {
	if total == 0 {
		return "page 0/0"
	}
	return fmt.Sprintf("page %d/%d", page, total)
}

package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// truncateEnd shortens s to at most limit terminal cells, appending an
// ellipsis if truncation occurs. Wide characters count as two cells.
func truncateEnd(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= limit {
		return s
	}
	if limit <= 1 {
		return "…"
	}
	return runewidth.Truncate(s, limit, "…")
}

// truncateMiddle keeps the start and end of s around a single ellipsis.
// Useful for URLs where both ends carry meaning.
func truncateMiddle(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= limit {
		return s
	}
	if limit <= 1 {
		return "…"
	}

	keep := limit - 1
	left := keep / 2
	right := keep - left

	r := []rune(s)
	var tail []rune
	w := 0
	for i := len(r) - 1; i >= 0; i-- {
		rw := runewidth.RuneWidth(r[i])
		if w+rw > right {
			break
		}
		w += rw
		tail = append([]rune{r[i]}, tail...)
	}

	head := runewidth.Truncate(s, left, "")
	return head + "…" + string(tail)
}

// singleLine flattens whitespace so a field fits on one row.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

package browse

import "github.com/pders01/kiosk/internal/content"

// Page is one window of a result list.
type Page struct {
	Items      []content.Item
	TotalPages int
	Page       int
}

// Paginate returns the page-th window of items. The page count is never less
// than one and page is clamped into [1, TotalPages] before slicing.
func Paginate(items []content.Item, pageSize, page int) Page {
	if pageSize < 1 {
		pageSize = 1
	}

	totalPages := (len(items) + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	page = clampPage(page, totalPages)

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}

	return Page{
		Items:      items[start:end:end],
		TotalPages: totalPages,
		Page:       page,
	}
}

func clampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

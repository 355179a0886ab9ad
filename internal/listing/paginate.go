package listing

import (
	"errors"
	"strconv"
	"strings"
)

// ErrNotFound is returned for unknown ids in a listing request and for pages
// outside the listing.
var ErrNotFound = errors.New("listing not found")

// Page describes one page of a paginated listing.
type Page struct {
	Number   int
	Size     int
	Total    int
	NumPages int
}

// HasPrev returns true if a page precedes this one.
func (p *Page) HasPrev() bool { return p.Number > 1 }

// HasNext returns true if a page follows this one.
func (p *Page) HasNext() bool { return p.Number < p.NumPages }

// Prev returns the previous page number.
func (p *Page) Prev() int { return p.Number - 1 }

// Next returns the next page number.
func (p *Page) Next() int { return p.Number + 1 }

// ParsePage reads a 1-based page number. An empty value is the first page and
// "last" is the last page, returned as -1.
func ParsePage(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	switch raw {
	case "":
		return 1, nil
	case "last":
		return -1, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, ErrNotFound
	}
	return n, nil
}

// Paginate returns the given page of items. A page number of -1 selects the
// last page. An empty listing still has a first page.
func Paginate[T any](items []T, number, size int) ([]T, *Page, error) {
	total := len(items)
	numPages := 1
	if total > 0 {
		numPages = (total + size - 1) / size
	}
	if number == -1 {
		number = numPages
	}
	if number < 1 || number > numPages {
		return nil, nil, ErrNotFound
	}

	start := (number - 1) * size
	end := min(start+size, total)
	page := &Page{Number: number, Size: size, Total: total, NumPages: numPages}
	return items[start:end], page, nil
}

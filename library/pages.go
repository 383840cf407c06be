package library

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kevinaaaquil/shelfmates/models"
)

// pageMarker matches a page count written as a whole number followed by a unit,
// e.g. "320 pages", "1,200 pages", "320p" or "320쪽". The last match in the text
// wins.
var pageMarker = regexp.MustCompile(`(?i)\b(\d{1,3}(?:[,.]\d{3})+|\d+)\s*(?:pages?|pp\.?|p\b|쪽|페이지)`)

var digitGroupSep = strings.NewReplacer(",", "", ".", "")

// TotalPages resolves the page count of a catalog record. It tries, in order, an
// explicit numeric count, an explicit text count, a page count mentioned in the
// description, and finally models.DefaultTotalPages.
func TotalPages(b models.CatalogBook) int {
	resolvers := []func() (int, bool){
		func() (int, bool) { return explicitPages(b.PageCount) },
		func() (int, bool) { return pagesFromText(b.Description) },
	}
	for _, r := range resolvers {
		if n, ok := r(); ok {
			return n
		}
	}
	return models.DefaultTotalPages
}

func explicitPages(pc models.PageCount) (int, bool) {
	switch pc.Kind {
	case models.PageCountNumeric:
		if pc.Value > 0 {
			return pc.Value, true
		}
	case models.PageCountText:
		s := strings.TrimSpace(pc.Text)
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n, true
		}
		return pagesFromText(s)
	}
	return 0, false
}

func pagesFromText(s string) (int, bool) {
	matches := pageMarker.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(digitGroupSep.Replace(matches[len(matches)-1][1]))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Progress is the whole-number reading percentage. It is not clamped: a current
// page past the end gives a value above 100.
func Progress(currentPage, totalPages int) int {
	if totalPages <= 0 {
		return 0
	}
	return currentPage * 100 / totalPages
}

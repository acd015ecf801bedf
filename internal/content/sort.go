package content

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseDate parses an authored publication date. The zero time and false
// are returned for empty or unrecognized values.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CompareDate orders items by publication date descending. Undated items
// sort after dated ones and compare equal to each other.
func CompareDate(a, b Item) int {
	switch {
	case a.HasDate() && b.HasDate():
		return b.Published.Compare(a.Published)
	case a.HasDate():
		return -1
	case b.HasDate():
		return 1
	default:
		return 0
	}
}

// SortByDate sorts items newest first, breaking ties by source path.
func SortByDate(items []Item) {
	slices.SortStableFunc(items, func(a, b Item) int {
		if c := CompareDate(a, b); c != 0 {
			return c
		}
		return cmp.Compare(a.SourcePath, b.SourcePath)
	})
}

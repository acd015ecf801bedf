package planner

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
)

// KeyFunc maps a category label to its index key and path segment.
type KeyFunc func(label string) string

// Verbatim uses labels unchanged.
func Verbatim(label string) string { return label }

// Slugify lowercases label, strips diacritics and replaces every run of
// non-alphanumeric characters with a single hyphen. Labels without any
// letters or digits slugify to "-".
func Slugify(label string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, label)
	if err != nil {
		folded = label
	}

	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	if b.Len() == 0 {
		return "-"
	}
	return b.String()
}

// CategoryIndex maps categories to the items carrying them. Categories
// are kept in order of first appearance.
type CategoryIndex struct {
	categories []Category
	items      map[string][]content.Item
	byLabel    map[string]string
}

// BuildCategoryIndex scans items in order. A label repeated on one item
// counts once for that item. Labels with the same key share one entry
// whose display label is the first one seen.
func BuildCategoryIndex(items []content.Item, key KeyFunc) *CategoryIndex {
	if key == nil {
		key = Verbatim
	}
	idx := &CategoryIndex{
		items:   make(map[string][]content.Item),
		byLabel: make(map[string]string),
	}
	for _, item := range items {
		seen := make(map[string]struct{}, len(item.Categories))
		for _, label := range item.Categories {
			k := key(label)
			idx.byLabel[label] = k
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			if _, ok := idx.items[k]; !ok {
				idx.categories = append(idx.categories, Category{Label: label, Path: k})
			}
			idx.items[k] = append(idx.items[k], item)
		}
	}
	return idx
}

// Categories returns every category in first-seen order.
func (c *CategoryIndex) Categories() []Category {
	out := make([]Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// Items returns the items filed under a category path, in input order.
func (c *CategoryIndex) Items(path string) []content.Item {
	return c.items[path]
}

// Lookup returns the category path an authored label was filed under.
func (c *CategoryIndex) Lookup(label string) (string, bool) {
	k, ok := c.byLabel[label]
	return k, ok
}

// Len returns the number of distinct categories.
func (c *CategoryIndex) Len() int { return len(c.categories) }

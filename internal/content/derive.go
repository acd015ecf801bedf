package content

import (
	"path"
	"strings"
)

// DeriveFields computes the derived fields for one raw node. Missing
// metadata never fails: dates default to "" and label lists to empty.
func DeriveFields(raw RawNode, blogPrefix string) Fields {
	fm := raw.Frontmatter
	return Fields{
		ID:          raw.ID,
		Title:       fm.Title,
		Description: fm.Description,
		Slug:        fm.Slug,
		Banner:      fm.Banner,
		URLPath:     URLPath(blogPrefix, fm.Slug.UnwrapOr("")),
		Date:        fm.Date.UnwrapOr(""),
		Categories:  copyLabels(fm.Categories.UnwrapOr(nil)),
		Keywords:    copyLabels(fm.Keywords.UnwrapOr(nil)),
	}
}

// URLPath joins prefix and slug with "/" and collapses every run of
// slashes into a single one.
func URLPath(prefix, slug string) string {
	return collapseSlashes(prefix + "/" + slug)
}

// FallbackSlug derives a slug from a post's source path for posts that do
// not declare one. "a/My Post.md" gives "my-post" and "hello/index.md"
// gives "hello".
func FallbackSlug(sourcePath string) string {
	p := strings.TrimSuffix(sourcePath, path.Ext(sourcePath))
	base := path.Base(p)
	if strings.EqualFold(base, "index") {
		base = path.Base(path.Dir(p))
	}
	if base == "." || base == "/" || base == "" {
		base = "post"
	}
	return strings.Join(strings.Fields(strings.ToLower(base)), "-")
}

func collapseSlashes(p string) string {
	var b strings.Builder
	b.Grow(len(p))
	prevSlash := false
	for i := 0; i < len(p); i++ {
		c := p[i]
		if c == '/' {
			if prevSlash {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		b.WriteByte(c)
	}
	return b.String()
}

func copyLabels(in Labels) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

package planner

import (
	"strconv"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation"
)

// Paginate splits items into listing pages of at most perPage items. Page
// 0 lives at the bare prefix and page k at prefix/k. Page 1 links back to
// the bare prefix; the last page has no next link. An empty collection
// produces no pages.
func Paginate(items []content.Item, prefix string, perPage int, extra Extra) []Instruction {
	if perPage < 1 {
		perPage = PostsPerPage
	}
	count := (len(items) + perPage - 1) / perPage
	out := make([]Instruction, 0, count)

	for k := 0; k < count; k++ {
		end := min((k+1)*perPage, len(items))
		chunk := items[k*perPage : end]
		ids := make([]string, len(chunk))
		for i, it := range chunk {
			ids[i] = it.ID
		}

		p := Pagination{
			Page:       ids,
			PageIndex:  k,
			PageCount:  count,
			PathPrefix: prefix,
		}
		if k < count-1 {
			p.NextPagePath = foundation.Some(pagePath(prefix, k+1))
		}
		if k > 0 {
			p.PreviousPagePath = foundation.Some(pagePath(prefix, k-1))
		}

		out = append(out, Instruction{
			Path:     pagePath(prefix, k),
			Template: TemplatePosts,
			Context: &ListingContext{
				Pagination:     p,
				Categories:     extra.Categories,
				ActiveCategory: extra.ActiveCategory,
			},
		})
	}
	return out
}

func pagePath(prefix string, k int) string {
	if k == 0 {
		return prefix
	}
	return prefix + "/" + strconv.Itoa(k)
}

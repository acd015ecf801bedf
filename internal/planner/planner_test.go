package planner

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// makeItems returns n items sorted newest first.
func makeItems(n int, categories func(i int) []string) []content.Item {
	items := make([]content.Item, n)
	for i := range items {
		published := base.AddDate(0, 0, -i)
		var cats []string
		if categories != nil {
			cats = categories(i)
		}
		items[i] = content.Item{
			Fields: content.Fields{
				ID:         fmt.Sprintf("id-%03d", i),
				Title:      foundation.Some(fmt.Sprintf("Post %d", i)),
				URLPath:    fmt.Sprintf("/posts/post-%d", i),
				Date:       published.Format("2006-01-02"),
				Categories: cats,
				Keywords:   []string{},
			},
			Published: published,
		}
	}
	return items
}

func listing(t *testing.T, in Instruction) *ListingContext {
	t.Helper()
	ctx, ok := in.Context.(*ListingContext)
	require.True(t, ok, "instruction %s is not a listing", in.Path)
	return ctx
}

func TestPlan_PostPagesHaveAdjacentNeighbours(t *testing.T) {
	for _, n := range []int{0, 1, 2, 7} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			items := makeItems(n, nil)
			res := New(Options{}).Plan(items)

			var posts []Instruction
			for _, in := range res.Instructions {
				if in.Template == TemplatePost {
					posts = append(posts, in)
				}
			}
			require.Len(t, posts, n)
			assert.Equal(t, n, res.Stats.PostPages)

			for i, in := range posts {
				ctx := in.Context.(*PostContext)
				assert.Equal(t, items[i].ID, ctx.ID)
				assert.Equal(t, items[i].URLPath, in.Path)

				if i == 0 {
					assert.True(t, ctx.Prev.IsNone())
				} else {
					prev, ok := ctx.Prev.Get()
					require.True(t, ok)
					assert.Equal(t, items[i-1].ID, prev.ID)
					assert.Equal(t, items[i-1].URLPath, prev.URLPath)
				}
				if i == n-1 {
					assert.True(t, ctx.Next.IsNone())
				} else {
					next, ok := ctx.Next.Get()
					require.True(t, ok)
					assert.Equal(t, items[i+1].ID, next.ID)
					assert.Equal(t, fmt.Sprintf("Post %d", i+1), next.Title)
				}
			}
		})
	}
}

func TestPaginate_ConcatenationReconstructsInput(t *testing.T) {
	for _, n := range []int{1, 49, 50, 51, 100, 120, 151} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			items := makeItems(n, nil)
			pages := Paginate(items, "/posts", PostsPerPage, Extra{})

			require.Len(t, pages, (n+PostsPerPage-1)/PostsPerPage)
			var ids []string
			for k, page := range pages {
				ctx := listing(t, page)
				if k < len(pages)-1 {
					assert.Len(t, ctx.Page, PostsPerPage)
				} else {
					want := n % PostsPerPage
					if want == 0 {
						want = PostsPerPage
					}
					assert.Len(t, ctx.Page, want)
				}
				ids = append(ids, ctx.Page...)
			}
			for i, it := range items {
				assert.Equal(t, it.ID, ids[i])
			}
			assert.Len(t, ids, n)
		})
	}
}

func TestPaginate_Empty(t *testing.T) {
	assert.Empty(t, Paginate(nil, "/posts", PostsPerPage, Extra{}))
}

func TestPaginate_PreviousPagePathBoundary(t *testing.T) {
	pages := Paginate(makeItems(101, nil), "/categories/go", PostsPerPage, Extra{})
	require.Len(t, pages, 3)

	assert.True(t, listing(t, pages[0]).PreviousPagePath.IsNone())
	assert.Equal(t, "/categories/go", listing(t, pages[1]).PreviousPagePath.UnwrapOr(""))
	assert.Equal(t, "/categories/go/1", listing(t, pages[2]).PreviousPagePath.UnwrapOr(""))
}

func TestPaginate_120Items(t *testing.T) {
	pages := Paginate(makeItems(120, nil), "/posts", PostsPerPage, Extra{})
	require.Len(t, pages, 3)

	p0, p1, p2 := listing(t, pages[0]), listing(t, pages[1]), listing(t, pages[2])

	assert.Equal(t, "/posts", pages[0].Path)
	assert.Len(t, p0.Page, 50)
	assert.Equal(t, "/posts/1", p0.NextPagePath.UnwrapOr(""))
	assert.True(t, p0.PreviousPagePath.IsNone())

	assert.Equal(t, "/posts/1", pages[1].Path)
	assert.Len(t, p1.Page, 50)
	assert.Equal(t, "/posts/2", p1.NextPagePath.UnwrapOr(""))
	assert.Equal(t, "/posts", p1.PreviousPagePath.UnwrapOr(""))

	assert.Equal(t, "/posts/2", pages[2].Path)
	assert.Len(t, p2.Page, 20)
	assert.True(t, p2.NextPagePath.IsNone())
	assert.Equal(t, "/posts/1", p2.PreviousPagePath.UnwrapOr(""))

	for k, page := range pages {
		ctx := listing(t, page)
		assert.Equal(t, k, ctx.PageIndex)
		assert.Equal(t, 3, ctx.PageCount)
		assert.Equal(t, "/posts", ctx.PathPrefix)
		assert.Equal(t, TemplatePosts, page.Template)
	}
}

func TestBuildCategoryIndex_Completeness(t *testing.T) {
	items := makeItems(4, func(i int) []string {
		switch i {
		case 0:
			return []string{"B", "A"}
		case 1:
			return []string{"A"}
		case 2:
			return []string{"C", "C"}
		default:
			return nil
		}
	})

	idx := BuildCategoryIndex(items, Verbatim)
	assert.Equal(t, []Category{{"B", "B"}, {"A", "A"}, {"C", "C"}}, idx.Categories())

	ids := func(path string) []string {
		var out []string
		for _, it := range idx.Items(path) {
			out = append(out, it.ID)
		}
		return out
	}
	assert.Equal(t, []string{"id-000", "id-001"}, ids("A"))
	assert.Equal(t, []string{"id-000"}, ids("B"))
	assert.Equal(t, []string{"id-002"}, ids("C"), "repeated label on one item counts once")
}

func TestBuildCategoryIndex_SlugifyMergesLabels(t *testing.T) {
	items := makeItems(2, func(i int) []string {
		if i == 0 {
			return []string{"Web Dev"}
		}
		return []string{"web-dev"}
	})
	idx := BuildCategoryIndex(items, Slugify)
	require.Equal(t, 1, idx.Len())
	assert.Equal(t, Category{Label: "Web Dev", Path: "web-dev"}, idx.Categories()[0])
	assert.Len(t, idx.Items("web-dev"), 2)

	path, ok := idx.Lookup("web-dev")
	require.True(t, ok)
	assert.Equal(t, "web-dev", path)
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Go":                 "go",
		"Web Development":    "web-development",
		"  C++ / Rust  ":     "c-rust",
		"Café Crème":         "cafe-creme",
		"a//b":               "a-b",
		"???":                "-",
		"2019 Retrospective": "2019-retrospective",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestPlan_OrderAndListings(t *testing.T) {
	items := makeItems(3, func(i int) []string {
		if i == 1 {
			return []string{"Go", "Web"}
		}
		return []string{"Go"}
	})
	res := New(Options{CategoryKey: Slugify}).Plan(items)

	var paths []string
	for _, in := range res.Instructions {
		paths = append(paths, in.Path)
	}
	assert.Equal(t, []string{
		"/posts/post-0", "/posts/post-1", "/posts/post-2",
		"/posts",
		"/categories/go",
		"/categories/web",
	}, paths)

	global := listing(t, res.Instructions[3])
	assert.Equal(t, []Category{{"Go", "go"}, {"Web", "web"}}, global.Categories)
	assert.True(t, global.ActiveCategory.IsNone())

	web := listing(t, res.Instructions[5])
	active, ok := web.ActiveCategory.Get()
	require.True(t, ok)
	assert.Equal(t, "Web", active.Label)
	assert.Equal(t, []string{"id-001"}, web.Page)
	assert.Equal(t, "/categories/web", web.PathPrefix)

	assert.Equal(t, "/categories/go", res.CategoryPaths["Go"])
	assert.Equal(t, Stats{Items: 3, PostPages: 3, ListingPages: 1, CategoryListingPages: 2, Categories: 2}, res.Stats)
	assert.Equal(t, 6, res.Stats.Pages())
}

func TestPlan_SortsUnsortedInputStably(t *testing.T) {
	items := makeItems(3, nil)
	undatedA := content.Item{Fields: content.Fields{ID: "undated-a", URLPath: "/posts/a"}}
	undatedB := content.Item{Fields: content.Fields{ID: "undated-b", URLPath: "/posts/b"}}
	shuffled := []content.Item{undatedA, items[2], undatedB, items[0], items[1]}

	res := New(Options{}).Plan(shuffled)

	var ids []string
	for _, in := range res.Instructions[:5] {
		ids = append(ids, in.Context.(*PostContext).ID)
	}
	assert.Equal(t, []string{"id-000", "id-001", "id-002", "undated-a", "undated-b"}, ids)
	assert.Equal(t, "undated-a", shuffled[0].ID, "input is not mutated")
}

func TestPlan_CustomPageSize(t *testing.T) {
	res := New(Options{PostsPerPage: 2}).Plan(makeItems(5, nil))
	assert.Equal(t, 3, res.Stats.ListingPages)
}

func TestFromConfig(t *testing.T) {
	items := makeItems(1, func(int) []string { return []string{"Web Dev"} })

	slug := FromConfig(config.BlogConfig{PathPrefix: "/blog", CategoryPrefix: "/tags", PostsPerPage: 10, CategoryPaths: config.CategoryPathsSlugify}).Plan(items)
	assert.Equal(t, "/tags/web-dev", slug.Instructions[len(slug.Instructions)-1].Path)
	assert.Equal(t, "/blog", slug.Instructions[1].Path)

	verbatim := FromConfig(config.BlogConfig{CategoryPaths: config.CategoryPathsVerbatim}).Plan(items)
	assert.Equal(t, "/categories/Web Dev", verbatim.Instructions[len(verbatim.Instructions)-1].Path)
}

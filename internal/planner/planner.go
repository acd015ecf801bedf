package planner

import (
	"slices"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation"
)

// Options configures a Planner.
type Options struct {
	BlogPrefix     string
	CategoryPrefix string
	PostsPerPage   int
	CategoryKey    KeyFunc
}

// Planner computes the page graph of a site.
type Planner struct {
	opts Options
}

// New creates a Planner, filling unset options with defaults.
func New(opts Options) *Planner {
	if opts.BlogPrefix == "" {
		opts.BlogPrefix = "/posts"
	}
	if opts.CategoryPrefix == "" {
		opts.CategoryPrefix = "/categories"
	}
	if opts.PostsPerPage < 1 {
		opts.PostsPerPage = PostsPerPage
	}
	if opts.CategoryKey == nil {
		opts.CategoryKey = Verbatim
	}
	return &Planner{opts: opts}
}

// Result is the output of Plan.
type Result struct {
	Instructions []Instruction
	Index        *CategoryIndex
	// CategoryPaths maps every authored category label to its listing path.
	CategoryPaths map[string]string
	Stats         Stats
}

// Plan emits post pages, then the global listing, then one listing per
// category in first-seen order. Items are stable-sorted newest first
// before planning, so already sorted input keeps its order.
func (p *Planner) Plan(items []content.Item) Result {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, content.CompareDate)

	var stats Stats
	stats.Items = len(sorted)

	out := p.postPages(sorted)
	stats.PostPages = len(out)

	index := BuildCategoryIndex(sorted, p.opts.CategoryKey)
	categories := index.Categories()
	stats.Categories = len(categories)

	global := Paginate(sorted, p.opts.BlogPrefix, p.opts.PostsPerPage, Extra{Categories: categories})
	stats.ListingPages = len(global)
	out = append(out, global...)

	for _, cat := range categories {
		pages := Paginate(index.Items(cat.Path), p.categoryPath(cat), p.opts.PostsPerPage, Extra{
			Categories:     categories,
			ActiveCategory: foundation.Some(cat),
		})
		stats.CategoryListingPages += len(pages)
		out = append(out, pages...)
	}

	paths := make(map[string]string, len(index.byLabel))
	for label, key := range index.byLabel {
		paths[label] = p.opts.CategoryPrefix + "/" + key
	}

	return Result{
		Instructions:  out,
		Index:         index,
		CategoryPaths: paths,
		Stats:         stats,
	}
}

// categoryPath returns the listing path prefix for a category.
func (p *Planner) categoryPath(cat Category) string {
	return p.opts.CategoryPrefix + "/" + cat.Path
}

func (p *Planner) postPages(items []content.Item) []Instruction {
	out := make([]Instruction, 0, len(items))
	for i, item := range items {
		ctx := &PostContext{ID: item.ID}
		if i > 0 {
			ctx.Prev = foundation.Some(refOf(items[i-1]))
		}
		if i < len(items)-1 {
			ctx.Next = foundation.Some(refOf(items[i+1]))
		}
		out = append(out, Instruction{
			Path:     item.URLPath,
			Template: TemplatePost,
			Context:  ctx,
		})
	}
	return out
}

func refOf(item content.Item) PostRef {
	return PostRef{
		ID:      item.ID,
		Title:   item.Title.UnwrapOr(""),
		URLPath: item.URLPath,
	}
}

// FromConfig creates a Planner for the blog configuration.
func FromConfig(cfg config.BlogConfig) *Planner {
	key := Slugify
	if cfg.CategoryPaths == config.CategoryPathsVerbatim {
		key = Verbatim
	}
	return New(Options{
		BlogPrefix:     cfg.PathPrefix,
		CategoryPrefix: cfg.CategoryPrefix,
		PostsPerPage:   cfg.PostsPerPage,
		CategoryKey:    key,
	})
}

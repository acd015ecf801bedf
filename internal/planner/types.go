// Package planner turns the sorted post collection into the full list of
// page-generation instructions: post pages with prev/next links and
// paginated global and per-category listings.
package planner

import (
	"git.home.luguber.info/inful/blogbuilder/internal/foundation"
)

// PostsPerPage is the default listing page capacity.
const PostsPerPage = 50

// Template names the layout an instruction is rendered with.
type Template string

const (
	TemplatePost  Template = "post"
	TemplatePosts Template = "posts"
)

// Instruction is one page to generate. Context is a *PostContext for post
// pages and a *ListingContext for listing pages.
type Instruction struct {
	Path     string   `json:"path"`
	Template Template `json:"template"`
	Context  any      `json:"context"`
}

// PostRef references a neighbouring post.
type PostRef struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	URLPath string `json:"urlPath"`
}

// PostContext is the context of a post page. Prev and Next are the
// items adjacent in the sorted sequence.
type PostContext struct {
	ID   string                     `json:"id"`
	Prev foundation.Option[PostRef] `json:"prev"`
	Next foundation.Option[PostRef] `json:"next"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page             []string                  `json:"page"`
	PageIndex        int                       `json:"pageIndex"`
	PageCount        int                       `json:"pageCount"`
	NextPagePath     foundation.Option[string] `json:"nextPagePath"`
	PreviousPagePath foundation.Option[string] `json:"previousPagePath"`
	PathPrefix       string                    `json:"pathPrefix"`
}

// Category is a category label and the path segment it is published at.
type Category struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

// ListingContext is the context of a listing page.
type ListingContext struct {
	Pagination
	Categories     []Category                  `json:"categories"`
	ActiveCategory foundation.Option[Category] `json:"activeCategory"`
}

// Extra is the listing context shared by every page of one listing.
type Extra struct {
	Categories     []Category
	ActiveCategory foundation.Option[Category]
}

// Stats summarizes a plan.
type Stats struct {
	Items                int `json:"items"`
	PostPages            int `json:"postPages"`
	ListingPages         int `json:"listingPages"`
	CategoryListingPages int `json:"categoryListingPages"`
	Categories           int `json:"categories"`
}

// Pages returns the total number of planned pages.
func (s Stats) Pages() int {
	return s.PostPages + s.ListingPages + s.CategoryListingPages
}

package site

import (
	"html/template"

	"git.home.luguber.info/inful/blogbuilder/internal/planner"
)

type siteView struct {
	Title       string
	Description string
	Author      string
	SiteURL     string
	Keywords    []string
	BlogPath    string
	Manifest    bool
}

type categoryLink struct {
	Label  string
	Path   string
	Active bool
}

type postView struct {
	ID         string
	Title      string
	URLPath    string
	Date       string
	Excerpt    string
	Banner     string
	Categories []categoryLink
	Keywords   []string
	Body       template.HTML
}

// pageMeta is shared by every page and feeds the "head" partial.
type pageMeta struct {
	Site      siteView
	PageTitle string
	Keywords  []string
}

type postPage struct {
	pageMeta
	Post postView
	Prev *planner.PostRef
	Next *planner.PostRef
}

type listingPage struct {
	pageMeta
	Posts            []postView
	Pagination       planner.Pagination
	NextPagePath     string
	PreviousPagePath string
	Categories       []categoryLink
	ActiveCategory   string
}

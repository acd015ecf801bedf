// Package site materializes a plan as static HTML.
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/content"
	derrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/planner"
)

var (
	// ErrDuplicatePath is returned when two instructions map to the same file.
	ErrDuplicatePath = errors.New("duplicate output path")
	// ErrUnsafePath is returned for instruction paths that are not rooted
	// or contain parent references.
	ErrUnsafePath = errors.New("unsafe output path")
	// ErrUnknownItem is returned when a context references a missing item.
	ErrUnknownItem = errors.New("unknown item id")
)

const (
	pagesFile    = "pages.json"
	manifestFile = "manifest.webmanifest"
	indexFile    = "index.html"
)

// Summary describes what Write produced.
type Summary struct {
	Pages int
	Files int
}

// Writer renders plans into an output directory.
type Writer struct {
	outDir         string
	clean          bool
	layoutsDir     string
	staticDir      string
	blogPrefix     string
	categoryPrefix string
	site           config.SiteConfig
	manifest       config.WebManifestConfig
	md             goldmark.Markdown
}

// NewWriter creates a Writer from the build configuration.
func NewWriter(cfg *config.Config) *Writer {
	return &Writer{
		outDir:         cfg.Output.Directory,
		clean:          cfg.Output.Clean,
		layoutsDir:     cfg.Output.LayoutsDir,
		staticDir:      cfg.Output.StaticDir,
		blogPrefix:     cfg.Blog.PathPrefix,
		categoryPrefix: cfg.Blog.CategoryPrefix,
		site:           cfg.Site,
		manifest:       cfg.WebManifest,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
	}
}

// OutputDir returns the directory pages are written to.
func (w *Writer) OutputDir() string { return w.outDir }

// Write renders every instruction of plan. Paths are checked before
// anything is written, so a conflicting plan leaves the output untouched.
func (w *Writer) Write(ctx context.Context, plan planner.Result, items []content.Item) (Summary, error) {
	files, err := OutputFiles(plan.Instructions)
	if err != nil {
		return Summary{}, derrors.WrapError(err, derrors.CategoryRender, "invalid page plan").Fatal().Build()
	}

	tmpls, err := loadTemplates(w.layoutsDir)
	if err != nil {
		return Summary{}, derrors.WrapError(err, derrors.CategoryRender, "failed to load layouts").
			WithContext("layouts_dir", w.layoutsDir).
			Fatal().
			Build()
	}

	if err := w.prepareOutput(); err != nil {
		return Summary{}, err
	}

	r := &renderer{
		tmpls:    tmpls,
		byID:     make(map[string]content.Item, len(items)),
		site:     w.siteView(),
		catPaths: plan.CategoryPaths,
		md:       w.md,
		catPref:  w.categoryPrefix,
	}
	for _, it := range items {
		r.byID[it.ID] = it
	}

	var summary Summary
	for i, in := range plan.Instructions {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		html, err := r.render(in)
		if err != nil {
			return summary, derrors.WrapError(err, derrors.CategoryRender, "failed to render page").
				WithContext("path", in.Path).
				WithContext("template", string(in.Template)).
				Fatal().
				Build()
		}
		if err := w.writeFile(files[i], html); err != nil {
			return summary, err
		}
		summary.Pages++
		summary.Files++
		slog.Debug("Wrote page", logfields.Path(in.Path), logfields.Template(string(in.Template)))
	}

	if err := w.writePlan(plan); err != nil {
		return summary, err
	}
	summary.Files++

	written, err := w.writeManifest()
	if err != nil {
		return summary, err
	}
	summary.Files += written

	copied, err := w.copyStatic()
	if err != nil {
		return summary, err
	}
	summary.Files += copied

	return summary, nil
}

// OutputFiles maps each instruction to the file it is written to,
// relative to the output directory. It fails on unsafe or colliding paths.
func OutputFiles(instructions []planner.Instruction) ([]string, error) {
	files := make([]string, len(instructions))
	owner := make(map[string]string, len(instructions))
	for i, in := range instructions {
		file, err := outputFile(in.Path)
		if err != nil {
			return nil, err
		}
		if prev, dup := owner[file]; dup {
			return nil, fmt.Errorf("%w: %q and %q both write %s", ErrDuplicatePath, prev, in.Path, file)
		}
		owner[file] = in.Path
		files[i] = file
	}
	return files, nil
}

func outputFile(p string) (string, error) {
	if !strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("%w: %q is not rooted", ErrUnsafePath, p)
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." || seg == "." {
			return "", fmt.Errorf("%w: %q", ErrUnsafePath, p)
		}
	}
	rel := strings.TrimPrefix(path.Clean(p), "/")
	return filepath.Join(filepath.FromSlash(rel), indexFile), nil
}

func (w *Writer) prepareOutput() error {
	if w.clean {
		if err := os.RemoveAll(w.outDir); err != nil {
			return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to clean output directory").
				WithContext("path", w.outDir).
				Build()
		}
	}
	if err := os.MkdirAll(w.outDir, 0o750); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to create output directory").
			WithContext("path", w.outDir).
			Build()
	}
	return nil
}

func (w *Writer) writeFile(rel string, data []byte) error {
	target := filepath.Join(w.outDir, rel)
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to create page directory").
			WithContext("path", target).
			Build()
	}
	// #nosec G306 -- generated site is public
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to write page").
			WithContext("path", target).
			Build()
	}
	return nil
}

func (w *Writer) siteView() siteView {
	return siteView{
		Title:       w.site.Title,
		Description: w.site.Description,
		Author:      w.site.Author,
		SiteURL:     w.site.SiteURL,
		Keywords:    w.site.Keywords,
		BlogPath:    w.blogPrefix,
		Manifest:    w.manifest.Name != "",
	}
}

// renderer resolves instruction contexts into template data.
type renderer struct {
	tmpls    templateSet
	byID     map[string]content.Item
	site     siteView
	catPaths map[string]string
	catPref  string
	md       goldmark.Markdown
}

func (r *renderer) render(in planner.Instruction) ([]byte, error) {
	tmpl, ok := r.tmpls[in.Template]
	if !ok {
		return nil, fmt.Errorf("no layout for template %q", in.Template)
	}

	var data any
	switch ctx := in.Context.(type) {
	case *planner.PostContext:
		page, err := r.postPage(ctx)
		if err != nil {
			return nil, err
		}
		data = page
	case *planner.ListingContext:
		page, err := r.listingPage(ctx)
		if err != nil {
			return nil, err
		}
		data = page
	default:
		return nil, fmt.Errorf("unsupported page context %T", in.Context)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *renderer) item(id string) (content.Item, error) {
	it, ok := r.byID[id]
	if !ok {
		return content.Item{}, fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	return it, nil
}

func (r *renderer) postPage(ctx *planner.PostContext) (*postPage, error) {
	it, err := r.item(ctx.ID)
	if err != nil {
		return nil, err
	}
	view := r.postView(it)

	var body bytes.Buffer
	if err := r.md.Convert([]byte(it.Body), &body); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	// #nosec G203 -- goldmark escapes raw HTML unless WithUnsafe is set
	view.Body = template.HTML(body.String())

	page := &postPage{
		pageMeta: pageMeta{Site: r.site, PageTitle: view.Title, Keywords: it.Keywords},
		Post:     view,
	}
	if prev, ok := ctx.Prev.Get(); ok {
		page.Prev = &prev
	}
	if next, ok := ctx.Next.Get(); ok {
		page.Next = &next
	}
	return page, nil
}

func (r *renderer) listingPage(ctx *planner.ListingContext) (*listingPage, error) {
	page := &listingPage{
		pageMeta:         pageMeta{Site: r.site, Keywords: r.site.Keywords},
		Pagination:       ctx.Pagination,
		NextPagePath:     ctx.NextPagePath.UnwrapOr(""),
		PreviousPagePath: ctx.PreviousPagePath.UnwrapOr(""),
	}
	active, hasActive := ctx.ActiveCategory.Get()
	if hasActive {
		page.PageTitle = active.Label
		page.ActiveCategory = active.Label
	}
	for _, cat := range ctx.Categories {
		page.Categories = append(page.Categories, categoryLink{
			Label:  cat.Label,
			Path:   r.catPref + "/" + cat.Path,
			Active: hasActive && cat.Path == active.Path,
		})
	}
	for _, id := range ctx.Page {
		it, err := r.item(id)
		if err != nil {
			return nil, err
		}
		page.Posts = append(page.Posts, r.postView(it))
	}
	return page, nil
}

func (r *renderer) postView(it content.Item) postView {
	v := postView{
		ID:       it.ID,
		Title:    it.Title.UnwrapOr(it.URLPath),
		URLPath:  it.URLPath,
		Date:     it.Date,
		Excerpt:  it.Excerpt,
		Banner:   it.Banner.UnwrapOr(""),
		Keywords: it.Keywords,
	}
	seen := make(map[string]struct{}, len(it.Categories))
	for _, label := range it.Categories {
		p, ok := r.catPaths[label]
		if !ok {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		v.Categories = append(v.Categories, categoryLink{Label: label, Path: p})
	}
	return v
}

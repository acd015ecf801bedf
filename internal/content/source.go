package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/inful/mdfp"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	derrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

// ErrQueryFailed wraps every failure of Source.Query.
var ErrQueryFailed = errors.New("content query failed")

// itemNamespace seeds the name-based UUIDs used as item ids.
var itemNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("blogbuilder:content"))

// Source discovers and parses posts below a content directory.
type Source struct {
	dir        string
	extensions []string
	blogPrefix string
	excerpter  *Excerpter
}

// NewSource creates a Source for the content configuration. blogPrefix is
// the URL prefix post paths are derived under.
func NewSource(cfg config.ContentConfig, blogPrefix string) *Source {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	return &Source{
		dir:        cfg.Dir,
		extensions: cfg.Extensions,
		blogPrefix: blogPrefix,
		excerpter:  NewExcerpter(md, cfg.ExcerptLength),
	}
}

// Dir returns the content root.
func (s *Source) Dir() string { return s.dir }

// Query loads every post, derives its fields and returns the collection
// sorted newest first. If any document fails, no items are returned.
func (s *Source) Query(ctx context.Context) ([]Item, error) {
	paths, err := s.discover()
	if err != nil {
		return nil, queryError(err, 1)
	}

	items := make([]Item, 0, len(paths))
	var errs []error
	for _, rel := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item, err := s.load(rel)
		if err != nil {
			slog.Error("Failed to load post", logfields.File(rel), logfields.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", rel, err))
			continue
		}
		items = append(items, item)
	}
	if len(errs) > 0 {
		return nil, queryError(errors.Join(errs...), len(errs))
	}

	SortByDate(items)
	slog.Debug("Content query complete", logfields.Items(len(items)), logfields.Path(s.dir))
	return items, nil
}

func queryError(cause error, failures int) error {
	return derrors.WrapError(fmt.Errorf("%w: %w", ErrQueryFailed, cause), derrors.CategoryContent, "content query failed").
		WithContext("failures", failures).
		Fatal().
		UserAction().
		Build()
}

// discover returns source paths relative to the content root, sorted.
func (s *Source) discover() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(s.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if p != s.dir && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !s.matches(name) {
			return nil
		}
		rel, err := filepath.Rel(s.dir, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(paths)
	return paths, nil
}

func (s *Source) matches(name string) bool {
	return slices.Contains(s.extensions, strings.ToLower(filepath.Ext(name)))
}

func (s *Source) load(rel string) (Item, error) {
	// #nosec G304 -- path comes from walking the configured content dir
	data, err := os.ReadFile(filepath.Join(s.dir, filepath.FromSlash(rel)))
	if err != nil {
		return Item{}, err
	}

	rawFM, body, err := splitFrontmatter(data)
	if err != nil {
		return Item{}, err
	}
	fm, err := parseFrontmatter(rawFM)
	if err != nil {
		return Item{}, fmt.Errorf("parse frontmatter: %w", err)
	}
	excerpt, err := s.excerpter.Excerpt(body)
	if err != nil {
		return Item{}, fmt.Errorf("render excerpt: %w", err)
	}

	raw := RawNode{
		ID:          ItemID(rel),
		SourcePath:  rel,
		Excerpt:     excerpt,
		Body:        string(body),
		Frontmatter: fm,
	}
	item := NewItem(raw, s.blogPrefix, Fingerprint(rawFM, body))
	if strings.Trim(fm.Slug.UnwrapOr(""), "/") == "" {
		item.URLPath = URLPath(s.blogPrefix, FallbackSlug(rel))
		slog.Warn("Post has no slug, using file name",
			logfields.File(rel), logfields.Path(item.URLPath))
	}
	return item, nil
}

// NewItem derives fields for raw and assembles the Item.
func NewItem(raw RawNode, blogPrefix, fingerprint string) Item {
	fields := DeriveFields(raw, blogPrefix)
	published, _ := ParseDate(fields.Date)
	return Item{
		Fields:      fields,
		Excerpt:     raw.Excerpt,
		Body:        raw.Body,
		SourcePath:  raw.SourcePath,
		Fingerprint: fingerprint,
		Published:   published,
	}
}

// ItemID returns the stable identifier for a source path.
func ItemID(sourcePath string) string {
	return uuid.NewSHA1(itemNamespace, []byte(sourcePath)).String()
}

// Fingerprint hashes a post's frontmatter and body.
func Fingerprint(frontmatter, body []byte) string {
	fm := strings.TrimSuffix(strings.ReplaceAll(string(frontmatter), "\r\n", "\n"), "\n")
	return mdfp.CalculateFingerprintFromParts(fm, string(body))
}

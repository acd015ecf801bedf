package config

import (
	"path"
	"strings"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/normalization"
)

const (
	defaultContentDir     = "content/posts"
	defaultExcerptLength  = 250
	defaultPathPrefix     = "/posts"
	defaultCategoryPrefix = "/categories"
	defaultPostsPerPage   = 50
	defaultOutputDir      = "./public"
	defaultSubject        = "blogbuilder.builds"
	defaultDebounce       = 500 * time.Millisecond
)

var defaultExtensions = []string{".mdx", ".md"}

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// CompositeDefaultApplier runs each domain applier in order.
type CompositeDefaultApplier struct {
	appliers []DefaultApplier
}

// NewDefaultApplier creates a composite default applier with all domain appliers.
func NewDefaultApplier() *CompositeDefaultApplier {
	return &CompositeDefaultApplier{
		appliers: []DefaultApplier{
			&ContentDefaultApplier{},
			&BlogDefaultApplier{},
			&OutputDefaultApplier{},
			&NotifyDefaultApplier{},
			&WatchDefaultApplier{},
		},
	}
}

// ApplyDefaults applies every domain's defaults, stopping at the first error.
func (c *CompositeDefaultApplier) ApplyDefaults(cfg *Config) error {
	for _, applier := range c.appliers {
		if err := applier.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}

// ApplyDefaults fills unset configuration with defaults.
func ApplyDefaults(cfg *Config) error {
	return NewDefaultApplier().ApplyDefaults(cfg)
}

// ContentDefaultApplier handles content source defaults.
type ContentDefaultApplier struct{}

func (c *ContentDefaultApplier) Domain() string { return "content" }

func (c *ContentDefaultApplier) ApplyDefaults(cfg *Config) error {
	if strings.TrimSpace(cfg.Content.Dir) == "" {
		cfg.Content.Dir = defaultContentDir
	}
	if len(cfg.Content.Extensions) == 0 {
		cfg.Content.Extensions = append([]string(nil), defaultExtensions...)
	}
	for i, ext := range cfg.Content.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.Content.Extensions[i] = ext
	}
	if cfg.Content.ExcerptLength <= 0 {
		cfg.Content.ExcerptLength = defaultExcerptLength
	}
	return nil
}

// BlogDefaultApplier handles page planning defaults.
type BlogDefaultApplier struct{}

func (b *BlogDefaultApplier) Domain() string { return "blog" }

func (b *BlogDefaultApplier) ApplyDefaults(cfg *Config) error {
	cfg.Blog.PathPrefix = normalizePrefix(cfg.Blog.PathPrefix, defaultPathPrefix)
	cfg.Blog.CategoryPrefix = normalizePrefix(cfg.Blog.CategoryPrefix, defaultCategoryPrefix)
	if cfg.Blog.PostsPerPage == 0 {
		cfg.Blog.PostsPerPage = defaultPostsPerPage
	}
	if cfg.Blog.CategoryPaths == "" {
		cfg.Blog.CategoryPaths = CategoryPathsSlugify
	} else if m := NormalizeCategoryPathMode(string(cfg.Blog.CategoryPaths)); m != "" {
		cfg.Blog.CategoryPaths = m
	}
	return nil
}

// OutputDefaultApplier handles output defaults.
type OutputDefaultApplier struct{}

func (o *OutputDefaultApplier) Domain() string { return "output" }

func (o *OutputDefaultApplier) ApplyDefaults(cfg *Config) error {
	if strings.TrimSpace(cfg.Output.Directory) == "" {
		cfg.Output.Directory = defaultOutputDir
	}
	if cfg.WebManifest.Name != "" && cfg.WebManifest.StartURL == "" {
		cfg.WebManifest.StartURL = "/"
	}
	return nil
}

// NotifyDefaultApplier handles notification defaults.
type NotifyDefaultApplier struct{}

func (n *NotifyDefaultApplier) Domain() string { return "notify" }

func (n *NotifyDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Notify.NATSURL == "" {
		return nil
	}
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = defaultSubject
	}
	if m := NormalizeRetryBackoffMode(string(cfg.Notify.Retry.Backoff)); m != "" {
		cfg.Notify.Retry.Backoff = m
	}
	if cfg.Notify.Retry == (RetryConfig{}) {
		cfg.Notify.Retry = RetryConfig{
			Backoff:    RetryBackoffLinear,
			Initial:    time.Second,
			Max:        30 * time.Second,
			MaxRetries: 2,
		}
	}
	return nil
}

// WatchDefaultApplier handles watch mode defaults.
type WatchDefaultApplier struct{}

func (w *WatchDefaultApplier) Domain() string { return "watch" }

func (w *WatchDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = defaultDebounce
	}
	return nil
}

// normalizePrefix returns a rooted, clean path without a trailing slash.
func normalizePrefix(p, fallback string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return fallback
	}
	p = path.Clean("/" + p)
	if p == "/" {
		return fallback
	}
	return p
}

var (
	categoryPathModes = normalization.NewNormalizer(map[string]CategoryPathMode{
		"verbatim": CategoryPathsVerbatim,
		"slugify":  CategoryPathsSlugify,
		"slug":     CategoryPathsSlugify,
	}, "")
	retryBackoffModes = normalization.NewNormalizer(map[string]RetryBackoffMode{
		"fixed":       RetryBackoffFixed,
		"linear":      RetryBackoffLinear,
		"exponential": RetryBackoffExponential,
	}, "")
)

// NormalizeCategoryPathMode canonicalizes a user-provided mode string.
// Unknown values return "".
func NormalizeCategoryPathMode(raw string) CategoryPathMode {
	return categoryPathModes.Normalize(raw)
}

// NormalizeRetryBackoffMode canonicalizes a user-provided backoff mode.
// Unknown values return "".
func NormalizeRetryBackoffMode(raw string) RetryBackoffMode {
	return retryBackoffModes.Normalize(raw)
}

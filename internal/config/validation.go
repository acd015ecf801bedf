package config

import (
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// Validate checks the configuration after defaults have been applied.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateContent,
		c.validateBlog,
		c.validatePaths,
		c.validateWatch,
		c.validateNotify,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateContent() error {
	for _, ext := range c.Content.Extensions {
		if ext == "" || ext == "." {
			return errors.ValidationError("content.extensions contains an empty extension").Build()
		}
	}
	return nil
}

func (c *Config) validateBlog() error {
	if c.Blog.PostsPerPage < 1 {
		return errors.ValidationError("blog.posts_per_page must be at least 1").
			WithContext("posts_per_page", c.Blog.PostsPerPage).
			Build()
	}
	if _, err := categoryPathModes.NormalizeWithError(string(c.Blog.CategoryPaths)); err != nil {
		return errors.WrapError(err, errors.CategoryValidation, "invalid blog.category_paths").
			WithContext("category_paths", string(c.Blog.CategoryPaths)).
			Build()
	}
	if c.Blog.PathPrefix == c.Blog.CategoryPrefix {
		return errors.ValidationError("blog.path_prefix and blog.category_prefix must differ").
			WithContext("prefix", c.Blog.PathPrefix).
			Build()
	}
	return nil
}

func (c *Config) validatePaths() error {
	out := filepath.Clean(c.Output.Directory)
	if out == "/" {
		return errors.ValidationError("output.directory must not be the filesystem root").Build()
	}
	content := filepath.Clean(c.Content.Dir)
	if out == content || strings.HasPrefix(content+string(filepath.Separator), out+string(filepath.Separator)) {
		if c.Output.Clean {
			return errors.ValidationError("output.directory must not contain content.dir when output.clean is enabled").
				WithContext("output", out).
				WithContext("content", content).
				Build()
		}
	}
	return nil
}

func (c *Config) validateWatch() error {
	if c.Watch.Interval < 0 {
		return errors.ValidationError("watch.interval must not be negative").Build()
	}
	return nil
}

func (c *Config) validateNotify() error {
	if b := c.Notify.Retry.Backoff; b != "" {
		if _, err := retryBackoffModes.NormalizeWithError(string(b)); err != nil {
			return errors.WrapError(err, errors.CategoryValidation, "invalid notify.retry.backoff").Build()
		}
	}
	if c.Notify.Retry.MaxRetries < 0 {
		return errors.ValidationError("notify.retry.max_retries must not be negative").Build()
	}
	return nil
}

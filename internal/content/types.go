// Package content reads authored posts and derives the fields the planner
// and site writer consume.
package content

import (
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation"
)

// Labels is a list of category or keyword labels. In frontmatter it may be
// written either as a sequence or as a single scalar.
type Labels []string

// UnmarshalYAML accepts `categories: go` as well as `categories: [go, web]`.
func (l *Labels) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		if node.Value == "" {
			*l = Labels{}
			return nil
		}
		*l = Labels{node.Value}
		return nil
	}
	var list []string
	if err := node.Decode(&list); err != nil {
		return err
	}
	*l = Labels(list)
	return nil
}

// Frontmatter is the authored metadata block of a post. Every field is
// optional; defaulting happens only in DeriveFields.
type Frontmatter struct {
	Title       foundation.Option[string] `yaml:"title"`
	Description foundation.Option[string] `yaml:"description"`
	Slug        foundation.Option[string] `yaml:"slug"`
	Date        foundation.Option[string] `yaml:"date"`
	Banner      foundation.Option[string] `yaml:"banner"`
	Categories  foundation.Option[Labels] `yaml:"categories"`
	Keywords    foundation.Option[Labels] `yaml:"keywords"`
}

// RawNode is one parsed source document before field derivation.
type RawNode struct {
	ID          string
	SourcePath  string
	Excerpt     string
	Body        string
	Frontmatter Frontmatter
}

// Fields are the derived attributes attached to every post.
type Fields struct {
	ID          string                    `json:"id"`
	Title       foundation.Option[string] `json:"title"`
	Description foundation.Option[string] `json:"description"`
	Slug        foundation.Option[string] `json:"slug"`
	Banner      foundation.Option[string] `json:"banner"`
	URLPath     string                    `json:"urlPath"`
	Date        string                    `json:"date"`
	Categories  []string                  `json:"categories"`
	Keywords    []string                  `json:"keywords"`
}

// Item is a post ready for planning and rendering.
type Item struct {
	Fields
	Excerpt     string    `json:"excerpt"`
	Body        string    `json:"-"`
	SourcePath  string    `json:"sourcePath"`
	Fingerprint string    `json:"fingerprint"`
	Published   time.Time `json:"-"`
}

// HasDate reports whether the item carries a parseable publication date.
func (i Item) HasDate() bool {
	return !i.Published.IsZero()
}

package site

import (
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/blogbuilder/internal/planner"
)

//go:embed templates/*.html
var defaultTemplates embed.FS

// layoutFiles are the files a layouts directory may override.
var layoutFiles = []string{"partials.html", "post.html", "posts.html"}

var funcs = template.FuncMap{
	"join": strings.Join,
	"inc":  func(i int) int { return i + 1 },
}

// templateSet holds one parsed template per page template.
type templateSet map[planner.Template]*template.Template

// loadTemplates parses the embedded layouts. Files present in layoutsDir
// replace their embedded counterpart.
func loadTemplates(layoutsDir string) (templateSet, error) {
	sources := make(map[string]string, len(layoutFiles))
	for _, name := range layoutFiles {
		data, err := defaultTemplates.ReadFile("templates/" + name)
		if err != nil {
			return nil, err
		}
		sources[name] = string(data)

		if layoutsDir == "" {
			continue
		}
		// #nosec G304 -- layouts dir is operator configuration
		override, err := os.ReadFile(filepath.Join(layoutsDir, name))
		switch {
		case err == nil:
			sources[name] = string(override)
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("read layout %s: %w", name, err)
		}
	}

	set := make(templateSet, 2)
	for tmpl, file := range map[planner.Template]string{
		planner.TemplatePost:  "post.html",
		planner.TemplatePosts: "posts.html",
	} {
		t, err := template.New(file).Funcs(funcs).Parse(sources["partials.html"])
		if err != nil {
			return nil, fmt.Errorf("parse partials.html: %w", err)
		}
		if t, err = t.Parse(sources[file]); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		set[tmpl] = t
	}
	return set, nil
}

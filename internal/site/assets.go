package site

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	derrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/planner"
)

// PlanDocument is the machine-readable form of a plan written to pages.json.
type PlanDocument struct {
	Stats         planner.Stats         `json:"stats"`
	Categories    []planner.Category    `json:"categories"`
	CategoryPaths map[string]string     `json:"categoryPaths"`
	Pages         []planner.Instruction `json:"pages"`
}

// NewPlanDocument converts a plan result for serialization.
func NewPlanDocument(plan planner.Result) PlanDocument {
	doc := PlanDocument{
		Stats:         plan.Stats,
		CategoryPaths: plan.CategoryPaths,
		Pages:         plan.Instructions,
	}
	if plan.Index != nil {
		doc.Categories = plan.Index.Categories()
	}
	if doc.Categories == nil {
		doc.Categories = []planner.Category{}
	}
	if doc.Pages == nil {
		doc.Pages = []planner.Instruction{}
	}
	return doc
}

func (w *Writer) writePlan(plan planner.Result) error {
	data, err := json.MarshalIndent(NewPlanDocument(plan), "", "  ")
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryInternal, "failed to encode page plan").Build()
	}
	return w.writeFile(pagesFile, append(data, '\n'))
}

type manifestIcon struct {
	Src  string `json:"src"`
	Type string `json:"type,omitempty"`
}

type manifestDocument struct {
	config.WebManifestConfig
	Icons []manifestIcon `json:"icons,omitempty"`
}

// writeManifest writes manifest.webmanifest and copies its icon. It
// returns the number of files written.
func (w *Writer) writeManifest() (int, error) {
	if w.manifest.Name == "" {
		return 0, nil
	}
	doc := manifestDocument{WebManifestConfig: w.manifest}
	written := 0

	if w.manifest.Icon != "" {
		name := "icon" + filepath.Ext(w.manifest.Icon)
		if err := copyFile(w.manifest.Icon, filepath.Join(w.outDir, name)); err != nil {
			return 0, derrors.WrapError(err, derrors.CategoryFileSystem, "failed to copy manifest icon").
				WithContext("path", w.manifest.Icon).
				Build()
		}
		written++
		doc.Icons = []manifestIcon{{Src: "/" + name, Type: mime.TypeByExtension(filepath.Ext(name))}}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return 0, derrors.WrapError(err, derrors.CategoryInternal, "failed to encode web manifest").Build()
	}
	if err := w.writeFile(manifestFile, append(data, '\n')); err != nil {
		return 0, err
	}
	return written + 1, nil
}

// copyStatic copies the static directory into the output root. A missing
// static directory is not an error.
func (w *Writer) copyStatic() (int, error) {
	if w.staticDir == "" {
		return 0, nil
	}
	if _, err := os.Stat(w.staticDir); os.IsNotExist(err) {
		slog.Debug("Static directory not found, skipping copy", "path", w.staticDir)
		return 0, nil
	}

	copied := 0
	err := filepath.WalkDir(w.staticDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(w.staticDir, p)
		if err != nil {
			return err
		}
		if err := copyFile(p, filepath.Join(w.outDir, rel)); err != nil {
			return err
		}
		copied++
		return nil
	})
	if err != nil {
		return copied, derrors.WrapError(err, derrors.CategoryFileSystem, "failed to copy static assets").
			WithContext("path", w.staticDir).
			Build()
	}
	return copied, nil
}

func copyFile(src, dst string) error {
	// #nosec G304 -- source paths come from operator configuration
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}

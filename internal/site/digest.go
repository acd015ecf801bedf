package site

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
)

// InputsDigest hashes every file the writer reads besides the posts: the
// embedded layouts, the layouts and static directories and the manifest
// icon. Missing directories contribute nothing.
func InputsDigest(cfg *config.Config) (string, error) {
	h := sha256.New()
	if err := digestTree(h, "embedded", defaultTemplates, "templates"); err != nil {
		return "", err
	}
	if cfg != nil {
		for _, tree := range []struct{ label, dir string }{
			{"layouts", cfg.Output.LayoutsDir},
			{"static", cfg.Output.StaticDir},
		} {
			label, dir := tree.label, tree.dir
			if dir == "" {
				continue
			}
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				continue
			}
			if err := digestTree(h, label, os.DirFS(dir), "."); err != nil {
				return "", fmt.Errorf("digest %s: %w", dir, err)
			}
		}
		if icon := cfg.WebManifest.Icon; icon != "" {
			dir, name := filepath.Split(icon)
			if dir == "" {
				dir = "."
			}
			if err := digestFile(h, "icon", os.DirFS(dir), name); err != nil {
				return "", fmt.Errorf("digest %s: %w", icon, err)
			}
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func digestTree(h hash.Hash, label string, fsys fs.FS, root string) error {
	// WalkDir visits entries in lexical order.
	return fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		return digestFile(h, label, fsys, p)
	})
}

func digestFile(h hash.Hash, label string, fsys fs.FS, name string) error {
	f, err := fsys.Open(name)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	sum := sha256.New()
	if _, err := io.Copy(sum, f); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(h, "%s:%s:%x\n", label, name, sum.Sum(nil))
	return nil
}

package build

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/blogbuilder/internal/buildstore"
	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/site"
	"git.home.luguber.info/inful/blogbuilder/internal/version"
)

// ContentHash identifies the inputs of a build: every item's id and
// fingerprint, the configuration, the binary version and the layouts,
// static files and icon the writer reads. If those files cannot be read
// the hash is unique so the build is never skipped.
func ContentHash(items []content.Item, cfg *config.Config) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, it.ID+":"+it.Fingerprint)
	}
	slices.Sort(parts)

	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{'\n'})
	}
	if cfg != nil {
		if data, err := yaml.Marshal(cfg); err == nil {
			h.Write(data)
		}
	}
	h.Write([]byte(version.Version + "\n"))
	digest, err := site.InputsDigest(cfg)
	if err != nil {
		slog.Warn("Could not digest layouts and static files", logfields.Error(err))
		digest = uuid.NewString()
	}
	h.Write([]byte(digest))
	return hex.EncodeToString(h.Sum(nil))
}

// SkipEvaluator decides whether a build can be skipped.
type SkipEvaluator interface {
	// Evaluate returns a reason and true when the build can be skipped.
	Evaluate(ctx context.Context, contentHash, outputDir string) (string, bool)
}

// HistorySkipEvaluator skips a build when the last successful build had
// the same content hash and its output is still present.
type HistorySkipEvaluator struct {
	Store buildstore.Store
}

func (e HistorySkipEvaluator) Evaluate(ctx context.Context, contentHash, outputDir string) (string, bool) {
	if e.Store == nil {
		return "", false
	}
	last, err := e.Store.Latest(ctx, string(BuildStatusSuccess))
	if err != nil {
		if !errors.Is(err, buildstore.ErrNotFound) {
			slog.Warn("Skip evaluation could not read build history", logfields.Error(err))
		}
		return "", false
	}
	if last.ContentHash != contentHash {
		return "", false
	}
	if _, err := os.Stat(filepath.Join(outputDir, "pages.json")); err != nil {
		return "", false
	}
	return "no_changes", true
}

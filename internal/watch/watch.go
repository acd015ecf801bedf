// Package watch rebuilds the site when content, layouts, static files or
// configuration change. The watched directories are fixed when the
// Watcher is created.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

// BuildFunc performs one rebuild. reason describes what triggered it.
type BuildFunc func(ctx context.Context, reason string) error

// Options configures a Watcher.
type Options struct {
	ContentDir string
	// AssetDirs are further trees whose changes trigger a rebuild, such as
	// the layouts and static directories. Missing directories are skipped.
	AssetDirs  []string
	ConfigPath string
	Debounce   time.Duration
	// Interval schedules periodic rebuilds when positive.
	Interval time.Duration
}

// Watcher turns file system events into debounced, serialized rebuilds.
type Watcher struct {
	opts       Options
	build      BuildFunc
	fsw        *fsnotify.Watcher
	scheduler  gocron.Scheduler
	configPath string
	contentDir string
	trees      []string
	triggers   chan string
	builds     chan string
	completed  atomic.Int64
}

// New creates a Watcher. Call Run to start it.
func New(opts Options, build BuildFunc) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}

	w := &Watcher{
		opts:     opts,
		build:    build,
		triggers: make(chan string, 64),
		builds:   make(chan string, 1),
	}

	if opts.ContentDir != "" {
		abs, err := filepath.Abs(opts.ContentDir)
		if err != nil {
			return nil, fmt.Errorf("resolve content dir: %w", err)
		}
		w.contentDir = abs
		w.trees = append(w.trees, abs)
	}
	for _, dir := range opts.AssetDirs {
		if dir == "" {
			continue
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("resolve watch dir: %w", err)
		}
		if _, err := os.Stat(abs); err != nil {
			slog.Debug("Not watching missing directory", logfields.Path(abs))
			continue
		}
		w.trees = append(w.trees, abs)
	}
	if opts.ConfigPath != "" {
		abs, err := filepath.Abs(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("resolve config path: %w", err)
		}
		w.configPath = abs
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.fsw = fsw

	if opts.Interval > 0 {
		s, err := gocron.NewScheduler()
		if err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
		}
		if _, err := s.NewJob(
			gocron.DurationJob(opts.Interval),
			gocron.NewTask(w.Trigger, "schedule"),
			gocron.WithName("periodic-rebuild"),
		); err != nil {
			_ = fsw.Close()
			_ = s.Shutdown()
			return nil, fmt.Errorf("failed to create periodic rebuild job: %w", err)
		}
		w.scheduler = s
	}
	return w, nil
}

// Trigger requests a rebuild. Triggers arriving within the debounce
// window are coalesced into one build.
func (w *Watcher) Trigger(reason string) {
	select {
	case w.triggers <- reason:
	default:
		// A rebuild is already pending.
	}
}

// Completed returns the number of rebuilds that have finished.
func (w *Watcher) Completed() int64 {
	return w.completed.Load()
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		if err := w.fsw.Close(); err != nil {
			slog.Error("Error closing file watcher", logfields.Error(err))
		}
	}()

	if err := w.addWatches(); err != nil {
		return err
	}
	if w.scheduler != nil {
		w.scheduler.Start()
		defer func() {
			if err := w.scheduler.Shutdown(); err != nil {
				slog.Error("Error stopping scheduler", logfields.Error(err))
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.buildLoop(ctx)
	}()

	slog.Info("Watching for changes",
		slog.String("content_dir", w.contentDir),
		slog.Int("trees", len(w.trees)),
		slog.String("config", w.configPath),
		slog.Duration("debounce", w.opts.Debounce))

	w.eventLoop(ctx)
	<-done
	return nil
}

func (w *Watcher) addWatches() error {
	for _, tree := range w.trees {
		if err := w.addTree(tree); err != nil {
			return fmt.Errorf("failed to watch %s: %w", tree, err)
		}
	}
	if w.configPath != "" {
		// Watch the directory; editors often replace files instead of writing them.
		dir := filepath.Dir(w.configPath)
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("failed to watch config directory %s: %w", dir, err)
		}
	}
	return nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.fsw.Add(p)
	})
}

func (w *Watcher) eventLoop(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time
	pending := ""

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) && w.isWatchedPath(event.Name) {
				// New subdirectories must be watched explicitly.
				_ = w.addTree(event.Name)
			}
			slog.Debug("Change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			w.Trigger("change: " + event.Name)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", logfields.Error(err))

		case reason := <-w.triggers:
			pending = reason
			if timer == nil {
				timer = time.NewTimer(w.opts.Debounce)
			} else {
				timer.Reset(w.opts.Debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			select {
			case w.builds <- pending:
			default:
				// The queued rebuild will pick up this change too.
			}
		}
	}
}

func (w *Watcher) buildLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case reason := <-w.builds:
			start := time.Now()
			slog.Info("Rebuilding", slog.String("reason", reason))
			if err := w.build(ctx, reason); err != nil {
				slog.Error("Rebuild failed", logfields.Error(err), logfields.Duration(time.Since(start)))
			}
			w.completed.Add(1)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	if w.configPath != "" && abs == w.configPath {
		return true
	}
	if !w.isWatchedPath(abs) {
		return false
	}
	return !strings.HasPrefix(filepath.Base(abs), ".")
}

func (w *Watcher) isWatchedPath(p string) bool {
	abs, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	for _, tree := range w.trees {
		rel, err := filepath.Rel(tree, abs)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/blogbuilder/internal/build"
	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Output string `short:"o" help:"Output directory for the generated site (overrides output.directory)"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return RunWatch(ctx, root.Config, cfg, w.Output)
}

// RunWatch builds once and then rebuilds on every change until ctx is
// cancelled. The configuration is reloaded before each rebuild. The watched
// directories (content, layouts, static) and the history, notification and
// metrics settings keep their startup values; restart watch to change them.
func RunWatch(ctx context.Context, configPath string, cfg *config.Config, output string) error {
	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	current := cfg
	rebuild := func(ctx context.Context, reason string) error {
		if reason != "initial" {
			reloaded, err := config.Load(configPath)
			if err != nil {
				slog.Error("Configuration reload failed; keeping previous configuration", logfields.Error(err))
			} else {
				if watchedDirsChanged(cfg, reloaded) {
					slog.Warn("Watched directories changed in configuration; restart watch to follow them",
						logfields.Path(reloaded.Content.Dir))
				}
				current = reloaded
			}
		}
		_, err := rt.service.Run(ctx, build.BuildRequest{
			Config:    current,
			OutputDir: ResolveOutputDir(output, current),
			Options:   build.BuildOptions{Reason: reason},
		})
		rt.flushMetrics()
		return err
	}

	if err := rebuild(ctx, "initial"); err != nil {
		slog.Error("Initial build failed", logfields.Error(err))
	}

	watcher, err := watch.New(watch.Options{
		ContentDir: cfg.Content.Dir,
		AssetDirs:  []string{cfg.Output.LayoutsDir, cfg.Output.StaticDir},
		ConfigPath: configPath,
		Debounce:   cfg.Watch.Debounce,
		Interval:   cfg.Watch.Interval,
	}, rebuild)
	if err != nil {
		return err
	}

	slog.Info("Watch mode started, waiting for shutdown signal...")
	if err := watcher.Run(ctx); err != nil {
		return err
	}
	slog.Info("Watch mode stopped")
	return nil
}

func watchedDirsChanged(startup, reloaded *config.Config) bool {
	return startup.Content.Dir != reloaded.Content.Dir ||
		startup.Output.LayoutsDir != reloaded.Output.LayoutsDir ||
		startup.Output.StaticDir != reloaded.Output.StaticDir
}

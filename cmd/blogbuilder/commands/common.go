package commands

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/blogbuilder/internal/build"
	"git.home.luguber.info/inful/blogbuilder/internal/buildstore"
	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
	"git.home.luguber.info/inful/blogbuilder/internal/notify"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
	// Out receives user-facing command output. Defaults to stdout.
	Out io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"blogbuilder.yaml" env:"BLOGBUILDER_CONFIG"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Build the blog into the output directory"`
	Plan    PlanCmd    `cmd:"" help:"Print the page plan without writing anything"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
	Watch   WatchCmd   `cmd:"" help:"Build, then rebuild whenever content or configuration changes"`
	History HistoryCmd `cmd:"" help:"Show recent builds from the history database"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)}))
	slog.SetDefault(logger)
	return nil
}

// parseLogLevel honours --verbose first, then BLOGBUILDER_LOG_LEVEL.
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("BLOGBUILDER_LOG_LEVEL"))) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ResolveOutputDir returns the CLI flag when given, otherwise the
// configured output directory.
func ResolveOutputDir(cliOutput string, cfg *config.Config) string {
	if cliOutput != "" {
		return cliOutput
	}
	return cfg.Output.Directory
}

// runtime bundles the build service with the resources it was wired to.
type runtime struct {
	service   *build.DefaultBuildService
	store     buildstore.Store
	publisher notify.Publisher
	registry  *prom.Registry
	textfile  string
}

// newRuntime wires history, notifications and metrics from cfg.
func newRuntime(cfg *config.Config) (*runtime, error) {
	rt := &runtime{service: build.NewBuildService()}

	if cfg.History.Path != "" {
		store, err := buildstore.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		rt.store = store
		rt.service.WithStore(store)
	}

	publisher, err := notify.NewPublisher(cfg.Notify)
	if err != nil {
		// Notifications are best effort; build without them.
		slog.Warn("Build notifications disabled", logfields.Error(err))
		publisher = notify.NoopPublisher{}
	}
	rt.publisher = publisher
	rt.service.WithPublisher(publisher)

	if cfg.Metrics.Textfile != "" {
		rt.registry = prom.NewRegistry()
		rt.textfile = cfg.Metrics.Textfile
		rt.service.WithRecorder(metrics.NewPrometheusRecorder(rt.registry))
	}
	return rt, nil
}

// flushMetrics writes the metrics textfile when one is configured.
func (rt *runtime) flushMetrics() {
	if rt.registry == nil {
		return
	}
	if err := metrics.WriteTextfile(rt.registry, rt.textfile); err != nil {
		slog.Warn("Failed to write metrics textfile", logfields.Path(rt.textfile), logfields.Error(err))
	}
}

func (rt *runtime) Close() {
	rt.publisher.Close()
	if rt.store != nil {
		if err := rt.store.Close(); err != nil {
			slog.Warn("Failed to close build history", logfields.Error(err))
		}
	}
}

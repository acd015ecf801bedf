package commands

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/build"
	"git.home.luguber.info/inful/blogbuilder/internal/config"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output string `short:"o" help:"Output directory for the generated site (overrides output.directory)"`
	Force  bool   `help:"Rebuild even when nothing changed since the last successful build"`
	DryRun bool   `name:"dry-run" help:"Load and plan without writing output or history"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return RunBuild(ctx, g.out(), cfg, build.BuildRequest{
		OutputDir: ResolveOutputDir(b.Output, cfg),
		Options: build.BuildOptions{
			DryRun: b.DryRun,
			Force:  b.Force,
			Reason: "cli",
		},
	})
}

// RunBuild runs a single build of cfg and reports the result on out.
func RunBuild(ctx context.Context, out io.Writer, cfg *config.Config, req build.BuildRequest) error {
	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	req.Config = cfg
	result, err := rt.service.Run(ctx, req)
	rt.flushMetrics()
	if err != nil {
		return err
	}
	printResult(out, result, req.Options.DryRun)
	return nil
}

func printResult(out io.Writer, r *build.BuildResult, dryRun bool) {
	switch {
	case r.Skipped:
		_, _ = fmt.Fprintf(out, "Build skipped (%s): %s is up to date\n", r.SkipReason, r.OutputPath)
	case dryRun:
		_, _ = fmt.Fprintf(out, "Planned %d pages from %d posts (dry run)\n", r.Pages, r.Items)
	default:
		_, _ = fmt.Fprintf(out, "Built %d pages from %d posts into %s in %s\n",
			r.Pages, r.Items, r.OutputPath, r.Duration.Round(time.Millisecond))
	}
}

package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/planner"
)

// BuildService executes blog builds.
type BuildService interface {
	// Run executes the complete pipeline: load → plan → render.
	Run(ctx context.Context, req BuildRequest) (*BuildResult, error)
}

// BuildRequest contains all inputs required to execute a build.
type BuildRequest struct {
	// Config is the loaded configuration for this build.
	Config *config.Config

	// OutputDir overrides output.directory when set.
	OutputDir string

	// Options provides optional build behavior modifiers.
	Options BuildOptions
}

// BuildOptions provides optional configuration for build behavior.
type BuildOptions struct {
	// DryRun plans the site without writing, recording or notifying.
	DryRun bool

	// Force disables skip evaluation.
	Force bool

	// Reason is recorded in logs, e.g. "cli" or "change: content/a.md".
	Reason string
}

// BuildResult contains the outcome of a build execution.
type BuildResult struct {
	BuildID     string
	Status      BuildStatus
	OutputPath  string
	ContentHash string

	// Plan is the page plan; nil when the build failed before planning.
	Plan *planner.Result

	Items        int
	Pages        int
	FilesWritten int

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	// Skipped indicates the build was skipped due to no changes.
	Skipped    bool
	SkipReason string
}

// BuildStatus represents the outcome of a build execution.
type BuildStatus string

const (
	// BuildStatusSuccess indicates the build completed successfully.
	BuildStatusSuccess BuildStatus = "success"

	// BuildStatusFailed indicates the build encountered an error.
	BuildStatusFailed BuildStatus = "failed"

	// BuildStatusSkipped indicates the build was skipped (no changes).
	BuildStatusSkipped BuildStatus = "skipped"

	// BuildStatusCancelled indicates the build was cancelled.
	BuildStatusCancelled BuildStatus = "cancelled"
)

// IsTerminal returns true if the status represents a final state.
func (s BuildStatus) IsTerminal() bool {
	return s == BuildStatusSuccess || s == BuildStatusFailed ||
		s == BuildStatusSkipped || s == BuildStatusCancelled
}

// IsSuccess returns true if the build completed successfully.
func (s BuildStatus) IsSuccess() bool {
	return s == BuildStatusSuccess || s == BuildStatusSkipped
}

package build

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/blogbuilder/internal/buildstore"
	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/content"
	dberrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
	"git.home.luguber.info/inful/blogbuilder/internal/notify"
	"git.home.luguber.info/inful/blogbuilder/internal/observability"
	"git.home.luguber.info/inful/blogbuilder/internal/planner"
	"git.home.luguber.info/inful/blogbuilder/internal/site"
)

// Stage names used for logging and metrics.
const (
	StageLoad           = "load"
	StagePlan           = "plan"
	StageSkipEvaluation = "skip_evaluation"
	StageRender         = "render"
	StageRecord         = "record"
	StageNotify         = "notify"
)

// ContentSource loads the post collection.
type ContentSource interface {
	Query(ctx context.Context) ([]content.Item, error)
}

// SiteWriter materializes a plan.
type SiteWriter interface {
	Write(ctx context.Context, plan planner.Result, items []content.Item) (site.Summary, error)
}

// SourceFactory creates the content source for a configuration.
type SourceFactory func(cfg *config.Config) ContentSource

// WriterFactory creates the site writer for a configuration.
type WriterFactory func(cfg *config.Config) SiteWriter

// DefaultBuildService is the standard implementation of BuildService.
type DefaultBuildService struct {
	sourceFactory SourceFactory
	writerFactory WriterFactory
	skipEvaluator SkipEvaluator
	store         buildstore.Store
	publisher     notify.Publisher
	recorder      metrics.Recorder
	now           func() time.Time
}

// NewBuildService creates a DefaultBuildService reading from the content
// directory and writing HTML with the site writer.
func NewBuildService() *DefaultBuildService {
	return &DefaultBuildService{
		sourceFactory: func(cfg *config.Config) ContentSource {
			return content.NewSource(cfg.Content, cfg.Blog.PathPrefix)
		},
		writerFactory: func(cfg *config.Config) SiteWriter {
			return site.NewWriter(cfg)
		},
		publisher: notify.NoopPublisher{},
		recorder:  metrics.NoopRecorder{},
		now:       time.Now,
	}
}

// WithSourceFactory allows injecting a custom content source (for testing).
func (s *DefaultBuildService) WithSourceFactory(factory SourceFactory) *DefaultBuildService {
	s.sourceFactory = factory
	return s
}

// WithWriterFactory allows injecting a custom site writer (for testing).
func (s *DefaultBuildService) WithWriterFactory(factory WriterFactory) *DefaultBuildService {
	s.writerFactory = factory
	return s
}

// WithStore records every build in store and enables skipping unchanged
// builds based on its history.
func (s *DefaultBuildService) WithStore(store buildstore.Store) *DefaultBuildService {
	s.store = store
	if s.skipEvaluator == nil {
		s.skipEvaluator = HistorySkipEvaluator{Store: store}
	}
	return s
}

// WithSkipEvaluator overrides how unchanged builds are detected.
func (s *DefaultBuildService) WithSkipEvaluator(e SkipEvaluator) *DefaultBuildService {
	s.skipEvaluator = e
	return s
}

// WithPublisher sets the build event publisher.
func (s *DefaultBuildService) WithPublisher(p notify.Publisher) *DefaultBuildService {
	if p != nil {
		s.publisher = p
	}
	return s
}

// WithRecorder sets the metrics recorder.
func (s *DefaultBuildService) WithRecorder(r metrics.Recorder) *DefaultBuildService {
	if r != nil {
		s.recorder = r
	}
	return s
}

// Run executes the build pipeline.
func (s *DefaultBuildService) Run(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	startTime := s.now()
	result := &BuildResult{
		BuildID:   uuid.NewString(),
		StartTime: startTime,
	}
	ctx = observability.WithBuildID(ctx, result.BuildID)

	if req.Config == nil {
		return s.fail(ctx, result, "", dberrors.ConfigError("config required").Build(), req.Options)
	}

	cfg := *req.Config
	if req.OutputDir != "" {
		cfg.Output.Directory = req.OutputDir
	}
	result.OutputPath = cfg.Output.Directory

	observability.InfoContext(ctx, "Build started",
		logfields.Path(result.OutputPath),
		slog.String("reason", req.Options.Reason),
		slog.Bool("dry_run", req.Options.DryRun))

	// Stage 1: load content
	stageStart := s.now()
	ctx = observability.WithStage(ctx, StageLoad)
	items, err := s.sourceFactory(&cfg).Query(ctx)
	if err != nil {
		return s.fail(ctx, result, StageLoad, err, req.Options)
	}
	s.stageDone(StageLoad, stageStart)
	result.Items = len(items)
	s.recorder.SetContentItems(len(items))
	observability.InfoContext(ctx, "Content loaded", logfields.Items(len(items)))

	if err := ctx.Err(); err != nil {
		return s.fail(ctx, result, StagePlan, err, req.Options)
	}

	// Stage 2: plan pages
	stageStart = s.now()
	ctx = observability.WithStage(ctx, StagePlan)
	plan := planner.FromConfig(cfg.Blog).Plan(items)
	s.stageDone(StagePlan, stageStart)
	result.Plan = &plan
	result.Pages = plan.Stats.Pages()
	result.ContentHash = ContentHash(items, &cfg)
	s.recorder.SetPlannedPages(metrics.PageKindPost, plan.Stats.PostPages)
	s.recorder.SetPlannedPages(metrics.PageKindListing, plan.Stats.ListingPages)
	s.recorder.SetPlannedPages(metrics.PageKindCategoryListing, plan.Stats.CategoryListingPages)
	observability.InfoContext(ctx, "Pages planned",
		logfields.Pages(result.Pages),
		slog.Int("categories", plan.Stats.Categories))

	if req.Options.DryRun {
		observability.InfoContext(ctx, "Dry run, nothing written")
		return s.finish(ctx, result, BuildStatusSuccess, nil, req.Options)
	}

	// Stage 3: skip evaluation
	if !req.Options.Force && s.skipEvaluator != nil {
		stageStart = s.now()
		ctx = observability.WithStage(ctx, StageSkipEvaluation)
		reason, canSkip := s.skipEvaluator.Evaluate(ctx, result.ContentHash, result.OutputPath)
		s.stageDone(StageSkipEvaluation, stageStart)
		if canSkip {
			observability.InfoContext(ctx, "Build skipped - no changes detected")
			result.Skipped = true
			result.SkipReason = reason
			return s.finish(ctx, result, BuildStatusSkipped, nil, req.Options)
		}
	}

	if err := ctx.Err(); err != nil {
		return s.fail(ctx, result, StageRender, err, req.Options)
	}

	// Stage 4: render
	stageStart = s.now()
	ctx = observability.WithStage(ctx, StageRender)
	summary, err := s.writerFactory(&cfg).Write(ctx, plan, items)
	result.FilesWritten = summary.Files
	if err != nil {
		return s.fail(ctx, result, StageRender, err, req.Options)
	}
	s.stageDone(StageRender, stageStart)
	observability.InfoContext(ctx, "Site written",
		logfields.Pages(summary.Pages),
		slog.Int("files", summary.Files))

	return s.finish(ctx, result, BuildStatusSuccess, nil, req.Options)
}

func (s *DefaultBuildService) stageDone(stage string, start time.Time) {
	s.recorder.ObserveStageDuration(stage, s.now().Sub(start))
	s.recorder.IncStageResult(stage, metrics.ResultSuccess)
}

// fail marks result failed (or cancelled when ctx is done) and finishes it.
func (s *DefaultBuildService) fail(ctx context.Context, result *BuildResult, stage string, err error, opts BuildOptions) (*BuildResult, error) {
	status := BuildStatusFailed
	label := metrics.ResultFatal
	if ctx.Err() != nil {
		status = BuildStatusCancelled
		label = metrics.ResultCanceled
	}
	if stage != "" {
		s.recorder.IncStageResult(stage, label)
	}
	observability.ErrorContext(ctx, "Build failed", logfields.Error(err), logfields.Status(string(status)))
	return s.finish(ctx, result, status, err, opts)
}

// finish stamps timing, records history, publishes the build event and
// reports the outcome metric.
func (s *DefaultBuildService) finish(ctx context.Context, result *BuildResult, status BuildStatus, buildErr error, opts BuildOptions) (*BuildResult, error) {
	result.Status = status
	result.EndTime = s.now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	s.recorder.IncBuildOutcome(outcomeLabel(status))
	s.recorder.ObserveBuildDuration(result.Duration)

	if opts.DryRun {
		return result, buildErr
	}

	// History and notification must not be skipped because the build ctx
	// was cancelled.
	bg := context.WithoutCancel(ctx)
	s.record(bg, result, buildErr)
	s.publish(bg, result, buildErr)

	observability.InfoContext(ctx, "Build finished",
		logfields.Status(string(status)),
		logfields.Duration(result.Duration))
	return result, buildErr
}

func (s *DefaultBuildService) record(ctx context.Context, result *BuildResult, buildErr error) {
	if s.store == nil {
		return
	}
	start := s.now()
	ctx = observability.WithStage(ctx, StageRecord)
	rec := buildstore.Record{
		ID:          result.BuildID,
		StartedAt:   result.StartTime,
		FinishedAt:  result.EndTime,
		Status:      string(result.Status),
		Items:       result.Items,
		Pages:       result.Pages,
		ContentHash: result.ContentHash,
	}
	if buildErr != nil {
		rec.Error = buildErr.Error()
	}
	if err := s.store.Record(ctx, rec); err != nil {
		observability.WarnContext(ctx, "Failed to record build history", logfields.Error(err))
		s.recorder.IncStageResult(StageRecord, metrics.ResultWarning)
		return
	}
	s.stageDone(StageRecord, start)
}

func (s *DefaultBuildService) publish(ctx context.Context, result *BuildResult, buildErr error) {
	start := s.now()
	ctx = observability.WithStage(ctx, StageNotify)
	event := notify.BuildEvent{
		BuildID:    result.BuildID,
		Status:     string(result.Status),
		Items:      result.Items,
		Pages:      result.Pages,
		DurationMS: result.Duration.Milliseconds(),
		Output:     result.OutputPath,
		Timestamp:  result.EndTime.UTC(),
	}
	if buildErr != nil {
		event.Error = buildErr.Error()
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		observability.WarnContext(ctx, "Failed to publish build event", logfields.Error(err))
		s.recorder.IncStageResult(StageNotify, metrics.ResultWarning)
		return
	}
	s.stageDone(StageNotify, start)
}

func outcomeLabel(status BuildStatus) metrics.BuildOutcomeLabel {
	switch status {
	case BuildStatusSuccess:
		return metrics.BuildOutcomeSuccess
	case BuildStatusSkipped:
		return metrics.BuildOutcomeSkipped
	case BuildStatusCancelled:
		return metrics.BuildOutcomeCanceled
	default:
		return metrics.BuildOutcomeFailed
	}
}

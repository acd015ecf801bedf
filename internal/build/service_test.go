package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogbuilder/internal/buildstore"
	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/content"
	dberrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
	"git.home.luguber.info/inful/blogbuilder/internal/notify"
	"git.home.luguber.info/inful/blogbuilder/internal/planner"
	"git.home.luguber.info/inful/blogbuilder/internal/site"
)

type fakeSource struct {
	items []content.Item
	err   error
}

func (f fakeSource) Query(ctx context.Context) ([]content.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.items, f.err
}

type fakeWriter struct {
	calls int
	pages int
	err   error
}

func (f *fakeWriter) Write(_ context.Context, plan planner.Result, _ []content.Item) (site.Summary, error) {
	f.calls++
	f.pages = len(plan.Instructions)
	return site.Summary{Pages: f.pages, Files: f.pages + 1}, f.err
}

type fakePublisher struct {
	mu     sync.Mutex
	events []notify.BuildEvent
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, e notify.BuildEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return f.err
}
func (f *fakePublisher) Close() {}

type testRecorder struct {
	metrics.NoopRecorder
	stageResults map[string]map[metrics.ResultLabel]int
	outcomes     map[metrics.BuildOutcomeLabel]int
}

func newTestRecorder() *testRecorder {
	return &testRecorder{
		stageResults: map[string]map[metrics.ResultLabel]int{},
		outcomes:     map[metrics.BuildOutcomeLabel]int{},
	}
}

func (t *testRecorder) IncStageResult(stage string, result metrics.ResultLabel) {
	m, ok := t.stageResults[stage]
	if !ok {
		m = map[metrics.ResultLabel]int{}
		t.stageResults[stage] = m
	}
	m[result]++
}

func (t *testRecorder) IncBuildOutcome(outcome metrics.BuildOutcomeLabel) { t.outcomes[outcome]++ }

func testItems() []content.Item {
	items := make([]content.Item, 3)
	for i := range items {
		raw := content.RawNode{ID: content.ItemID(string(rune('a' + i))), SourcePath: string(rune('a'+i)) + ".md"}
		items[i] = content.NewItem(raw, "/posts", "fp")
		items[i].URLPath = "/posts/" + string(rune('a'+i))
	}
	return items
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{Output: config.OutputConfig{Directory: filepath.Join(t.TempDir(), "public")}}
	require.NoError(t, config.ApplyDefaults(cfg))
	return cfg
}

func newStore(t *testing.T) *buildstore.SQLiteStore {
	t.Helper()
	store, err := buildstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func serviceWith(src ContentSource, w SiteWriter) *DefaultBuildService {
	return NewBuildService().
		WithSourceFactory(func(*config.Config) ContentSource { return src }).
		WithWriterFactory(func(*config.Config) SiteWriter { return w })
}

func TestBuildStatus_IsSuccess(t *testing.T) {
	tests := []struct {
		status   BuildStatus
		expected bool
	}{
		{BuildStatusSuccess, true},
		{BuildStatusSkipped, true},
		{BuildStatusFailed, false},
		{BuildStatusCancelled, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.IsSuccess())
			assert.True(t, tt.status.IsTerminal())
		})
	}
}

func TestRun_Success(t *testing.T) {
	store := newStore(t)
	pub := &fakePublisher{}
	rec := newTestRecorder()
	w := &fakeWriter{}

	svc := serviceWith(fakeSource{items: testItems()}, w).WithStore(store).WithPublisher(pub).WithRecorder(rec)
	res, err := svc.Run(context.Background(), BuildRequest{Config: testConfig(t)})
	require.NoError(t, err)

	assert.Equal(t, BuildStatusSuccess, res.Status)
	assert.NotEmpty(t, res.BuildID)
	assert.Equal(t, 3, res.Items)
	assert.Equal(t, 3+1, res.Pages, "three posts and one listing page")
	assert.Equal(t, 5, res.FilesWritten)
	assert.NotEmpty(t, res.ContentHash)
	require.NotNil(t, res.Plan)
	assert.Equal(t, 1, w.calls)

	for _, stage := range []string{StageLoad, StagePlan, StageSkipEvaluation, StageRender, StageRecord, StageNotify} {
		assert.Equal(t, 1, rec.stageResults[stage][metrics.ResultSuccess], stage)
	}
	assert.Equal(t, 1, rec.outcomes[metrics.BuildOutcomeSuccess])

	last, err := store.Latest(context.Background(), "success")
	require.NoError(t, err)
	assert.Equal(t, res.BuildID, last.ID)
	assert.Equal(t, res.ContentHash, last.ContentHash)

	require.Len(t, pub.events, 1)
	assert.Equal(t, "success", pub.events[0].Status)
	assert.Equal(t, res.BuildID, pub.events[0].BuildID)
}

func TestRun_QueryFailureAbortsBuild(t *testing.T) {
	store := newStore(t)
	w := &fakeWriter{}
	rec := newTestRecorder()
	queryErr := dberrors.WrapError(content.ErrQueryFailed, dberrors.CategoryContent, "content query failed").Fatal().Build()

	svc := serviceWith(fakeSource{err: queryErr}, w).WithStore(store).WithRecorder(rec)
	res, err := svc.Run(context.Background(), BuildRequest{Config: testConfig(t)})
	require.Error(t, err)
	assert.ErrorIs(t, err, content.ErrQueryFailed)

	assert.Equal(t, BuildStatusFailed, res.Status)
	assert.Nil(t, res.Plan, "no partial plan is produced")
	assert.Zero(t, w.calls)
	assert.Equal(t, 1, rec.stageResults[StageLoad][metrics.ResultFatal])
	assert.Equal(t, 1, rec.outcomes[metrics.BuildOutcomeFailed])

	last, err := store.Latest(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "failed", last.Status)
	assert.Contains(t, last.Error, "content query failed")
}

func TestRun_RenderFailure(t *testing.T) {
	w := &fakeWriter{err: errors.New("disk full")}
	res, err := serviceWith(fakeSource{items: testItems()}, w).Run(context.Background(), BuildRequest{Config: testConfig(t)})
	require.Error(t, err)
	assert.Equal(t, BuildStatusFailed, res.Status)
	assert.NotNil(t, res.Plan)
}

func TestRun_NilConfig(t *testing.T) {
	res, err := NewBuildService().Run(context.Background(), BuildRequest{})
	require.Error(t, err)
	assert.True(t, dberrors.HasCategory(err, dberrors.CategoryConfig))
	assert.Equal(t, BuildStatusFailed, res.Status)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pub := &fakePublisher{}

	res, err := serviceWith(fakeSource{items: testItems()}, &fakeWriter{}).WithPublisher(pub).Run(ctx, BuildRequest{Config: testConfig(t)})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, BuildStatusCancelled, res.Status)
	require.Len(t, pub.events, 1, "cancelled builds are still announced")
	assert.Equal(t, "cancelled", pub.events[0].Status)
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	store := newStore(t)
	pub := &fakePublisher{}
	w := &fakeWriter{}

	svc := serviceWith(fakeSource{items: testItems()}, w).WithStore(store).WithPublisher(pub)
	res, err := svc.Run(context.Background(), BuildRequest{Config: testConfig(t), Options: BuildOptions{DryRun: true}})
	require.NoError(t, err)

	assert.Equal(t, BuildStatusSuccess, res.Status)
	assert.NotNil(t, res.Plan)
	assert.Zero(t, w.calls)
	assert.Empty(t, pub.events)
	_, err = store.Latest(context.Background(), "")
	assert.ErrorIs(t, err, buildstore.ErrNotFound)
}

func TestRun_PublishFailureIsNotFatal(t *testing.T) {
	pub := &fakePublisher{err: errors.New("nats down")}
	rec := newTestRecorder()

	res, err := serviceWith(fakeSource{items: testItems()}, &fakeWriter{}).WithPublisher(pub).WithRecorder(rec).
		Run(context.Background(), BuildRequest{Config: testConfig(t)})
	require.NoError(t, err)
	assert.Equal(t, BuildStatusSuccess, res.Status)
	assert.Equal(t, 1, rec.stageResults[StageNotify][metrics.ResultWarning])
}

func TestRun_OutputDirOverride(t *testing.T) {
	cfg := testConfig(t)
	override := filepath.Join(t.TempDir(), "elsewhere")

	var seen string
	svc := NewBuildService().
		WithSourceFactory(func(*config.Config) ContentSource { return fakeSource{items: testItems()} }).
		WithWriterFactory(func(c *config.Config) SiteWriter {
			seen = c.Output.Directory
			return &fakeWriter{}
		})
	res, err := svc.Run(context.Background(), BuildRequest{Config: cfg, OutputDir: override})
	require.NoError(t, err)
	assert.Equal(t, override, seen)
	assert.Equal(t, override, res.OutputPath)
	assert.NotEqual(t, override, cfg.Output.Directory, "request config is not mutated")
}

func writePost(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func TestRun_SkipsUnchangedContent(t *testing.T) {
	root := t.TempDir()
	cfg := &config.Config{
		Content: config.ContentConfig{Dir: filepath.Join(root, "content")},
		Output:  config.OutputConfig{Directory: filepath.Join(root, "public")},
	}
	require.NoError(t, config.ApplyDefaults(cfg))
	writePost(t, cfg.Content.Dir, "hello.md", "---\ntitle: Hello\nslug: hello\ndate: 2024-01-01\ncategories: [Go]\n---\nHi.\n")

	svc := NewBuildService().WithStore(newStore(t))
	ctx := context.Background()

	first, err := svc.Run(ctx, BuildRequest{Config: cfg})
	require.NoError(t, err)
	assert.Equal(t, BuildStatusSuccess, first.Status)
	assert.FileExists(t, filepath.Join(cfg.Output.Directory, "posts", "hello", "index.html"))
	assert.FileExists(t, filepath.Join(cfg.Output.Directory, "categories", "go", "index.html"))

	second, err := svc.Run(ctx, BuildRequest{Config: cfg})
	require.NoError(t, err)
	assert.Equal(t, BuildStatusSkipped, second.Status)
	assert.Equal(t, "no_changes", second.SkipReason)

	forced, err := svc.Run(ctx, BuildRequest{Config: cfg, Options: BuildOptions{Force: true}})
	require.NoError(t, err)
	assert.Equal(t, BuildStatusSuccess, forced.Status)

	writePost(t, cfg.Content.Dir, "hello.md", "---\ntitle: Hello\nslug: hello\ndate: 2024-01-01\n---\nChanged.\n")
	changed, err := svc.Run(ctx, BuildRequest{Config: cfg})
	require.NoError(t, err)
	assert.Equal(t, BuildStatusSuccess, changed.Status)
	assert.NotEqual(t, first.ContentHash, changed.ContentHash)
}

func TestContentHash_OrderIndependent(t *testing.T) {
	items := testItems()
	reversed := []content.Item{items[2], items[1], items[0]}
	cfg := testConfig(t)

	assert.Equal(t, ContentHash(items, cfg), ContentHash(reversed, cfg))

	other := *cfg
	other.Blog.PostsPerPage = 10
	assert.NotEqual(t, ContentHash(items, cfg), ContentHash(items, &other))
}

func TestRun_LayoutEditTriggersRebuild(t *testing.T) {
	root := t.TempDir()
	cfg := &config.Config{
		Content: config.ContentConfig{Dir: filepath.Join(root, "content")},
		Output: config.OutputConfig{
			Directory:  filepath.Join(root, "public"),
			LayoutsDir: filepath.Join(root, "layouts"),
			StaticDir:  filepath.Join(root, "static"),
		},
	}
	require.NoError(t, config.ApplyDefaults(cfg))
	writePost(t, cfg.Content.Dir, "hello.md", "---\ntitle: Hello\nslug: hello\ndate: 2024-01-01\n---\nHi.\n")
	writePost(t, cfg.Output.LayoutsDir, "post.html", `<p>ORIGINAL {{.Post.Title}}</p>`)

	svc := NewBuildService().WithStore(newStore(t))
	ctx := context.Background()
	page := filepath.Join(cfg.Output.Directory, "posts", "hello", "index.html")

	first, err := svc.Run(ctx, BuildRequest{Config: cfg})
	require.NoError(t, err)
	require.Equal(t, BuildStatusSuccess, first.Status)

	writePost(t, cfg.Output.LayoutsDir, "post.html", `<p>CHANGED {{.Post.Title}}</p>`)
	second, err := svc.Run(ctx, BuildRequest{Config: cfg})
	require.NoError(t, err)
	assert.Equal(t, BuildStatusSuccess, second.Status)
	data, err := os.ReadFile(page)
	require.NoError(t, err)
	assert.Contains(t, string(data), "CHANGED")

	writePost(t, cfg.Output.StaticDir, "style.css", "body{}")
	third, err := svc.Run(ctx, BuildRequest{Config: cfg})
	require.NoError(t, err)
	assert.Equal(t, BuildStatusSuccess, third.Status)

	fourth, err := svc.Run(ctx, BuildRequest{Config: cfg})
	require.NoError(t, err)
	assert.Equal(t, BuildStatusSkipped, fourth.Status)
}

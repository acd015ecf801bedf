package errors

import (
	"bytes"
	stderrors "errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCLIErrorAdapter_ExitCodes(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain", stderrors.New("boom"), 1},
		{"validation", ValidationError("bad").Build(), 2},
		{"config", ConfigError("bad").Build(), 7},
		{"content", ContentError("bad").Build(), 9},
		{"planning", PlanningError("bad").Build(), 11},
		{"render", RenderError("bad").Build(), 11},
		{"store", StoreError("bad").Build(), 12},
		{"internal", InternalError("bad").Build(), 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	err := WrapError(stderrors.New("no such file"), CategoryContent, "read post").
		WithContext("file", "hello.md").
		Build()

	quiet := NewCLIErrorAdapter(false, slog.Default())
	assert.Equal(t, "Error: read post: no such file file=hello.md", quiet.FormatError(err))

	verbose := NewCLIErrorAdapter(true, slog.Default())
	assert.Equal(t, "Error: [content:error] read post: no such file", verbose.FormatError(err))

	assert.Equal(t, "Error: boom", quiet.FormatError(stderrors.New("boom")))
	assert.Empty(t, quiet.FormatError(nil))
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var out, logs bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.out = &out
	code := -1
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(ConfigError("missing site title").Build())

	assert.Equal(t, 7, code)
	assert.Contains(t, out.String(), "missing site title")
	assert.Contains(t, logs.String(), "category=config")
}

package content

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitFrontmatter_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	fm, body, err := splitFrontmatter(input)
	require.NoError(t, err)
	require.Empty(t, fm)
	require.Equal(t, input, body)
}

func TestSplitFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	fm, body, err := splitFrontmatter([]byte("---\nkey: value\n---\n# Title\n"))
	require.NoError(t, err)
	require.Equal(t, []byte("key: value\n"), fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplitFrontmatter_CRLF(t *testing.T) {
	fm, body, err := splitFrontmatter([]byte("---\r\nkey: value\r\n---\r\n# Title\r\n"))
	require.NoError(t, err)
	require.Equal(t, []byte("key: value\r\n"), fm)
	require.Equal(t, []byte("# Title\r\n"), body)
}

func TestSplitFrontmatter_EmptyBlock(t *testing.T) {
	fm, body, err := splitFrontmatter([]byte("---\n---\nbody\n"))
	require.NoError(t, err)
	require.Empty(t, fm)
	require.Equal(t, []byte("body\n"), body)
}

func TestSplitFrontmatter_ClosingDelimiterAtEOF(t *testing.T) {
	fm, body, err := splitFrontmatter([]byte("---\ntitle: x\n---"))
	require.NoError(t, err)
	require.Equal(t, []byte("title: x\n"), fm)
	require.Empty(t, body)
}

func TestSplitFrontmatter_MissingClosingDelimiter(t *testing.T) {
	_, _, err := splitFrontmatter([]byte("---\nkey: value\n# Title\n"))
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestParseFrontmatter_Invalid(t *testing.T) {
	_, err := parseFrontmatter([]byte("title: [broken"))
	require.Error(t, err)
}

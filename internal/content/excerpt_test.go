package content

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"
)

func TestExcerpt_StripsMarkup(t *testing.T) {
	e := NewExcerpter(goldmark.New(), 250)
	got, err := e.Excerpt([]byte("# Heading\n\nSome *emphasis* and [a link](https://example.com).\n\n- one\n- two\n"))
	require.NoError(t, err)
	assert.Equal(t, "Heading Some emphasis and a link. one two", got)
}

func TestPrune(t *testing.T) {
	assert.Equal(t, "short", prune("short", 10))
	assert.Equal(t, "hello…", prune("hello world", 8))
	assert.Equal(t, "hello…", prune("hello, world", 7))
	assert.Equal(t, "abcde…", prune("abcdefghij", 5), "a single long word is cut hard")
	assert.Equal(t, "anything", prune("anything", 0))
}

func TestPrune_RespectsLength(t *testing.T) {
	text := strings.Repeat("lorem ipsum dolor ", 40)
	got := prune(text, 250)
	assert.True(t, strings.HasSuffix(got, ellipsis))
	assert.LessOrEqual(t, utf8.RuneCountInString(strings.TrimSuffix(got, ellipsis)), 250)
}

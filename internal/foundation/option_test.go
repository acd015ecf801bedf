package foundation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestOption_Basics(t *testing.T) {
	some := Some("value")
	require.True(t, some.IsSome())
	require.False(t, some.IsNone())
	assert.Equal(t, "value", some.UnwrapOr("fallback"))

	none := None[string]()
	require.True(t, none.IsNone())
	assert.Equal(t, "fallback", none.UnwrapOr("fallback"))
	assert.Equal(t, "lazy", none.UnwrapOrElse(func() string { return "lazy" }))

	v, ok := some.Get()
	assert.True(t, ok)
	assert.Equal(t, "value", v)

	assert.Equal(t, "Some(value)", some.String())
	assert.Equal(t, "None", none.String())
}

func TestMapOption(t *testing.T) {
	length := MapOption(Some("abc"), func(s string) int { return len(s) })
	assert.Equal(t, 3, length.UnwrapOr(0))

	empty := MapOption(None[string](), func(s string) int { return len(s) })
	assert.True(t, empty.IsNone())
}

func TestOption_YAML(t *testing.T) {
	type doc struct {
		Title Option[string]   `yaml:"title"`
		Slug  Option[string]   `yaml:"slug"`
		Tags  Option[[]string] `yaml:"tags"`
		Date  Option[string]   `yaml:"date"`
	}

	var d doc
	require.NoError(t, yaml.Unmarshal([]byte("title: Hello\nslug: null\ntags: [a, b]\n"), &d))

	assert.Equal(t, "Hello", d.Title.UnwrapOr(""))
	assert.True(t, d.Slug.IsNone(), "explicit null decodes to None")
	assert.Equal(t, []string{"a", "b"}, d.Tags.UnwrapOr(nil))
	assert.True(t, d.Date.IsNone(), "missing key stays None")
}

func TestOption_YAMLDateScalarAsString(t *testing.T) {
	var d struct {
		Date Option[string] `yaml:"date"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("date: 2019-03-04\n"), &d))
	assert.Equal(t, "2019-03-04", d.Date.UnwrapOr(""))
}

func TestOption_JSON(t *testing.T) {
	type page struct {
		Next Option[string] `json:"next"`
		Prev Option[string] `json:"prev"`
	}

	out, err := json.Marshal(page{Next: Some("/posts/2")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"next":"/posts/2","prev":null}`, string(out))

	var back page
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, "/posts/2", back.Next.UnwrapOr(""))
	assert.True(t, back.Prev.IsNone())
}

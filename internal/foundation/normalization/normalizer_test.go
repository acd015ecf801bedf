package normalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shape string

const (
	shapeNone   shape = ""
	shapeCircle shape = "circle"
	shapeSquare shape = "square"
)

func newShapes() *Normalizer[shape] {
	return NewNormalizer(map[string]shape{
		"circle": shapeCircle,
		"round":  shapeCircle,
		"Square": shapeSquare,
	}, shapeNone)
}

func TestNormalizer_Normalize(t *testing.T) {
	n := newShapes()

	tests := []struct {
		input    string
		expected shape
	}{
		{"circle", shapeCircle},
		{"  CIRCLE ", shapeCircle},
		{"round", shapeCircle},
		{"square", shapeSquare},
		{"triangle", shapeNone},
		{"", shapeNone},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, n.Normalize(tt.input))
		})
	}
}

func TestNormalizer_NormalizeWithError(t *testing.T) {
	n := newShapes()

	v, err := n.NormalizeWithError(" Round")
	require.NoError(t, err)
	assert.Equal(t, shapeCircle, v)

	_, err = n.NormalizeWithError("triangle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[circle round square]")
}

func TestNormalizer_ValidKeysIsACopy(t *testing.T) {
	n := newShapes()
	keys := n.ValidKeys()
	assert.Equal(t, []string{"circle", "round", "square"}, keys)

	keys[0] = "mutated"
	assert.Equal(t, "circle", n.ValidKeys()[0])
}

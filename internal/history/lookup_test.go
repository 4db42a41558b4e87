package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberAt_NestedPath(t *testing.T) {
	t.Parallel()

	doc := map[string]any{
		"accuracy": map[string]any{
			"averageRankedAccuracy": 95.5,
		},
	}

	value, ok := NumberAt(doc, "accuracy.averageRankedAccuracy")
	require.True(t, ok)
	assert.Equal(t, 95.5, value)
}

func TestNumberAt_MissingKey(t *testing.T) {
	t.Parallel()

	_, ok := NumberAt(map[string]any{}, "accuracy.averageRankedAccuracy")
	assert.False(t, ok)
}

func TestNumberAt_NonNumericTerminal(t *testing.T) {
	t.Parallel()

	_, ok := NumberAt(map[string]any{"rank": "x"}, "rank")
	assert.False(t, ok)
}

func TestNumberAt_NonObjectIntermediate(t *testing.T) {
	t.Parallel()

	doc := map[string]any{"accuracy": 12.0}
	_, ok := NumberAt(doc, "accuracy.averageRankedAccuracy")
	assert.False(t, ok)
}

func TestNumberAt_TopLevelValue(t *testing.T) {
	t.Parallel()

	value, ok := NumberAt(map[string]any{"rank": 42}, "rank")
	require.True(t, ok)
	assert.Equal(t, 42.0, value)
}

func TestNumberAt_NilDocAndEmptyPath(t *testing.T) {
	t.Parallel()

	_, ok := NumberAt(nil, "rank")
	assert.False(t, ok)

	_, ok = NumberAt(map[string]any{"rank": 1}, "")
	assert.False(t, ok)
}

func TestNumberAt_IntegerWidths(t *testing.T) {
	t.Parallel()

	doc := map[string]any{
		"a": int32(7),
		"b": int64(8),
		"c": float32(9.5),
	}

	for path, want := range map[string]float64{"a": 7, "b": 8, "c": 9.5} {
		value, ok := NumberAt(doc, path)
		require.True(t, ok, "path %s", path)
		assert.Equal(t, want, value)
	}
}

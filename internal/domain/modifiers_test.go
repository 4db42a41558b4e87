package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeModifier_Label(t *testing.T) {
	t.Parallel()

	code, ok := NormalizeModifier("No Fail")
	require.True(t, ok)
	assert.Equal(t, ModifierNoFail, code)
}

func TestNormalizeModifier_CodePassesThrough(t *testing.T) {
	t.Parallel()

	code, ok := NormalizeModifier("NF")
	require.True(t, ok)
	assert.Equal(t, "NF", code)
}

func TestNormalizeModifier_Unknown(t *testing.T) {
	t.Parallel()

	_, ok := NormalizeModifier("Turbo Mode")
	assert.False(t, ok)
}

func TestHasModifier(t *testing.T) {
	t.Parallel()

	assert.True(t, HasModifier([]string{"DA", "NF"}, ModifierNoFail))
	assert.False(t, HasModifier([]string{"DA"}, ModifierNoFail))
	assert.False(t, HasModifier(nil, ModifierNoFail))
}

package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_Names(t *testing.T) {
	assert.Equal(t, "REAPPLIED", StatusReapplied.Upper())
	assert.Equal(t, "default", StatusDefault.String())
	assert.False(t, StatusNone.Classified())
	assert.True(t, StatusRedundant.Classified())
}

func TestStatus_TextRoundTrip(t *testing.T) {
	for _, st := range Statuses {
		text, err := st.MarshalText()
		require.NoError(t, err)

		var back Status
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, st, back)
	}
}

func TestParsePrototype(t *testing.T) {
	for _, p := range Prototypes {
		got, err := ParsePrototype(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}

	_, err := ParsePrototype("baca.MarginMarkup")
	assert.Error(t, err)
}

func TestPrototype_ManifestBacked(t *testing.T) {
	assert.True(t, PrototypeInstrument.ManifestBacked())
	assert.True(t, PrototypeMetronomeMark.ManifestBacked())
	assert.True(t, PrototypeMarginMarkup.ManifestBacked())
	assert.False(t, PrototypeClef.ManifestBacked())
	assert.False(t, PrototypeStaffLines.ManifestBacked())
}

package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/segmaker/internal/indicator"
	"github.com/roach88/segmaker/internal/ir"
	"github.com/roach88/segmaker/internal/score"
)

func emissionTags(w *score.Wrapper) []string {
	var out []string
	for _, e := range w.Emissions {
		out = append(out, e.Tag)
	}
	return out
}

func TestColor(t *testing.T) {
	assert.Equal(t, "DarkViolet", Color(ir.StatusDefault, false))
	assert.Equal(t, "violet", Color(ir.StatusDefault, true))
	assert.Equal(t, "blue", Color(ir.StatusExplicit, false))
	assert.Equal(t, "DeepSkyBlue2", Color(ir.StatusExplicit, true))
	assert.Equal(t, "green4", Color(ir.StatusReapplied, false))
	assert.Equal(t, "OliveDrab", Color(ir.StatusReapplied, true))
	assert.Equal(t, "DeepPink1", Color(ir.StatusRedundant, false))
	assert.Equal(t, "DeepPink4", Color(ir.StatusRedundant, true))
}

func TestAnnotate_Clef(t *testing.T) {
	w := &score.Wrapper{Indicator: indicator.Clef("bass")}
	Annotate(w, ir.StatusReapplied, AnnotateOptions{})

	assert.Equal(t, ir.StatusReapplied, w.Status)
	assert.Equal(t, "REAPPLIED_CLEF", w.Tag)
	assert.Equal(t, []string{
		"REAPPLIED_CLEF_FORCED",
		"REAPPLIED_CLEF_COLOR",
		"REAPPLIED_CLEF_COLOR_CANCELLATION",
		"REAPPLIED_CLEF_REDRAW_COLOR",
	}, emissionTags(w))
	assert.Equal(t, `\set Staff.forceClef = ##t`, w.Emissions[0].Statement)
	assert.Equal(t, `\once \override Staff.Clef.color = #(x11-color 'green4)`, w.Emissions[1].Statement)
	assert.True(t, w.Emissions[2].Deactivate)
	assert.Equal(t, `\override Staff.Clef.color = #(x11-color 'OliveDrab)`, w.Emissions[3].Statement)
}

func TestAnnotate_LatentAlert(t *testing.T) {
	w := &score.Wrapper{Indicator: indicator.Instrument("Flute", "Fl.")}
	Annotate(w, ir.StatusExplicit, AnnotateOptions{})

	assert.Contains(t, emissionTags(w), "EXPLICIT_INSTRUMENT_ALERT")
	for _, e := range w.Emissions {
		if e.Tag == "EXPLICIT_INSTRUMENT_ALERT" {
			assert.Equal(t, `^ \markup { \with-color #(x11-color 'blue) "(Flute)" }`, e.Statement)
			assert.True(t, e.After)
		}
	}
}

func TestAnnotate_HiddenSkipsRedraw(t *testing.T) {
	w := &score.Wrapper{Indicator: indicator.MarginMarkup("Fl.").WithHide(true)}
	Annotate(w, ir.StatusExplicit, AnnotateOptions{})
	assert.NotContains(t, emissionTags(w), "EXPLICIT_MARGIN_MARKUP_REDRAW_COLOR")
	assert.Contains(t, emissionTags(w), "EXPLICIT_MARGIN_MARKUP_ALERT")
}

func TestAnnotate_UncolorAndPrefix(t *testing.T) {
	w := &score.Wrapper{Indicator: indicator.StaffLines(5)}
	Annotate(w, ir.StatusExplicit, AnnotateOptions{Prefix: "FERMATA_MEASURE", Uncolor: true})

	assert.Equal(t, "EXPLICIT_STAFF_LINES_FERMATA_MEASURE", w.Tag)
	require.Len(t, w.Emissions, 1)
	assert.Equal(t, "EXPLICIT_STAFF_LINES_FERMATA_MEASURE_COLOR_CANCELLATION", w.Emissions[0].Tag)
	assert.True(t, w.Emissions[0].Deactivate)
}

func TestAnnotate_GlobalKindsAddressScore(t *testing.T) {
	w := &score.Wrapper{Indicator: indicator.TimeSignature(3, 4)}
	Annotate(w, ir.StatusRedundant, AnnotateOptions{})
	assert.Equal(t, `\once \override Score.TimeSignature.color = #(x11-color 'DeepPink1)`, w.Emissions[0].Statement)
}

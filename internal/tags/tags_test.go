package tags

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/roach88/segmaker/internal/ir"
)

func TestTag_String(t *testing.T) {
	tests := []struct {
		tag  Tag
		want string
	}{
		{New(ir.StatusExplicit, "CLEF", ""), "EXPLICIT_CLEF"},
		{New(ir.StatusReapplied, "CLEF", SuffixColor), "REAPPLIED_CLEF_COLOR"},
		{New(ir.StatusRedundant, "MARGIN_MARKUP", SuffixAlert), "REDUNDANT_MARGIN_MARKUP_ALERT"},
		{Tag{Status: ir.StatusExplicit, Stem: "STAFF_LINES", Prefix: "FERMATA_MEASURE"}, "EXPLICIT_STAFF_LINES_FERMATA_MEASURE"},
		{Tag{Stem: "SPACING"}, "SPACING"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.tag.String())
	}
}

func TestParse(t *testing.T) {
	indent, stmt, tag, off := Parse(`    %@% \once \override Staff.Clef.color = #(x11-color 'blue) %! EXPLICIT_CLEF_COLOR_CANCELLATION`)
	assert.Equal(t, "    ", indent)
	assert.Equal(t, `\once \override Staff.Clef.color = #(x11-color 'blue)`, stmt)
	assert.Equal(t, "EXPLICIT_CLEF_COLOR_CANCELLATION", tag)
	assert.True(t, off)

	_, stmt, tag, off = Parse(`c'4`)
	assert.Equal(t, "c'4", stmt)
	assert.Empty(t, tag)
	assert.False(t, off)
}

const rendered = `\context Staff = "Flute_Staff"
{
    \clef "treble" %! EXPLICIT_CLEF
    \once \override Staff.Clef.color = #(x11-color 'blue) %! EXPLICIT_CLEF_COLOR
    %@% \override Staff.Clef.color = ##f %! EXPLICIT_CLEF_COLOR_CANCELLATION
    c'4
}`

func TestDeactivate(t *testing.T) {
	got, n := Deactivate(rendered, WithSuffix(SuffixColor))
	assert.Equal(t, 1, n)
	want := `\context Staff = "Flute_Staff"
{
    \clef "treble" %! EXPLICIT_CLEF
    %@% \once \override Staff.Clef.color = #(x11-color 'blue) %! EXPLICIT_CLEF_COLOR
    %@% \override Staff.Clef.color = ##f %! EXPLICIT_CLEF_COLOR_CANCELLATION
    c'4
}`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Deactivate mismatch (-want +got):\n%s", diff)
	}
}

func TestActivate(t *testing.T) {
	got, n := Activate(rendered, Exactly("EXPLICIT_CLEF_COLOR_CANCELLATION"))
	assert.Equal(t, 1, n)
	assert.Contains(t, got, "    \\override Staff.Clef.color = ##f %! EXPLICIT_CLEF_COLOR_CANCELLATION")

	// already active lines are left alone
	_, n = Activate(rendered, WithStatus(ir.StatusExplicit))
	assert.Equal(t, 1, n)
}

func TestToggleRoundTrip(t *testing.T) {
	off, n := Deactivate(rendered, WithStatus(ir.StatusExplicit))
	assert.Equal(t, 2, n)
	on, m := Activate(off, Exactly("EXPLICIT_CLEF", "EXPLICIT_CLEF_COLOR"))
	assert.Equal(t, 2, m)
	if diff := cmp.Diff(rendered, on); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

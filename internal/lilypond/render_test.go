package lilypond

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/segmaker/internal/ir"
	"github.com/roach88/segmaker/internal/segment"
	"github.com/roach88/segmaker/internal/tags"
	"github.com/roach88/segmaker/internal/testutil"
)

func flute(t *testing.T, previous *ir.Metadata, cmds ...ir.CommandSpec) *segment.Result {
	t.Helper()
	def := &ir.SegmentDefinition{
		Score:          "golden",
		TimeSignatures: []string{"2/4"},
		Template:       ir.TemplateSpec{Staves: []ir.StaffSpec{{Name: "Flute"}}},
		Manifests:      testutil.Manifests(),
		Rhythms: []ir.RhythmSpec{{
			Voice: "Flute_Voice", Start: 1, Stop: 1,
			Leaves: []ir.LeafSpec{
				{Kind: "note", Pitch: "c''", Duration: "1/4"},
				{Kind: "note", Pitch: "d''", Duration: "1/4"},
			},
		}},
		Commands: cmds,
	}
	m := segment.NewMaker(segment.Options{DisableSpacing: true, IDs: segment.NewFixedGenerator("run-1")})
	res, err := m.Run(context.Background(), def, previous)
	require.NoError(t, err)
	return res
}

func TestRender_Golden(t *testing.T) {
	res := flute(t, nil,
		testutil.Command(ir.CommandClef, "Flute_Voice", "treble", 0),
		testutil.Command(ir.CommandDynamic, "Flute_Voice", "p", 1),
	)
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, res.Score))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "explicit_clef_and_dynamic", buf.Bytes())
}

func voiceLines(t *testing.T, out string) []string {
	t.Helper()
	lines := strings.Split(out, "\n")
	start := -1
	for i, l := range lines {
		if strings.Contains(l, `\context Voice = "Flute_Voice"`) {
			start = i + 2
		}
	}
	require.GreaterOrEqual(t, start, 0)
	var body []string
	for _, l := range lines[start:] {
		l = strings.TrimSpace(l)
		if l == "}" {
			break
		}
		body = append(body, l)
	}
	return body
}

func TestRender_ReappliedClef(t *testing.T) {
	first := flute(t, nil, testutil.Command(ir.CommandClef, "Flute_Voice", "bass", 0))
	second := flute(t, first.Metadata)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, second.Score))

	want := []string{
		`\set Staff.forceClef = ##t %! REAPPLIED_CLEF_FORCED`,
		`\once \override Staff.Clef.color = #(x11-color 'green4) %! REAPPLIED_CLEF_COLOR`,
		`\clef "bass" %! REAPPLIED_CLEF`,
		`c''4`,
		`%@% \override Staff.Clef.color = ##f %! REAPPLIED_CLEF_COLOR_CANCELLATION`,
		`\override Staff.Clef.color = #(x11-color 'OliveDrab) %! REAPPLIED_CLEF_REDRAW_COLOR`,
		`d''4`,
	}
	if diff := cmp.Diff(want, voiceLines(t, buf.String())); diff != "" {
		t.Errorf("voice mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_TagsCanBeDeactivated(t *testing.T) {
	res := flute(t, nil, testutil.Command(ir.CommandClef, "Flute_Voice", "treble", 0))
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, res.Score))

	out, n := tags.Deactivate(buf.String(), tags.WithSuffix(tags.SuffixColor))
	assert.Equal(t, 3, n, "clef, clef redraw and time signature colors")
	assert.Contains(t, out, `%@% \once \override Staff.Clef.color = #(x11-color 'blue) %! EXPLICIT_CLEF_COLOR`)
}

func TestDocument_Header(t *testing.T) {
	res := flute(t, nil)
	var buf bytes.Buffer
	require.NoError(t, Document(&buf, res.Score))
	assert.True(t, strings.HasPrefix(buf.String(), "\\version \"2.24.0\"\n\n\\context Score = \"Score\"\n"))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, assert.AnError }

func TestRender_WriteError(t *testing.T) {
	res := flute(t, nil)
	assert.ErrorIs(t, Render(failingWriter{}, res.Score), assert.AnError)
}

package compiler

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/segmaker/internal/ir"
)

const minimalScore = `
score: "sketch"
template: staves: [{name: "Viola", clef: "alto"}]
segments: [{time_signatures: ["4/4"]}]
`

func compileString(t *testing.T, src string) (*ScoreDefinition, error) {
	t.Helper()
	v := cuecontext.New().CompileString(src)
	return CompileScore(v)
}

func TestCompileScoreMinimal(t *testing.T) {
	def, err := compileString(t, minimalScore)
	require.NoError(t, err)

	assert.Equal(t, "sketch", def.Score)
	require.Len(t, def.Segments, 1)

	seg := def.Segments[0]
	assert.Equal(t, "sketch", seg.Score)
	assert.Equal(t, []string{"4/4"}, seg.TimeSignatures)
	require.Len(t, seg.Template.Staves, 1)
	assert.Equal(t, "alto", seg.Template.Staves[0].Clef)
	assert.Nil(t, seg.FermataMeasureStaffLineCount)
}

func TestCompileScoreSharedFieldsReachEverySegment(t *testing.T) {
	def, err := compileString(t, `
		score: "sketch"
		fermata_measure_staff_line_count: 1
		manifests: metronome_marks: [{key: "72", unit: "1/8", units_per_minute: 72}]
		template: staves: [{name: "Viola"}]
		segments: [
			{time_signatures: ["4/4"]},
			{time_signatures: ["2/4"], fermata_measure_staff_line_count: 0},
		]
	`)
	require.NoError(t, err)
	require.Len(t, def.Segments, 2)

	for _, seg := range def.Segments {
		require.Len(t, seg.Manifests.MetronomeMarks, 1)
		assert.Equal(t, "1/8", seg.Manifests.MetronomeMarks[0].Unit)
		require.NotNil(t, seg.FermataMeasureStaffLineCount)
	}
	assert.Equal(t, 1, *def.Segments[0].FermataMeasureStaffLineCount)
	assert.Equal(t, 0, *def.Segments[1].FermataMeasureStaffLineCount, "segment value wins over score default")

	seg, ok := def.Segment(2)
	require.True(t, ok)
	assert.Equal(t, []string{"2/4"}, seg.TimeSignatures)
	_, ok = def.Segment(3)
	assert.False(t, ok)
}

func TestCompileScoreCommandsAndRhythms(t *testing.T) {
	def, err := compileString(t, `
		score: "sketch"
		template: staves: [{name: "Viola"}]
		segments: [{
			time_signatures: ["4/4", "4/4"]
			rhythms: [{voice: "Viola_Voice", start: 1, stop: 2, leaves: [
				{pitch: "c'", duration: "1"},
				{kind: "rest", duration: "1"},
			]}]
			commands: [
				{type: "clef", context: "Viola_Staff", value: "treble", leaf: 1},
				{type: "literal", context: "Viola_Voice", literal: "\\break", position: "after", measure: 2},
			]
		}]
	`)
	require.NoError(t, err)

	seg := def.Segments[0]
	require.Len(t, seg.Rhythms, 1)
	assert.Equal(t, "rest", seg.Rhythms[0].Leaves[1].Kind)
	assert.Equal(t, "", seg.Rhythms[0].Leaves[0].Kind)

	require.Len(t, seg.Commands, 2)
	require.NotNil(t, seg.Commands[0].Leaf)
	assert.Equal(t, 1, *seg.Commands[0].Leaf)
	assert.Equal(t, ir.CommandLiteral, seg.Commands[1].Type)
	assert.Equal(t, `\break`, seg.Commands[1].Literal)
	assert.Equal(t, 2, seg.Commands[1].Measure)
}

func TestCompileScoreErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		field   string
		message string
	}{
		{
			name:    "unknown command type",
			src:     `score: "s", template: staves: [{name: "A"}], segments: [{time_signatures: ["4/4"], commands: [{type: "trill", context: "A_Voice"}]}]`,
			field:   "segments[0].commands[0].type",
			message: `unknown command type "trill"`,
		},
		{
			name:    "command measure out of range",
			src:     `score: "s", template: staves: [{name: "A"}], segments: [{time_signatures: ["4/4"], commands: [{type: "clef", context: "A_Staff", value: "bass", measure: 3}]}]`,
			field:   "segments[0].commands[0].measure",
			message: "out of range",
		},
		{
			name:    "rhythm past segment end",
			src:     `score: "s", template: staves: [{name: "A"}], segments: [{time_signatures: ["4/4"], rhythms: [{voice: "A_Voice", start: 1, stop: 2, leaves: []}]}]`,
			field:   "segments[0].rhythms[0].stop",
			message: "out of range",
		},
		{
			name:    "fermata measure past segment end",
			src:     `score: "s", template: staves: [{name: "A"}], segments: [{time_signatures: ["4/4"], fermata_measures: [2]}]`,
			field:   "segments[0].fermata_measures",
			message: "out of range",
		},
		{
			name:    "duplicate instrument key",
			src:     `score: "s", manifests: instruments: [{key: "A", name: "a"}, {key: "A", name: "b"}], template: staves: [{name: "A"}], segments: [{time_signatures: ["4/4"]}]`,
			field:   "manifests.instruments",
			message: `duplicate key "A"`,
		},
		{
			name:    "duplicate staff",
			src:     `score: "s", template: staves: [{name: "A"}, {name: "A"}], segments: [{time_signatures: ["4/4"]}]`,
			field:   "template.staves",
			message: `duplicate staff "A"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileString(t, tt.src)
			require.Error(t, err)

			var ce *CompileError
			require.True(t, errors.As(err, &ce), "want *CompileError, got %T", err)
			assert.Equal(t, tt.field, ce.Field)
			assert.Contains(t, ce.Message, tt.message)
		})
	}
}

func TestCompileScoreSchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing score name", `template: staves: [], segments: [{time_signatures: ["4/4"]}]`},
		{"no segments", `score: "s", template: staves: [], segments: []`},
		{"empty time signatures", `score: "s", template: staves: [], segments: [{time_signatures: []}]`},
		{"malformed time signature", `score: "s", template: staves: [], segments: [{time_signatures: ["four"]}]`},
		{"unknown top-level field", `score: "s", tempo: 60, template: staves: [], segments: [{time_signatures: ["4/4"]}]`},
		{"bad leaf kind", `score: "s", template: staves: [], segments: [{time_signatures: ["4/4"], rhythms: [{voice: "v", start: 1, stop: 1, leaves: [{kind: "chord", duration: "1"}]}]}]`},
		{"stop before start", `score: "s", template: staves: [], segments: [{time_signatures: ["4/4", "4/4"], rhythms: [{voice: "v", start: 2, stop: 1, leaves: []}]}]`},
		{"float staff lines", `score: "s", template: staves: [], segments: [{time_signatures: ["4/4"], commands: [{type: "staff_lines", context: "v", number: 1.5}]}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileString(t, tt.src)
			require.Error(t, err)

			var ce *CompileError
			assert.True(t, errors.As(err, &ce), "want *CompileError, got %T: %v", err, err)
		})
	}
}

func TestCompileErrorFormat(t *testing.T) {
	err := &CompileError{Field: "segments[0].commands[0].type", Message: "unknown command type"}
	assert.Equal(t, "segments[0].commands[0].type: unknown command type", err.Error())
}

func TestCompileErrorCarriesPosition(t *testing.T) {
	dir := t.TempDir()
	src := `package bad

score: "s"
template: staves: [{name: "A"}]
segments: [{
	time_signatures: ["4/4"]
	commands: [{type: "trill", context: "A_Voice"}]
}]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.cue"), []byte(src), 0644))

	_, err := Load(dir)
	require.Error(t, err)

	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	require.True(t, ce.Pos.IsValid())
	assert.Equal(t, 7, ce.Pos.Line())
	assert.Contains(t, err.Error(), "bad.cue:7:")
}

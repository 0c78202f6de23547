package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioDir = "testdata/scenarios"

func loadScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join(scenarioDir, name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestRun_AllScenariosPass(t *testing.T) {
	scenarios, err := LoadScenarios(scenarioDir)
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "failures:\n%s", strings.Join(result.Errors, "\n"))
		})
	}
}

func TestRunWithGolden_ClefChanges(t *testing.T) {
	result, err := RunWithGolden(t, loadScenario(t, "clef_changes"))
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestRun_FailedSegmentIsRebuiltUnderSameNumber(t *testing.T) {
	result, err := Run(loadScenario(t, "failed_segment_rerun"))
	require.NoError(t, err)
	require.Len(t, result.Segments, 3)

	failed := result.Segments[1]
	assert.Equal(t, 2, failed.Number)
	assert.Equal(t, "INVARIANT", failed.Code)
	assert.Empty(t, failed.RunID)
	assert.Nil(t, failed.Meta)

	retry := result.Segments[2]
	assert.Equal(t, 2, retry.Number)
	assert.Equal(t, "run-3", retry.RunID, "run ids are consumed in execution order")
	assert.Equal(t, 2, retry.Meta.SegmentNumber)
}

func TestRun_UnexpectedOutcomeFails(t *testing.T) {
	s := loadScenario(t, "failed_segment_rerun")
	s.Segments[1].ExpectError = ""
	s.Segments[2].ExpectError = "CONFIGURATION"

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.GreaterOrEqual(t, len(result.Errors), 2)
	assert.Contains(t, result.Errors[0], "segment 2: unexpected error")
	assert.Contains(t, result.Errors[1], "segment 3: expected CONFIGURATION error, got success")
}

func TestRun_ScoreDirScenario(t *testing.T) {
	result, err := Run(loadScenario(t, "duo_score_dir"))
	require.NoError(t, err)
	require.Len(t, result.Segments, 2)
	assert.Equal(t, 2, result.Segments[0].Meta.MeasureCount())
	assert.Equal(t, []string{"2/4"}, result.Segments[1].Meta.TimeSignatures)
}

func TestEvaluateAssertions_FailureMessages(t *testing.T) {
	result, err := Run(loadScenario(t, "clef_changes"))
	require.NoError(t, err)

	tests := []struct {
		name      string
		assertion Assertion
		want      string
	}{
		{
			name:      "wrong status",
			assertion: Assertion{Type: AssertStatus, Segment: 2, Context: "Viola_Staff", Leaf: 0, Prototype: "Clef", Status: "explicit"},
			want:      "expected: explicit Clef at Viola_Staff[0]",
		},
		{
			name:      "missing indicator",
			assertion: Assertion{Type: AssertStatus, Segment: 1, Context: "Viola_Staff", Leaf: 0, Prototype: "Dynamic", Status: "explicit"},
			want:      "actual:   no indicator",
		},
		{
			name:      "unexpected indicator",
			assertion: Assertion{Type: AssertNoIndicator, Segment: 1, Context: "Viola_Staff", Leaf: 0, Prototype: "Clef"},
			want:      "expected: no Clef at Viola_Staff[0]",
		},
		{
			name:      "leaf out of range",
			assertion: Assertion{Type: AssertStatus, Segment: 1, Context: "Viola_Staff", Leaf: 9, Prototype: "Clef", Status: "default"},
			want:      "leaf 9 outside 0..0 of Viola_Staff",
		},
		{
			name:      "momento value",
			assertion: Assertion{Type: AssertMomento, Segment: 2, Context: "Viola_Staff", Prototype: "Clef", Value: "bass"},
			want:      `actual:   Viola_Staff:Clef="treble"`,
		},
		{
			name:      "momento present",
			assertion: Assertion{Type: AssertMomento, Segment: 1, Context: "Viola_Staff", Prototype: "Clef", Absent: true},
			want:      "expected: no momento Viola_Staff:Clef",
		},
		{
			name:      "metadata field",
			assertion: Assertion{Type: AssertMetadata, Segment: 1, Field: "first_measure_number", Value: 3},
			want:      "expected: first_measure_number=3",
		},
		{
			name:      "lilypond",
			assertion: Assertion{Type: AssertLilyPond, Segment: 1, Contains: `\clef "bass"`},
			want:      "not found",
		},
		{
			name:      "segment out of range",
			assertion: Assertion{Type: AssertMetadata, Segment: 5, Field: "duration"},
			want:      "scenario ran 2 segments",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failures := EvaluateAssertions(result, []Assertion{tt.assertion})
			require.Len(t, failures, 1)
			assert.Contains(t, failures[0], tt.want)
		})
	}
}

func TestEvaluateAssertions_FailedSegment(t *testing.T) {
	result := NewResult()
	result.Segments = []SegmentOutcome{{Number: 1, Error: "INVARIANT: overlapping rhythms", Code: "INVARIANT"}}

	failures := EvaluateAssertions(result, []Assertion{{Type: AssertMetadata, Segment: 1, Field: "duration"}})
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0], "expected: successful run")
}

func TestReport_FailedSegment(t *testing.T) {
	result := &Result{Segments: []SegmentOutcome{
		{Number: 1, Error: "boom", Code: "COMMAND"},
	}}
	assert.Equal(t, "scenario x\nsegment 1 number=1 error=COMMAND\n", Report("x", result))
}

func TestResult_AddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)
	r.AddError("first")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"first"}, r.Errors)
}

package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/segmaker/internal/compiler"
	"github.com/roach88/segmaker/internal/ir"
	"github.com/roach88/segmaker/internal/lilypond"
	"github.com/roach88/segmaker/internal/score"
	"github.com/roach88/segmaker/internal/segment"
	"github.com/roach88/segmaker/internal/store"
	"github.com/roach88/segmaker/internal/testutil"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation and assertion held.
	Pass bool `json:"pass"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	Segments []SegmentOutcome `json:"segments"`
}

// SegmentOutcome records one segment run.
type SegmentOutcome struct {
	// Number is the segment number the run was built as.
	Number int          `json:"number"`
	RunID  string       `json:"run_id,omitempty"`
	Error  string       `json:"error,omitempty"`
	Code   string       `json:"code,omitempty"`
	Meta   *ir.Metadata `json:"metadata,omitempty"`

	// Score and LilyPond are set for successful runs.
	Score    *score.Score `json:"-"`
	LilyPond string       `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{Pass: true, Errors: []string{}}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Run executes a scenario and returns its result.
//
// Each scenario runs against a fresh in-memory store. Run IDs are
// "run-1", "run-2", ... in execution order and the wall clock advances one
// millisecond per reading, so results are reproducible. The returned error
// is reserved for infrastructure failures; expectation mismatches are
// reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	steps, err := scenarioSteps(scenario)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(steps))
	for i := range ids {
		ids[i] = fmt.Sprintf("run-%d", i+1)
	}
	clock := testutil.NewStepClock(time.Millisecond)
	maker := segment.NewMaker(segment.Options{
		Now: clock.Now,
		IDs: segment.NewFixedGenerator(ids...),
	})

	ctx := context.Background()
	name := scoreName(scenario)
	result := NewResult()
	for i, step := range steps {
		outcome, err := runStep(ctx, st, maker, name, step)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i+1, err)
		}
		switch {
		case step.ExpectError == "" && outcome.Error != "":
			result.AddError(fmt.Sprintf("segment %d: unexpected error: %s", i+1, outcome.Error))
		case step.ExpectError != "" && outcome.Code != step.ExpectError:
			got := outcome.Code
			if got == "" {
				got = "success"
			}
			result.AddError(fmt.Sprintf("segment %d: expected %s error, got %s", i+1, step.ExpectError, got))
		}
		result.Segments = append(result.Segments, outcome)
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// runStep builds one segment on top of the latest stored snapshot and
// persists the new snapshot on success.
func runStep(ctx context.Context, st *store.Store, maker *segment.Maker, name string, step SegmentStep) (SegmentOutcome, error) {
	latest, err := st.LatestSegment(ctx, name)
	if err != nil {
		return SegmentOutcome{}, err
	}
	n := latest + 1
	previous, err := st.PreviousMetadata(ctx, name, n)
	if err != nil {
		return SegmentOutcome{}, err
	}

	outcome := SegmentOutcome{Number: n}
	def := step.SegmentDefinition
	res, runErr := maker.Run(ctx, &def, previous)
	if runErr != nil {
		outcome.Error = runErr.Error()
		var segErr *segment.SegmentError
		if errors.As(runErr, &segErr) {
			outcome.Code = string(segErr.Code)
		}
		return outcome, nil
	}

	if err := st.WriteSegment(ctx, name, res.RunID, res.Metadata); err != nil {
		return SegmentOutcome{}, err
	}
	var buf bytes.Buffer
	if err := lilypond.Render(&buf, res.Score); err != nil {
		return SegmentOutcome{}, err
	}
	outcome.RunID = res.RunID
	outcome.Meta = res.Metadata
	outcome.Score = res.Score
	outcome.LilyPond = buf.String()
	return outcome, nil
}

// scenarioSteps returns the segment definitions a scenario runs, filling
// shared fields into inline segments.
func scenarioSteps(s *Scenario) ([]SegmentStep, error) {
	if s.ScoreDir != "" {
		loaded, err := compiler.Load(s.ScoreDir)
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", s.ScoreDir, err)
		}
		steps := make([]SegmentStep, len(loaded.Definition.Segments))
		for i, def := range loaded.Definition.Segments {
			steps[i] = SegmentStep{SegmentDefinition: def}
		}
		return steps, nil
	}

	steps := make([]SegmentStep, len(s.Segments))
	for i, step := range s.Segments {
		if step.Score == "" {
			step.Score = scoreName(s)
		}
		if len(step.Template.Staves) == 0 {
			step.Template = s.Template
		}
		if isEmptyManifest(step.Manifests) {
			step.Manifests = s.Manifests
		}
		if step.FermataMeasureStaffLineCount == nil {
			step.FermataMeasureStaffLineCount = s.FermataMeasureStaffLineCount
		}
		steps[i] = step
	}
	return steps, nil
}

func scoreName(s *Scenario) string {
	if s.Score != "" {
		return s.Score
	}
	return s.Name
}

func isEmptyManifest(m ir.ManifestSpec) bool {
	return len(m.Instruments) == 0 && len(m.MetronomeMarks) == 0 && len(m.MarginMarkups) == 0
}

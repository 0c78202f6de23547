package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/segmaker/internal/indicator"
	"github.com/roach88/segmaker/internal/ir"
	"github.com/roach88/segmaker/internal/score"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Segment  int
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: %s (segment %d)\n  expected: %s\n  actual:   %s",
		e.Type, e.Segment, e.Expected, e.Actual)
}

// EvaluateAssertions checks every assertion and returns failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for _, a := range assertions {
		if err := evaluate(result, a); err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

func evaluate(result *Result, a Assertion) error {
	if a.Segment > len(result.Segments) {
		return &AssertionError{
			Type:     a.Type,
			Segment:  a.Segment,
			Expected: "segment to exist",
			Actual:   fmt.Sprintf("scenario ran %d segments", len(result.Segments)),
		}
	}
	outcome := result.Segments[a.Segment-1]
	if outcome.Error != "" {
		return &AssertionError{
			Type:     a.Type,
			Segment:  a.Segment,
			Expected: "successful run",
			Actual:   outcome.Error,
		}
	}

	switch a.Type {
	case AssertStatus, AssertNoIndicator:
		return assertIndicator(outcome, a)
	case AssertMomento:
		return assertMomento(outcome, a)
	case AssertMetadata:
		return assertMetadata(outcome, a)
	case AssertLilyPond:
		if !strings.Contains(outcome.LilyPond, a.Contains) {
			return &AssertionError{
				Type:     a.Type,
				Segment:  a.Segment,
				Expected: fmt.Sprintf("output containing %q", a.Contains),
				Actual:   "not found",
			}
		}
		return nil
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

// selectLeaf returns the index-th leaf under the named context in time order.
func selectLeaf(s *score.Score, contextName string, index int) (*score.Leaf, error) {
	c, ok := s.Context(contextName)
	if !ok {
		return nil, fmt.Errorf("no context %q", contextName)
	}
	leaves := s.LeavesUnder(c)
	sort.SliceStable(leaves, func(i, j int) bool { return leaves[i].Offset.Cmp(leaves[j].Offset) < 0 })
	if index < 0 || index >= len(leaves) {
		return nil, fmt.Errorf("leaf %d outside 0..%d of %s", index, len(leaves)-1, contextName)
	}
	return leaves[index], nil
}

func assertIndicator(outcome SegmentOutcome, a Assertion) error {
	fail := func(expected, actual string) error {
		return &AssertionError{Type: a.Type, Segment: a.Segment, Expected: expected, Actual: actual}
	}
	proto, _ := ir.ParsePrototype(a.Prototype)
	kind, err := indicator.KindOf(proto)
	if err != nil {
		return fail(a.Prototype, err.Error())
	}
	leaf, err := selectLeaf(outcome.Score, a.Context, a.Leaf)
	if err != nil {
		return fail(fmt.Sprintf("leaf %s[%d]", a.Context, a.Leaf), err.Error())
	}

	var found *score.Wrapper
	for _, w := range leaf.Wrappers {
		if w.Kind() == kind {
			found = w
			break
		}
	}

	where := fmt.Sprintf("%s at %s[%d]", a.Prototype, a.Context, a.Leaf)
	if a.Type == AssertNoIndicator {
		if found != nil {
			return fail("no "+where, found.String())
		}
		return nil
	}
	if found == nil {
		return fail(fmt.Sprintf("%s %s", a.Status, where), "no indicator")
	}
	if found.Status.String() != a.Status {
		return fail(fmt.Sprintf("%s %s", a.Status, where), found.String())
	}
	if a.Tag != "" && found.Tag != a.Tag {
		return fail(fmt.Sprintf("tag %s on %s", a.Tag, where), found.Tag)
	}
	return nil
}

func assertMomento(outcome SegmentOutcome, a Assertion) error {
	proto, _ := ir.ParsePrototype(a.Prototype)
	mo, ok := outcome.Meta.Momento(a.Context, proto)
	where := fmt.Sprintf("%s:%s", a.Context, a.Prototype)

	if a.Absent {
		if ok {
			return &AssertionError{Type: a.Type, Segment: a.Segment, Expected: "no momento " + where, Actual: mo.String()}
		}
		return nil
	}
	if !ok {
		return &AssertionError{Type: a.Type, Segment: a.Segment, Expected: fmt.Sprintf("%s=%v", where, a.Value), Actual: "no momento"}
	}
	if got := ir.ValueText(mo.Value); got != fmt.Sprint(a.Value) {
		return &AssertionError{Type: a.Type, Segment: a.Segment, Expected: fmt.Sprintf("%s=%v", where, a.Value), Actual: mo.String()}
	}
	return nil
}

func assertMetadata(outcome SegmentOutcome, a Assertion) error {
	md := outcome.Meta
	var got string
	switch a.Field {
	case "segment_number":
		got = fmt.Sprint(md.SegmentNumber)
	case "first_measure_number":
		got = fmt.Sprint(md.FirstMeasureNumber)
	case "time_signatures":
		got = strings.Join(md.TimeSignatures, ",")
	case "duration":
		got = optional(md.Duration)
	case "start_clock_time":
		got = optional(md.StartClockTime)
	case "stop_clock_time":
		got = optional(md.StopClockTime)
	}

	want := "<nil>"
	if a.Value != nil {
		want = fmt.Sprint(a.Value)
	}
	if got != want {
		return &AssertionError{Type: a.Type, Segment: a.Segment, Expected: fmt.Sprintf("%s=%s", a.Field, want), Actual: got}
	}
	return nil
}

func optional(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}

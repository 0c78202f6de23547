package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/segmaker/internal/score"
)

// Report renders a result as a stable, line-oriented text snapshot: for each
// segment its measures, clock times, every classified indicator in score
// order and every persisted momento.
func Report(name string, result *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario %s\n", name)
	for i, seg := range result.Segments {
		fmt.Fprintf(&b, "segment %d number=%d", i+1, seg.Number)
		if seg.Error != "" {
			fmt.Fprintf(&b, " error=%s\n", seg.Code)
			continue
		}
		md := seg.Meta
		fmt.Fprintf(&b, " run=%s\n", seg.RunID)
		fmt.Fprintf(&b, "  measures first=%d time_signatures=%s\n",
			md.FirstMeasureNumber, strings.Join(md.TimeSignatures, ","))
		fmt.Fprintf(&b, "  clock duration=%s start=%s stop=%s\n",
			optional(md.Duration), optional(md.StartClockTime), optional(md.StopClockTime))

		for _, leaf := range seg.Score.Leaves() {
			for _, w := range leaf.Wrappers {
				fmt.Fprintf(&b, "  indicator %s[%d] %s %s %s %s\n",
					leaf.Context.Name, leafIndex(leaf.Context.Leaves, leaf.ID),
					w.Context, w.Indicator, w.Status, w.Tag)
			}
		}
		for _, c := range md.ContextNames() {
			for _, mo := range md.PersistentIndicators[c] {
				fmt.Fprintf(&b, "  momento %s\n", mo)
			}
		}
	}
	return b.String()
}

// RunWithGolden executes a scenario and compares its Report against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can check Pass as well.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, []byte(Report(scenario.Name, result)))
	return result, nil
}

func leafIndex(leaves []*score.Leaf, id score.LeafID) int {
	for i, l := range leaves {
		if l.ID == id {
			return i
		}
	}
	return -1
}

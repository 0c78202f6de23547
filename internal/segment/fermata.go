package segment

import (
	"context"
	"log/slog"
	"math/big"

	"golang.org/x/exp/slices"

	"github.com/roach88/segmaker/internal/indicator"
	"github.com/roach88/segmaker/internal/ir"
	"github.com/roach88/segmaker/internal/score"
	"github.com/roach88/segmaker/internal/tags"
)

// DefaultStaffLineCount is assumed when nothing earlier sets a line count.
const DefaultStaffLineCount = 5

// FermataOptions configures StyleFermataMeasures.
type FermataOptions struct {
	// Measures are the 1-based fermata measures.
	Measures []int

	// Breaks are the measures that begin a new system.
	Breaks []int

	// LineCount is the staff line count of fermata measures.
	LineCount int
}

// StyleFermataMeasures collapses the staff of every fermata measure to
// LineCount lines and restores the previously effective count at the first
// leaf after the measure. When the run ends the segment, the restored count
// is what Collect records instead. Consecutive fermata measures are styled as
// one run.
// Bar lines after a fermata measure that ends at a break are made
// transparent.
func StyleFermataMeasures(ctx context.Context, s *score.Score, opts FermataOptions) error {
	if len(opts.Measures) == 0 {
		return nil
	}
	_, span := tracer.Start(ctx, "segment.fermata")
	defer span.End()

	measures := slices.Clone(opts.Measures)
	slices.Sort(measures)
	measures = slices.Compact(measures)
	for _, m := range measures {
		if m < 1 || m > len(s.Measures) {
			return invariantError("fermata measure %d outside 1..%d", m, len(s.Measures))
		}
	}

	collapsed := indicator.StaffLines(opts.LineCount)
	for _, run := range fermataRuns(measures) {
		start := s.Measures[run[0]-1].Start
		stop := s.Measures[run[1]-1].Stop
		for _, staff := range s.Contexts() {
			if staff.Type != score.TypeStaff {
				continue
			}
			if err := styleStaff(s, staff, start, stop, collapsed); err != nil {
				return err
			}
		}
	}

	skips, ok := s.Context(score.NameGlobalSkips)
	if !ok {
		return nil
	}
	for _, m := range measures {
		if !slices.Contains(opts.Breaks, m+1) {
			continue
		}
		skip := s.LeafAt(skips, s.Measures[m-1].Start)
		if skip == nil {
			continue
		}
		for _, grob := range []string{"BarLine", "SpanBar"} {
			skip.AddLiteral(score.Literal{
				Statement: `\once \override Score.` + grob + `.transparent = ##t`,
				Tag:       tags.FermataMeasure,
				After:     true,
			})
		}
	}
	return nil
}

func styleStaff(s *score.Score, staff *score.Context, start, stop *big.Rat, collapsed indicator.Indicator) error {
	leaf := s.LeafAt(staff, start)
	if leaf == nil || leaf.Offset.Cmp(stop) >= 0 {
		return nil
	}
	before := lineCountBefore(s, staff, leaf)
	prefix := AnnotateOptions{Prefix: tags.FermataMeasure}

	existing := leaf.Wrapper(indicator.KindStaffLines, staff.Name)
	userSet := existing != nil && !existing.Default && existing.Status != ir.StatusReapplied
	var inEffect *score.Wrapper
	switch {
	case userSet:
		inEffect = existing
	case !collapsed.Equal(before):
		w, err := s.Attach(leaf, collapsed)
		if err != nil {
			return configError(err, "fermata staff lines on %s", staff.Name)
		}
		Annotate(w, Classify(collapsed, &before, false), prefix)
		recordClassification(w.Status, indicator.KindStaffLines)
		slog.Debug("fermata: collapsed staff", "context", staff.Name, "lines", collapsed.Number, "at", start.RatString())
		inEffect = w
	}
	if inEffect == nil || inEffect.Indicator.Equal(before) {
		return nil
	}

	next := s.LeafAt(staff, stop)
	if next == nil {
		// The run ends the segment: the next segment reopens with before.
		restore := before
		inEffect.Restore = &restore
		return nil
	}
	if next.Wrapper(indicator.KindStaffLines, staff.Name) != nil {
		return nil
	}
	restore := before.WithHide(true)
	w, err := s.Attach(next, restore)
	if err != nil {
		return configError(err, "fermata staff line restore on %s", staff.Name)
	}
	Annotate(w, Classify(restore, &inEffect.Indicator, false), AnnotateOptions{Prefix: tags.FermataMeasure, Uncolor: true})
	recordClassification(w.Status, indicator.KindStaffLines)
	return nil
}

// lineCountBefore returns the line count in effect just before leaf. A
// reapplied count on the leaf itself stands for the previous segment.
func lineCountBefore(s *score.Score, staff *score.Context, leaf *score.Leaf) indicator.Indicator {
	if w := s.EffectiveBefore(staff.Name, indicator.KindStaffLines, leaf.Offset); w != nil {
		return w.Indicator.WithHide(false)
	}
	if w := leaf.Wrapper(indicator.KindStaffLines, staff.Name); w != nil && w.Status == ir.StatusReapplied {
		return w.Indicator.WithHide(false)
	}
	return indicator.StaffLines(DefaultStaffLineCount)
}

// fermataRuns groups sorted measure numbers into inclusive runs of
// consecutive measures.
func fermataRuns(measures []int) [][2]int {
	var runs [][2]int
	for _, m := range measures {
		if n := len(runs); n > 0 && runs[n-1][1]+1 >= m {
			runs[n-1][1] = max(runs[n-1][1], m)
			continue
		}
		runs = append(runs, [2]int{m, m})
	}
	return runs
}

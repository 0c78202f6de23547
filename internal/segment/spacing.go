package segment

import (
	"fmt"
	"math/big"
	"time"

	"github.com/roach88/segmaker/internal/score"
	"github.com/roach88/segmaker/internal/tags"
)

// DefaultSpacingBudget bounds the wall-clock time of the spacing step.
const DefaultSpacingBudget = 3 * time.Second

// Spacer computes horizontal spacing for a finished score.
type Spacer interface {
	Space(s *score.Score) error
}

// ProportionalSpacer starts a new spacing section on every measure, using
// the shortest leaf sounding in the measure as the proportional duration.
type ProportionalSpacer struct{}

// Space implements Spacer.
func (ProportionalSpacer) Space(s *score.Score) error {
	skips, ok := s.Context(score.NameGlobalSkips)
	if !ok {
		return fmt.Errorf("score has no %s context", score.NameGlobalSkips)
	}
	shortest := make(map[int]*big.Rat)
	for _, v := range s.Voices() {
		for _, l := range v.Leaves {
			if l.Kind == score.LeafMultimeasureRest {
				continue
			}
			if cur, ok := shortest[l.Measure]; !ok || l.Duration.Cmp(cur) < 0 {
				shortest[l.Measure] = l.Duration
			}
		}
	}
	for _, skip := range skips.Leaves {
		d, ok := shortest[skip.Measure]
		if !ok {
			d = skip.Duration
		}
		skip.AddLiteral(score.Literal{Statement: `\newSpacingSection`, Tag: tags.Spacing})
		skip.AddLiteral(score.Literal{
			Statement: fmt.Sprintf(`\set Score.proportionalNotationDuration = #(ly:make-moment %s %s)`,
				d.Num().String(), d.Denom().String()),
			Tag: tags.Spacing,
		})
	}
	return nil
}

// applySpacing runs spacer and fails with a performance error when it takes
// longer than budget according to now.
func applySpacing(s *score.Score, spacer Spacer, budget time.Duration, now func() time.Time) error {
	start := now()
	err := spacer.Space(s)
	elapsed := now().Sub(start)
	spacingDuration.Observe(elapsed.Seconds())
	if err != nil {
		return fmt.Errorf("spacing: %w", err)
	}
	if budget > 0 && elapsed > budget {
		return &SegmentError{
			Code:    ErrCodePerformance,
			Message: fmt.Sprintf("spacing took %s, budget is %s", elapsed, budget),
		}
	}
	return nil
}

package segment

import (
	"math/big"

	"github.com/roach88/segmaker/internal/duration"
	"github.com/roach88/segmaker/internal/indicator"
	"github.com/roach88/segmaker/internal/ir"
	"github.com/roach88/segmaker/internal/score"
)

// ClockTimes computes the segment's duration and its start and stop clock
// times from the metronome marks on the global skips. Start chains from the
// previous segment's stop time. All three are nil when some measure has no
// metronome mark in effect.
func ClockTimes(s *score.Score, previous *ir.Metadata) (dur, start, stop *string) {
	skips, ok := s.Context(score.NameGlobalSkips)
	if !ok || len(skips.Leaves) == 0 {
		return nil, nil, nil
	}
	total := new(big.Rat)
	for _, skip := range skips.Leaves {
		w := s.EffectiveAt(skip, indicator.KindMetronomeMark)
		if w == nil || w.Indicator.Unit == nil || w.Indicator.UnitsPerMinute <= 0 {
			return nil, nil, nil
		}
		total.Add(total, duration.Seconds(skip.Duration, w.Indicator.Unit, w.Indicator.UnitsPerMinute))
	}

	begin := new(big.Rat)
	if previous != nil && previous.StopClockTime != nil {
		if r, err := duration.ParseClockTime(*previous.StopClockTime); err == nil {
			begin = r
		}
	}
	end := new(big.Rat).Add(begin, total)
	return ir.StringPtr(duration.ClockTime(total)),
		ir.StringPtr(duration.ClockTime(begin)),
		ir.StringPtr(duration.ClockTime(end))
}

package segment

import (
	"math/big"
	"sort"

	"github.com/roach88/segmaker/internal/duration"
	"github.com/roach88/segmaker/internal/ir"
	"github.com/roach88/segmaker/internal/score"
)

// buildRhythms fills every voice with the leaves of its rhythm specs and
// pads the remaining measures with multimeasure rests.
//
// Specs for one voice must not overlap, must lie inside the measure grid and
// must fill their measure range exactly.
func buildRhythms(s *score.Score, specs []ir.RhythmSpec) error {
	byVoice := make(map[string][]ir.RhythmSpec)
	for _, r := range specs {
		c, ok := s.Context(r.Voice)
		if !ok || c.Type != score.TypeVoice {
			return configError(nil, "rhythm targets unknown voice %q", r.Voice)
		}
		if r.Start < 1 || r.Stop < r.Start || r.Stop > len(s.Measures) {
			return invariantError("rhythm for %s: measures %d-%d outside 1..%d", r.Voice, r.Start, r.Stop, len(s.Measures))
		}
		byVoice[r.Voice] = append(byVoice[r.Voice], r)
	}

	for _, voice := range s.Voices() {
		rs := byVoice[voice.Name]
		sort.SliceStable(rs, func(i, j int) bool { return rs[i].Start < rs[j].Start })

		next := 1
		for _, r := range rs {
			if r.Start < next {
				return invariantError("overlapping rhythms in %s at measure %d", voice.Name, r.Start)
			}
			fillRests(s, voice, next, r.Start-1)
			if err := appendRhythm(s, voice, r); err != nil {
				return err
			}
			next = r.Stop + 1
		}
		fillRests(s, voice, next, len(s.Measures))
	}
	return nil
}

func appendRhythm(s *score.Score, voice *score.Context, r ir.RhythmSpec) error {
	want := new(big.Rat).Sub(s.Measures[r.Stop-1].Stop, s.Measures[r.Start-1].Start)
	got := new(big.Rat)
	type parsed struct {
		kind  score.LeafKind
		pitch string
		dur   *big.Rat
	}
	leaves := make([]parsed, 0, len(r.Leaves))
	for i, ls := range r.Leaves {
		kind, err := score.ParseLeafKind(ls.Kind)
		if err != nil {
			return configError(err, "rhythm for %s leaf %d", voice.Name, i)
		}
		d, err := duration.Parse(ls.Duration)
		if err != nil {
			return configError(err, "rhythm for %s leaf %d", voice.Name, i)
		}
		if kind == score.LeafNote && ls.Pitch == "" {
			return configError(nil, "rhythm for %s leaf %d: note without pitch", voice.Name, i)
		}
		got.Add(got, d)
		leaves = append(leaves, parsed{kind, ls.Pitch, d})
	}
	if got.Cmp(want) != 0 {
		return invariantError("rhythm for %s measures %d-%d lasts %s, want %s",
			voice.Name, r.Start, r.Stop, got.RatString(), want.RatString())
	}
	for _, l := range leaves {
		s.Append(voice, l.kind, l.pitch, l.dur)
	}
	return nil
}

// fillRests appends one multimeasure rest per measure in first..last.
func fillRests(s *score.Score, voice *score.Context, first, last int) {
	for m := first; m <= last; m++ {
		s.Append(voice, score.LeafMultimeasureRest, "", s.Measures[m-1].TimeSignature.Duration())
	}
}

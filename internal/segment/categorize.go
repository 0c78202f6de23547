package segment

import (
	"context"
	"log/slog"

	"github.com/roach88/segmaker/internal/indicator"
	"github.com/roach88/segmaker/internal/ir"
	"github.com/roach88/segmaker/internal/score"
)

type decision struct {
	wrapper *score.Wrapper
	status  ir.Status
	home    string
}

// Categorize classifies every unclassified persistent wrapper after all
// commands have run.
//
// Decisions are computed into a side table keyed by leaf ID first and
// applied in a second pass, so the tree is never mutated while being read.
// A wrapper that superseded a reapplied one with nothing earlier in effect is
// compared against the superseded value. It returns the number of wrappers
// classified.
func Categorize(ctx context.Context, s *score.Score) int {
	_, span := tracer.Start(ctx, "segment.categorize")
	defer span.End()

	leaves := s.Leaves()
	side := make(map[score.LeafID][]decision)
	for _, leaf := range leaves {
		for _, w := range leaf.Wrappers {
			if !w.Indicator.Persistent() || w.Classified() {
				continue
			}
			previous := previousIndicator(s, w)
			side[leaf.ID] = append(side[leaf.ID], decision{
				wrapper: w,
				status:  Classify(w.Indicator, previous, w.Default),
				home:    s.HomeContext(leaf, w.Kind()).Name,
			})
		}
	}

	n := 0
	for _, leaf := range leaves {
		for _, d := range side[leaf.ID] {
			tagged := *d.wrapper
			tagged.Context = d.home
			Annotate(&tagged, d.status, AnnotateOptions{})
			s.Replace(d.wrapper, &tagged)
			recordClassification(d.status, tagged.Kind())
			slog.Debug("categorized",
				"context", tagged.Context,
				"leaf", leaf.ID,
				"indicator", tagged.Indicator.String(),
				"status", d.status.String())
			n++
		}
	}
	return n
}

func previousIndicator(s *score.Score, w *score.Wrapper) *indicator.Indicator {
	if pw := s.PreviousEffective(w); pw != nil {
		ind := pw.Indicator
		return &ind
	}
	if w.Supersedes != nil && w.Supersedes.Status == ir.StatusReapplied {
		ind := w.Supersedes.Indicator
		return &ind
	}
	return nil
}

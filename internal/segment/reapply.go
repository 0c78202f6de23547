package segment

import (
	"context"
	"log/slog"

	"github.com/roach88/segmaker/internal/indicator"
	"github.com/roach88/segmaker/internal/ir"
	"github.com/roach88/segmaker/internal/manifest"
	"github.com/roach88/segmaker/internal/score"
)

// MetronomeMarkSpanner names the spanner covering every global skip.
// Metronome marks attach through it.
const MetronomeMarkSpanner = "MetronomeMarkSpanner"

// ReapplyStats summarizes one reapplication pass.
type ReapplyStats struct {
	Reapplied int
	Retained  int
	Dropped   int

	// Missing counts momentos whose context is absent from the score.
	Missing int
}

// Resolve turns a momento back into an indicator. Manifest-backed momentos
// look their key up in manifests; ok is false when the key is gone.
func Resolve(mo ir.Momento, manifests *manifest.Set) (ind indicator.Indicator, ok bool, err error) {
	kind, err := indicator.KindOf(mo.Prototype)
	if err != nil {
		return indicator.Indicator{}, false, configError(err, "momento %s", mo)
	}
	if mo.Prototype.ManifestBacked() {
		key, isString := mo.StringValue()
		if !isString {
			return indicator.Indicator{}, false, configError(nil, "momento %s: manifest key must be a string", mo)
		}
		ind, ok = manifests.Lookup(mo.Prototype, key)
		return ind, ok, nil
	}
	ind, err = indicator.FromValue(kind, mo.Value)
	if err != nil {
		return indicator.Indicator{}, false, configError(err, "momento %s", mo)
	}
	return ind, true, nil
}

// Reapply resynthesizes the previous segment's momentos at the first leaf of
// each context, before any command runs. It is a no-op without previous
// metadata.
//
// Reapplied wrappers are annotated immediately and never classify as
// redundant. An equal indicator already on the leaf is retained and marked
// reapplied; a different one is left for categorization. Momentos whose
// manifest key no longer resolves are dropped with a warning.
func Reapply(ctx context.Context, s *score.Score, manifests *manifest.Set, previous *ir.Metadata) (ReapplyStats, error) {
	var stats ReapplyStats
	if previous == nil {
		return stats, nil
	}
	_, span := tracer.Start(ctx, "segment.reapply")
	defer span.End()

	for _, name := range previous.ContextNames() {
		c, ok := s.Context(name)
		if !ok {
			slog.Debug("reapply: context not in score", "context", name)
			stats.Missing += len(previous.PersistentIndicators[name])
			continue
		}
		leaf := s.FirstLeaf(c)
		if leaf == nil {
			slog.Debug("reapply: context has no leaves", "context", name)
			continue
		}
		for _, mo := range previous.PersistentIndicators[name] {
			ind, ok, err := Resolve(mo, manifests)
			if err != nil {
				return stats, err
			}
			if !ok {
				slog.Warn("reapply: manifest key no longer resolves, dropping momento",
					"context", mo.Context,
					"prototype", mo.Prototype.String(),
					"value", mo.Value)
				droppedMomentos.WithLabelValues(mo.Prototype.String()).Inc()
				stats.Dropped++
				continue
			}

			home := s.HomeContext(leaf, ind.Kind)
			if existing := leaf.Wrapper(ind.Kind, home.Name); existing != nil && !existing.Default {
				if existing.Indicator.Equal(ind) && !existing.Classified() {
					Annotate(existing, ir.StatusReapplied, AnnotateOptions{})
					recordClassification(ir.StatusReapplied, ind.Kind)
					stats.Retained++
				}
				continue
			}

			opts := []score.AttachOption{score.WithStatus(ir.StatusReapplied)}
			if ind.Kind == indicator.KindMetronomeMark {
				sp, ok := s.Spanner(MetronomeMarkSpanner)
				if !ok {
					return stats, configError(nil, "metronome mark momento %s: no metronome mark spanner", mo)
				}
				opts = append(opts, score.WithSpanner(sp))
			}
			w, err := s.Attach(leaf, ind, opts...)
			if err != nil {
				return stats, configError(err, "reapply %s", mo)
			}
			Annotate(w, ir.StatusReapplied, AnnotateOptions{})
			recordClassification(ir.StatusReapplied, ind.Kind)
			stats.Reapplied++
			slog.Debug("reapplied", "context", w.Context, "indicator", ind.String())
		}
	}
	return stats, nil
}

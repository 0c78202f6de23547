package segment

import (
	"log/slog"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/roach88/segmaker/internal/indicator"
	"github.com/roach88/segmaker/internal/ir"
	"github.com/roach88/segmaker/internal/manifest"
	"github.com/roach88/segmaker/internal/score"
)

// Collect derives the momentos of a finished score.
//
// For every context, sorted by name, each kind contributes the wrapper at
// its last determination point, or the indicator that point restores when
// it runs past the end of the segment. Manifest-backed indicators serialize as their
// manifest key and are dropped with a warning when no key matches. Contexts
// carried in previous but absent from the score are copied forward
// unchanged. Momentos within a context are sorted by prototype name.
func Collect(s *score.Score, manifests *manifest.Set, previous *ir.Metadata) (map[string][]ir.Momento, int) {
	out := make(map[string][]ir.Momento)
	dropped := 0

	names := make([]string, 0)
	for _, c := range s.Contexts() {
		names = append(names, c.Name)
	}
	slices.Sort(names)

	for _, name := range names {
		var momentos []ir.Momento
		for _, kind := range indicator.Kinds {
			w := s.Last(name, kind)
			if w == nil {
				continue
			}
			ind := w.Indicator
			if w.Restore != nil {
				ind = *w.Restore
			}
			mo, ok := momentoOf(name, ind, manifests)
			if !ok {
				slog.Warn("collect: indicator has no manifest key, dropping",
					"context", name, "indicator", w.Indicator.String())
				droppedMomentos.WithLabelValues(kind.Prototype().String()).Inc()
				dropped++
				continue
			}
			momentos = append(momentos, mo)
		}
		if len(momentos) > 0 {
			ir.SortMomentos(momentos)
			out[name] = momentos
		}
	}

	if previous != nil {
		carried := maps.Clone(previous.PersistentIndicators)
		for name, momentos := range carried {
			if _, ok := s.Context(name); ok {
				continue
			}
			out[name] = slices.Clone(momentos)
			slog.Debug("collect: carrying context forward", "context", name)
		}
	}
	return out, dropped
}

func momentoOf(context string, ind indicator.Indicator, manifests *manifest.Set) (ir.Momento, bool) {
	proto := ind.Kind.Prototype()
	if proto.ManifestBacked() {
		key, ok := manifests.KeyOf(ind)
		if !ok {
			return ir.Momento{}, false
		}
		return ir.NewStringMomento(context, proto, key), true
	}
	v, err := ind.Value()
	if err != nil {
		return ir.Momento{}, false
	}
	return ir.Momento{Context: context, Prototype: proto, Value: v}, true
}

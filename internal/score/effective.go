package score

import (
	"math/big"

	"github.com/roach88/segmaker/internal/indicator"
)

// HomeContext returns the context an indicator of kind attached to leaf
// governs: the nearest ancestor of the leaf whose type is the kind's home
// type, or the root when there is none.
func (s *Score) HomeContext(leaf *Leaf, kind indicator.Kind) *Context {
	want := indicator.TraitsOf(kind).Context
	for c := leaf.Context; c != nil; c = c.Parent {
		if c.Type == want {
			return c
		}
	}
	return s.Root
}

// Wrappers returns every wrapper in score order.
func (s *Score) Wrappers() []*Wrapper {
	var out []*Wrapper
	for _, l := range s.Leaves() {
		out = append(out, l.Wrappers...)
	}
	return out
}

// PreviousEffective returns the wrapper in effect immediately before w: the
// latest wrapper of the same kind in the same home context whose leaf starts
// strictly earlier. It returns nil when there is none.
func (s *Score) PreviousEffective(w *Wrapper) *Wrapper {
	return s.latest(w.Kind(), w.Context, func(off *big.Rat) bool {
		return off.Cmp(w.Leaf.Offset) < 0
	})
}

// EffectiveAt returns the wrapper of kind in effect at leaf: the latest
// wrapper in the leaf's home context attached at or before the leaf's
// offset.
func (s *Score) EffectiveAt(leaf *Leaf, kind indicator.Kind) *Wrapper {
	home := s.HomeContext(leaf, kind)
	return s.latest(kind, home.Name, func(off *big.Rat) bool {
		return off.Cmp(leaf.Offset) <= 0
	})
}

// EffectiveBefore is like EffectiveAt but only considers wrappers strictly
// before offset in context.
func (s *Score) EffectiveBefore(context string, kind indicator.Kind, offset *big.Rat) *Wrapper {
	return s.latest(kind, context, func(off *big.Rat) bool {
		return off.Cmp(offset) < 0
	})
}

// Last returns the final wrapper of kind in context, or nil.
func (s *Score) Last(context string, kind indicator.Kind) *Wrapper {
	return s.latest(kind, context, func(*big.Rat) bool { return true })
}

// latest scans wrappers in score order; on equal offsets the later one in
// score order wins.
func (s *Score) latest(kind indicator.Kind, context string, accept func(*big.Rat) bool) *Wrapper {
	var best *Wrapper
	for _, w := range s.Wrappers() {
		if w.Kind() != kind || w.Context != context || !accept(w.Leaf.Offset) {
			continue
		}
		if best == nil || w.Leaf.Offset.Cmp(best.Leaf.Offset) >= 0 {
			best = w
		}
	}
	return best
}

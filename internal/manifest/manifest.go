// Package manifest holds the named registries that manifest-backed
// indicators are persisted against.
package manifest

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/roach88/segmaker/internal/duration"
	"github.com/roach88/segmaker/internal/indicator"
	"github.com/roach88/segmaker/internal/ir"
)

// Manifest is an ordered key → indicator registry for one kind.
type Manifest struct {
	kind    indicator.Kind
	keys    []string
	entries map[string]indicator.Indicator
}

// New returns an empty manifest for kind.
func New(kind indicator.Kind) *Manifest {
	return &Manifest{kind: kind, entries: map[string]indicator.Indicator{}}
}

// Add registers ind under key. Re-adding a key replaces the entry in place.
func (m *Manifest) Add(key string, ind indicator.Indicator) error {
	if ind.Kind != m.kind {
		return fmt.Errorf("manifest %s: cannot add %s under %q", m.kind, ind.Kind, key)
	}
	if key == "" {
		return fmt.Errorf("manifest %s: empty key", m.kind)
	}
	if _, ok := m.entries[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.entries[key] = ind
	return nil
}

// Get returns the entry for key.
func (m *Manifest) Get(key string) (indicator.Indicator, bool) {
	ind, ok := m.entries[key]
	return ind, ok
}

// KeyOf returns the first key, in insertion order, whose entry equals ind.
func (m *Manifest) KeyOf(ind indicator.Indicator) (string, bool) {
	for _, k := range m.keys {
		if m.entries[k].Equal(ind) {
			return k, true
		}
	}
	return "", false
}

// Keys returns the keys in insertion order.
func (m *Manifest) Keys() []string {
	return slices.Clone(m.keys)
}

// Len returns the number of entries.
func (m *Manifest) Len() int { return len(m.keys) }

// Without returns a copy of m with key removed.
func (m *Manifest) Without(key string) *Manifest {
	out := &Manifest{kind: m.kind, entries: maps.Clone(m.entries)}
	delete(out.entries, key)
	for _, k := range m.keys {
		if k != key {
			out.keys = append(out.keys, k)
		}
	}
	return out
}

// Set groups the three manifests of a score.
type Set struct {
	Instruments    *Manifest
	MetronomeMarks *Manifest
	MarginMarkups  *Manifest
}

// NewSet returns a set of empty manifests.
func NewSet() *Set {
	return &Set{
		Instruments:    New(indicator.KindInstrument),
		MetronomeMarks: New(indicator.KindMetronomeMark),
		MarginMarkups:  New(indicator.KindMarginMarkup),
	}
}

// FromSpec builds manifests from their compiled description.
func FromSpec(spec ir.ManifestSpec) (*Set, error) {
	s := NewSet()
	for _, e := range spec.Instruments {
		ind := indicator.Instrument(e.Name, e.ShortName).WithHide(e.Hide)
		if err := s.Instruments.Add(e.Key, ind); err != nil {
			return nil, err
		}
	}
	for _, e := range spec.MetronomeMarks {
		unit, err := duration.Parse(e.Unit)
		if err != nil {
			return nil, fmt.Errorf("metronome mark %q: %w", e.Key, err)
		}
		if e.UnitsPerMinute <= 0 {
			return nil, fmt.Errorf("metronome mark %q: units per minute must be positive", e.Key)
		}
		ind := indicator.MetronomeMark(unit, e.UnitsPerMinute)
		ind.Name = e.Text
		if err := s.MetronomeMarks.Add(e.Key, ind); err != nil {
			return nil, err
		}
	}
	for _, e := range spec.MarginMarkups {
		ind := indicator.MarginMarkup(e.Markup).WithHide(e.Hide)
		if err := s.MarginMarkups.Add(e.Key, ind); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// For returns the manifest backing kind, or nil if kind is not manifest-backed.
func (s *Set) For(kind indicator.Kind) *Manifest {
	switch kind {
	case indicator.KindInstrument:
		return s.Instruments
	case indicator.KindMetronomeMark:
		return s.MetronomeMarks
	case indicator.KindMarginMarkup:
		return s.MarginMarkups
	}
	return nil
}

// Lookup resolves a manifest key for a manifest-backed prototype.
func (s *Set) Lookup(proto ir.Prototype, key string) (indicator.Indicator, bool) {
	kind, err := indicator.KindOf(proto)
	if err != nil {
		return indicator.Indicator{}, false
	}
	m := s.For(kind)
	if m == nil {
		return indicator.Indicator{}, false
	}
	return m.Get(key)
}

// KeyOf finds the manifest key of a manifest-backed indicator.
func (s *Set) KeyOf(ind indicator.Indicator) (string, bool) {
	m := s.For(ind.Kind)
	if m == nil {
		return "", false
	}
	return m.KeyOf(ind)
}

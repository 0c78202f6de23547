package score

import (
	"fmt"
	"math/big"

	"golang.org/x/exp/slices"

	"github.com/roach88/segmaker/internal/duration"
)

// LeafKind distinguishes notes, rests and placeholders.
type LeafKind int

const (
	LeafNote LeafKind = iota
	LeafRest
	LeafSkip
	LeafMultimeasureRest
)

// ParseLeafKind reads "note", "rest", "skip" or "mmrest".
func ParseLeafKind(s string) (LeafKind, error) {
	switch s {
	case "note", "":
		return LeafNote, nil
	case "rest":
		return LeafRest, nil
	case "skip":
		return LeafSkip, nil
	case "mmrest":
		return LeafMultimeasureRest, nil
	}
	return 0, fmt.Errorf("unknown leaf kind %q", s)
}

// Leaf is one timed event.
type Leaf struct {
	ID       LeafID
	Kind     LeafKind
	Pitch    string
	Duration *big.Rat
	Offset   *big.Rat

	// Measure is the 1-based local measure the leaf starts in.
	Measure int

	Context  *Context
	Wrappers []*Wrapper
	Literals []Literal
}

// Stop returns the offset at which the leaf ends.
func (l *Leaf) Stop() *big.Rat {
	return new(big.Rat).Add(l.Offset, l.Duration)
}

// LilyPond returns the leaf token, e.g. "c'4" or "R1 * 3/4".
func (l *Leaf) LilyPond() string {
	switch l.Kind {
	case LeafRest:
		return "r" + duration.LilyPond(l.Duration)
	case LeafSkip:
		return "s1 * " + l.Duration.RatString()
	case LeafMultimeasureRest:
		return "R1 * " + l.Duration.RatString()
	}
	return l.Pitch + duration.LilyPond(l.Duration)
}

func (l *Leaf) String() string {
	return fmt.Sprintf("%s[%d]@%s", l.Context.Name, l.ID, l.Offset.RatString())
}

// Append adds a leaf to the end of c. Its offset is the context's current
// duration.
func (s *Score) Append(c *Context, kind LeafKind, pitch string, d *big.Rat) *Leaf {
	l := &Leaf{
		ID:       s.ids.next(),
		Kind:     kind,
		Pitch:    pitch,
		Duration: new(big.Rat).Set(d),
		Offset:   c.Duration(),
		Context:  c,
	}
	l.Measure = s.MeasureAt(l.Offset)
	c.Leaves = append(c.Leaves, l)
	return l
}

// Spanner groups a contiguous run of leaves.
type Spanner struct {
	Name   string
	Leaves []*Leaf
}

// Contains reports whether l is covered by the spanner.
func (sp *Spanner) Contains(l *Leaf) bool {
	for _, x := range sp.Leaves {
		if x == l {
			return true
		}
	}
	return false
}

// AddSpanner registers a spanner over leaves.
func (s *Score) AddSpanner(name string, leaves []*Leaf) *Spanner {
	sp := &Spanner{Name: name, Leaves: slices.Clone(leaves)}
	s.Spanners = append(s.Spanners, sp)
	return sp
}

// Spanner returns the spanner named name.
func (s *Score) Spanner(name string) (*Spanner, bool) {
	for _, sp := range s.Spanners {
		if sp.Name == name {
			return sp, true
		}
	}
	return nil, false
}

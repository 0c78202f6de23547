package score

import (
	"fmt"
	"math/big"

	"github.com/roach88/segmaker/internal/indicator"
)

// Context types created by the template.
const (
	TypeScore         = "Score"
	TypeGlobalContext = indicator.ContextGlobal
	TypeGlobalSkips   = "GlobalSkips"
	TypeGlobalRests   = "GlobalRests"
	TypeMusicContext  = "MusicContext"
	TypeStaff         = indicator.ContextStaff
	TypeVoice         = indicator.ContextVoice
)

// Well-known context names.
const (
	NameScore         = "Score"
	NameGlobalContext = "Global_Context"
	NameGlobalSkips   = "Global_Skips"
	NameGlobalRests   = "Global_Rests"
	NameMusicContext  = "Music_Context"
)

// Context is a named node of the score tree.
type Context struct {
	Name string
	Type string

	// Simultaneous contexts render their children in parallel (<< >>).
	Simultaneous bool

	Parent   *Context
	Children []*Context
	Leaves   []*Leaf
}

// Lineage returns c followed by its ancestors up to the root.
func (c *Context) Lineage() []*Context {
	var out []*Context
	for p := c; p != nil; p = p.Parent {
		out = append(out, p)
	}
	return out
}

// IsAncestorOf reports whether c is other or one of its ancestors.
func (c *Context) IsAncestorOf(other *Context) bool {
	for p := other; p != nil; p = p.Parent {
		if p == c {
			return true
		}
	}
	return false
}

// Duration returns the summed duration of the context's own leaves.
func (c *Context) Duration() *big.Rat {
	total := new(big.Rat)
	for _, l := range c.Leaves {
		total.Add(total, l.Duration)
	}
	return total
}

// Measure is one measure of the segment.
type Measure struct {
	Number        int
	Start         *big.Rat
	Stop          *big.Rat
	TimeSignature indicator.Indicator
}

// Score is the root of a notation tree plus its measure grid and spanners.
type Score struct {
	Root     *Context
	Measures []Measure
	Spanners []*Spanner

	ids    idClock
	byName map[string]*Context
}

// New returns a score with a root context and no measures.
func New() *Score {
	root := &Context{Name: NameScore, Type: TypeScore, Simultaneous: true}
	return &Score{
		Root:   root,
		byName: map[string]*Context{root.Name: root},
	}
}

// AddContext creates a child context of parent. Names are unique per score.
func (s *Score) AddContext(parent *Context, name, typ string, simultaneous bool) (*Context, error) {
	if _, ok := s.byName[name]; ok {
		return nil, fmt.Errorf("duplicate context %q", name)
	}
	c := &Context{Name: name, Type: typ, Simultaneous: simultaneous, Parent: parent}
	parent.Children = append(parent.Children, c)
	s.byName[name] = c
	return c, nil
}

// Context returns the context named name.
func (s *Score) Context(name string) (*Context, bool) {
	c, ok := s.byName[name]
	return c, ok
}

// Contexts returns every context in depth-first order.
func (s *Score) Contexts() []*Context {
	var out []*Context
	var walk func(*Context)
	walk = func(c *Context) {
		out = append(out, c)
		for _, ch := range c.Children {
			walk(ch)
		}
	}
	walk(s.Root)
	return out
}

// Leaves returns every leaf in score order: contexts depth-first, each
// context's leaves in time order.
func (s *Score) Leaves() []*Leaf {
	return s.LeavesUnder(s.Root)
}

// LeavesUnder returns the leaves of c and its descendants in score order.
func (s *Score) LeavesUnder(c *Context) []*Leaf {
	var out []*Leaf
	for _, ctx := range contextsUnder(c) {
		out = append(out, ctx.Leaves...)
	}
	return out
}

// FirstLeaf returns the earliest leaf under c, preferring score order on
// ties. It returns nil when c has no leaves.
func (s *Score) FirstLeaf(c *Context) *Leaf {
	var first *Leaf
	for _, l := range s.LeavesUnder(c) {
		if first == nil || l.Offset.Cmp(first.Offset) < 0 {
			first = l
		}
	}
	return first
}

// LeafAt returns the first leaf under c that starts at or after offset.
func (s *Score) LeafAt(c *Context, offset *big.Rat) *Leaf {
	var best *Leaf
	for _, l := range s.LeavesUnder(c) {
		if l.Offset.Cmp(offset) < 0 {
			continue
		}
		if best == nil || l.Offset.Cmp(best.Offset) < 0 {
			best = l
		}
	}
	return best
}

// Duration returns the total duration of the measure grid.
func (s *Score) Duration() *big.Rat {
	if len(s.Measures) == 0 {
		return new(big.Rat)
	}
	return new(big.Rat).Set(s.Measures[len(s.Measures)-1].Stop)
}

// SetMeasures lays out the measure grid from time signatures.
func (s *Score) SetMeasures(timeSignatures []indicator.Indicator) {
	s.Measures = s.Measures[:0]
	start := new(big.Rat)
	for i, ts := range timeSignatures {
		stop := new(big.Rat).Add(start, ts.Duration())
		s.Measures = append(s.Measures, Measure{
			Number:        i + 1,
			Start:         start,
			Stop:          stop,
			TimeSignature: ts,
		})
		start = stop
	}
}

// MeasureAt returns the 1-based number of the measure containing offset, or
// 0 when offset is outside the grid.
func (s *Score) MeasureAt(offset *big.Rat) int {
	for _, m := range s.Measures {
		if offset.Cmp(m.Start) >= 0 && offset.Cmp(m.Stop) < 0 {
			return m.Number
		}
	}
	return 0
}

func contextsUnder(c *Context) []*Context {
	out := []*Context{c}
	for _, ch := range c.Children {
		out = append(out, contextsUnder(ch)...)
	}
	return out
}

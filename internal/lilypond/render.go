// Package lilypond renders an annotated score as LilyPond source.
//
// Every tagged statement is printed on its own line followed by its tag
// comment, so rendered output can be filtered with package tags without
// re-deriving any classification.
package lilypond

import (
	"fmt"
	"io"
	"strings"

	"github.com/roach88/segmaker/internal/score"
	"github.com/roach88/segmaker/internal/tags"
)

// Version is the LilyPond language version written by Document.
const Version = "2.24.0"

// Renderer writes LilyPond source to Output.
type Renderer struct {
	Output io.Writer

	// Indent is repeated once per nesting level. Empty means four spaces.
	Indent string

	err error
}

// Render writes the context tree of s to w.
func Render(w io.Writer, s *score.Score) error {
	r := &Renderer{Output: w}
	r.Score(s)
	return r.err
}

// Document writes a version header followed by the rendered score.
func Document(w io.Writer, s *score.Score) error {
	r := &Renderer{Output: w}
	r.line(0, fmt.Sprintf(`\version "%s"`, Version))
	r.line(0, "")
	r.Score(s)
	return r.err
}

// Score renders every context of s.
func (r *Renderer) Score(s *score.Score) {
	r.context(s.Root, 0)
}

// Err returns the first write error.
func (r *Renderer) Err() error { return r.err }

func (r *Renderer) line(depth int, text string) {
	if r.err != nil {
		return
	}
	indent := r.Indent
	if indent == "" {
		indent = "    "
	}
	if text == "" {
		_, r.err = io.WriteString(r.Output, "\n")
		return
	}
	_, r.err = io.WriteString(r.Output, strings.Repeat(indent, depth)+text+"\n")
}

func (r *Renderer) context(c *score.Context, depth int) {
	r.line(depth, fmt.Sprintf(`\context %s = "%s"`, c.Type, c.Name))
	open, close := "{", "}"
	if c.Simultaneous {
		open, close = "<<", ">>"
	}
	r.line(depth, open)
	for _, l := range c.Leaves {
		r.leaf(l, depth+1)
	}
	for _, child := range c.Children {
		r.context(child, depth+1)
	}
	r.line(depth, close)
}

// leaf prints, in order: emissions and indicators engraved before the leaf,
// literals before the leaf, the leaf itself, post-event indicators, then
// trailing emissions and literals.
func (r *Renderer) leaf(l *score.Leaf, depth int) {
	for _, w := range l.Wrappers {
		for _, e := range w.Emissions {
			if !e.After {
				r.literal(e, depth)
			}
		}
		if !w.Indicator.After() {
			r.indicator(w, depth)
		}
	}
	for _, lit := range l.Literals {
		if !lit.After {
			r.literal(lit, depth)
		}
	}

	r.line(depth, l.LilyPond())

	for _, w := range l.Wrappers {
		if w.Indicator.After() {
			r.indicator(w, depth)
		}
	}
	for _, w := range l.Wrappers {
		for _, e := range w.Emissions {
			if e.After {
				r.literal(e, depth)
			}
		}
	}
	for _, lit := range l.Literals {
		if lit.After {
			r.literal(lit, depth)
		}
	}
}

func (r *Renderer) indicator(w *score.Wrapper, depth int) {
	for _, stmt := range w.Indicator.LilyPond(w.Indicator.Traits().Context) {
		r.line(depth, tags.Line(stmt, w.Tag, w.Deactivate))
	}
}

func (r *Renderer) literal(lit score.Literal, depth int) {
	r.line(depth, tags.Line(lit.Statement, lit.Tag, lit.Deactivate))
}

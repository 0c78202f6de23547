package score

import (
	"fmt"

	"github.com/roach88/segmaker/internal/indicator"
	"github.com/roach88/segmaker/internal/ir"
)

// Literal is a raw LilyPond statement printed before or after a leaf.
type Literal struct {
	Statement  string
	Tag        string
	After      bool
	Deactivate bool
}

// Wrapper attaches one persistent indicator to a leaf.
type Wrapper struct {
	Indicator indicator.Indicator
	Leaf      *Leaf

	// Context names the home context the indicator governs.
	Context string

	Status ir.Status
	Tag    string

	// Default marks an attachment made by the score template.
	Default    bool
	Deactivate bool
	Spanner    *Spanner

	// Supersedes is the default or reapplied wrapper this one replaced.
	Supersedes *Wrapper

	// Restore is the indicator in effect again once the wrapper's span runs
	// past the end of the segment. It is what gets carried forward.
	Restore *indicator.Indicator

	// Emissions are the tagged color, alert and redraw statements produced
	// when the wrapper was classified.
	Emissions []Literal
}

// Kind returns the wrapped indicator's kind.
func (w *Wrapper) Kind() indicator.Kind { return w.Indicator.Kind }

// Classified reports whether the wrapper has a status.
func (w *Wrapper) Classified() bool { return w.Status.Classified() }

func (w *Wrapper) String() string {
	return fmt.Sprintf("%s %s@%s", w.Status, w.Indicator, w.Context)
}

// AttachError reports a second indicator of a kind on the same leaf and
// home context.
type AttachError struct {
	Leaf     *Leaf
	Existing *Wrapper
	New      indicator.Indicator
}

func (e *AttachError) Error() string {
	return fmt.Sprintf("cannot attach %s to %s: %s already attached for %s",
		e.New, e.Leaf, e.Existing.Indicator, e.Existing.Context)
}

// AttachOption configures an attachment.
type AttachOption func(*Wrapper)

// WithStatus attaches an already classified wrapper.
func WithStatus(st ir.Status) AttachOption {
	return func(w *Wrapper) { w.Status = st }
}

// WithTag sets the wrapper's base tag.
func WithTag(tag string) AttachOption {
	return func(w *Wrapper) { w.Tag = tag }
}

// AsDefault marks a score-template attachment.
func AsDefault() AttachOption {
	return func(w *Wrapper) { w.Default = true }
}

// WithSpanner routes the attachment through sp.
func WithSpanner(sp *Spanner) AttachOption {
	return func(w *Wrapper) { w.Spanner = sp }
}

// Attach wraps ind and attaches it to leaf in its home context.
//
// A leaf holds at most one wrapper per kind and home context. An existing
// default or reapplied wrapper is superseded and remembered on the new
// wrapper; any other existing wrapper is an *AttachError.
func (s *Score) Attach(leaf *Leaf, ind indicator.Indicator, opts ...AttachOption) (*Wrapper, error) {
	if !ind.Persistent() {
		return nil, fmt.Errorf("cannot attach non-persistent indicator %s", ind)
	}
	home := s.HomeContext(leaf, ind.Kind)
	w := &Wrapper{Indicator: ind, Leaf: leaf, Context: home.Name}
	for _, opt := range opts {
		opt(w)
	}
	if w.Spanner != nil && !w.Spanner.Contains(leaf) {
		return nil, fmt.Errorf("spanner %s does not cover %s", w.Spanner.Name, leaf)
	}

	if existing := leaf.Wrapper(ind.Kind, home.Name); existing != nil {
		if !existing.Default && existing.Status != ir.StatusReapplied {
			return nil, &AttachError{Leaf: leaf, Existing: existing, New: ind}
		}
		leaf.detach(existing)
		w.Supersedes = existing
	}
	leaf.Wrappers = append(leaf.Wrappers, w)
	return w, nil
}

// Detach removes w from its leaf.
func (s *Score) Detach(w *Wrapper) {
	w.Leaf.detach(w)
}

// Replace swaps old for repl at old's position on the leaf.
func (s *Score) Replace(old, repl *Wrapper) {
	for i, w := range old.Leaf.Wrappers {
		if w == old {
			repl.Leaf = old.Leaf
			old.Leaf.Wrappers[i] = repl
			return
		}
	}
}

// Wrapper returns the wrapper of kind governing context on l.
func (l *Leaf) Wrapper(kind indicator.Kind, context string) *Wrapper {
	for _, w := range l.Wrappers {
		if w.Kind() == kind && w.Context == context {
			return w
		}
	}
	return nil
}

// AddLiteral attaches a raw statement to the leaf.
func (l *Leaf) AddLiteral(lit Literal) {
	l.Literals = append(l.Literals, lit)
}

func (l *Leaf) detach(w *Wrapper) {
	for i, x := range l.Wrappers {
		if x == w {
			l.Wrappers = append(l.Wrappers[:i], l.Wrappers[i+1:]...)
			return
		}
	}
}

// Package tags names the annotation categories emitted into rendered output
// and toggles them on and off in text.
package tags

import (
	"strings"

	"github.com/roach88/segmaker/internal/ir"
)

// Suffixes distinguishing the emissions of one classified indicator.
const (
	SuffixColor             = "COLOR"
	SuffixRedrawColor       = "REDRAW_COLOR"
	SuffixColorCancellation = "COLOR_CANCELLATION"
	SuffixAlert             = "ALERT"
	SuffixForced            = "FORCED"
)

// Free-standing tags not derived from a status.
const (
	FermataMeasure = "FERMATA_MEASURE"
	Spacing        = "SPACING"
	MeasureNumber  = "MEASURE_NUMBER"
	Literal        = "LITERAL"
)

// Marker separates a statement from its tag on a rendered line.
const Marker = "%! "

// Deactivated prefixes a statement that is kept but commented out.
const Deactivated = "%@% "

// Tag is a composite annotation key.
type Tag struct {
	Status ir.Status
	Stem   string
	Prefix string
	Suffix string
}

// New returns the tag for one emission of an indicator with status.
func New(status ir.Status, stem, suffix string) Tag {
	return Tag{Status: status, Stem: stem, Suffix: suffix}
}

// String renders the tag as STATUS_STEM[_PREFIX][_SUFFIX].
func (t Tag) String() string {
	parts := make([]string, 0, 4)
	if t.Status.Classified() {
		parts = append(parts, t.Status.Upper())
	}
	parts = append(parts, t.Stem)
	if t.Prefix != "" {
		parts = append(parts, t.Prefix)
	}
	if t.Suffix != "" {
		parts = append(parts, t.Suffix)
	}
	return strings.Join(parts, "_")
}

// Line attaches tag to a statement for rendering.
func Line(statement, tag string, deactivate bool) string {
	if tag == "" {
		return statement
	}
	if deactivate {
		statement = Deactivated + statement
	}
	return statement + " " + Marker + tag
}

// Parse splits a rendered line into indentation, statement, tag and whether
// the statement is deactivated. Untagged lines return an empty tag.
func Parse(line string) (indent, statement, tag string, deactivated bool) {
	body := strings.TrimLeft(line, " \t")
	indent = line[:len(line)-len(body)]
	i := strings.LastIndex(body, " "+Marker)
	if i < 0 {
		return indent, body, "", false
	}
	statement, tag = body[:i], body[i+len(Marker)+1:]
	if rest, ok := strings.CutPrefix(statement, Deactivated); ok {
		return indent, rest, tag, true
	}
	return indent, statement, tag, false
}

// Matcher selects tags.
type Matcher func(tag string) bool

// Exactly matches any of the given tags.
func Exactly(names ...string) Matcher {
	return func(tag string) bool {
		for _, n := range names {
			if tag == n {
				return true
			}
		}
		return false
	}
}

// WithSuffix matches tags ending in _suffix.
func WithSuffix(suffix string) Matcher {
	return func(tag string) bool {
		return strings.HasSuffix(tag, "_"+suffix)
	}
}

// WithStatus matches tags emitted for status.
func WithStatus(status ir.Status) Matcher {
	return func(tag string) bool {
		return strings.HasPrefix(tag, status.Upper()+"_")
	}
}

// Activate uncomments every deactivated line whose tag matches.
// It returns the new text and the number of lines changed.
func Activate(text string, match Matcher) (string, int) {
	return toggle(text, match, true)
}

// Deactivate comments out every active line whose tag matches.
func Deactivate(text string, match Matcher) (string, int) {
	return toggle(text, match, false)
}

func toggle(text string, match Matcher, activate bool) (string, int) {
	lines := strings.Split(text, "\n")
	count := 0
	for i, line := range lines {
		indent, stmt, tag, deactivated := Parse(line)
		if tag == "" || deactivated == !activate || !match(tag) {
			continue
		}
		lines[i] = indent + Line(stmt, tag, !activate)
		count++
	}
	return strings.Join(lines, "\n"), count
}

package compiler

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/segmaker/internal/ir"
)

//go:embed schema.cue
var schemaCUE string

// ScoreDefinition is a compiled score directory: one definition per segment,
// in the order the segments are listed.
//
// Every segment carries the score-wide name, template and manifests, so each
// entry can be handed to segment.Maker on its own.
type ScoreDefinition struct {
	Score    string
	Segments []ir.SegmentDefinition
}

// Segment returns the definition of segment n (1-based).
func (d *ScoreDefinition) Segment(n int) (*ir.SegmentDefinition, bool) {
	if n < 1 || n > len(d.Segments) {
		return nil, false
	}
	return &d.Segments[n-1], true
}

// CompileScore validates a CUE value against the score schema and
// decodes it.
//
// The value is expected to hold the top-level fields of a score directory:
//
//	score:     "opus"
//	manifests: instruments: [{key: "Cello", name: "Violoncello"}]
//	template:  staves: [{name: "Cello", clef: "bass", instrument: "Cello"}]
//	segments: [{time_signatures: ["4/4", "3/4"]}]
func CompileScore(v cue.Value) (*ScoreDefinition, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	schema := v.Context().CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	unified := schema.LookupPath(cue.ParsePath("#Score")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var shared struct {
		Score                        string          `json:"score"`
		Manifests                    ir.ManifestSpec `json:"manifests"`
		Template                     ir.TemplateSpec `json:"template"`
		FermataMeasureStaffLineCount *int            `json:"fermata_measure_staff_line_count"`
	}
	if err := unified.Decode(&shared); err != nil {
		return nil, formatCUEError(err)
	}
	// Positions are looked up on v: the unified value may report the
	// schema's position instead of the user's.
	if err := checkManifests(v, shared.Manifests); err != nil {
		return nil, err
	}
	if err := checkTemplate(v, shared.Template); err != nil {
		return nil, err
	}

	def := &ScoreDefinition{Score: shared.Score}
	iter, err := unified.LookupPath(cue.ParsePath("segments")).List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	raw := v.LookupPath(cue.ParsePath("segments"))
	for i := 1; iter.Next(); i++ {
		seg, err := compileSegment(iter.Value(), raw.LookupPath(cue.MakePath(cue.Index(i-1))), i)
		if err != nil {
			return nil, err
		}
		seg.Score = shared.Score
		seg.Manifests = shared.Manifests
		seg.Template = shared.Template
		if seg.FermataMeasureStaffLineCount == nil {
			seg.FermataMeasureStaffLineCount = shared.FermataMeasureStaffLineCount
		}
		def.Segments = append(def.Segments, *seg)
	}
	return def, nil
}

// compileSegment decodes one entry of the segments list and checks what
// the schema cannot: command types and measure references. raw is the same
// entry before schema unification, used for error positions.
func compileSegment(v, raw cue.Value, n int) (*ir.SegmentDefinition, error) {
	var seg ir.SegmentDefinition
	if err := v.Decode(&seg); err != nil {
		return nil, formatCUEError(err)
	}
	measures := len(seg.TimeSignatures)
	field := func(name string) string { return fmt.Sprintf("segments[%d].%s", n-1, name) }

	commands := raw.LookupPath(cue.ParsePath("commands"))
	for i, cmd := range seg.Commands {
		pos := commands.LookupPath(cue.MakePath(cue.Index(i))).Pos()
		if !slices.Contains(ir.CommandTypes, cmd.Type) {
			return nil, &CompileError{
				Field:   field(fmt.Sprintf("commands[%d].type", i)),
				Message: fmt.Sprintf("unknown command type %q", cmd.Type),
				Pos:     pos,
			}
		}
		if cmd.Measure > measures {
			return nil, &CompileError{
				Field:   field(fmt.Sprintf("commands[%d].measure", i)),
				Message: fmt.Sprintf("measure %d out of range 1..%d", cmd.Measure, measures),
				Pos:     pos,
			}
		}
	}

	rhythms := raw.LookupPath(cue.ParsePath("rhythms"))
	for i, r := range seg.Rhythms {
		if r.Stop > measures {
			return nil, &CompileError{
				Field:   field(fmt.Sprintf("rhythms[%d].stop", i)),
				Message: fmt.Sprintf("measure %d out of range 1..%d", r.Stop, measures),
				Pos:     rhythms.LookupPath(cue.MakePath(cue.Index(i))).Pos(),
			}
		}
	}

	for _, list := range []struct {
		name     string
		measures []int
	}{
		{"fermata_measures", seg.FermataMeasures},
		{"breaks", seg.Breaks},
	} {
		for _, m := range list.measures {
			if m > measures {
				return nil, &CompileError{
					Field:   field(list.name),
					Message: fmt.Sprintf("measure %d out of range 1..%d", m, measures),
					Pos:     raw.LookupPath(cue.ParsePath(list.name)).Pos(),
				}
			}
		}
	}
	return &seg, nil
}

// checkManifests rejects duplicate keys within a manifest.
func checkManifests(v cue.Value, m ir.ManifestSpec) error {
	check := func(name string, keys []string) error {
		seen := make(map[string]bool, len(keys))
		for _, k := range keys {
			if seen[k] {
				return &CompileError{
					Field:   "manifests." + name,
					Message: fmt.Sprintf("duplicate key %q", k),
					Pos:     v.LookupPath(cue.ParsePath("manifests." + name)).Pos(),
				}
			}
			seen[k] = true
		}
		return nil
	}

	var keys []string
	for _, e := range m.Instruments {
		keys = append(keys, e.Key)
	}
	if err := check("instruments", keys); err != nil {
		return err
	}
	keys = keys[:0]
	for _, e := range m.MetronomeMarks {
		keys = append(keys, e.Key)
	}
	if err := check("metronome_marks", keys); err != nil {
		return err
	}
	keys = keys[:0]
	for _, e := range m.MarginMarkups {
		keys = append(keys, e.Key)
	}
	return check("margin_markups", keys)
}

// checkTemplate rejects duplicate staff names.
func checkTemplate(v cue.Value, t ir.TemplateSpec) error {
	seen := make(map[string]bool, len(t.Staves))
	for _, staff := range t.Staves {
		if seen[staff.Name] {
			return &CompileError{
				Field:   "template.staves",
				Message: fmt.Sprintf("duplicate staff %q", staff.Name),
				Pos:     v.LookupPath(cue.ParsePath("template.staves")).Pos(),
			}
		}
		seen[staff.Name] = true
	}
	return nil
}

// CompileError is a compilation failure with its CUE source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Report the first error; CUE often repeats one cause per conjunct.
	firstErr := errs[0]
	field := "cue"
	if path := firstErr.Path(); len(path) > 0 {
		field = strings.Join(path, ".")
	}
	if positions := errors.Positions(firstErr); len(positions) > 0 {
		return &CompileError{
			Field:   field,
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}
	return &CompileError{Field: field, Message: firstErr.Error()}
}

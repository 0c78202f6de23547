// Package indicator defines the closed set of persistent indicator kinds.
//
// An Indicator is a small tagged union: Kind selects which payload fields are
// meaningful. Per-kind behavior (tag stem, grob, home context, latency,
// redraw) lives in a lookup table rather than in type switches.
package indicator

import (
	"fmt"

	"github.com/roach88/segmaker/internal/ir"
)

// Kind identifies an indicator variant.
type Kind int

const (
	KindUnknown Kind = iota
	KindClef
	KindDynamic
	KindInstrument
	KindMarginMarkup
	KindMetronomeMark
	KindStaffLines
	KindTimeSignature
)

// Context types an indicator can call home.
const (
	ContextGlobal = "GlobalContext"
	ContextStaff  = "Staff"
	ContextVoice  = "Voice"
)

// Traits holds the static properties of one kind.
type Traits struct {
	Prototype ir.Prototype
	Stem      string
	Grob      string
	Context   string
	Latent    bool
	Redraw    bool

	// Repeatable kinds are never classified redundant.
	Repeatable bool
}

var traits = map[Kind]Traits{
	KindClef: {
		Prototype: ir.PrototypeClef,
		Stem:      "CLEF",
		Grob:      "Clef",
		Context:   ContextStaff,
		Redraw:    true,
	},
	KindDynamic: {
		Prototype:  ir.PrototypeDynamic,
		Stem:       "DYNAMIC",
		Grob:       "DynamicText",
		Context:    ContextVoice,
		Repeatable: true,
	},
	KindInstrument: {
		Prototype: ir.PrototypeInstrument,
		Stem:      "INSTRUMENT",
		Grob:      "InstrumentName",
		Context:   ContextStaff,
		Latent:    true,
		Redraw:    true,
	},
	KindMarginMarkup: {
		Prototype: ir.PrototypeMarginMarkup,
		Stem:      "MARGIN_MARKUP",
		Grob:      "InstrumentName",
		Context:   ContextStaff,
		Latent:    true,
		Redraw:    true,
	},
	KindMetronomeMark: {
		Prototype: ir.PrototypeMetronomeMark,
		Stem:      "METRONOME_MARK",
		Grob:      "MetronomeMark",
		Context:   ContextGlobal,
	},
	KindStaffLines: {
		Prototype: ir.PrototypeStaffLines,
		Stem:      "STAFF_LINES",
		Grob:      "StaffSymbol",
		Context:   ContextStaff,
	},
	KindTimeSignature: {
		Prototype: ir.PrototypeTimeSignature,
		Stem:      "TIME_SIGNATURE",
		Grob:      "TimeSignature",
		Context:   ContextGlobal,
	},
}

// Kinds lists every kind in prototype-name order.
var Kinds = []Kind{
	KindClef,
	KindDynamic,
	KindInstrument,
	KindMarginMarkup,
	KindMetronomeMark,
	KindStaffLines,
	KindTimeSignature,
}

// TraitsOf returns the traits of k. Unknown kinds return the zero Traits.
func TraitsOf(k Kind) Traits {
	return traits[k]
}

func (k Kind) String() string {
	if t, ok := traits[k]; ok {
		return t.Prototype.String()
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Prototype returns the persisted discriminator of k.
func (k Kind) Prototype() ir.Prototype { return traits[k].Prototype }

// KindOf maps a persisted prototype back to its kind.
func KindOf(p ir.Prototype) (Kind, error) {
	for k, t := range traits {
		if t.Prototype == p {
			return k, nil
		}
	}
	return KindUnknown, &ir.UnknownPrototypeError{Name: p.String()}
}

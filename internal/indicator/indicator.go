package indicator

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/roach88/segmaker/internal/duration"
	"github.com/roach88/segmaker/internal/ir"
)

// Indicator is one persistent indicator value.
//
// Only the payload fields of Kind are meaningful:
//
//	Clef, Dynamic      Name
//	Instrument         Name, ShortName
//	MarginMarkup       Name (the markup)
//	MetronomeMark      Unit, UnitsPerMinute, Name (optional text)
//	StaffLines         Number
//	TimeSignature      Numerator, Denominator
//
// Hide suppresses the redraw emission; it does not take part in equality.
type Indicator struct {
	Kind Kind

	Name           string
	ShortName      string
	Number         int
	Numerator      int
	Denominator    int
	Unit           *big.Rat
	UnitsPerMinute int

	Hide bool
}

// Clef returns a clef indicator, e.g. Clef("treble").
func Clef(name string) Indicator {
	return Indicator{Kind: KindClef, Name: name}
}

// Dynamic returns a dynamic indicator, e.g. Dynamic("mf").
func Dynamic(name string) Indicator {
	return Indicator{Kind: KindDynamic, Name: name}
}

// Instrument returns an instrument indicator.
func Instrument(name, shortName string) Indicator {
	return Indicator{Kind: KindInstrument, Name: name, ShortName: shortName}
}

// MarginMarkup returns a margin markup indicator.
func MarginMarkup(markup string) Indicator {
	return Indicator{Kind: KindMarginMarkup, Name: markup}
}

// MetronomeMark returns a metronome mark of unitsPerMinute beats of unit.
func MetronomeMark(unit *big.Rat, unitsPerMinute int) Indicator {
	return Indicator{Kind: KindMetronomeMark, Unit: unit, UnitsPerMinute: unitsPerMinute}
}

// StaffLines returns a staff line count indicator.
func StaffLines(n int) Indicator {
	return Indicator{Kind: KindStaffLines, Number: n}
}

// TimeSignature returns a time signature indicator.
func TimeSignature(numerator, denominator int) Indicator {
	return Indicator{Kind: KindTimeSignature, Numerator: numerator, Denominator: denominator}
}

// ParseTimeSignature reads a time signature such as "3/4".
func ParseTimeSignature(s string) (Indicator, error) {
	num, den, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return Indicator{}, fmt.Errorf("invalid time signature %q", s)
	}
	n, err1 := strconv.Atoi(num)
	d, err2 := strconv.Atoi(den)
	if err1 != nil || err2 != nil || n <= 0 || d <= 0 || d&(d-1) != 0 {
		return Indicator{}, fmt.Errorf("invalid time signature %q", s)
	}
	return TimeSignature(n, d), nil
}

// Traits returns the static traits of the indicator's kind.
func (ind Indicator) Traits() Traits { return traits[ind.Kind] }

// Latent reports whether a change of value needs a textual alert.
func (ind Indicator) Latent() bool { return traits[ind.Kind].Latent }

// Redraw reports whether the indicator is re-emitted in its steady-state color.
func (ind Indicator) Redraw() bool { return traits[ind.Kind].Redraw }

// Persistent reports whether the indicator's effect continues until overridden.
// Every kind in the closed set is persistent.
func (ind Indicator) Persistent() bool { return ind.Kind != KindUnknown }

// WithHide returns a copy of ind with Hide set.
func (ind Indicator) WithHide(hide bool) Indicator {
	ind.Hide = hide
	return ind
}

// Equal reports whether two indicators render the same value.
func (ind Indicator) Equal(other Indicator) bool {
	if ind.Kind != other.Kind {
		return false
	}
	switch ind.Kind {
	case KindClef, KindDynamic, KindMarginMarkup:
		return ind.Name == other.Name
	case KindInstrument:
		return ind.Name == other.Name && ind.ShortName == other.ShortName
	case KindMetronomeMark:
		if ind.UnitsPerMinute != other.UnitsPerMinute || ind.Name != other.Name {
			return false
		}
		if ind.Unit == nil || other.Unit == nil {
			return ind.Unit == other.Unit
		}
		return ind.Unit.Cmp(other.Unit) == 0
	case KindStaffLines:
		return ind.Number == other.Number
	case KindTimeSignature:
		return ind.Numerator == other.Numerator && ind.Denominator == other.Denominator
	}
	return false
}

// Duration returns the measure duration of a time signature.
func (ind Indicator) Duration() *big.Rat {
	return big.NewRat(int64(ind.Numerator), int64(ind.Denominator))
}

// Value returns the momento value of a non-manifest indicator.
func (ind Indicator) Value() (ir.IRValue, error) {
	switch ind.Kind {
	case KindClef, KindDynamic:
		return ir.IRString(ind.Name), nil
	case KindStaffLines:
		return ir.IRInt(ind.Number), nil
	case KindTimeSignature:
		return ir.IRString(ind.String()), nil
	}
	return nil, fmt.Errorf("%s is manifest-backed", ind.Kind)
}

// FromValue builds a non-manifest indicator from a momento value.
func FromValue(k Kind, v ir.IRValue) (Indicator, error) {
	switch k {
	case KindClef, KindDynamic:
		s, ok := v.(ir.IRString)
		if !ok {
			return Indicator{}, fmt.Errorf("%s momento needs a string value, got %T", k, v)
		}
		if k == KindClef {
			return Clef(string(s)), nil
		}
		return Dynamic(string(s)), nil
	case KindStaffLines:
		n, ok := v.(ir.IRInt)
		if !ok {
			return Indicator{}, fmt.Errorf("%s momento needs an int value, got %T", k, v)
		}
		return StaffLines(int(n)), nil
	case KindTimeSignature:
		s, ok := v.(ir.IRString)
		if !ok {
			return Indicator{}, fmt.Errorf("%s momento needs a string value, got %T", k, v)
		}
		return ParseTimeSignature(string(s))
	}
	return Indicator{}, fmt.Errorf("%s is manifest-backed", k)
}

// String renders a short human form such as Clef("treble") or 3/4.
func (ind Indicator) String() string {
	switch ind.Kind {
	case KindClef, KindDynamic, KindMarginMarkup:
		return fmt.Sprintf("%s(%q)", ind.Kind, ind.Name)
	case KindInstrument:
		return fmt.Sprintf("Instrument(%q)", ind.Name)
	case KindMetronomeMark:
		if ind.Unit == nil {
			return fmt.Sprintf("MetronomeMark(?=%d)", ind.UnitsPerMinute)
		}
		return fmt.Sprintf("MetronomeMark(%s=%d)", ind.Unit.RatString(), ind.UnitsPerMinute)
	case KindStaffLines:
		return fmt.Sprintf("StaffLines(%d)", ind.Number)
	case KindTimeSignature:
		return fmt.Sprintf("%d/%d", ind.Numerator, ind.Denominator)
	}
	return ind.Kind.String()
}

// LilyPond returns the directive lines that engrave the indicator in a
// context of type contextType.
func (ind Indicator) LilyPond(contextType string) []string {
	switch ind.Kind {
	case KindClef:
		return []string{fmt.Sprintf(`\clef "%s"`, ind.Name)}
	case KindDynamic:
		return []string{`\` + ind.Name}
	case KindInstrument:
		lines := []string{fmt.Sprintf(`\set %s.instrumentName = \markup { "%s" }`, contextType, ind.Name)}
		if ind.ShortName != "" {
			lines = append(lines, fmt.Sprintf(`\set %s.shortInstrumentName = \markup { "%s" }`, contextType, ind.ShortName))
		}
		return lines
	case KindMarginMarkup:
		return []string{fmt.Sprintf(`\set %s.shortInstrumentName = \markup { "%s" }`, contextType, ind.Name)}
	case KindMetronomeMark:
		unit := "4"
		if ind.Unit != nil {
			unit = duration.LilyPond(ind.Unit)
		}
		if ind.Name != "" {
			return []string{fmt.Sprintf(`\tempo "%s" %s=%d`, ind.Name, unit, ind.UnitsPerMinute)}
		}
		return []string{fmt.Sprintf(`\tempo %s=%d`, unit, ind.UnitsPerMinute)}
	case KindStaffLines:
		return []string{
			`\stopStaff`,
			fmt.Sprintf(`\once \override %s.StaffSymbol.line-count = %d`, contextType, ind.Number),
			`\startStaff`,
		}
	case KindTimeSignature:
		return []string{fmt.Sprintf(`\time %d/%d`, ind.Numerator, ind.Denominator)}
	}
	return nil
}

// After reports whether the indicator is engraved after its leaf.
func (ind Indicator) After() bool {
	return ind.Kind == KindDynamic
}

// Label returns the text shown by a latent indicator's alert.
func (ind Indicator) Label() string {
	switch ind.Kind {
	case KindInstrument:
		return ind.Name
	case KindMarginMarkup:
		return ind.Name
	}
	return ind.String()
}

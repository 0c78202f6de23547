package ir

import "fmt"

// Prototype discriminates the kind of a persistent indicator in a Momento.
//
// The set is closed. Names round-trip through ParsePrototype/String and are
// the only discriminator persisted in metadata.
type Prototype int

const (
	PrototypeUnknown Prototype = iota
	PrototypeClef
	PrototypeDynamic
	PrototypeInstrument
	PrototypeMarginMarkup
	PrototypeMetronomeMark
	PrototypeStaffLines
	PrototypeTimeSignature
)

var prototypeNames = [...]string{
	PrototypeUnknown:       "",
	PrototypeClef:          "Clef",
	PrototypeDynamic:       "Dynamic",
	PrototypeInstrument:    "Instrument",
	PrototypeMarginMarkup:  "MarginMarkup",
	PrototypeMetronomeMark: "MetronomeMark",
	PrototypeStaffLines:    "StaffLines",
	PrototypeTimeSignature: "TimeSignature",
}

// Prototypes lists every known prototype ordered by name.
var Prototypes = []Prototype{
	PrototypeClef,
	PrototypeDynamic,
	PrototypeInstrument,
	PrototypeMarginMarkup,
	PrototypeMetronomeMark,
	PrototypeStaffLines,
	PrototypeTimeSignature,
}

func (p Prototype) String() string {
	if p < 0 || int(p) >= len(prototypeNames) {
		return fmt.Sprintf("Prototype(%d)", int(p))
	}
	return prototypeNames[p]
}

// ManifestBacked reports whether momento values of this prototype are
// manifest keys rather than literal values.
func (p Prototype) ManifestBacked() bool {
	switch p {
	case PrototypeInstrument, PrototypeMarginMarkup, PrototypeMetronomeMark:
		return true
	}
	return false
}

// UnknownPrototypeError is returned when a persisted prototype name does not
// belong to the closed set.
type UnknownPrototypeError struct {
	Name string
}

func (e *UnknownPrototypeError) Error() string {
	return fmt.Sprintf("unknown indicator prototype %q", e.Name)
}

// ParsePrototype resolves a persisted prototype name.
func ParsePrototype(name string) (Prototype, error) {
	for i, n := range prototypeNames {
		if i > 0 && n == name {
			return Prototype(i), nil
		}
	}
	return PrototypeUnknown, &UnknownPrototypeError{Name: name}
}

// MarshalText implements encoding.TextMarshaler.
func (p Prototype) MarshalText() ([]byte, error) {
	if p == PrototypeUnknown {
		return nil, fmt.Errorf("marshal unknown prototype")
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Prototype) UnmarshalText(data []byte) error {
	proto, err := ParsePrototype(string(data))
	if err != nil {
		return err
	}
	*p = proto
	return nil
}

package ir

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Momento records that, as of the end of a segment, the context named Context
// has an effective persistent indicator of kind Prototype equal to Value.
//
// Value is an IRString or an IRInt. For manifest-backed prototypes the value
// is the manifest key, never the indicator itself.
type Momento struct {
	Context   string    `json:"context"`
	Prototype Prototype `json:"prototype"`
	Value     IRValue   `json:"value"`
}

// NewStringMomento creates a momento with a string value.
func NewStringMomento(context string, proto Prototype, value string) Momento {
	return Momento{Context: context, Prototype: proto, Value: IRString(value)}
}

// NewIntMomento creates a momento with an integer value.
func NewIntMomento(context string, proto Prototype, value int64) Momento {
	return Momento{Context: context, Prototype: proto, Value: IRInt(value)}
}

// StringValue returns the value when it is a string.
func (m Momento) StringValue() (string, bool) {
	s, ok := m.Value.(IRString)
	return string(s), ok
}

// IntValue returns the value when it is an integer.
func (m Momento) IntValue() (int64, bool) {
	n, ok := m.Value.(IRInt)
	return int64(n), ok
}

// String renders the momento for logs and test failures.
func (m Momento) String() string {
	switch v := m.Value.(type) {
	case IRString:
		return fmt.Sprintf("%s:%s=%q", m.Context, m.Prototype, string(v))
	case IRInt:
		return fmt.Sprintf("%s:%s=%d", m.Context, m.Prototype, int64(v))
	default:
		return fmt.Sprintf("%s:%s=%v", m.Context, m.Prototype, m.Value)
	}
}

// UnmarshalJSON decodes a momento, rejecting unknown prototypes and values
// that are neither strings nor integers.
func (m *Momento) UnmarshalJSON(data []byte) error {
	var aux struct {
		Context   string          `json:"context"`
		Prototype string          `json:"prototype"`
		Value     json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	proto, err := ParsePrototype(aux.Prototype)
	if err != nil {
		return err
	}
	val, err := UnmarshalScalar(aux.Value)
	if err != nil {
		return fmt.Errorf("momento %s/%s: %w", aux.Context, aux.Prototype, err)
	}
	*m = Momento{Context: aux.Context, Prototype: proto, Value: val}
	return nil
}

func (m Momento) toIR() IRObject {
	return IRObject{
		"context":   IRString(m.Context),
		"prototype": IRString(m.Prototype.String()),
		"value":     m.Value,
	}
}

// SortMomentos orders momentos by prototype name, then context, for stable
// diffing across runs.
func SortMomentos(momentos []Momento) {
	slices.SortStableFunc(momentos, func(a, b Momento) int {
		if c := strings.Compare(a.Prototype.String(), b.Prototype.String()); c != 0 {
			return c
		}
		return strings.Compare(a.Context, b.Context)
	})
}

// Metadata is the snapshot one segment run persists for the next.
//
// A snapshot is immutable once written: the next run receives it as an
// explicit argument and never mutates it.
type Metadata struct {
	SegmentNumber        int                  `json:"segment_number"`
	TimeSignatures       []string             `json:"time_signatures"`
	FirstMeasureNumber   int                  `json:"first_measure_number"`
	Duration             *string              `json:"duration"`
	StartClockTime       *string              `json:"start_clock_time"`
	StopClockTime        *string              `json:"stop_clock_time"`
	PersistentIndicators map[string][]Momento `json:"persistent_indicators"`
}

// MeasureCount returns the number of measures in the segment.
func (m *Metadata) MeasureCount() int {
	return len(m.TimeSignatures)
}

// NextFirstMeasureNumber returns the first measure number of the following segment.
func (m *Metadata) NextFirstMeasureNumber() int {
	return m.FirstMeasureNumber + len(m.TimeSignatures)
}

// ContextNames returns the names of contexts with persisted momentos, sorted.
func (m *Metadata) ContextNames() []string {
	names := make([]string, 0, len(m.PersistentIndicators))
	for name := range m.PersistentIndicators {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Momento finds the persisted momento of a prototype for a context.
func (m *Metadata) Momento(context string, proto Prototype) (Momento, bool) {
	for _, mo := range m.PersistentIndicators[context] {
		if mo.Prototype == proto {
			return mo, true
		}
	}
	return Momento{}, false
}

// ToIR converts the snapshot to an IRObject for canonical serialization.
func (m *Metadata) ToIR() IRObject {
	ts := make(IRArray, len(m.TimeSignatures))
	for i, s := range m.TimeSignatures {
		ts[i] = IRString(s)
	}
	indicators := make(IRObject, len(m.PersistentIndicators))
	for name, momentos := range m.PersistentIndicators {
		arr := make(IRArray, len(momentos))
		for i, mo := range momentos {
			arr[i] = mo.toIR()
		}
		indicators[name] = arr
	}
	return IRObject{
		"segment_number":        IRInt(m.SegmentNumber),
		"time_signatures":       ts,
		"first_measure_number":  IRInt(m.FirstMeasureNumber),
		"duration":              optionalString(m.Duration),
		"start_clock_time":      optionalString(m.StartClockTime),
		"stop_clock_time":       optionalString(m.StopClockTime),
		"persistent_indicators": indicators,
	}
}

func optionalString(s *string) IRValue {
	if s == nil {
		return IRNull{}
	}
	return IRString(*s)
}

// MarshalCanonicalJSON returns the canonical JSON encoding of the snapshot.
func (m *Metadata) MarshalCanonicalJSON() ([]byte, error) {
	return MarshalCanonical(m.ToIR())
}

// ParseMetadata decodes a snapshot previously produced by MarshalCanonicalJSON
// or encoding/json.
func ParseMetadata(data []byte) (*Metadata, error) {
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	if m.PersistentIndicators == nil {
		m.PersistentIndicators = map[string][]Momento{}
	}
	return &m, nil
}

// StringPtr returns a pointer to s. Convenience for optional metadata fields.
func StringPtr(s string) *string {
	return &s
}

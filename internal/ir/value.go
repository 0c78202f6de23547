package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"unicode/utf16"
)

// IRValue is the closed set of values a metadata snapshot may contain:
// IRNull, IRString, IRInt, IRBool, IRArray and IRObject. There is no float
// variant. Durations and clock times are persisted as strings.
type IRValue interface {
	irValue()
}

// IRNull is JSON null, used for absent clock times.
type IRNull struct{}

// IRString is a string value: clef names, manifest keys, time signatures.
type IRString string

// IRInt is an integer value: staff line counts and segment numbers.
type IRInt int64

// IRBool is a boolean value.
type IRBool bool

// IRArray is an ordered list of values.
type IRArray []IRValue

// IRObject maps keys to values. Iterate with SortedKeys for stable output.
type IRObject map[string]IRValue

func (IRNull) irValue()   {}
func (IRString) irValue() {}
func (IRInt) irValue()    {}
func (IRBool) irValue()   {}
func (IRArray) irValue()  {}
func (IRObject) irValue() {}

// MarshalJSON implements json.Marshaler for IRNull.
func (IRNull) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// MarshalJSON writes the array canonically.
func (arr IRArray) MarshalJSON() ([]byte, error) { return MarshalCanonical(arr) }

// MarshalJSON writes the object canonically, keys sorted.
func (obj IRObject) MarshalJSON() ([]byte, error) { return MarshalCanonical(obj) }

// UnmarshalJSON implements json.Unmarshaler for IRObject.
func (obj *IRObject) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(IRObject, len(raw))
	for k, v := range raw {
		val, err := UnmarshalIRValue(v)
		if err != nil {
			return fmt.Errorf("IRObject key %q: %w", k, err)
		}
		out[k] = val
	}
	*obj = out
	return nil
}

// SortedKeys returns the keys ordered by UTF-16 code units, as RFC 8785
// requires.
func (obj IRObject) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
	})
	return keys
}

// IsScalar reports whether v may be the value of a momento.
func IsScalar(v IRValue) bool {
	switch v.(type) {
	case IRString, IRInt:
		return true
	}
	return false
}

// ValueText renders a momento value the way commands and scenario files
// spell it: strings bare, integers in decimal.
func ValueText(v IRValue) string {
	switch x := v.(type) {
	case IRString:
		return string(x)
	case IRInt:
		return strconv.FormatInt(int64(x), 10)
	case nil, IRNull:
		return "<nil>"
	}
	return fmt.Sprint(v)
}

// UnmarshalScalar decodes a momento value and rejects anything that is not a
// string or an integer.
func UnmarshalScalar(data []byte) (IRValue, error) {
	v, err := UnmarshalIRValue(data)
	if err != nil {
		return nil, err
	}
	if !IsScalar(v) {
		return nil, fmt.Errorf("value must be string or int, got %T", v)
	}
	return v, nil
}

// UnmarshalIRValue decodes JSON into the matching IRValue. Numbers with a
// fractional part or an exponent are rejected.
func UnmarshalIRValue(data []byte) (IRValue, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return fromJSON(raw)
}

func fromJSON(v any) (IRValue, error) {
	switch val := v.(type) {
	case nil:
		return IRNull{}, nil
	case bool:
		return IRBool(val), nil
	case string:
		return IRString(val), nil
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("non-integer number %s", val)
		}
		return IRInt(n), nil
	case []any:
		arr := make(IRArray, len(val))
		for i, elem := range val {
			item, err := fromJSON(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = item
		}
		return arr, nil
	case map[string]any:
		obj := make(IRObject, len(val))
		for k, elem := range val {
			item, err := fromJSON(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = item
		}
		return obj, nil
	}
	return nil, fmt.Errorf("unsupported type: %T", v)
}

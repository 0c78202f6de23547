package ir

import (
	"fmt"
	"strings"
)

// Status is the classification assigned to one persistent indicator attachment.
// The zero value StatusNone marks an attachment that has not been classified yet.
type Status int

const (
	StatusNone Status = iota
	StatusDefault
	StatusExplicit
	StatusReapplied
	StatusRedundant
)

var statusNames = map[Status]string{
	StatusNone:      "",
	StatusDefault:   "default",
	StatusExplicit:  "explicit",
	StatusReapplied: "reapplied",
	StatusRedundant: "redundant",
}

// Statuses lists every assignable status in a stable order.
var Statuses = []Status{StatusDefault, StatusExplicit, StatusReapplied, StatusRedundant}

func (s Status) String() string {
	return statusNames[s]
}

// Upper returns the tag form of the status, e.g. "REAPPLIED".
func (s Status) Upper() string {
	return strings.ToUpper(s.String())
}

// Classified reports whether a status has been assigned.
func (s Status) Classified() bool {
	return s != StatusNone
}

// ParseStatus converts a lowercase status name back to a Status.
func ParseStatus(name string) (Status, error) {
	for st, n := range statusNames {
		if st != StatusNone && n == name {
			return st, nil
		}
	}
	return StatusNone, fmt.Errorf("unknown status %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*s = StatusNone
		return nil
	}
	st, err := ParseStatus(string(data))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

package segment

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes segment run failures. Every code is fatal to the run.
type ErrorCode string

const (
	// ErrCodeConfiguration covers malformed metadata, unknown prototypes,
	// bad manifests and unknown command types.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION"

	// ErrCodeInvariant covers overlapping rhythms and measure or stage
	// indices outside the segment.
	ErrCodeInvariant ErrorCode = "INVARIANT"

	// ErrCodePerformance indicates a step exceeded its wall-clock budget.
	ErrCodePerformance ErrorCode = "PERFORMANCE"

	// ErrCodeCommand wraps a failure raised while a composition command ran.
	// It is a configuration-class error carrying the command's description.
	ErrCodeCommand ErrorCode = "COMMAND"
)

// SegmentError is returned by Maker.Run and the engine phases.
type SegmentError struct {
	Code    ErrorCode
	Message string

	// Command describes the offending command for ErrCodeCommand.
	Command string

	Err error
}

func (e *SegmentError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Command != "" {
		msg += fmt.Sprintf(" (command=%s)", e.Command)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SegmentError) Unwrap() error { return e.Err }

func newError(code ErrorCode, err error, format string, args ...any) *SegmentError {
	return &SegmentError{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

func configError(err error, format string, args ...any) *SegmentError {
	return newError(ErrCodeConfiguration, err, format, args...)
}

func invariantError(format string, args ...any) *SegmentError {
	return newError(ErrCodeInvariant, nil, format, args...)
}

// hasCode reports whether any SegmentError in err's chain carries one of codes.
func hasCode(err error, codes ...ErrorCode) bool {
	for err != nil {
		var se *SegmentError
		if !errors.As(err, &se) {
			return false
		}
		for _, c := range codes {
			if se.Code == c {
				return true
			}
		}
		err = se.Err
	}
	return false
}

// IsConfigurationError reports a configuration-class failure, including
// errors raised by composition commands.
func IsConfigurationError(err error) bool {
	return hasCode(err, ErrCodeConfiguration, ErrCodeCommand)
}

// IsInvariantError reports an invariant violation anywhere in err's chain.
func IsInvariantError(err error) bool {
	return hasCode(err, ErrCodeInvariant)
}

// IsPerformanceError reports an exceeded wall-clock budget.
func IsPerformanceError(err error) bool {
	return hasCode(err, ErrCodePerformance)
}

// IsCommandError reports a failure raised by a composition command.
func IsCommandError(err error) bool {
	return hasCode(err, ErrCodeCommand)
}

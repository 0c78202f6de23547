package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/segmaker/internal/compiler"
	"github.com/roach88/segmaker/internal/segment"
	"github.com/roach88/segmaker/internal/store"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // A segment, definition or scenario failed
	ExitCommandError = 2 // Command error (bad paths, unreadable config, store errors)
)

// Error codes reported in CLI responses.
const (
	ErrCodeCompile  = "E_COMPILE"
	ErrCodeSegment  = "E_SEGMENT"
	ErrCodeNotFound = "E_NOT_FOUND"
	ErrCodeStore    = "E_STORE"
	ErrCodeIO       = "E_IO"
	ErrCodeTest     = "E_TEST_FAILED"
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // ExitFailure or ExitCommandError
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Diagnostics; defaults to Writer
	Verbose   bool
}

func newFormatter(opts *RootOptions, stdout, stderr io.Writer) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    stdout,
		ErrWriter: stderr,
		Verbose:   opts.Verbose,
	}
}

// CLIResponse is the JSON envelope of every command.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON reports whether the formatter emits JSON.
func (f *OutputFormatter) JSON() bool {
	return f.Format == "json"
}

// Success outputs data. In text mode text is called to write the
// human-readable form; a nil text prints data with %v.
func (f *OutputFormatter) Success(data any, text func(w io.Writer)) error {
	if f.JSON() {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(CLIResponse{Status: "ok", Data: data})
	}
	if text == nil {
		fmt.Fprintln(f.Writer, data)
		return nil
	}
	text(f.Writer)
	return nil
}

// Error outputs an error response and returns an ExitError carrying exit.
func (f *OutputFormatter) Error(exit int, code, message string, details any) error {
	if f.JSON() {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		if err := enc.Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		}); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
		if f.Verbose && details != nil {
			fmt.Fprintf(f.Writer, "Details: %v\n", details)
		}
	}
	return NewExitError(exit, message)
}

// Fail reports err with the code and exit status its type implies.
func (f *OutputFormatter) Fail(err error) error {
	var (
		compileErr *compiler.CompileError
		segErr     *segment.SegmentError
		exitErr    *ExitError
	)
	switch {
	case errors.As(err, &exitErr):
		return err
	case errors.As(err, &compileErr):
		return f.Error(ExitFailure, ErrCodeCompile, compileErr.Error(), compileDetails(compileErr))
	case errors.As(err, &segErr):
		return f.Error(ExitFailure, ErrCodeSegment, segErr.Error(), map[string]string{"code": string(segErr.Code)})
	case errors.Is(err, store.ErrNotFound):
		return f.Error(ExitCommandError, ErrCodeNotFound, err.Error(), nil)
	}
	return f.Error(ExitCommandError, ErrCodeIO, err.Error(), nil)
}

func compileDetails(e *compiler.CompileError) map[string]any {
	d := map[string]any{"field": e.Field}
	if e.Pos.IsValid() {
		d["file"] = e.Pos.Filename()
		d["line"] = e.Pos.Line()
		d["column"] = e.Pos.Column()
	}
	return d
}

// VerboseLog outputs a message only if verbose mode is enabled.
// It writes to ErrWriter so JSON output stays parseable.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.errWriter(), format+"\n", args...)
}

func (f *OutputFormatter) errWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

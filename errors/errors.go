package errors

import (
	"errors"
	"fmt"
)

// Code is the closed taxonomy of failures surfaced by the engine.  Each code
// carries a stable machine name (String) and a fixed human message (Message).
type Code uint8

const (
	// InvalidParsing: input text is not valid base64.
	InvalidParsing Code = iota + 1
	// UnableToDecode: the bytes do not form a decodable image.
	UnableToDecode
	// UnableToSave: writing an image to its destination failed.
	UnableToSave
	// NoColorInput: a filter needs at least one color and got none.
	NoColorInput
	// NotImplemented: the requested filter variant is not supported.
	NotImplemented
)

var codeNames = map[Code]string{
	InvalidParsing: "InvalidParsing",
	UnableToDecode: "UnableToDecode",
	UnableToSave:   "UnableToSave",
	NoColorInput:   "NoColorInput",
	NotImplemented: "NotImplemented",
}

var codeMessages = map[Code]string{
	InvalidParsing: "Invalid parsing",
	UnableToDecode: "Unable to decode",
	UnableToSave:   "Unable to save",
	NoColorInput:   "No color input",
	NotImplemented: "Not implemented",
}

// String returns the machine-checkable name of the code.
func (c Code) String() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return fmt.Sprintf("Code(%d)", uint8(c))
}

// Message returns the fixed user-facing message of the code.
func (c Code) Message() string {
	if m, ok := codeMessages[c]; ok {
		return m
	}
	return "Unknown error"
}

// Error makes a bare Code usable as an error and as an errors.Is target.
func (c Code) Error() string { return c.Message() }

// ProcessingError is the structured error type used throughout the module.
type ProcessingError struct {
	Code Code
	Op   string // operation name
	Err  error
}

func (e *ProcessingError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Code, e.Op)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Code, e.Op, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// Is matches a bare Code target, so errors.Is(err, apperrors.UnableToDecode)
// works through any amount of wrapping.
func (e *ProcessingError) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.Code
}

// New creates a ProcessingError.
func New(code Code, op string, err error) *ProcessingError {
	return &ProcessingError{Code: code, Op: op, Err: err}
}

// Wrap wraps an existing error with a code and operation name.  A nil err
// stays nil; an err that already carries a code keeps it.
func Wrap(code Code, op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return err
	}
	return New(code, op, err)
}

// CodeOf extracts the Code carried by err.
func CodeOf(err error) (Code, bool) {
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return pe.Code, true
	}
	var c Code
	if errors.As(err, &c) {
		return c, true
	}
	return 0, false
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

// Sentinel errors for common failure modes.
var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrEmptyInput        = errors.New("empty input")
	ErrIncomplete        = errors.New("pipeline did not produce encoded output")
)

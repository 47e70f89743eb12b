// Package bridgeerr defines the single public, tagged-sum error type
// returned at every promptbridge boundary, per the error taxonomy in
// spec.md §6 and the error-handling philosophy in §7: every failure mode is
// a tagged sum in one public error type, never a panic, never an exception.
package bridgeerr

import (
	"errors"
	"fmt"
)

// Kind enumerates every failure mode the core can surface at its boundary.
type Kind string

const (
	KindParseError          Kind = "parse_error"
	KindValidationError     Kind = "validation_error"
	KindReferenceError      Kind = "reference_error"
	KindEnvironmentError    Kind = "environment_error"
	KindPathTraversal       Kind = "path_traversal"
	KindCircularReference   Kind = "circular_reference"
	KindJSONPathError       Kind = "jsonpath_error"
	KindTransformationError Kind = "transformation_error"
	KindStrictnessViolation Kind = "strictness_violation"
	KindTranslation         Kind = "translation"
)

// JSONPathSubKind narrows KindJSONPathError, ordered so that the narrowest
// error wins when several could apply (spec.md §7: "returns the narrowest
// error (index-out-of-bounds before type-mismatch before execution)").
type JSONPathSubKind string

const (
	JSONPathParse           JSONPathSubKind = "parse"
	JSONPathCompile         JSONPathSubKind = "compile"
	JSONPathIndexOutOfRange JSONPathSubKind = "index_out_of_bounds"
	JSONPathTypeMismatch    JSONPathSubKind = "type_mismatch"
	JSONPathExecution       JSONPathSubKind = "execution"
	JSONPathFunction        JSONPathSubKind = "function"
)

// TransformationSubKind narrows KindTransformationError.
type TransformationSubKind string

const (
	TransformationTypeConversion TransformationSubKind = "type_conversion"
	TransformationEnumMapping    TransformationSubKind = "enum_mapping"
	TransformationUnitConversion TransformationSubKind = "unit_conversion"
	TransformationFieldRename    TransformationSubKind = "field_rename"
	TransformationConditional    TransformationSubKind = "conditional"
	TransformationCustom         TransformationSubKind = "custom"
	TransformationSetPath        TransformationSubKind = "set_path"
)

// Severity parallels strictness.Severity (whose values are capitalised, e.g.
// "Warning") for strictness-violation errors without importing that package
// (avoiding an import cycle: strictness -> specdata -> bridgeerr).
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Error is the single public error type for the whole module.
type Error struct {
	Kind     Kind
	SubKind  string
	Path     string
	Message  string
	Expected string
	Actual   string
	Severity Severity
	Mode     string
	Cause    error

	// Violations carries the full list of structural/semantic violations
	// for a KindValidationError, since the validator never stops at the
	// first finding (spec.md §4.2).
	Violations []Violation
}

// Violation is one structural or semantic finding from the schema validator.
type Violation struct {
	Path     string
	Message  string
	Rule     string
	Expected string
	Actual   string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s", e.Kind)
	if e.SubKind != "" {
		msg += fmt.Sprintf("[%s]", e.SubKind)
	}

	if e.Path != "" {
		msg += fmt.Sprintf(" at %s", e.Path)
	}

	if e.Message != "" {
		msg += ": " + e.Message
	}

	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}

	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds a bare Error of the given kind with a message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind wrapping cause.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WithPath returns a copy of e with Path set, for fluent construction at
// call sites that discover the path after the error already exists.
func (e *Error) WithPath(path string) *Error {
	clone := *e
	clone.Path = path

	return &clone
}

// Is reports whether target is a *Error with the same Kind, supporting
// errors.Is(err, bridgeerr.New(bridgeerr.KindParseError, "")).
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}

	return e.Kind == other.Kind
}

// KindOf extracts the Kind of err if it is (or wraps) a *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}

	return "", false
}

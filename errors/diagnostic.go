// Package errors defines the diagnostics reported while ingesting and
// validating protocol schema documents.
package errors

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Severity ranks a diagnostic.
type Severity uint8

const (
	// Debug is the most verbose level.
	Debug Severity = iota
	// Info reports progress.
	Info
	// Warning reports a non-fatal compatibility or consistency problem.
	Warning
	// Error reports a fatal problem. Any error fails validation.
	Error
)

// String returns the lower-case name of the severity.
func (s Severity) String() string {
	switch s {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "severity(" + strconv.Itoa(int(s)) + ")"
	}
}

// ParseSeverity converts a severity name into a Severity.
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return Debug, nil
	case "info":
		return Info, nil
	case "warning", "warn":
		return Warning, nil
	case "error":
		return Error, nil
	default:
		return Debug, fmt.Errorf("unknown severity %q", name)
	}
}

// Class groups codes by how the processing reacts to them.
type Class uint8

const (
	// ClassStructural marks malformed element shapes. The enclosing element is abandoned.
	ClassStructural Class = iota
	// ClassSemantic marks resolution and consistency failures of one entity.
	ClassSemantic
	// ClassCompatibility marks properties ignored for the active DSL version.
	ClassCompatibility
)

// Code identifies the kind of a diagnostic.
type Code string

const (
	// ErrStructure indicates a malformed element, attribute or child.
	ErrStructure Code = "dsl-structure"
	// ErrDuplicateProperty indicates a single-instance property was given twice.
	ErrDuplicateProperty Code = "dsl-duplicate-property"
	// ErrMissingProperty indicates a required property is absent.
	ErrMissingProperty Code = "dsl-missing-property"
	// ErrInvalidName indicates a name that is not a valid identifier.
	ErrInvalidName Code = "dsl-invalid-name"

	// ErrDuplicateName indicates two entities share a name in one scope.
	ErrDuplicateName Code = "dsl-duplicate-name"
	// ErrDuplicateID indicates clashing numeric identifiers.
	ErrDuplicateID Code = "dsl-duplicate-id"
	// ErrUnresolvedRef indicates a reference that does not resolve.
	ErrUnresolvedRef Code = "dsl-unresolved-ref"
	// ErrKindMismatch indicates a reference to an entity of the wrong kind.
	ErrKindMismatch Code = "dsl-kind-mismatch"
	// ErrInvalidValue indicates a property value outside its domain.
	ErrInvalidValue Code = "dsl-invalid-value"
	// ErrVersion indicates inconsistent since/deprecated version windows.
	ErrVersion Code = "dsl-version"
	// ErrLength indicates inconsistent length or bit length settings.
	ErrLength Code = "dsl-length"
	// ErrLayerOrder indicates invalid frame layer placement.
	ErrLayerOrder Code = "dsl-layer-order"
	// ErrCondition indicates an invalid construct/read/valid condition.
	ErrCondition Code = "dsl-condition"
	// ErrSchema indicates a multi-schema consistency failure.
	ErrSchema Code = "dsl-schema"
	// ErrFrozen indicates mutation after successful validation.
	ErrFrozen Code = "dsl-frozen"

	// WarnUnsupportedProperty indicates a property ignored for the active DSL version.
	WarnUnsupportedProperty Code = "dsl-unsupported-property"
	// WarnDeprecatedProperty indicates a property deprecated for the active DSL version.
	WarnDeprecatedProperty Code = "dsl-deprecated-property"
	// WarnFirstWins indicates a repeated declaration whose differing value was ignored.
	WarnFirstWins Code = "dsl-first-wins"
	// WarnConsistency indicates a suspicious but accepted definition.
	WarnConsistency Code = "dsl-consistency"
)

// Class reports how processing reacts to the code.
func (c Code) Class() Class {
	switch c {
	case ErrStructure, ErrDuplicateProperty, ErrMissingProperty, ErrInvalidName:
		return ClassStructural
	case WarnUnsupportedProperty, WarnDeprecatedProperty, WarnFirstWins, WarnConsistency:
		return ClassCompatibility
	default:
		return ClassSemantic
	}
}

// Diagnostic describes one reported problem with its provenance.
//
//nolint:errname // domain term.
type Diagnostic struct {
	Code     Code
	Severity Severity
	Message  string
	Document string
	Line     int
}

// Position formats the provenance as "document:line".
func (d *Diagnostic) Position() string {
	if d.Document == "" && d.Line <= 0 {
		return ""
	}
	doc := d.Document
	if doc == "" {
		doc = "<input>"
	}
	if d.Line <= 0 {
		return doc
	}
	return doc + ":" + strconv.Itoa(d.Line)
}

// Error formats the diagnostic for display.
func (d *Diagnostic) Error() string {
	if d == nil {
		return "diagnostic <nil>"
	}
	var b strings.Builder
	if pos := d.Position(); pos != "" {
		b.WriteString(pos)
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "[%s] %s", d.Code, d.Message)
	return b.String()
}

// New builds an error-level diagnostic.
func New(code Code, document string, line int, msg string) Diagnostic {
	return Diagnostic{Code: code, Severity: Error, Message: msg, Document: document, Line: line}
}

// Newf formats a message and builds an error-level diagnostic.
func Newf(code Code, document string, line int, format string, args ...any) Diagnostic {
	return New(code, document, line, fmt.Sprintf(format, args...))
}

// List is an error that wraps one or more diagnostics.
type List []Diagnostic //nolint:errname // public API name.

// Error returns a compact summary of the diagnostics.
func (l List) Error() string {
	switch len(l) {
	case 0:
		return "no diagnostics"
	case 1:
		return l[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more)", l[0].Error(), len(l)-1)
	}
}

// Has reports whether the list contains a diagnostic with the code.
func (l List) Has(code Code) bool {
	for i := range l {
		if l[i].Code == code {
			return true
		}
	}
	return false
}

// AsDiagnostics extracts diagnostics from an error returned by the builder.
func AsDiagnostics(err error) ([]Diagnostic, bool) {
	if err == nil {
		return nil, false
	}
	var list List
	if errors.As(err, &list) {
		return []Diagnostic(list), true
	}
	var listPtr *List
	if errors.As(err, &listPtr) && listPtr != nil {
		return []Diagnostic(*listPtr), true
	}
	var single *Diagnostic
	if errors.As(err, &single) && single != nil {
		return []Diagnostic{*single}, true
	}
	return nil, false
}

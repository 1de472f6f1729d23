package wazeroir

import "fmt"

// ParseErrorKind distinguishes the two ParseError flavors named in
// spec.md §7: an operator this core does not (yet, or ever) support, or a
// structural inconsistency in already-decoded input (e.g. a locals count
// mismatch, detected one layer up in internal/wasm).
type ParseErrorKind byte

const (
	ParseErrorUnsupportedOperator ParseErrorKind = iota
	ParseErrorOther
)

// ParseError is returned by Convert and by internal/wasm's module-level
// conversion helpers. It carries a human-readable Description, as spec.md
// §4.1 requires for UnsupportedOperator, and is never retried by the
// caller.
type ParseError struct {
	Kind        ParseErrorKind
	Description string
	// Cause is set when ParseError wraps a lower-level error (e.g. from
	// an OperatorReader); it participates in errors.Unwrap.
	Cause error
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case ParseErrorUnsupportedOperator:
		return fmt.Sprintf("unsupported operator: %s", e.Description)
	default:
		return e.Description
	}
}

func (e *ParseError) Unwrap() error { return e.Cause }

// UnsupportedOperator builds the ParseError spec.md §4.1 requires whenever
// Convert encounters an operator outside the supported set.
func UnsupportedOperator(description string) *ParseError {
	return &ParseError{Kind: ParseErrorUnsupportedOperator, Description: description}
}

// OtherParseError builds a structural ParseError, e.g. a locals-count
// mismatch surfaced by internal/wasm's code-section conversion.
func OtherParseError(description string) *ParseError {
	return &ParseError{Kind: ParseErrorOther, Description: description}
}

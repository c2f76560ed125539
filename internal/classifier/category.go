// Package classifier maps runtime errors to outcome identifiers (view names).
//
// A Classifier evaluates a fixed, ordered list of rules: the configured
// exception mapping table first, then the built-in arithmetic and
// missing-reference policies, and finally the default outcome. Every
// classification terminates in a defined outcome.
package classifier

import "errors"

// Category identifies which rule produced a classification.
type Category int

const (
	// CategoryUnclassified means no rule matched and the default outcome applied
	CategoryUnclassified Category = iota
	// CategoryMapped means the exception mapping table matched
	CategoryMapped
	// CategoryArithmetic covers integer division by zero and overflow faults
	CategoryArithmetic
	// CategoryMissingReference covers nil dereferences and missing references
	CategoryMissingReference
)

// String returns the string representation of the category
func (c Category) String() string {
	switch c {
	case CategoryMapped:
		return "mapped"
	case CategoryArithmetic:
		return "arithmetic"
	case CategoryMissingReference:
		return "missing_reference"
	default:
		return "unclassified"
	}
}

// MarshalText encodes the category by name
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Built-in outcome identifiers.
const (
	DefaultView          = "error"
	ArithmeticView       = "error1"
	MissingReferenceView = "error2"
)

var (
	// ErrArithmetic marks an arithmetic fault. Wrap it to have an error
	// classified as one.
	ErrArithmetic = errors.New("arithmetic fault")
	// ErrMissingReference marks a missing-reference fault.
	ErrMissingReference = errors.New("missing reference")
)

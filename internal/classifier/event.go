package classifier

import (
	"fmt"
	"reflect"
)

// maxChainDepth bounds how far an error chain is walked.
const maxChainDepth = 32

// Event is a single error occurrence as seen by the classifier.
type Event struct {
	// Err is the original error. It may be nil.
	Err error
	// Types holds the type identifier of every error in the wrap chain,
	// outermost first. Types[0] is the concrete type of Err.
	Types []string
	// Description is the human-readable form of the error.
	Description string
}

// NewEvent captures the type chain and description of err.
func NewEvent(err error) Event {
	if err == nil {
		return Event{}
	}

	ev := Event{
		Err:         err,
		Description: describe(err),
	}
	for _, e := range chain(err) {
		if name := TypeName(e); name != "" {
			ev.Types = append(ev.Types, name)
		}
	}
	return ev
}

// Type returns the concrete type identifier of the event, or "" when
// there is no error.
func (e Event) Type() string {
	if len(e.Types) == 0 {
		return ""
	}
	return e.Types[0]
}

// TypeName returns the fully-qualified type name of err, such as
// "github.com/acme/auth.UnauthorizedError". Pointer types are reported by
// their element type.
func TypeName(err error) string {
	if err == nil {
		return ""
	}

	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t.Name() == "" {
		return t.String()
	}
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}

// chain flattens the wrap tree of err depth-first, outermost first.
func chain(err error) []error {
	var out []error
	var walk func(e error, depth int)
	walk = func(e error, depth int) {
		if e == nil || depth > maxChainDepth || len(out) > maxChainDepth {
			return
		}
		out = append(out, e)

		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range safeUnwrapAll(u) {
				walk(inner, depth+1)
			}
		case interface{ Unwrap() error }:
			walk(safeUnwrap(u), depth+1)
		}
	}
	walk(err, 0)
	return out
}

// describe returns err.Error(), tolerating errors whose Error method panics
// (typically a nil pointer stored in an error interface).
func describe(err error) (s string) {
	defer func() {
		if r := recover(); r != nil {
			s = fmt.Sprintf("%s: <unprintable error>", TypeName(err))
		}
	}()
	return err.Error()
}

func safeUnwrap(u interface{ Unwrap() error }) (inner error) {
	defer func() {
		if recover() != nil {
			inner = nil
		}
	}()
	return u.Unwrap()
}

func safeUnwrapAll(u interface{ Unwrap() []error }) (inner []error) {
	defer func() {
		if recover() != nil {
			inner = nil
		}
	}()
	return u.Unwrap()
}

// PanicError carries a recovered panic value that is not itself an error.
type PanicError struct {
	Value any
}

// Error implements the error interface.
func (p *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", p.Value)
}

// FromPanic converts a recovered value into an error. Error values are
// returned unchanged so that they classify by their own type.
func FromPanic(v any) error {
	if err, ok := v.(error); ok && err != nil {
		return err
	}
	return &PanicError{Value: v}
}

package classifier

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type accessDeniedError struct{ user string }

func (e *accessDeniedError) Error() string { return "access denied for " + e.user }

type lockedAccountError struct{}

func (lockedAccountError) Error() string { return "account locked" }

// brokenError panics when inspected.
type brokenError struct{ msg *string }

func (e brokenError) Error() string { return *e.msg }

var sink int

func recovered(f func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = FromPanic(r)
		}
	}()
	f()
	return nil
}

func divideByZero() error {
	return recovered(func() {
		zero := 0
		sink = 10 / zero
	})
}

func nilDereference() error {
	return recovered(func() {
		var p *struct{ n int }
		sink = p.n
	})
}

func mustTable(t *testing.T, entries ...Entry) *Table {
	t.Helper()
	table, err := NewTable(entries...)
	require.NoError(t, err)
	return table
}

func TestClassifyTableMatch(t *testing.T) {
	err := &accessDeniedError{user: "bob"}
	table := mustTable(t, Entry{Type: TypeName(err), View: "403"})

	res := Classify(err, table, "default")

	assert.Equal(t, "403", res.View)
	assert.Equal(t, CategoryMapped, res.Category)
	assert.Equal(t, TypeName(err), res.Type)
	assert.Equal(t, "access denied for bob", res.Detail)
}

func TestClassifyUnmappedFallsBackToDefault(t *testing.T) {
	table := mustTable(t, Entry{Type: TypeName(&accessDeniedError{}), View: "403"})

	res := Classify(errors.New("boom"), table, "default")

	assert.Equal(t, "default", res.View)
	assert.Equal(t, CategoryUnclassified, res.Category)
	assert.Equal(t, "errors.errorString", res.Type)
	assert.Equal(t, "boom", res.Detail)
}

func TestClassifyBuiltInFaults(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		view     string
		category Category
	}{
		{name: "runtime divide by zero", err: divideByZero(), view: "error1", category: CategoryArithmetic},
		{name: "wrapped arithmetic sentinel", err: fmt.Errorf("rate calc: %w", ErrArithmetic), view: "error1", category: CategoryArithmetic},
		{name: "runtime nil dereference", err: nilDereference(), view: "error2", category: CategoryMissingReference},
		{name: "missing reference sentinel", err: ErrMissingReference, view: "error2", category: CategoryMissingReference},
		{name: "plain error", err: errors.New("other"), view: "default", category: CategoryUnclassified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.err)
			res := Classify(tt.err, nil, "default")
			assert.Equal(t, tt.view, res.View)
			assert.Equal(t, tt.category, res.Category)
			assert.Equal(t, tt.err.Error(), res.Detail)
		})
	}
}

func TestClassifyTableTakesPrecedenceOverBuiltIns(t *testing.T) {
	err := divideByZero()
	table := mustTable(t, Entry{Type: TypeName(err), View: "runtime-fault"})

	res := Classify(err, table, "default")

	assert.Equal(t, "runtime-fault", res.View)
	assert.Equal(t, CategoryMapped, res.Category)
}

func TestClassifyWalksWrapChain(t *testing.T) {
	inner := lockedAccountError{}
	table := mustTable(t,
		Entry{Type: TypeName(inner), View: "locked"},
		Entry{Type: TypeName(&accessDeniedError{}), View: "403"},
	)

	wrapped := fmt.Errorf("login: %w", inner)
	assert.Equal(t, "locked", Classify(wrapped, table, "default").View)

	// The outermost mapped type wins.
	joined := fmt.Errorf("outer: %w", errors.Join(&accessDeniedError{}, inner))
	assert.Equal(t, "403", Classify(joined, table, "default").View)
}

func TestClassifyTotality(t *testing.T) {
	var typedNil *accessDeniedError
	inputs := []error{
		nil,
		errors.New(""),
		brokenError{},
		typedNil,
		&PanicError{Value: 42},
		errors.Join(nil, brokenError{}),
	}

	for i, err := range inputs {
		t.Run(fmt.Sprintf("input-%d", i), func(t *testing.T) {
			var res Result
			assert.NotPanics(t, func() { res = Classify(err, nil, "default") })
			assert.NotEmpty(t, res.View)
		})
	}
}

func TestClassifyNilError(t *testing.T) {
	res := Classify(nil, nil, "default")
	assert.Equal(t, Result{View: "default", Category: CategoryUnclassified}, res)
}

func TestClassifyEmptyDefaultUsesPackageDefault(t *testing.T) {
	assert.Equal(t, DefaultView, Classify(errors.New("x"), nil, "").View)
}

func TestClassifyIsIdempotent(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &accessDeniedError{user: "a"})
	table := mustTable(t, Entry{Type: TypeName(&accessDeniedError{}), View: "403"})

	first := Classify(err, table, "default")
	second := Classify(err, table, "default")
	assert.Equal(t, first, second)
}

func TestClassifyOrderIndependentForDisjointKeys(t *testing.T) {
	a := Entry{Type: TypeName(&accessDeniedError{}), View: "403"}
	b := Entry{Type: TypeName(lockedAccountError{}), View: "locked"}

	forward := mustTable(t, a, b)
	reverse := mustTable(t, b, a)

	for _, err := range []error{&accessDeniedError{}, lockedAccountError{}, errors.New("x")} {
		assert.Equal(t, Classify(err, forward, "default"), Classify(err, reverse, "default"))
	}
}

func TestClassifierCustomViews(t *testing.T) {
	c := New(Options{
		DefaultView:          "oops",
		ArithmeticView:       "math",
		MissingReferenceView: "nil",
	})

	assert.Equal(t, "oops", c.DefaultView())
	assert.Equal(t, "math", c.Classify(divideByZero()).View)
	assert.Equal(t, "nil", c.Classify(nilDereference()).View)
	assert.Equal(t, "oops", c.Classify(errors.New("x")).View)
}

func TestClassifierConcurrentUse(t *testing.T) {
	table := mustTable(t, Entry{Type: TypeName(&accessDeniedError{}), View: "403"})
	c := New(Options{Table: table})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if (i+j)%2 == 0 {
					assert.Equal(t, "403", c.Classify(&accessDeniedError{}).View)
				} else {
					assert.Equal(t, "error1", c.Classify(ErrArithmetic).View)
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestPanicValues(t *testing.T) {
	err := recovered(func() { panic("kaboom") })

	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "kaboom", pe.Value)
	assert.Equal(t, "panic: kaboom", err.Error())

	sentinel := errors.New("already an error")
	assert.Same(t, sentinel, FromPanic(sentinel))
}

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "mapped", CategoryMapped.String())
	assert.Equal(t, "arithmetic", CategoryArithmetic.String())
	assert.Equal(t, "missing_reference", CategoryMissingReference.String())
	assert.Equal(t, "unclassified", CategoryUnclassified.String())
	assert.Equal(t, "unclassified", Category(99).String())
}

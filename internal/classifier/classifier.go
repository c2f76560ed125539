package classifier

import (
	"errors"
	"runtime"
	"strings"
)

// Result is the outcome of classifying one error.
type Result struct {
	View     string   `json:"view"`
	Category Category `json:"category"`
	Type     string   `json:"type,omitempty"`
	Detail   string   `json:"detail,omitempty"`
}

// Rule is one step of the classification policy. Match reports the view
// for the event when the rule applies.
type Rule interface {
	Category() Category
	Match(ev Event) (view string, ok bool)
}

// tableRule looks up every type in the wrap chain, outermost first.
type tableRule struct {
	table *Table
}

func (r tableRule) Category() Category { return CategoryMapped }

func (r tableRule) Match(ev Event) (string, bool) {
	for _, name := range ev.Types {
		if view, ok := r.table.Lookup(name); ok {
			return view, true
		}
	}
	return "", false
}

// faultRule matches a sentinel anywhere in the chain, or a runtime.Error
// whose message contains one of the given fragments.
type faultRule struct {
	category  Category
	view      string
	sentinel  error
	fragments []string
}

func (r faultRule) Category() Category { return r.category }

func (r faultRule) Match(ev Event) (string, bool) {
	if ev.Err == nil {
		return "", false
	}
	if errors.Is(ev.Err, r.sentinel) {
		return r.view, true
	}

	var rtErr runtime.Error
	if errors.As(ev.Err, &rtErr) {
		msg := rtErr.Error()
		for _, f := range r.fragments {
			if strings.Contains(msg, f) {
				return r.view, true
			}
		}
	}
	return "", false
}

// Options configures a Classifier. Empty view names fall back to the
// package defaults.
type Options struct {
	Table                *Table
	DefaultView          string
	ArithmeticView       string
	MissingReferenceView string
}

// Classifier applies the classification policy. It holds no mutable state
// and is safe for concurrent use.
type Classifier struct {
	rules       []Rule
	defaultView string
}

// New builds a classifier whose rules run in this order: mapping table,
// arithmetic fault, missing-reference fault. Anything else gets the
// default view.
func New(opts Options) *Classifier {
	return &Classifier{
		rules: []Rule{
			tableRule{table: opts.Table},
			faultRule{
				category:  CategoryArithmetic,
				view:      orDefault(opts.ArithmeticView, ArithmeticView),
				sentinel:  ErrArithmetic,
				fragments: []string{"divide by zero", "integer overflow", "floating point error"},
			},
			faultRule{
				category:  CategoryMissingReference,
				view:      orDefault(opts.MissingReferenceView, MissingReferenceView),
				sentinel:  ErrMissingReference,
				fragments: []string{"nil pointer dereference", "invalid memory address", "nil map"},
			},
		},
		defaultView: orDefault(opts.DefaultView, DefaultView),
	}
}

// DefaultView returns the view used when no rule matches
func (c *Classifier) DefaultView() string {
	return c.defaultView
}

// Classify maps err to a view. It never fails: a nil error, or one that
// misbehaves while being inspected, gets the default view.
func (c *Classifier) Classify(err error) Result {
	ev := NewEvent(err)
	res := Result{
		View:     c.defaultView,
		Category: CategoryUnclassified,
		Type:     ev.Type(),
		Detail:   ev.Description,
	}
	if err == nil {
		return res
	}

	for _, rule := range c.rules {
		if view, ok := match(rule, ev); ok {
			res.View = view
			res.Category = rule.Category()
			return res
		}
	}
	return res
}

// match runs a rule, treating a panic inside it as no match.
func match(rule Rule, ev Event) (view string, ok bool) {
	defer func() {
		if recover() != nil {
			view, ok = "", false
		}
	}()
	return rule.Match(ev)
}

// Classify maps err using table and the built-in fault policy, falling
// back to defaultOutcome.
func Classify(err error, table *Table, defaultOutcome string) Result {
	return New(Options{Table: table, DefaultView: defaultOutcome}).Classify(err)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

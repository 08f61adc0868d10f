package datatable

import (
	"fmt"
	"strings"
)

// Predicate decides whether a row belongs in a filter result. Predicates
// see raw values, no-data markers included.
type Predicate interface {
	// Matches reports whether the row passes the predicate.
	Matches(Row) (bool, error)

	// String describes the predicate for diagnostics.
	String() string
}

// eqPredicate is the one predicate shape the engine recognizes for index
// acceleration.
type eqPredicate struct {
	column string
	value  Value
}

// Eq returns a predicate matching rows whose column equals v. Used on a
// grouping column, it is served by the table's lazily built equality
// index instead of a row scan.
func Eq(column string, v Value) Predicate {
	return &eqPredicate{column: column, value: v}
}

// Matches implements the Predicate interface.
func (p *eqPredicate) Matches(row Row) (bool, error) {
	v, ok := row[p.column]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownColumn, p.column)
	}
	return v.Equal(p.value), nil
}

// String implements the Predicate interface.
func (p *eqPredicate) String() string {
	return fmt.Sprintf("%s = %s", p.column, p.value)
}

// funcPredicate wraps an arbitrary row function.
type funcPredicate struct {
	desc string
	fn   func(Row) (bool, error)
}

// Func wraps an arbitrary row predicate; desc is used for diagnostics.
// Errors returned by fn abort the filter and reach the caller unchanged.
func Func(desc string, fn func(Row) (bool, error)) Predicate {
	return &funcPredicate{desc: desc, fn: fn}
}

// Matches implements the Predicate interface.
func (p *funcPredicate) Matches(row Row) (bool, error) {
	return p.fn(row)
}

// String implements the Predicate interface.
func (p *funcPredicate) String() string {
	return p.desc
}

// logicOp represents a logical operator for combining predicates.
type logicOp int

const (
	// logicAnd requires all predicates to pass.
	logicAnd logicOp = iota
	// logicOr requires at least one predicate to pass.
	logicOr
)

// String returns the string representation of a logicOp.
func (op logicOp) String() string {
	switch op {
	case logicAnd:
		return "AND"
	case logicOr:
		return "OR"
	default:
		return fmt.Sprintf("unknown(%d)", op)
	}
}

// compositePredicate combines multiple predicates with AND or OR logic.
type compositePredicate struct {
	op    logicOp
	parts []Predicate
}

// And combines predicates so a row must pass every one. Evaluation
// short-circuits on the first failure or error. An empty combination
// passes all rows.
func And(ps ...Predicate) Predicate {
	return &compositePredicate{op: logicAnd, parts: ps}
}

// Or combines predicates so a row must pass at least one. Evaluation
// short-circuits on the first success or error. An empty combination
// passes all rows.
func Or(ps ...Predicate) Predicate {
	return &compositePredicate{op: logicOr, parts: ps}
}

// Matches implements the Predicate interface.
func (p *compositePredicate) Matches(row Row) (bool, error) {
	if len(p.parts) == 0 {
		return true, nil // Empty combination passes all rows
	}

	switch p.op {
	case logicAnd:
		// All predicates must pass
		for _, part := range p.parts {
			passes, err := part.Matches(row)
			if err != nil {
				return false, err
			}
			if !passes {
				return false, nil // Short-circuit on first failure
			}
		}
		return true, nil

	case logicOr:
		// At least one predicate must pass
		for _, part := range p.parts {
			passes, err := part.Matches(row)
			if err != nil {
				return false, err
			}
			if passes {
				return true, nil // Short-circuit on first success
			}
		}
		return false, nil

	default:
		return false, fmt.Errorf("unknown logic operator %d", p.op)
	}
}

// String implements the Predicate interface.
func (p *compositePredicate) String() string {
	if len(p.parts) == 0 {
		return "empty predicate"
	}

	descriptions := make([]string, len(p.parts))
	for i, part := range p.parts {
		descriptions[i] = part.String()
	}
	return "(" + strings.Join(descriptions, " "+p.op.String()+" ") + ")"
}

// notPredicate inverts another predicate.
type notPredicate struct {
	inner Predicate
}

// Not inverts a predicate. Errors pass through unchanged.
func Not(p Predicate) Predicate {
	return &notPredicate{inner: p}
}

// Matches implements the Predicate interface.
func (p *notPredicate) Matches(row Row) (bool, error) {
	passes, err := p.inner.Matches(row)
	if err != nil {
		return false, err
	}
	return !passes, nil
}

// String implements the Predicate interface.
func (p *notPredicate) String() string {
	return "NOT " + p.inner.String()
}

// Filter returns a new table holding the rows that match p, in their
// original relative order. A plain Eq predicate on a grouping column is
// answered from the equality index; every other shape scans all rows.
// An error from the predicate aborts the operation with no partial
// result and is returned to the caller unchanged.
func (t *Table) Filter(p Predicate) (*Table, error) {
	if eq, ok := p.(*eqPredicate); ok && t.isGrouping(eq.column) && eq.value.Kind() == KindCategory {
		return t.withRows(t.lookupEq(eq.column, eq.value))
	}

	matched := make([]Row, 0, len(t.rows))
	for _, row := range t.rows {
		passes, err := p.Matches(row)
		if err != nil {
			return nil, err
		}
		if passes {
			matched = append(matched, row)
		}
	}
	return t.withRows(matched)
}

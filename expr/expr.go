// Copyright 2025 Magnus Pierre
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package expr parses textual filter expressions into table predicates.
//
// An expression is one or more comparisons joined by the words "and" and
// "or" (case-insensitive), where "and" binds tighter:
//
//	region = NSW1 and power >= 100 or region = QLD1
//
// Comparison operators are =, !=, >, <, >= and <=. Literals are typed by
// shape: an RFC 3339 timestamp compares against the timestamp column, a
// number against metric values, anything else (or any quoted string)
// against categories. A value of the wrong kind, or one holding no data,
// matches no comparison. A single equality comparison compiles straight
// to an indexable predicate.
package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gridtable/datatable"
)

// ErrBadExpression reports a syntactically invalid filter expression.
var ErrBadExpression = errors.New("bad filter expression")

// compOp is a comparison operator.
type compOp int

const (
	opEqual compOp = iota
	opNotEqual
	opGreater
	opLess
	opGreaterEqual
	opLessEqual
)

// String returns the operator's symbol.
func (op compOp) String() string {
	switch op {
	case opEqual:
		return "="
	case opNotEqual:
		return "!="
	case opGreater:
		return ">"
	case opLess:
		return "<"
	case opGreaterEqual:
		return ">="
	case opLessEqual:
		return "<="
	default:
		return fmt.Sprintf("unknown(%d)", int(op))
	}
}

// comparisonOps orders the symbols longest first, so ">=" wins over "=".
var comparisonOps = []struct {
	op     compOp
	symbol string
}{
	{opGreaterEqual, ">="},
	{opLessEqual, "<="},
	{opNotEqual, "!="},
	{opEqual, "="},
	{opGreater, ">"},
	{opLess, "<"},
}

// token is one piece of a tokenized expression: a comparison term or a
// logical operator, with its byte offset for error reporting.
type token struct {
	text      string
	off       int
	isLogical bool
}

// Parse compiles an expression into a predicate. The predicate reports
// an unknown-column error the first time it is evaluated against a row
// missing one of the named columns.
func Parse(s string) (datatable.Predicate, error) {
	tokens := tokenize(s)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: empty expression", ErrBadExpression)
	}

	// Terms and logical operators must alternate, starting and ending
	// with a term.
	for i, tok := range tokens {
		wantLogical := i%2 == 1
		if tok.isLogical != wantLogical {
			return nil, fmt.Errorf("%w: unexpected %q at offset %d", ErrBadExpression, tok.text, tok.off)
		}
	}
	if tokens[len(tokens)-1].isLogical {
		return nil, fmt.Errorf("%w: expression ends with %q", ErrBadExpression, tokens[len(tokens)-1].text)
	}

	first, err := parseComparison(tokens[0])
	if err != nil {
		return nil, err
	}

	// "and" binds tighter than "or": collect runs of and-joined terms,
	// then join the runs with or.
	var orParts []datatable.Predicate
	andRun := []datatable.Predicate{first}
	for i := 1; i < len(tokens); i += 2 {
		term, err := parseComparison(tokens[i+1])
		if err != nil {
			return nil, err
		}
		switch strings.ToLower(tokens[i].text) {
		case "and":
			andRun = append(andRun, term)
		case "or":
			orParts = append(orParts, joinAnd(andRun))
			andRun = []datatable.Predicate{term}
		}
	}
	orParts = append(orParts, joinAnd(andRun))

	if len(orParts) == 1 {
		return orParts[0], nil
	}
	return datatable.Or(orParts...), nil
}

func joinAnd(parts []datatable.Predicate) datatable.Predicate {
	if len(parts) == 1 {
		return parts[0]
	}
	return datatable.And(parts...)
}

// tokenize splits an expression on the words "and" and "or", keeping
// the operators and recording byte offsets.
func tokenize(s string) []token {
	tokens := make([]token, 0)
	start := 0
	i := 0

	flush := func(end int) {
		text, off := trimOffset(s[start:end], start)
		if text != "" {
			tokens = append(tokens, token{text: text, off: off})
		}
	}

	for i < len(s) {
		if n := logicalWordAt(s, i); n > 0 {
			flush(i)
			tokens = append(tokens, token{text: s[i : i+n], off: i, isLogical: true})
			i += n
			start = i
			continue
		}
		i++
	}
	flush(len(s))
	return tokens
}

// logicalWordAt reports the length of the logical operator starting at
// i, or zero. Operators match whole words only, so column or category
// text containing "and" or "or" is left alone.
func logicalWordAt(s string, i int) int {
	for _, word := range []string{"and", "or"} {
		n := len(word)
		if i+n > len(s) || !strings.EqualFold(s[i:i+n], word) {
			continue
		}
		if (i == 0 || isSpace(s[i-1])) && (i+n == len(s) || isSpace(s[i+n])) {
			return n
		}
	}
	return 0
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// trimOffset trims surrounding whitespace and moves the offset past
// what was trimmed on the left.
func trimOffset(s string, off int) (string, int) {
	trimmed := strings.TrimLeft(s, " \t\n\r")
	off += len(s) - len(trimmed)
	return strings.TrimRight(trimmed, " \t\n\r"), off
}

// parseComparison parses a single "column op literal" term.
func parseComparison(tok token) (datatable.Predicate, error) {
	for _, opInfo := range comparisonOps {
		idx := strings.Index(tok.text, opInfo.symbol)
		if idx <= 0 {
			continue
		}

		column := strings.TrimSpace(tok.text[:idx])
		raw := strings.TrimSpace(tok.text[idx+len(opInfo.symbol):])
		if column == "" {
			return nil, fmt.Errorf("%w: missing column before %q at offset %d", ErrBadExpression, opInfo.symbol, tok.off)
		}
		if raw == "" {
			return nil, fmt.Errorf("%w: missing value after %q at offset %d", ErrBadExpression, opInfo.symbol, tok.off)
		}

		return compile(column, opInfo.op, parseLiteral(raw)), nil
	}
	return nil, fmt.Errorf("%w: no comparison operator in %q at offset %d", ErrBadExpression, tok.text, tok.off)
}

// parseLiteral types a literal by its shape. Quoting forces a category,
// so a quoted number still compares against category columns.
func parseLiteral(raw string) datatable.Value {
	if len(raw) >= 2 && (raw[0] == '"' || raw[0] == '\'') && raw[len(raw)-1] == raw[0] {
		return datatable.Category(raw[1 : len(raw)-1])
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return datatable.Timestamp(ts)
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return datatable.Metric(n)
	}
	return datatable.Category(raw)
}

// compile builds the predicate for one comparison. Plain equality uses
// the engine's own equality predicate so grouping columns stay
// index-served; everything else closes over an ordered comparison that
// requires the row value to hold data of the literal's kind.
func compile(column string, op compOp, lit datatable.Value) datatable.Predicate {
	if op == opEqual {
		return datatable.Eq(column, lit)
	}

	desc := fmt.Sprintf("%s %s %s", column, op, lit)
	return datatable.Func(desc, func(row datatable.Row) (bool, error) {
		v, ok := row[column]
		if !ok {
			return false, fmt.Errorf("%w: %q", datatable.ErrUnknownColumn, column)
		}
		if v.IsNoData() || v.Kind() != lit.Kind() {
			return false, nil
		}
		cmp := v.Compare(lit)
		switch op {
		case opNotEqual:
			return cmp != 0, nil
		case opGreater:
			return cmp > 0, nil
		case opLess:
			return cmp < 0, nil
		case opGreaterEqual:
			return cmp >= 0, nil
		case opLessEqual:
			return cmp <= 0, nil
		default:
			return false, fmt.Errorf("%w: %s", ErrBadExpression, op)
		}
	})
}

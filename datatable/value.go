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

// Package datatable provides an in-memory table engine for time-series
// market data. A table is an immutable, ordered set of rows, each holding
// one interval timestamp, categorical grouping values and numeric metric
// values. Query operators (filter, select, group-by, sort-by, describe)
// derive new tables or summary statistics without ever mutating their
// input, so intermediate results stay valid and independently queryable.
package datatable

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind represents the semantic type of a cell value.
type Kind int

const (
	// KindInvalid is the kind of the zero Value. Valid values come from
	// the constructors and never have it.
	KindInvalid Kind = iota
	// KindTimestamp represents an interval-start instant.
	KindTimestamp
	// KindCategory represents a grouping dimension value, such as a
	// network region or fuel technology code.
	KindCategory
	// KindMetric represents a measured quantity: a number or no-data.
	KindMetric
)

// String returns the string representation of a Kind.
func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "Invalid"
	case KindTimestamp:
		return "Timestamp"
	case KindCategory:
		return "Category"
	case KindMetric:
		return "Metric"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// Value is a typed cell value: a timestamp, a category or a metric.
// A metric carries either a number or the explicit no-data marker, which
// is distinct from zero and excluded from aggregation. The zero Value is
// invalid; build values with Timestamp, Category, Metric or NoData.
type Value struct {
	kind   Kind
	ts     time.Time
	text   string
	num    float64
	noData bool
}

// Timestamp creates a timestamp value.
func Timestamp(t time.Time) Value {
	return Value{kind: KindTimestamp, ts: t}
}

// Category creates a grouping dimension value.
func Category(s string) Value {
	return Value{kind: KindCategory, text: s}
}

// Metric creates a numeric metric value.
func Metric(f float64) Value {
	return Value{kind: KindMetric, num: f}
}

// NoData creates the no-data metric marker.
func NoData() Value {
	return Value{kind: KindMetric, noData: true}
}

// Kind returns the value's kind.
func (v Value) Kind() Kind {
	return v.kind
}

// Time returns the instant of a timestamp value.
func (v Value) Time() (time.Time, bool) {
	if v.kind != KindTimestamp {
		return time.Time{}, false
	}
	return v.ts, true
}

// Text returns the text of a category value.
func (v Value) Text() (string, bool) {
	if v.kind != KindCategory {
		return "", false
	}
	return v.text, true
}

// Number returns the number of a metric value that holds data.
// It returns false for no-data and for non-metric values.
func (v Value) Number() (float64, bool) {
	if v.kind != KindMetric || v.noData {
		return 0, false
	}
	return v.num, true
}

// IsNoData reports whether v is the no-data marker.
func (v Value) IsNoData() bool {
	return v.kind == KindMetric && v.noData
}

// Equal reports whether two values have the same kind and content.
// No-data only equals no-data; in particular it never equals zero.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindTimestamp:
		return v.ts.Equal(o.ts)
	case KindCategory:
		return v.text == o.text
	case KindMetric:
		if v.noData || o.noData {
			return v.noData && o.noData
		}
		return v.num == o.num
	default:
		return true
	}
}

// Compare orders two values, returning a negative number, zero, or a
// positive number as v sorts before, equal to, or after o. Within a kind
// the order is the natural one; no-data orders below every number so that
// metric ordering is total. Values of different kinds order by kind, so
// comparison never fails on mixed input.
func (v Value) Compare(o Value) int {
	if v.kind != o.kind {
		return int(v.kind) - int(o.kind)
	}
	switch v.kind {
	case KindTimestamp:
		return v.ts.Compare(o.ts)
	case KindCategory:
		return strings.Compare(v.text, o.text)
	case KindMetric:
		switch {
		case v.noData && o.noData:
			return 0
		case v.noData:
			return -1
		case o.noData:
			return 1
		case v.num < o.num:
			return -1
		case v.num > o.num:
			return 1
		default:
			return 0
		}
	default:
		return 0
	}
}

// String returns a display representation: RFC3339 for timestamps, the
// raw text for categories, the shortest round-trip form for metric
// numbers, and the empty string for no-data.
func (v Value) String() string {
	switch v.kind {
	case KindTimestamp:
		return v.ts.Format(time.RFC3339)
	case KindCategory:
		return v.text
	case KindMetric:
		if v.noData {
			return ""
		}
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	default:
		return ""
	}
}

// keyString returns the partition-key fragment used for grouping and
// index lookups. Only timestamps and categories participate in keys.
func (v Value) keyString() string {
	if v.kind == KindTimestamp {
		return strconv.FormatInt(v.ts.UnixNano(), 10)
	}
	return v.text
}

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

package datatable

import (
	"fmt"
	"slices"
	"strings"
)

// Method selects how grouped metric values are reduced. It is a closed
// set; anything outside it fails with ErrUnsupportedMethod.
type Method int

const (
	// MethodSum adds the values of each partition.
	MethodSum Method = iota + 1
	// MethodMean averages the values of each partition.
	MethodMean
)

// String returns the string representation of a Method.
func (m Method) String() string {
	switch m {
	case MethodSum:
		return "sum"
	case MethodMean:
		return "mean"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// ParseMethod maps the method names "sum" and "mean" to their Method.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sum":
		return MethodSum, nil
	case "mean":
		return MethodMean, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedMethod, s)
	}
}

// partition accumulates one group during aggregation: the key tuple's
// values, and per metric the running sum and the count of values that
// actually held data.
type partition struct {
	keyValues []Value
	sums      []float64
	counts    []int
}

// GroupBy partitions the rows by the tuple of values in columns and
// reduces every metric column with m. Each column must be a declared
// grouping or the timestamp column, else the call fails with
// ErrNotGrouping. The result holds one row per distinct key tuple, in
// the order each tuple was first encountered, with the grouped columns
// and all metric columns; the timestamp column survives only when it is
// grouped by. No-data values contribute to neither sums nor mean
// denominators, and a partition with no data at all for a metric yields
// no-data for it. The result is memoized on the receiver per exact
// (columns, method) pair, so a repeated identical call returns the same
// table without recomputation.
func (t *Table) GroupBy(columns []string, m Method) (*Table, error) {
	switch m {
	case MethodSum, MethodMean:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, m)
	}

	cols := make([]string, 0, len(columns))
	for _, c := range columns {
		if !t.isGrouping(c) && !(c != "" && c == t.timeCol) {
			return nil, fmt.Errorf("%w: %q", ErrNotGrouping, c)
		}
		if !slices.Contains(cols, c) {
			cols = append(cols, c)
		}
	}

	key := memoKey(cols, m.String())
	return t.memoized(t.groupMemo, &t.counters.groupHits, &t.counters.groupBuilds,
		"groupby"+keySep+key, key, func() (*Table, error) {
			return t.groupBy(cols, m)
		})
}

func (t *Table) groupBy(columns []string, m Method) (*Table, error) {
	groups := make(map[string]*partition)
	order := make([]string, 0)

	for _, row := range t.rows {
		var sb strings.Builder
		for i, c := range columns {
			if i > 0 {
				sb.WriteString(keySep)
			}
			sb.WriteString(row[c].keyString())
		}
		key := sb.String()

		p, ok := groups[key]
		if !ok {
			p = &partition{
				keyValues: make([]Value, len(columns)),
				sums:      make([]float64, len(t.metricNames)),
				counts:    make([]int, len(t.metricNames)),
			}
			for i, c := range columns {
				p.keyValues[i] = row[c]
			}
			groups[key] = p
			order = append(order, key)
		}

		for i, name := range t.metricNames {
			if n, ok := row[name].Number(); ok {
				p.sums[i] += n
				p.counts[i]++
			}
		}
	}

	groupings := make([]string, 0, len(columns))
	timeCol := ""
	for _, c := range columns {
		if c == t.timeCol {
			timeCol = c
			continue
		}
		groupings = append(groupings, c)
	}

	nt, err := newTable(groupings, t.metrics)
	if err != nil {
		return nil, err
	}
	nt.timeCol = timeCol

	nt.rows = make([]Row, 0, len(order))
	for _, key := range order {
		p := groups[key]
		row := make(Row, len(columns)+len(t.metricNames))
		for i, c := range columns {
			row[c] = p.keyValues[i]
		}
		for i, name := range t.metricNames {
			if p.counts[i] == 0 {
				row[name] = NoData()
				continue
			}
			switch m {
			case MethodSum:
				row[name] = Metric(p.sums[i])
			case MethodMean:
				row[name] = Metric(p.sums[i] / float64(p.counts[i]))
			}
		}
		nt.rows = append(nt.rows, row)
	}
	nt.computeLatest()
	return nt, nil
}

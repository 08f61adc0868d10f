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
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// Row maps column names to values. One row is one observation: an
// interval timestamp, the grouping dimension values and the metric
// values. Rows handed out by a table are shared with it and must be
// treated as read-only.
type Row map[string]Value

// Clone returns a copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// memoSize bounds each per-table result cache. Eviction only bounds
// memory; an evicted entry is rebuilt identically on the next call.
const memoSize = 128

// Table is an immutable, ordered collection of rows plus column
// metadata: the declared grouping columns, the metric columns with their
// units, and the single timestamp column discovered at construction.
// Every operator derives a new table and leaves the receiver untouched.
// The equality indexes and the group-by/sort-by memos are lazily built,
// private to one instance, and never shared with derived tables.
type Table struct {
	rows        []Row
	groupings   []string
	metrics     map[string]string
	metricNames []string
	timeCol     string
	latest      time.Time
	hasLatest   bool

	mu      sync.Mutex
	indexes map[string]map[string][]int

	groupMemo *lru.Cache[string, *Table]
	sortMemo  *lru.Cache[string, *Table]
	flight    singleflight.Group
	counters  cacheCounters
}

// New builds a table from rows and column metadata. Rows keep their
// input order and are copied, so the caller's slices and maps stay
// theirs. Each row must hold exactly one timestamp value (under the same
// column name across all rows), a category value for every grouping
// column, and nothing outside the declared columns. Metric columns a row
// does not populate are stored as explicit no-data, never as zero.
func New(rows []Row, groupings []string, metrics map[string]string) (*Table, error) {
	for i, g := range groupings {
		if g == "" {
			return nil, fmt.Errorf("grouping column %d has an empty name", i)
		}
		if slices.Contains(groupings[:i], g) {
			return nil, fmt.Errorf("duplicate grouping column %q", g)
		}
		if _, ok := metrics[g]; ok {
			return nil, fmt.Errorf("column %q declared as both grouping and metric", g)
		}
	}
	for name := range metrics {
		if name == "" {
			return nil, fmt.Errorf("metric column has an empty name")
		}
	}

	t, err := newTable(groupings, metrics)
	if err != nil {
		return nil, err
	}
	t.rows = make([]Row, 0, len(rows))
	for i, row := range rows {
		normalized, err := t.normalize(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		t.rows = append(t.rows, normalized)
	}
	t.computeLatest()
	return t, nil
}

// newTable creates an empty table shell with its own caches.
func newTable(groupings []string, metrics map[string]string) (*Table, error) {
	groupMemo, err := lru.New[string, *Table](memoSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}
	sortMemo, err := lru.New[string, *Table](memoSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}

	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	slices.Sort(names)

	m := make(map[string]string, len(metrics))
	for name, unit := range metrics {
		m[name] = unit
	}

	return &Table{
		groupings:   slices.Clone(groupings),
		metrics:     m,
		metricNames: names,
		indexes:     make(map[string]map[string][]int),
		groupMemo:   groupMemo,
		sortMemo:    sortMemo,
	}, nil
}

// normalize validates one input row against the table metadata and
// returns the table's private copy of it.
func (t *Table) normalize(row Row) (Row, error) {
	out := make(Row, len(t.groupings)+len(t.metricNames)+1)

	timestamps := 0
	for name, v := range row {
		switch {
		case slices.Contains(t.groupings, name):
			if v.Kind() != KindCategory {
				return nil, fmt.Errorf("%w: grouping column %q holds %s", ErrBadValue, name, v.Kind())
			}
			out[name] = v
		case hasKey(t.metrics, name):
			if v.Kind() != KindMetric {
				return nil, fmt.Errorf("%w: metric column %q holds %s", ErrBadValue, name, v.Kind())
			}
			out[name] = v
		default:
			// An undeclared column can only be the timestamp column.
			if v.Kind() != KindTimestamp {
				return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
			}
			timestamps++
			if timestamps > 1 {
				return nil, ErrNoTimestamp
			}
			if t.timeCol == "" {
				t.timeCol = name
			} else if t.timeCol != name {
				return nil, fmt.Errorf("%w: got %q, table uses %q", ErrNoTimestamp, name, t.timeCol)
			}
			out[name] = v
		}
	}
	if timestamps == 0 {
		return nil, ErrNoTimestamp
	}
	for _, g := range t.groupings {
		if _, ok := out[g]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingGrouping, g)
		}
	}
	for _, name := range t.metricNames {
		if _, ok := out[name]; !ok {
			out[name] = NoData()
		}
	}
	return out, nil
}

// withRows derives a table that shares this table's metadata but holds
// the given rows. Rows are assumed to be normalized already.
func (t *Table) withRows(rows []Row) (*Table, error) {
	nt, err := newTable(t.groupings, t.metrics)
	if err != nil {
		return nil, err
	}
	nt.timeCol = t.timeCol
	nt.rows = rows
	nt.computeLatest()
	return nt, nil
}

// computeLatest scans for the maximum timestamp. The table is immutable
// afterwards, so this runs once per instance.
func (t *Table) computeLatest() {
	t.hasLatest = false
	if t.timeCol == "" {
		return
	}
	for _, row := range t.rows {
		ts, ok := row[t.timeCol].Time()
		if !ok {
			continue
		}
		if !t.hasLatest || ts.After(t.latest) {
			t.latest = ts
			t.hasLatest = true
		}
	}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Rows returns the rows in table order. The slice belongs to the caller;
// the rows themselves are shared with the table and must be treated as
// read-only.
func (t *Table) Rows() []Row {
	return slices.Clone(t.rows)
}

// Groupings returns the declared grouping column names in order.
func (t *Table) Groupings() []string {
	return slices.Clone(t.groupings)
}

// Metrics returns the metric column to unit mapping.
func (t *Table) Metrics() map[string]string {
	out := make(map[string]string, len(t.metrics))
	for name, unit := range t.metrics {
		out[name] = unit
	}
	return out
}

// MetricNames returns the metric column names in name order, the order
// operators and exporters enumerate metrics in.
func (t *Table) MetricNames() []string {
	return slices.Clone(t.metricNames)
}

// TimeColumn returns the name of the timestamp column, or "" when the
// table has none (empty table, or the column was not selected).
func (t *Table) TimeColumn() string {
	return t.timeCol
}

// Columns returns every column name in presentation order: the timestamp
// column, then groupings, then metrics.
func (t *Table) Columns() []string {
	out := make([]string, 0, 1+len(t.groupings)+len(t.metricNames))
	if t.timeCol != "" {
		out = append(out, t.timeCol)
	}
	out = append(out, t.groupings...)
	out = append(out, t.metricNames...)
	return out
}

// LatestTimestamp returns the maximum timestamp over all rows. The
// second return is false when the table is empty or has no timestamp
// column; that is the documented sentinel and callers must handle it.
func (t *Table) LatestTimestamp() (time.Time, bool) {
	return t.latest, t.hasLatest
}

func hasKey(m map[string]string, name string) bool {
	_, ok := m[name]
	return ok
}

func (t *Table) hasColumn(name string) bool {
	if name == "" {
		return false
	}
	if name == t.timeCol {
		return true
	}
	if slices.Contains(t.groupings, name) {
		return true
	}
	_, ok := t.metrics[name]
	return ok
}

func (t *Table) isGrouping(name string) bool {
	return slices.Contains(t.groupings, name)
}

// Select returns a new table keeping exactly the named columns, with row
// count and order unchanged. Grouping and metric metadata narrow to the
// requested columns, preserving their original order. An unknown name
// fails with ErrUnknownColumn; a column is never silently dropped or
// invented. Leaving out the timestamp column is allowed, and the derived
// table then reports no latest timestamp.
func (t *Table) Select(columns ...string) (*Table, error) {
	keep := make(map[string]bool, len(columns))
	for _, c := range columns {
		if !t.hasColumn(c) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, c)
		}
		keep[c] = true
	}

	groupings := make([]string, 0, len(t.groupings))
	for _, g := range t.groupings {
		if keep[g] {
			groupings = append(groupings, g)
		}
	}
	metrics := make(map[string]string)
	for name, unit := range t.metrics {
		if keep[name] {
			metrics[name] = unit
		}
	}

	nt, err := newTable(groupings, metrics)
	if err != nil {
		return nil, err
	}
	if keep[t.timeCol] {
		nt.timeCol = t.timeCol
	}

	nt.rows = make([]Row, 0, len(t.rows))
	for _, row := range t.rows {
		nr := make(Row, len(keep))
		for c := range keep {
			if v, ok := row[c]; ok {
				nr[c] = v
			}
		}
		nt.rows = append(nt.rows, nr)
	}
	nt.computeLatest()
	return nt, nil
}

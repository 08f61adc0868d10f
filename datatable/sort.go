package datatable

import (
	"fmt"
	"slices"
)

// SortBy returns a new table with the rows ordered by the given columns:
// the first column is the primary key and later columns break ties. One
// direction applies uniformly to all columns. The sort is stable, so
// rows with equal keys keep their original relative order and sorting an
// already-sorted table changes nothing. No-data orders below every
// number, which keeps the ordering total. An unknown column fails with
// ErrUnknownColumn. The result is memoized on the receiver per exact
// (columns, direction) pair.
func (t *Table) SortBy(columns []string, ascending bool) (*Table, error) {
	for _, c := range columns {
		if !t.hasColumn(c) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, c)
		}
	}

	direction := "asc"
	if !ascending {
		direction = "desc"
	}
	key := memoKey(columns, direction)
	cols := slices.Clone(columns)
	return t.memoized(t.sortMemo, &t.counters.sortHits, &t.counters.sortBuilds,
		"sortby"+keySep+key, key, func() (*Table, error) {
			return t.sortBy(cols, ascending)
		})
}

func (t *Table) sortBy(columns []string, ascending bool) (*Table, error) {
	idx := make([]int, len(t.rows))
	for i := range idx {
		idx[i] = i
	}

	slices.SortStableFunc(idx, func(a, b int) int {
		ra, rb := t.rows[a], t.rows[b]
		for _, c := range columns {
			if cmp := ra[c].Compare(rb[c]); cmp != 0 {
				if !ascending {
					return -cmp
				}
				return cmp
			}
		}
		return 0
	})

	rows := make([]Row, len(idx))
	for i, j := range idx {
		rows[i] = t.rows[j]
	}
	return t.withRows(rows)
}

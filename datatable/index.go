package datatable

// index returns the equality index for a column, building it on first
// use. The index maps each distinct value to the ascending row positions
// holding it, so index-served filters keep the table's row order. The
// build runs once per table instance under the table lock; concurrent
// callers wait rather than compute twice.
func (t *Table) index(column string) map[string][]int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if idx, ok := t.indexes[column]; ok {
		return idx
	}

	idx := make(map[string][]int)
	for pos, row := range t.rows {
		v, ok := row[column]
		if !ok {
			continue
		}
		key := v.keyString()
		idx[key] = append(idx[key], pos)
	}
	t.indexes[column] = idx
	t.counters.indexBuilds.Inc()
	return idx
}

// lookupEq resolves an equality filter through the index.
func (t *Table) lookupEq(column string, v Value) []Row {
	positions := t.index(column)[v.keyString()]
	rows := make([]Row, 0, len(positions))
	for _, pos := range positions {
		rows = append(rows, t.rows[pos])
	}
	return rows
}

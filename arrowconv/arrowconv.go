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

// Package arrowconv converts tables to and from Apache Arrow. The
// timestamp column maps to a millisecond UTC timestamp, groupings to
// strings, metrics to nullable float64 columns whose nulls are the
// no-data values. Metric units travel as the "unit" field metadata.
package arrowconv

import (
	"fmt"
	"slices"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"gridtable/datatable"
)

// unitKey is the field metadata key carrying a metric's unit.
const unitKey = "unit"

// ToArrow builds an Arrow table with the table's columns in
// presentation order: timestamp, groupings, then metrics.
func ToArrow(t *datatable.Table) (arrow.Table, error) {
	timeCol := t.TimeColumn()
	groupings := t.Groupings()
	metricNames := t.MetricNames()
	units := t.Metrics()

	fields := make([]arrow.Field, 0, 1+len(groupings)+len(metricNames))
	if timeCol != "" {
		fields = append(fields, arrow.Field{Name: timeCol, Type: arrow.FixedWidthTypes.Timestamp_ms})
	}
	for _, g := range groupings {
		fields = append(fields, arrow.Field{Name: g, Type: arrow.BinaryTypes.String})
	}
	for _, name := range metricNames {
		fields = append(fields, arrow.Field{
			Name:     name,
			Type:     arrow.PrimitiveTypes.Float64,
			Nullable: true,
			Metadata: arrow.NewMetadata([]string{unitKey}, []string{units[name]}),
		})
	}
	schema := arrow.NewSchema(fields, nil)

	pool := memory.NewGoAllocator()
	rb := array.NewRecordBuilder(pool, schema)
	defer rb.Release()

	for i, row := range t.Rows() {
		idx := 0
		if timeCol != "" {
			ts, ok := row[timeCol].Time()
			if !ok {
				return nil, fmt.Errorf("row %d has no timestamp in column %q", i, timeCol)
			}
			rb.Field(idx).(*array.TimestampBuilder).Append(arrow.Timestamp(ts.UnixMilli()))
			idx++
		}
		for _, g := range groupings {
			text, ok := row[g].Text()
			if !ok {
				return nil, fmt.Errorf("row %d has no category in column %q", i, g)
			}
			rb.Field(idx).(*array.StringBuilder).Append(text)
			idx++
		}
		for _, name := range metricNames {
			fb := rb.Field(idx).(*array.Float64Builder)
			if n, ok := row[name].Number(); ok {
				fb.Append(n)
			} else {
				fb.AppendNull()
			}
			idx++
		}
	}

	rec := rb.NewRecord()
	defer rec.Release()
	return array.NewTableFromRecords(schema, []arrow.Record{rec}), nil
}

// TableSpec names the roles of an Arrow table's columns. A nil Metrics
// map treats every column outside TimeColumn and Groupings as a metric
// and takes its unit from the field metadata.
type TableSpec struct {
	TimeColumn string
	Groupings  []string
	Metrics    map[string]string
}

// FromArrow reads an Arrow table back into a datatable. Numeric metric
// columns of any width are normalized to float64 and their nulls become
// no-data; any column whose type cannot serve its role is rejected.
func FromArrow(tbl arrow.Table, spec TableSpec) (*datatable.Table, error) {
	schema := tbl.Schema()

	colIdx := make(map[string]int, schema.NumFields())
	for i, f := range schema.Fields() {
		colIdx[f.Name] = i
	}

	metrics := spec.Metrics
	if metrics == nil {
		metrics = make(map[string]string)
		for _, f := range schema.Fields() {
			if f.Name == spec.TimeColumn || slices.Contains(spec.Groupings, f.Name) {
				continue
			}
			unit := ""
			if i := f.Metadata.FindKey(unitKey); i >= 0 {
				unit = f.Metadata.Values()[i]
			}
			metrics[f.Name] = unit
		}
	}

	if spec.TimeColumn != "" {
		if _, ok := colIdx[spec.TimeColumn]; !ok {
			return nil, fmt.Errorf("arrow table has no column %q", spec.TimeColumn)
		}
	}
	for _, g := range spec.Groupings {
		if _, ok := colIdx[g]; !ok {
			return nil, fmt.Errorf("arrow table has no column %q", g)
		}
	}
	for name := range metrics {
		if _, ok := colIdx[name]; !ok {
			return nil, fmt.Errorf("arrow table has no column %q", name)
		}
	}

	rows := make([]datatable.Row, 0, tbl.NumRows())
	tr := array.NewTableReader(tbl, tbl.NumRows())
	defer tr.Release()

	for tr.Next() {
		rec := tr.Record()
		for pos := 0; pos < int(rec.NumRows()); pos++ {
			row := make(datatable.Row, 1+len(spec.Groupings)+len(metrics))
			if spec.TimeColumn != "" {
				ts, err := readTimestamp(rec.Column(colIdx[spec.TimeColumn]), pos)
				if err != nil {
					return nil, fmt.Errorf("column %q: %w", spec.TimeColumn, err)
				}
				row[spec.TimeColumn] = datatable.Timestamp(ts)
			}
			for _, g := range spec.Groupings {
				text, err := readString(rec.Column(colIdx[g]), pos)
				if err != nil {
					return nil, fmt.Errorf("column %q: %w", g, err)
				}
				row[g] = datatable.Category(text)
			}
			for name := range metrics {
				v, err := readMetric(rec.Column(colIdx[name]), pos)
				if err != nil {
					return nil, fmt.Errorf("column %q: %w", name, err)
				}
				row[name] = v
			}
			rows = append(rows, row)
		}
	}
	if tr.Err() != nil {
		return nil, fmt.Errorf("reading arrow table: %w", tr.Err())
	}

	return datatable.New(rows, spec.Groupings, metrics)
}

func readTimestamp(col arrow.Array, pos int) (time.Time, error) {
	ts, ok := col.(*array.Timestamp)
	if !ok {
		return time.Time{}, fmt.Errorf("type %s cannot be a timestamp column", col.DataType())
	}
	if col.IsNull(pos) {
		return time.Time{}, fmt.Errorf("null timestamp at row %d", pos)
	}
	typ := col.DataType().(*arrow.TimestampType)
	return ts.Value(pos).ToTime(typ.Unit), nil
}

func readString(col arrow.Array, pos int) (string, error) {
	s, ok := col.(*array.String)
	if !ok {
		return "", fmt.Errorf("type %s cannot be a grouping column", col.DataType())
	}
	if col.IsNull(pos) {
		return "", fmt.Errorf("null category at row %d", pos)
	}
	return s.Value(pos), nil
}

func readMetric(col arrow.Array, pos int) (datatable.Value, error) {
	if col.IsNull(pos) {
		return datatable.NoData(), nil
	}

	switch col.DataType().ID() {
	case arrow.FLOAT64:
		return datatable.Metric(col.(*array.Float64).Value(pos)), nil
	case arrow.FLOAT32:
		return datatable.Metric(float64(col.(*array.Float32).Value(pos))), nil
	case arrow.INT64:
		return datatable.Metric(float64(col.(*array.Int64).Value(pos))), nil
	case arrow.INT32:
		return datatable.Metric(float64(col.(*array.Int32).Value(pos))), nil
	case arrow.INT16:
		return datatable.Metric(float64(col.(*array.Int16).Value(pos))), nil
	case arrow.INT8:
		return datatable.Metric(float64(col.(*array.Int8).Value(pos))), nil
	case arrow.UINT64:
		return datatable.Metric(float64(col.(*array.Uint64).Value(pos))), nil
	case arrow.UINT32:
		return datatable.Metric(float64(col.(*array.Uint32).Value(pos))), nil
	case arrow.UINT16:
		return datatable.Metric(float64(col.(*array.Uint16).Value(pos))), nil
	case arrow.UINT8:
		return datatable.Metric(float64(col.(*array.Uint8).Value(pos))), nil
	default:
		return datatable.Value{}, fmt.Errorf("type %s cannot be a metric column", col.DataType())
	}
}

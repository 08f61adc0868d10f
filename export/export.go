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

// Package export writes tables out as CSV, JSON or Parquet.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	jsoniter "github.com/json-iterator/go"

	"gridtable/arrowconv"
	"gridtable/datatable"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// formatVersion identifies the JSON envelope layout.
const formatVersion = "4.0"

// ToCSV writes the table as CSV with a header line. Columns appear in
// presentation order: timestamp, groupings, then metrics. No-data cells
// are left empty.
func ToCSV(w io.Writer, t *datatable.Table) error {
	cw := csv.NewWriter(w)
	columns := t.Columns()
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	record := make([]string, len(columns))
	for _, row := range t.Rows() {
		for i, col := range columns {
			record[i] = row[col].String()
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV data: %w", err)
	}
	return nil
}

type envelope struct {
	Version      string       `json:"version"`
	CreatedAt    time.Time    `json:"created_at"`
	Success      bool         `json:"success"`
	Data         envelopeData `json:"data"`
	TotalRecords int          `json:"total_records"`
}

type envelopeData struct {
	Groupings []string                 `json:"groupings"`
	Metrics   map[string]string        `json:"metrics"`
	Rows      []map[string]interface{} `json:"rows"`
}

// ToJSON writes the table as an indented JSON envelope carrying the
// column metadata and one object per row. Timestamps render as RFC 3339
// strings, metrics as numbers and no-data as null.
func ToJSON(w io.Writer, t *datatable.Table) error {
	rows := make([]map[string]interface{}, 0, t.Len())
	columns := t.Columns()
	for _, row := range t.Rows() {
		out := make(map[string]interface{}, len(columns))
		for _, col := range columns {
			out[col] = typedValue(row[col])
		}
		rows = append(rows, out)
	}

	env := envelope{
		Version:   formatVersion,
		CreatedAt: time.Now().UTC(),
		Success:   true,
		Data: envelopeData{
			Groupings: t.Groupings(),
			Metrics:   t.Metrics(),
			Rows:      rows,
		},
		TotalRecords: t.Len(),
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(env); err != nil {
		return fmt.Errorf("failed to encode JSON data: %w", err)
	}
	return nil
}

// typedValue maps a table value onto its JSON representation.
func typedValue(v datatable.Value) interface{} {
	if ts, ok := v.Time(); ok {
		return ts.UTC().Format(time.RFC3339)
	}
	if text, ok := v.Text(); ok {
		return text
	}
	if n, ok := v.Number(); ok {
		return n
	}
	return nil
}

// ToParquet writes the table as a Snappy-compressed Parquet file with
// the Arrow schema stored alongside the data.
func ToParquet(w io.Writer, t *datatable.Table) error {
	at, err := arrowconv.ToArrow(t)
	if err != nil {
		return fmt.Errorf("failed to convert table to arrow: %w", err)
	}
	defer at.Release()

	props := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Snappy),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(
		pqarrow.WithStoreSchema(),
	)

	writer, err := pqarrow.NewFileWriter(at.Schema(), w, props, arrowProps)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}

	if err := writer.WriteTable(at, at.NumRows()); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write table to parquet: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

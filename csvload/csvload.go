// Package csvload reads CSV data into tables. The separator can be
// given or detected from the header line, timestamps are parsed with a
// configurable layout and empty metric cells load as no-data.
package csvload

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"gridtable/datatable"
)

// separators are the candidate column separators for detection, tried
// in this order.
var separators = []rune{',', ';', '\t', '|'}

// peekSize bounds how far Load looks into the input for the header
// line when detecting the separator.
const peekSize = 4096

// DetectSeparator picks the candidate separator occurring most often in
// the header line. A tie keeps the earlier candidate and a line without
// any candidate falls back to comma.
func DetectSeparator(header string) rune {
	best := ','
	bestCount := 0
	for _, sep := range separators {
		if count := strings.Count(header, string(sep)); count > bestCount {
			best = sep
			bestCount = count
		}
	}
	return best
}

// Options configure Load.
type Options struct {
	// Separator is the column separator. Zero means detect it from the
	// header line.
	Separator rune
	// TimeColumn names the timestamp column. Required.
	TimeColumn string
	// TimeLayout is the timestamp layout. Empty means RFC 3339.
	TimeLayout string
	// Groupings names the grouping columns.
	Groupings []string
	// Metrics maps metric columns to their units. Nil means every
	// header column outside TimeColumn and Groupings is a metric with
	// no unit.
	Metrics map[string]string
}

// Load reads CSV data with a header line into a table. Errors about a
// cell name the row, counted from the header as row one, and the
// column.
func Load(r io.Reader, opts Options) (*datatable.Table, error) {
	if opts.TimeColumn == "" {
		return nil, errors.New("a time column is required")
	}
	layout := opts.TimeLayout
	if layout == "" {
		layout = time.RFC3339
	}

	br := bufio.NewReaderSize(r, peekSize)
	sep := opts.Separator
	if sep == 0 {
		peeked, err := br.Peek(peekSize)
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to read CSV header: %w", err)
		}
		line := string(peeked)
		if i := strings.IndexByte(line, '\n'); i >= 0 {
			line = line[:i]
		}
		sep = DetectSeparator(line)
	}

	cr := csv.NewReader(br)
	cr.Comma = sep
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("CSV input has no header line")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colIdx := make(map[string]int, len(header))
	for i := range header {
		name := strings.TrimSpace(header[i])
		header[i] = name
		if name == "" {
			continue
		}
		if _, ok := colIdx[name]; ok {
			return nil, fmt.Errorf("duplicate column %q in CSV header", name)
		}
		colIdx[name] = i
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = make(map[string]string)
		for _, name := range header {
			if name == "" || name == opts.TimeColumn || slices.Contains(opts.Groupings, name) {
				continue
			}
			metrics[name] = ""
		}
	}

	if _, ok := colIdx[opts.TimeColumn]; !ok {
		return nil, fmt.Errorf("CSV header has no column %q", opts.TimeColumn)
	}
	for _, g := range opts.Groupings {
		if _, ok := colIdx[g]; !ok {
			return nil, fmt.Errorf("CSV header has no column %q", g)
		}
	}
	for name := range metrics {
		if _, ok := colIdx[name]; !ok {
			return nil, fmt.Errorf("CSV header has no column %q", name)
		}
	}

	var rows []datatable.Row
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		line++

		row := make(datatable.Row, 1+len(opts.Groupings)+len(metrics))

		cell := strings.TrimSpace(record[colIdx[opts.TimeColumn]])
		ts, err := time.Parse(layout, cell)
		if err != nil {
			return nil, fmt.Errorf("row %d column %q: %w", line, opts.TimeColumn, err)
		}
		row[opts.TimeColumn] = datatable.Timestamp(ts)

		for _, g := range opts.Groupings {
			row[g] = datatable.Category(strings.TrimSpace(record[colIdx[g]]))
		}

		for name := range metrics {
			cell := strings.TrimSpace(record[colIdx[name]])
			if cell == "" {
				row[name] = datatable.NoData()
				continue
			}
			n, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", line, name, err)
			}
			row[name] = datatable.Metric(n)
		}

		rows = append(rows, row)
	}

	return datatable.New(rows, opts.Groupings, metrics)
}

package client

import (
	"fmt"
	"slices"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"gridtable/datatable"
	"gridtable/schema"
)

// apiResponse is the versioned response envelope every endpoint wraps
// its payload in.
type apiResponse struct {
	Version      string    `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	Success      bool      `json:"success"`
	Error        *string   `json:"error"`
	Data         []dataSet `json:"data"`
	TotalRecords *int      `json:"total_records"`
}

// dataSet carries every series of one metric: the unit it is measured
// in and one result per grouping tuple.
type dataSet struct {
	NetworkCode string   `json:"network_code"`
	Metric      string   `json:"metric"`
	Unit        string   `json:"unit"`
	Interval    string   `json:"interval"`
	Groupings   []string `json:"groupings"`
	Results     []result `json:"results"`
}

// result is one series: the grouping values it belongs to and its
// timestamped readings.
type result struct {
	Name    string            `json:"name"`
	Columns map[string]string `json:"columns"`
	Data    []dataPoint       `json:"data"`
}

// dataPoint is one [timestamp, value] pair. The value is null when the
// reading is missing.
type dataPoint struct {
	Timestamp time.Time
	Value     *float64
}

// UnmarshalJSON decodes the wire form, a two-element array of an
// RFC 3339 timestamp and a number or null.
func (p *dataPoint) UnmarshalJSON(data []byte) error {
	var raw []jsoniter.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("data point has %d elements, want 2", len(raw))
	}

	var ts string
	if err := json.Unmarshal(raw[0], &ts); err != nil {
		return errors.Wrap(err, "data point timestamp")
	}
	parsed, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return errors.Wrap(err, "data point timestamp")
	}
	p.Timestamp = parsed

	if err := json.Unmarshal(raw[1], &p.Value); err != nil {
		return errors.Wrap(err, "data point value")
	}
	return nil
}

// rowAccum collects the readings of one (timestamp, grouping tuple)
// across metric sets until the table is assembled.
type rowAccum struct {
	ts      time.Time
	columns map[string]string
	metrics map[string]*float64
}

// buildTable merges the metric sets of a response into one table. Rows
// are keyed by timestamp plus grouping tuple and emitted in the order
// each key was first seen; a metric a key has no reading for stays
// no-data.
func buildTable(sets []dataSet) (*datatable.Table, error) {
	if len(sets) == 0 {
		return datatable.New(nil, nil, nil)
	}

	groupings := sets[0].Groupings
	units := make(map[string]string, len(sets))
	for _, set := range sets {
		if !slices.Equal(set.Groupings, groupings) {
			return nil, errors.Errorf("metric sets disagree on groupings: %v vs %v", groupings, set.Groupings)
		}
		unit := set.Unit
		if unit == "" {
			if u, ok := schema.UnitByName(set.Metric); ok {
				unit = u.Unit
			}
		}
		units[set.Metric] = unit
	}

	accums := make(map[string]*rowAccum)
	order := make([]string, 0)
	for _, set := range sets {
		for _, res := range set.Results {
			for _, point := range res.Data {
				key := rowKey(point.Timestamp, groupings, res.Columns)
				acc, ok := accums[key]
				if !ok {
					acc = &rowAccum{
						ts:      point.Timestamp,
						columns: res.Columns,
						metrics: make(map[string]*float64, len(sets)),
					}
					accums[key] = acc
					order = append(order, key)
				}
				acc.metrics[set.Metric] = point.Value
			}
		}
	}

	rows := make([]datatable.Row, 0, len(order))
	for _, key := range order {
		acc := accums[key]
		row := make(datatable.Row, 1+len(groupings)+len(units))
		row["interval"] = datatable.Timestamp(acc.ts)
		for _, g := range groupings {
			row[g] = datatable.Category(acc.columns[g])
		}
		for metric, value := range acc.metrics {
			if value == nil {
				row[metric] = datatable.NoData()
				continue
			}
			row[metric] = datatable.Metric(*value)
		}
		rows = append(rows, row)
	}

	return datatable.New(rows, groupings, units)
}

func rowKey(ts time.Time, groupings []string, columns map[string]string) string {
	var sb strings.Builder
	sb.WriteString(ts.UTC().Format(time.RFC3339))
	for _, g := range groupings {
		sb.WriteByte(0)
		sb.WriteString(columns[g])
	}
	return sb.String()
}

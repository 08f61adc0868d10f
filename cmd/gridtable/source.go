package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"gridtable/client"
	"gridtable/csvload"
	"gridtable/datatable"
	"gridtable/expr"
)

// tableSource resolves the table a command works on: a CSV file when
// --input is given, a dataset fetched from the API otherwise. The
// optional --where filter applies in both cases.
type tableSource struct {
	env *appEnv

	input      *string
	timeColumn *string
	groupings  *[]string

	network  *string
	metrics  *[]string
	regions  *[]string
	interval *string
	start    *string
	end      *string

	where *string
}

func addSourceFlags(cmd *kingpin.CmdClause, env *appEnv) *tableSource {
	s := &tableSource{env: env}
	s.input = cmd.Flag("input", "Read the table from a CSV file instead of the API.").Short('i').String()
	s.timeColumn = cmd.Flag("time-column", "Timestamp column of the CSV input.").Default("interval").String()
	s.groupings = cmd.Flag("grouping", "Grouping column of the CSV input. Repeatable.").Strings()
	s.network = cmd.Flag("network", "Network code to fetch, for example NEM.").String()
	s.metrics = cmd.Flag("metric", "Metric to fetch, for example power. Repeatable.").Strings()
	s.regions = cmd.Flag("region", "Region to fetch from. Repeatable.").Strings()
	s.interval = cmd.Flag("interval", "Aggregation interval to request, for example 5m or 1h.").String()
	s.start = cmd.Flag("start", "Start of the time range, RFC 3339.").String()
	s.end = cmd.Flag("end", "End of the time range, RFC 3339.").String()
	s.where = cmd.Flag("where", "Filter expression, for example 'region = NSW1 and power > 100'.").String()
	return s
}

func (s *tableSource) resolve(ctx context.Context) (*datatable.Table, error) {
	tbl, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if *s.where != "" {
		pred, err := expr.Parse(*s.where)
		if err != nil {
			return nil, err
		}
		tbl, err = tbl.Filter(pred)
		if err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

func (s *tableSource) load(ctx context.Context) (*datatable.Table, error) {
	if *s.input != "" {
		f, err := os.Open(*s.input)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file: %w", err)
		}
		defer f.Close()
		return csvload.Load(f, csvload.Options{
			TimeColumn: *s.timeColumn,
			Groupings:  *s.groupings,
		})
	}

	if *s.network == "" {
		return nil, errors.New("either --input or --network is required")
	}
	c, err := s.env.apiClient()
	if err != nil {
		return nil, err
	}

	q := client.DatasetQuery{
		Network:  *s.network,
		Metrics:  *s.metrics,
		Regions:  *s.regions,
		Interval: *s.interval,
	}
	if *s.start != "" {
		ts, err := time.Parse(time.RFC3339, *s.start)
		if err != nil {
			return nil, fmt.Errorf("failed to parse --start: %w", err)
		}
		q.Start = ts
	}
	if *s.end != "" {
		ts, err := time.Parse(time.RFC3339, *s.end)
		if err != nil {
			return nil, fmt.Errorf("failed to parse --end: %w", err)
		}
		q.End = ts
	}
	return c.FetchDataset(ctx, q)
}

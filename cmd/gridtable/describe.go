package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dustin/go-humanize"

	"gridtable/datatable"
	"gridtable/schema"
)

// describeCommand prints summary statistics for every metric column.
type describeCommand struct {
	source *tableSource
}

func (cmd *describeCommand) run(_ *kingpin.ParseContext) error {
	tbl, err := cmd.source.resolve(context.Background())
	if err != nil {
		return err
	}

	header := []string{"column", "unit", "count", "mean", "stddev", "min", "p25", "median", "p75", "max"}
	rows := make([][]string, 0, len(tbl.MetricNames()))
	for _, s := range tbl.Describe() {
		rows = append(rows, []string{
			s.Column,
			s.Unit,
			humanize.Comma(int64(s.Count)),
			statText(s.Column, s.Mean),
			statText(s.Column, s.Stddev),
			statText(s.Column, s.Min),
			statText(s.Column, s.P25),
			statText(s.Column, s.Median),
			statText(s.Column, s.P75),
			statText(s.Column, s.Max),
		})
	}
	writeAligned(os.Stdout, header, rows)
	fmt.Printf("\n%s rows\n", humanize.Comma(int64(tbl.Len())))
	return nil
}

// statText renders a statistic, rounded to the precision the unit
// registry declares for the metric when it knows it.
func statText(column string, v datatable.Value) string {
	n, ok := v.Number()
	if !ok {
		return "-"
	}
	if u, ok := schema.UnitByName(column); ok {
		return strconv.FormatFloat(n, 'f', u.RoundTo, 64)
	}
	return strconv.FormatFloat(n, 'g', 6, 64)
}

func addDescribeCommand(app *kingpin.Application, env *appEnv) {
	cmd := &describeCommand{}
	describe := app.Command("describe", "Print summary statistics for the metric columns of a dataset.").Action(cmd.run)
	cmd.source = addSourceFlags(describe, env)
}

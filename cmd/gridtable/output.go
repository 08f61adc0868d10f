package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"gridtable/datatable"
	"gridtable/export"
)

// outputFlags pick the output format and destination of a command that
// emits a table.
type outputFlags struct {
	format *string
	file   *string
	limit  *int
}

func addOutputFlags(cmd *kingpin.CmdClause) *outputFlags {
	o := &outputFlags{}
	o.format = cmd.Flag("output", "Output format: table, csv, json or parquet.").Short('o').Default("table").Enum("table", "csv", "json", "parquet")
	o.file = cmd.Flag("out", "Write the output to this file instead of stdout.").String()
	o.limit = cmd.Flag("limit", "Show at most this many rows in table output. Zero shows all.").Default("0").Int()
	return o
}

func (o *outputFlags) write(t *datatable.Table) error {
	if *o.file == "" {
		return o.writeTo(os.Stdout, t)
	}
	f, err := os.Create(*o.file)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := o.writeTo(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (o *outputFlags) writeTo(w io.Writer, t *datatable.Table) error {
	switch *o.format {
	case "csv":
		return export.ToCSV(w, t)
	case "json":
		return export.ToJSON(w, t)
	case "parquet":
		return export.ToParquet(w, t)
	default:
		printTable(w, t, *o.limit)
		return nil
	}
}

// cellText renders one value for terminal output, with a dash standing
// in for no-data.
func cellText(v datatable.Value) string {
	if v.IsNoData() {
		return "-"
	}
	return v.String()
}

// writeAligned writes rows as space-padded columns under a bold header.
func writeAligned(w io.Writer, header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	bold := color.New(color.Bold)
	for i, h := range header {
		if i > 0 {
			fmt.Fprint(w, "  ")
		}
		if i == len(header)-1 {
			fmt.Fprint(w, bold.Sprint(h))
			continue
		}
		fmt.Fprint(w, bold.Sprintf("%-*s", widths[i], h))
	}
	fmt.Fprintln(w)

	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(w, "  ")
			}
			if i == len(row)-1 {
				fmt.Fprint(w, cell)
				continue
			}
			fmt.Fprintf(w, "%-*s", widths[i], cell)
		}
		fmt.Fprintln(w)
	}
}

func printTable(w io.Writer, t *datatable.Table, limit int) {
	columns := t.Columns()
	rows := t.Rows()
	shown := len(rows)
	if limit > 0 && limit < shown {
		shown = limit
	}

	cells := make([][]string, 0, shown)
	for _, row := range rows[:shown] {
		line := make([]string, len(columns))
		for i, col := range columns {
			line[i] = cellText(row[col])
		}
		cells = append(cells, line)
	}
	writeAligned(w, columns, cells)

	if shown < t.Len() {
		fmt.Fprintf(w, "\nshowing %s of %s rows\n", humanize.Comma(int64(shown)), humanize.Comma(int64(t.Len())))
		return
	}
	fmt.Fprintf(w, "\n%s rows\n", humanize.Comma(int64(t.Len())))
}

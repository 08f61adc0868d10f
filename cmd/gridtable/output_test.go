package main

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"gridtable/datatable"
)

func terminalTable(t *testing.T) *datatable.Table {
	t.Helper()
	ival := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	rows := []datatable.Row{
		{"interval": datatable.Timestamp(ival), "region": datatable.Category("NSW1"), "power": datatable.Metric(100)},
		{"interval": datatable.Timestamp(ival.Add(5 * time.Minute)), "region": datatable.Category("QLD1"), "power": datatable.NoData()},
	}
	tbl, err := datatable.New(rows, []string{"region"}, map[string]string{"power": "MW"})
	require.NoError(t, err)
	return tbl
}

func TestPrintTable(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	printTable(&buf, terminalTable(t), 0)

	want := fmt.Sprintf("%-20s  %-6s  %s\n", "interval", "region", "power") +
		fmt.Sprintf("%-20s  %-6s  %s\n", "2024-07-01T00:00:00Z", "NSW1", "100") +
		fmt.Sprintf("%-20s  %-6s  %s\n", "2024-07-01T00:05:00Z", "QLD1", "-") +
		"\n2 rows\n"
	require.Equal(t, want, buf.String())
}

func TestPrintTableLimit(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	printTable(&buf, terminalTable(t), 1)

	want := fmt.Sprintf("%-20s  %-6s  %s\n", "interval", "region", "power") +
		fmt.Sprintf("%-20s  %-6s  %s\n", "2024-07-01T00:00:00Z", "NSW1", "100") +
		"\nshowing 1 of 2 rows\n"
	require.Equal(t, want, buf.String())
}

func TestStatText(t *testing.T) {
	require.Equal(t, "86.00", statText("power", datatable.Metric(86)))
	require.Equal(t, "12.3457", statText("banana", datatable.Metric(12.34567)))
	require.Equal(t, "-", statText("power", datatable.NoData()))
}

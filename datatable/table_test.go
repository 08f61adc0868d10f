package datatable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	ival1 = time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	ival2 = ival1.Add(5 * time.Minute)
	ival3 = ival1.Add(10 * time.Minute)
)

// marketRows is the shared fixture: three five-minute intervals of
// generation for two regions and two fuel technologies, with a few
// missing energy observations.
func marketRows() []Row {
	return []Row{
		{"interval": Timestamp(ival1), "region": Category("NSW1"), "fueltech": Category("coal_black"), "power": Metric(100), "energy": NoData()},
		{"interval": Timestamp(ival1), "region": Category("QLD1"), "fueltech": Category("wind"), "power": Metric(40), "energy": Metric(10)},
		{"interval": Timestamp(ival2), "region": Category("NSW1"), "fueltech": Category("wind"), "power": Metric(60), "energy": Metric(20)},
		{"interval": Timestamp(ival2), "region": Category("QLD1"), "fueltech": Category("coal_black"), "power": Metric(110), "energy": NoData()},
		{"interval": Timestamp(ival3), "region": Category("NSW1"), "fueltech": Category("coal_black"), "power": Metric(120), "energy": Metric(30)},
	}
}

func marketTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := New(marketRows(), []string{"region", "fueltech"}, map[string]string{"power": "MW", "energy": "MWh"})
	require.NoError(t, err)
	return tbl
}

func emptyTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := New(nil, []string{"region"}, map[string]string{"power": "MW"})
	require.NoError(t, err)
	return tbl
}

func TestNew(t *testing.T) {
	tbl := marketTable(t)

	require.Equal(t, 5, tbl.Len())
	require.Equal(t, []string{"region", "fueltech"}, tbl.Groupings())
	require.Equal(t, map[string]string{"power": "MW", "energy": "MWh"}, tbl.Metrics())
	require.Equal(t, []string{"energy", "power"}, tbl.MetricNames(), "metric names enumerate in name order")
	require.Equal(t, "interval", tbl.TimeColumn())
	require.Equal(t, []string{"interval", "region", "fueltech", "energy", "power"}, tbl.Columns())
}

func TestNewValidation(t *testing.T) {
	groupings := []string{"region"}
	metrics := map[string]string{"power": "MW"}

	tests := []struct {
		name string
		row  Row
		want error
	}{
		{
			name: "undeclared column",
			row:  Row{"interval": Timestamp(ival1), "region": Category("NSW1"), "frequency": Metric(50)},
			want: ErrUnknownColumn,
		},
		{
			name: "no timestamp",
			row:  Row{"region": Category("NSW1"), "power": Metric(1)},
			want: ErrNoTimestamp,
		},
		{
			name: "two timestamps",
			row:  Row{"interval": Timestamp(ival1), "settlement": Timestamp(ival2), "region": Category("NSW1")},
			want: ErrNoTimestamp,
		},
		{
			name: "missing grouping value",
			row:  Row{"interval": Timestamp(ival1), "power": Metric(1)},
			want: ErrMissingGrouping,
		},
		{
			name: "grouping holds a metric",
			row:  Row{"interval": Timestamp(ival1), "region": Metric(1)},
			want: ErrBadValue,
		},
		{
			name: "metric holds a category",
			row:  Row{"interval": Timestamp(ival1), "region": Category("NSW1"), "power": Category("high")},
			want: ErrBadValue,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New([]Row{tc.row}, groupings, metrics)
			require.ErrorIs(t, err, tc.want)
		})
	}

	t.Run("inconsistent timestamp column", func(t *testing.T) {
		rows := []Row{
			{"interval": Timestamp(ival1), "region": Category("NSW1")},
			{"settlement": Timestamp(ival2), "region": Category("NSW1")},
		}
		_, err := New(rows, groupings, metrics)
		require.ErrorIs(t, err, ErrNoTimestamp)
	})

	t.Run("duplicate grouping declaration", func(t *testing.T) {
		_, err := New(nil, []string{"region", "region"}, metrics)
		require.Error(t, err)
	})

	t.Run("grouping and metric overlap", func(t *testing.T) {
		_, err := New(nil, []string{"power"}, metrics)
		require.Error(t, err)
	})
}

func TestMissingMetricBecomesNoData(t *testing.T) {
	rows := []Row{
		{"interval": Timestamp(ival1), "region": Category("NSW1"), "power": Metric(5)},
	}
	tbl, err := New(rows, []string{"region"}, map[string]string{"power": "MW", "energy": "MWh"})
	require.NoError(t, err)

	got := tbl.Rows()[0]
	require.Contains(t, got, "energy", "missing metric is stored, not absent")
	require.True(t, got["energy"].IsNoData())
}

func TestNewCopiesInput(t *testing.T) {
	rows := marketRows()
	tbl, err := New(rows, []string{"region", "fueltech"}, map[string]string{"power": "MW", "energy": "MWh"})
	require.NoError(t, err)

	rows[0]["power"] = Metric(-1)
	n, ok := tbl.Rows()[0]["power"].Number()
	require.True(t, ok)
	require.Equal(t, 100.0, n, "mutating the input row must not touch the table")
}

func TestLatestTimestamp(t *testing.T) {
	tbl := marketTable(t)
	latest, ok := tbl.LatestTimestamp()
	require.True(t, ok)
	require.Equal(t, ival3, latest)

	t.Run("empty table returns the sentinel", func(t *testing.T) {
		_, ok := emptyTable(t).LatestTimestamp()
		require.False(t, ok)
	})
}

func TestSelect(t *testing.T) {
	tbl := marketTable(t)

	got, err := tbl.Select("region", "power")
	require.NoError(t, err)

	require.Equal(t, tbl.Len(), got.Len(), "select keeps every row")
	require.Equal(t, []string{"region"}, got.Groupings())
	require.Equal(t, map[string]string{"power": "MW"}, got.Metrics())
	require.Equal(t, "", got.TimeColumn())

	for _, row := range got.Rows() {
		require.Len(t, row, 2)
		require.Contains(t, row, "region")
		require.Contains(t, row, "power")
	}

	t.Run("row order preserved", func(t *testing.T) {
		want := make([]Value, 0, tbl.Len())
		for _, row := range tbl.Rows() {
			want = append(want, row["power"])
		}
		for i, row := range got.Rows() {
			require.True(t, row["power"].Equal(want[i]))
		}
	})

	t.Run("unknown column is a schema error", func(t *testing.T) {
		_, err := tbl.Select("nonexistent")
		require.ErrorIs(t, err, ErrUnknownColumn)
	})

	t.Run("dropping the timestamp drops the latest timestamp", func(t *testing.T) {
		got, err := tbl.Select("region", "power")
		require.NoError(t, err)
		_, ok := got.LatestTimestamp()
		require.False(t, ok)
	})

	t.Run("keeping the timestamp keeps it queryable", func(t *testing.T) {
		got, err := tbl.Select("interval", "power")
		require.NoError(t, err)
		require.Equal(t, "interval", got.TimeColumn())
		latest, ok := got.LatestTimestamp()
		require.True(t, ok)
		require.Equal(t, ival3, latest)
	})
}

func TestDerivedTablesAreIndependent(t *testing.T) {
	tbl := marketTable(t)

	derived, err := tbl.Filter(Eq("region", Category("NSW1")))
	require.NoError(t, err)
	require.Equal(t, 3, derived.Len())

	// The source stays fully queryable and its caches are its own.
	require.Equal(t, 5, tbl.Len())
	require.Equal(t, int64(0), derived.CacheStats().IndexBuilds)

	sorted, err := derived.SortBy([]string{"power"}, true)
	require.NoError(t, err)
	require.Equal(t, 3, sorted.Len())
	require.Equal(t, 3, derived.Len(), "sorting a derivation must not reorder it")
}

func TestRowClone(t *testing.T) {
	row := Row{"region": Category("NSW1")}
	clone := row.Clone()
	clone["region"] = Category("QLD1")

	text, ok := row["region"].Text()
	require.True(t, ok)
	require.Equal(t, "NSW1", text)
}

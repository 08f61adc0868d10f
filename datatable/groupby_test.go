package datatable

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// num unwraps a metric value, failing the test on no-data.
func num(t *testing.T, v Value) float64 {
	t.Helper()
	n, ok := v.Number()
	require.True(t, ok, "expected a metric value holding data")
	return n
}

// rowMatching returns the single row whose category columns hold the
// given texts.
func rowMatching(t *testing.T, tbl *Table, want map[string]string) Row {
	t.Helper()
	for _, row := range tbl.Rows() {
		all := true
		for column, text := range want {
			got, ok := row[column].Text()
			if !ok || got != text {
				all = false
				break
			}
		}
		if all {
			return row
		}
	}
	t.Fatalf("no row matching %v", want)
	return nil
}

func TestGroupBySum(t *testing.T) {
	tbl := marketTable(t)

	got, err := tbl.GroupBy([]string{"region"}, MethodSum)
	require.NoError(t, err)

	require.Equal(t, 2, got.Len())
	require.Equal(t, []string{"region"}, got.Groupings())
	require.Equal(t, map[string]string{"power": "MW", "energy": "MWh"}, got.Metrics())
	require.Equal(t, "", got.TimeColumn(), "the timestamp column survives only when grouped by")

	nsw := rowMatching(t, got, map[string]string{"region": "NSW1"})
	require.Equal(t, 280.0, num(t, nsw["power"]))
	require.Equal(t, 50.0, num(t, nsw["energy"]), "no-data contributes nothing to the sum")

	qld := rowMatching(t, got, map[string]string{"region": "QLD1"})
	require.Equal(t, 150.0, num(t, qld["power"]))
	require.Equal(t, 10.0, num(t, qld["energy"]))

	t.Run("rows hold exactly the grouped columns and the metrics", func(t *testing.T) {
		for _, row := range got.Rows() {
			require.Len(t, row, 3)
		}
	})

	t.Run("first-encounter order", func(t *testing.T) {
		first, ok := got.Rows()[0]["region"].Text()
		require.True(t, ok)
		require.Equal(t, "NSW1", first)
		second, ok := got.Rows()[1]["region"].Text()
		require.True(t, ok)
		require.Equal(t, "QLD1", second)
	})
}

func TestGroupByMean(t *testing.T) {
	tbl := marketTable(t)

	got, err := tbl.GroupBy([]string{"region"}, MethodMean)
	require.NoError(t, err)

	nsw := rowMatching(t, got, map[string]string{"region": "NSW1"})
	require.InDelta(t, 280.0/3, num(t, nsw["power"]), 1e-9)
	require.Equal(t, 25.0, num(t, nsw["energy"]), "no-data is excluded from the denominator")

	qld := rowMatching(t, got, map[string]string{"region": "QLD1"})
	require.Equal(t, 75.0, num(t, qld["power"]))
	require.Equal(t, 10.0, num(t, qld["energy"]))
}

func TestGroupByMultipleColumns(t *testing.T) {
	tbl := marketTable(t)

	got, err := tbl.GroupBy([]string{"region", "fueltech"}, MethodSum)
	require.NoError(t, err)
	require.Equal(t, 4, got.Len())
	require.Equal(t, []string{"region", "fueltech"}, got.Groupings())

	t.Run("a partition with no data yields no-data", func(t *testing.T) {
		row := rowMatching(t, got, map[string]string{"region": "QLD1", "fueltech": "coal_black"})
		require.Equal(t, 110.0, num(t, row["power"]))
		require.True(t, row["energy"].IsNoData())
	})

	t.Run("key tuples appear in first-encounter order", func(t *testing.T) {
		var keys [][2]string
		for _, row := range got.Rows() {
			region, _ := row["region"].Text()
			fueltech, _ := row["fueltech"].Text()
			keys = append(keys, [2]string{region, fueltech})
		}
		require.Equal(t, [][2]string{
			{"NSW1", "coal_black"},
			{"QLD1", "wind"},
			{"NSW1", "wind"},
			{"QLD1", "coal_black"},
		}, keys)
	})

	t.Run("re-grouping a grouped table", func(t *testing.T) {
		regrouped, err := got.GroupBy([]string{"region"}, MethodSum)
		require.NoError(t, err)
		require.Equal(t, 2, regrouped.Len())
		nsw := rowMatching(t, regrouped, map[string]string{"region": "NSW1"})
		require.Equal(t, 280.0, num(t, nsw["power"]))
		require.Equal(t, 50.0, num(t, nsw["energy"]))
	})
}

func TestGroupByTimestampColumn(t *testing.T) {
	tbl := marketTable(t)

	got, err := tbl.GroupBy([]string{"interval"}, MethodSum)
	require.NoError(t, err)

	require.Equal(t, 3, got.Len())
	require.Empty(t, got.Groupings())
	require.Equal(t, "interval", got.TimeColumn())

	latest, ok := got.LatestTimestamp()
	require.True(t, ok)
	require.Equal(t, ival3, latest)

	var powers []float64
	for _, row := range got.Rows() {
		powers = append(powers, num(t, row["power"]))
	}
	require.Equal(t, []float64{140, 170, 120}, powers)
}

func TestGroupByNoColumns(t *testing.T) {
	got, err := marketTable(t).GroupBy(nil, MethodSum)
	require.NoError(t, err)

	require.Equal(t, 1, got.Len(), "grouping by nothing folds the table into one row")
	row := got.Rows()[0]
	require.Len(t, row, 2)
	require.Equal(t, 430.0, num(t, row["power"]))
	require.Equal(t, 60.0, num(t, row["energy"]))
}

func TestGroupByValidation(t *testing.T) {
	tbl := marketTable(t)

	t.Run("metric column", func(t *testing.T) {
		_, err := tbl.GroupBy([]string{"power"}, MethodSum)
		require.ErrorIs(t, err, ErrNotGrouping)
	})

	t.Run("unknown column", func(t *testing.T) {
		_, err := tbl.GroupBy([]string{"nonexistent"}, MethodSum)
		require.ErrorIs(t, err, ErrNotGrouping)
	})

	t.Run("zero method", func(t *testing.T) {
		_, err := tbl.GroupBy([]string{"region"}, Method(0))
		require.ErrorIs(t, err, ErrUnsupportedMethod)
	})

	t.Run("out-of-range method", func(t *testing.T) {
		_, err := tbl.GroupBy([]string{"region"}, Method(7))
		require.ErrorIs(t, err, ErrUnsupportedMethod)
	})
}

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in   string
		want Method
	}{
		{"sum", MethodSum},
		{"SUM", MethodSum},
		{" mean ", MethodMean},
		{"Mean", MethodMean},
	}
	for _, tc := range tests {
		got, err := ParseMethod(tc.in)
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}

	_, err := ParseMethod("median")
	require.ErrorIs(t, err, ErrUnsupportedMethod)
}

func TestMethodString(t *testing.T) {
	require.Equal(t, "sum", MethodSum.String())
	require.Equal(t, "mean", MethodMean.String())
	require.Equal(t, "unknown(7)", Method(7).String())
}

func TestGroupByMemoized(t *testing.T) {
	tbl := marketTable(t)

	first, err := tbl.GroupBy([]string{"region"}, MethodSum)
	require.NoError(t, err)
	second, err := tbl.GroupBy([]string{"region"}, MethodSum)
	require.NoError(t, err)
	require.Same(t, first, second, "a repeated identical call returns the memoized table")

	stats := tbl.CacheStats()
	require.Equal(t, int64(1), stats.GroupByBuilds)
	require.Equal(t, int64(1), stats.GroupByHits)

	t.Run("duplicate columns collapse onto the same entry", func(t *testing.T) {
		third, err := tbl.GroupBy([]string{"region", "region"}, MethodSum)
		require.NoError(t, err)
		require.Same(t, first, third)
	})

	t.Run("a different method is a different entry", func(t *testing.T) {
		mean, err := tbl.GroupBy([]string{"region"}, MethodMean)
		require.NoError(t, err)
		require.NotSame(t, first, mean)
		require.Equal(t, int64(2), tbl.CacheStats().GroupByBuilds)
	})

	t.Run("memoization is per instance", func(t *testing.T) {
		other := marketTable(t)
		got, err := other.GroupBy([]string{"region"}, MethodSum)
		require.NoError(t, err)
		require.NotSame(t, first, got)
	})
}

func TestGroupByConcurrent(t *testing.T) {
	tbl := marketTable(t)

	const callers = 8
	results := make([]*Table, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = tbl.GroupBy([]string{"region"}, MethodSum)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	for _, got := range results[1:] {
		require.Same(t, results[0], got, "concurrent callers observe one published result")
	}
	require.Equal(t, int64(1), tbl.CacheStats().GroupByBuilds, "the result is computed once")
}

func TestGroupByEmptyTable(t *testing.T) {
	got, err := emptyTable(t).GroupBy([]string{"region"}, MethodSum)
	require.NoError(t, err)
	require.Equal(t, 0, got.Len())
	require.Equal(t, []string{"region"}, got.Groupings())
}

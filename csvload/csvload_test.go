package csvload

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gridtable/datatable"
)

const marketCSV = `interval,region,fueltech,power,energy
2024-07-01T00:00:00Z,NSW1,coal_black,100,
2024-07-01T00:00:00Z,QLD1,wind,40,10
2024-07-01T00:05:00Z,NSW1,wind,60,20
`

func marketOptions() Options {
	return Options{
		TimeColumn: "interval",
		Groupings:  []string{"region", "fueltech"},
		Metrics:    map[string]string{"power": "MW", "energy": "MWh"},
	}
}

func TestLoad(t *testing.T) {
	tbl, err := Load(strings.NewReader(marketCSV), marketOptions())
	require.NoError(t, err)

	require.Equal(t, 3, tbl.Len())
	require.Equal(t, "interval", tbl.TimeColumn())
	require.Equal(t, []string{"region", "fueltech"}, tbl.Groupings())
	require.Equal(t, map[string]string{"power": "MW", "energy": "MWh"}, tbl.Metrics())

	rows := tbl.Rows()
	region, ok := rows[0]["region"].Text()
	require.True(t, ok)
	require.Equal(t, "NSW1", region)
	power, ok := rows[0]["power"].Number()
	require.True(t, ok)
	require.Equal(t, 100.0, power)
	require.True(t, rows[0]["energy"].IsNoData(), "empty metric cell should load as no-data")
	energy, ok := rows[1]["energy"].Number()
	require.True(t, ok)
	require.Equal(t, 10.0, energy)

	latest, ok := tbl.LatestTimestamp()
	require.True(t, ok)
	require.True(t, latest.Equal(time.Date(2024, 7, 1, 0, 5, 0, 0, time.UTC)))
}

func TestLoadQuotedCells(t *testing.T) {
	content := "interval,region,power\n" +
		"2024-07-01T00:00:00Z,\"NSW,1\",100\n"
	tbl, err := Load(strings.NewReader(content), Options{
		TimeColumn: "interval",
		Groupings:  []string{"region"},
		Metrics:    map[string]string{"power": "MW"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())
	region, ok := tbl.Rows()[0]["region"].Text()
	require.True(t, ok)
	require.Equal(t, "NSW,1", region)
}

func TestLoadDetectsSeparator(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"comma", "interval,region,power\n2024-07-01T00:00:00Z,NSW1,100\n"},
		{"semicolon", "interval;region;power\n2024-07-01T00:00:00Z;NSW1;100\n"},
		{"tab", "interval\tregion\tpower\n2024-07-01T00:00:00Z\tNSW1\t100\n"},
		{"pipe", "interval|region|power\n2024-07-01T00:00:00Z|NSW1|100\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tbl, err := Load(strings.NewReader(tc.content), Options{
				TimeColumn: "interval",
				Groupings:  []string{"region"},
				Metrics:    map[string]string{"power": "MW"},
			})
			require.NoError(t, err)
			require.Equal(t, 1, tbl.Len())
			power, ok := tbl.Rows()[0]["power"].Number()
			require.True(t, ok)
			require.Equal(t, 100.0, power)
		})
	}
}

func TestDetectSeparator(t *testing.T) {
	cases := []struct {
		header string
		want   rune
	}{
		{"a,b,c", ','},
		{"a;b;c", ';'},
		{"a\tb\tc", '\t'},
		{"a|b|c", '|'},
		{"a", ','},
		{"", ','},
		{"a,b;c", ','},
		{"a;b;c,d", ';'},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, DetectSeparator(tc.header), "header %q", tc.header)
	}
}

func TestLoadCustomTimeLayout(t *testing.T) {
	content := "date,region,power\n2024-07-01 00:05,NSW1,100\n"
	tbl, err := Load(strings.NewReader(content), Options{
		TimeColumn: "date",
		TimeLayout: "2006-01-02 15:04",
		Groupings:  []string{"region"},
		Metrics:    map[string]string{"power": "MW"},
	})
	require.NoError(t, err)

	require.Equal(t, "date", tbl.TimeColumn())
	latest, ok := tbl.LatestTimestamp()
	require.True(t, ok)
	require.True(t, latest.Equal(time.Date(2024, 7, 1, 0, 5, 0, 0, time.UTC)))
}

func TestLoadInfersMetrics(t *testing.T) {
	tbl, err := Load(strings.NewReader(marketCSV), Options{
		TimeColumn: "interval",
		Groupings:  []string{"region", "fueltech"},
	})
	require.NoError(t, err)

	require.Equal(t, map[string]string{"power": "", "energy": ""}, tbl.Metrics())
	power, ok := tbl.Rows()[2]["power"].Number()
	require.True(t, ok)
	require.Equal(t, 60.0, power)
}

func TestLoadErrors(t *testing.T) {
	load := func(content string, opts Options) error {
		_, err := Load(strings.NewReader(content), opts)
		return err
	}

	err := load(marketCSV, Options{})
	require.ErrorContains(t, err, "time column is required")

	err = load("", marketOptions())
	require.ErrorContains(t, err, "no header line")

	err = load("ts,region,power\n", marketOptions())
	require.ErrorContains(t, err, `no column "interval"`)

	err = load("interval,zone,power\n", Options{
		TimeColumn: "interval",
		Groupings:  []string{"region"},
		Metrics:    map[string]string{"power": "MW"},
	})
	require.ErrorContains(t, err, `no column "region"`)

	err = load("interval,region,region\n", marketOptions())
	require.ErrorContains(t, err, `duplicate column "region"`)

	err = load("interval,region,power\nnot-a-time,NSW1,100\n", Options{
		TimeColumn: "interval",
		Groupings:  []string{"region"},
		Metrics:    map[string]string{"power": "MW"},
	})
	require.ErrorContains(t, err, `row 2 column "interval"`)

	err = load("interval,region,power\n2024-07-01T00:00:00Z,NSW1,100\n2024-07-01T00:05:00Z,NSW1,hot\n", Options{
		TimeColumn: "interval",
		Groupings:  []string{"region"},
		Metrics:    map[string]string{"power": "MW"},
	})
	require.ErrorContains(t, err, `row 3 column "power"`)
}

func TestLoadComposesWithEngine(t *testing.T) {
	tbl, err := Load(strings.NewReader(marketCSV), marketOptions())
	require.NoError(t, err)

	grouped, err := tbl.GroupBy([]string{"region"}, datatable.MethodSum)
	require.NoError(t, err)
	require.Equal(t, 2, grouped.Len())

	row := grouped.Rows()[0]
	region, ok := row["region"].Text()
	require.True(t, ok)
	require.Equal(t, "NSW1", region)
	power, ok := row["power"].Number()
	require.True(t, ok)
	require.Equal(t, 160.0, power)
}

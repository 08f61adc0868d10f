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

package datatable

import (
	"math"
	"slices"
)

// Summary holds the descriptive statistics of one metric column,
// computed over the values that hold data. Count is the number of such
// values; every other statistic is a metric value, or no-data when it is
// undefined: all of them when the column has no data at all, and the
// standard deviation additionally when fewer than two values exist.
type Summary struct {
	Column string
	Unit   string
	Count  int
	Mean   Value
	Stddev Value
	Min    Value
	P25    Value
	Median Value
	P75    Value
	Max    Value
}

// Describe computes summary statistics for every metric column, one
// Summary per column in name order: count, mean, sample standard
// deviation (sum of squared deviations divided by count minus one),
// minimum, the 25th, 50th and 75th percentiles, and maximum.
// Percentiles interpolate linearly between order statistics. Describe
// never fails; a column without data reports count zero and no-data
// statistics. Results are not memoized.
func (t *Table) Describe() []Summary {
	out := make([]Summary, 0, len(t.metricNames))
	for _, name := range t.metricNames {
		values := make([]float64, 0, len(t.rows))
		for _, row := range t.rows {
			if n, ok := row[name].Number(); ok {
				values = append(values, n)
			}
		}
		out = append(out, summarize(name, t.metrics[name], values))
	}
	return out
}

func summarize(column, unit string, values []float64) Summary {
	s := Summary{
		Column: column,
		Unit:   unit,
		Count:  len(values),
		Mean:   NoData(),
		Stddev: NoData(),
		Min:    NoData(),
		P25:    NoData(),
		Median: NoData(),
		P75:    NoData(),
		Max:    NoData(),
	}
	if len(values) == 0 {
		return s
	}

	slices.Sort(values)

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	s.Mean = Metric(mean)
	s.Min = Metric(values[0])
	s.Max = Metric(values[len(values)-1])
	s.P25 = Metric(percentile(values, 0.25))
	s.Median = Metric(percentile(values, 0.5))
	s.P75 = Metric(percentile(values, 0.75))

	if len(values) >= 2 {
		var squares float64
		for _, v := range values {
			d := v - mean
			squares += d * d
		}
		s.Stddev = Metric(math.Sqrt(squares / float64(len(values)-1)))
	}
	return s
}

// percentile returns the p-quantile of sorted values using linear
// interpolation: rank = p*(n-1), interpolated between the neighbouring
// order statistics.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

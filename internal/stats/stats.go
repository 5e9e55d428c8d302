// Package stats derives summaries and rating figures from recorded values.
// Every function here is pure.
package stats

import (
	"math"
	"strconv"
)

// Missing marks an absent sample in a value slice.
var Missing = math.NaN()

// AverageOf returns the arithmetic mean of values. ok is false for an empty slice.
func AverageOf(values []float64) (avg float64, ok bool) {
	if len(values) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), true
}

// Summary is the best/avg/latest triple shown next to a chart.
type Summary struct {
	Best   float64
	Avg    float64
	Latest float64
	Count  int
}

// Summarize drops missing (NaN) samples and summarizes the rest.
// Latest is the first valid element: callers order values newest first.
func Summarize(values []float64) (Summary, bool) {
	valid := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return Summary{}, false
	}

	best := valid[0]
	for _, v := range valid[1:] {
		best = math.Max(best, v)
	}
	avg, _ := AverageOf(valid)

	return Summary{
		Best:   best,
		Avg:    avg,
		Latest: valid[0],
		Count:  len(valid),
	}, true
}

// FormattedSummary holds display strings rounded to one decimal place.
type FormattedSummary struct {
	Best   string `json:"best" yaml:"best"`
	Avg    string `json:"avg" yaml:"avg"`
	Latest string `json:"latest" yaml:"latest"`
}

func (s Summary) Format() FormattedSummary {
	return FormattedSummary{
		Best:   formatOneDecimal(s.Best),
		Avg:    formatOneDecimal(s.Avg),
		Latest: formatOneDecimal(s.Latest),
	}
}

func formatOneDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// Round rounds v to the given number of decimal places, half away from zero.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

package dsl

import (
	"fmt"
	"strings"

	"dsl-go/internal/model"
	"dsl-go/internal/preset"
	"dsl-go/internal/query"
	"dsl-go/internal/stats"
)

// Metric names a time series the analytics view can chart.
type Metric string

const (
	MetricRating01  Metric = "rating01"
	MetricMPR       Metric = "mpr"
	MetricCountUp   Metric = "countup"
	MetricDartslive Metric = "dartslive"
)

// metricSources maps session-derived metrics to the block and item they read.
var metricSources = map[Metric]struct {
	activity model.ActivityType
	key      string
}{
	MetricRating01: {preset.Game01, preset.KeyRatingAvg},
	MetricMPR:      {preset.GameCricket, preset.KeyMPRAvg},
	MetricCountUp:  {preset.GameCountUp, preset.KeyScoreAvg},
}

// ParseMetric validates a metric name.
func ParseMetric(s string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := metricSources[m]; ok || m == MetricDartslive {
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown metric %q", ErrInvalidInput, s)
}

// Point is one dated sample of a metric.
type Point struct {
	Date  model.Date `json:"date" yaml:"date"`
	Value float64    `json:"value" yaml:"value"`
}

// Series returns a metric's samples within period, oldest first.
// The dartslive metric reads the manual rating log; the others read blocks.
func (s *DSLService) Series(metric Metric, period model.Period) ([]Point, error) {
	today := s.Today()

	if metric == MetricDartslive {
		history, err := s.ratings.History()
		if err != nil {
			return nil, err
		}
		var points []Point
		for _, h := range history {
			if period.IsAll() || !h.Date.Before(today.AddDays(-period.Days)) {
				points = append(points, Point{Date: h.Date, Value: h.Value})
			}
		}
		return points, nil
	}

	src, ok := metricSources[metric]
	if !ok {
		return nil, fmt.Errorf("%w: unknown metric %q", ErrInvalidInput, metric)
	}

	sessions, err := s.database.ListSessions()
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	sessions = query.FilterByPeriod(sessions, period, today)

	var points []Point
	for i := len(sessions) - 1; i >= 0; i-- {
		session := sessions[i]
		blocks, err := s.database.ListStatBlocksBySession(session.ID)
		if err != nil {
			return nil, fmt.Errorf("loading stat blocks for %s: %w", session.Date, err)
		}
		for _, b := range blocks {
			if b.ActivityType != src.activity {
				continue
			}
			if v, ok := b.NumberValue(src.key); ok {
				points = append(points, Point{Date: session.Date, Value: v})
			}
		}
	}
	return points, nil
}

// Analysis is a metric's series with its summary.
type Analysis struct {
	Metric     Metric
	Period     model.Period
	Points     []Point
	Summary    stats.Summary
	HasSummary bool
}

// Analyze returns the series for metric and its best/avg/latest summary.
// The summary is computed newest first, so Latest is the most recent point.
func (s *DSLService) Analyze(metric Metric, period model.Period) (*Analysis, error) {
	points, err := s.Series(metric, period)
	if err != nil {
		return nil, err
	}

	values := make([]float64, len(points))
	for i, p := range points {
		values[len(points)-1-i] = p.Value
	}
	summary, ok := stats.Summarize(values)

	return &Analysis{
		Metric:     metric,
		Period:     period,
		Points:     points,
		Summary:    summary,
		HasSummary: ok,
	}, nil
}

// DashboardPeriod is the window used for the home-screen averages.
var DashboardPeriod = model.LastDays(30)

// Dashboard is the home-screen overview.
type Dashboard struct {
	Today           model.Date
	Rating01Avg     *float64
	MPRAvg          *float64
	CountUpAvg      *float64
	ActiveDaysMonth int
	Streak          int
	ManualRating    *float64
	Rank            string
	GaugeFraction   float64
	RecentRatingLog []model.RatingPoint
}

// Dashboard gathers the home-screen figures.
func (s *DSLService) Dashboard() (*Dashboard, error) {
	today := s.Today()
	all, err := s.database.ListSessions()
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	samples := map[Metric][]float64{}
	for _, session := range query.FilterByPeriod(all, DashboardPeriod, today) {
		blocks, err := s.database.ListStatBlocksBySession(session.ID)
		if err != nil {
			return nil, fmt.Errorf("loading stat blocks for %s: %w", session.Date, err)
		}
		for metric, src := range metricSources {
			for _, b := range blocks {
				if b.ActivityType != src.activity {
					continue
				}
				// Zero means "not played" on the home screen.
				if v, ok := b.NumberValue(src.key); ok && v != 0 {
					samples[metric] = append(samples[metric], v)
				}
			}
		}
	}

	d := &Dashboard{
		Today:           today,
		Rating01Avg:     averagePtr(samples[MetricRating01]),
		MPRAvg:          averagePtr(samples[MetricMPR]),
		CountUpAvg:      averagePtr(samples[MetricCountUp]),
		ActiveDaysMonth: query.ActiveDaysInMonth(all, today),
		Streak:          query.CalculateStreak(all, today),
		Rank:            stats.NoRank,
	}

	rating, ok, err := s.ratings.ManualRating()
	if err != nil {
		return nil, err
	}
	if ok {
		d.ManualRating = &rating
		d.Rank = stats.RatingToRank(rating)
		d.GaugeFraction = stats.GaugeFraction(rating, stats.MaxRating)
	}

	d.RecentRatingLog, err = s.ratings.HistorySince(today.AddDays(-DashboardPeriod.Days))
	if err != nil {
		return nil, err
	}
	return d, nil
}

func averagePtr(values []float64) *float64 {
	avg, ok := stats.AverageOf(values)
	if !ok {
		return nil
	}
	return &avg
}

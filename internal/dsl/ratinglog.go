package dsl

import (
	"encoding/json"
	"fmt"
	"strconv"

	"dsl-go/internal/model"
	"dsl-go/internal/stats"
)

// MaxRatingHistory caps the number of points kept in the rating log.
const MaxRatingHistory = 90

const (
	settingRatingHistory = "rating_history"
	settingManualRating  = "manual_rating"
)

// RatingLog is the manually entered rating and its per-day history. It is a
// tiny key-value log in Settings and takes no part in entity transactions.
type RatingLog struct {
	settings Settings
	clock    Clock
}

// NewRatingLog creates a RatingLog backed by settings.
func NewRatingLog(settings Settings, clock Clock) *RatingLog {
	return &RatingLog{settings: settings, clock: clock}
}

// History returns every stored point in recording order.
func (l *RatingLog) History() ([]model.RatingPoint, error) {
	raw, ok, err := l.settings.GetSetting(settingRatingHistory)
	if err != nil {
		return nil, fmt.Errorf("reading rating history: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var points []model.RatingPoint
	if err := json.Unmarshal([]byte(raw), &points); err != nil {
		return nil, fmt.Errorf("decoding rating history: %w", err)
	}
	return points, nil
}

// HistorySince returns the points dated on or after cutoff.
func (l *RatingLog) HistorySince(cutoff model.Date) ([]model.RatingPoint, error) {
	points, err := l.History()
	if err != nil {
		return nil, err
	}
	out := points[:0:0]
	for _, p := range points {
		if !p.Date.Before(cutoff) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Record stores value for date. An existing point for the same date is
// overwritten in place; only the newest MaxRatingHistory points are kept.
func (l *RatingLog) Record(date model.Date, value float64) error {
	points, err := l.History()
	if err != nil {
		return err
	}

	replaced := false
	for i := range points {
		if points[i].Date == date {
			points[i].Value = value
			replaced = true
			break
		}
	}
	if !replaced {
		points = append(points, model.RatingPoint{Date: date, Value: value})
	}
	if len(points) > MaxRatingHistory {
		points = points[len(points)-MaxRatingHistory:]
	}

	data, err := json.Marshal(points)
	if err != nil {
		return fmt.Errorf("encoding rating history: %w", err)
	}
	if err := l.settings.SetSetting(settingRatingHistory, string(data)); err != nil {
		return fmt.Errorf("writing rating history: %w", err)
	}
	return nil
}

// SetManualRating stores the current rating and records it for today.
// The rating must lie within [0, stats.MaxRating].
func (l *RatingLog) SetManualRating(rating float64) error {
	if !(rating >= 0 && rating <= stats.MaxRating) {
		return fmt.Errorf("%w: rating %v outside 0-%v", ErrInvalidInput, rating, stats.MaxRating)
	}
	if err := l.settings.SetSetting(settingManualRating, strconv.FormatFloat(rating, 'f', -1, 64)); err != nil {
		return fmt.Errorf("writing manual rating: %w", err)
	}
	return l.Record(Today(l.clock), rating)
}

// ManualRating returns the stored rating; ok is false when none is set.
func (l *RatingLog) ManualRating() (rating float64, ok bool, err error) {
	raw, ok, err := l.settings.GetSetting(settingManualRating)
	if err != nil {
		return 0, false, fmt.Errorf("reading manual rating: %w", err)
	}
	if !ok || raw == "" {
		return 0, false, nil
	}
	rating, err = strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parsing manual rating %q: %w", raw, err)
	}
	return rating, true, nil
}

// ClearManualRating removes the current rating. History is kept.
func (l *RatingLog) ClearManualRating() error {
	if err := l.settings.DeleteSetting(settingManualRating); err != nil {
		return fmt.Errorf("clearing manual rating: %w", err)
	}
	return nil
}

package stats

import (
	"math"
	"testing"
)

func TestRatingToRank(t *testing.T) {
	tests := []struct {
		rating float64
		want   string
	}{
		{18, "SA"},
		{16, "SA"},
		{15.99, "AA"},
		{14, "AA"},
		{10, "A"},
		{9.99, "BB"},
		{8, "BB"},
		{6, "B"},
		{4, "CC"},
		{2, "C"},
		{1.9, NoRank},
		{0, NoRank},
		{-3, NoRank},
	}

	for _, tt := range tests {
		if got := RatingToRank(tt.rating); got != tt.want {
			t.Errorf("RatingToRank(%v) = %q, want %q", tt.rating, got, tt.want)
		}
	}
}

func TestGaugeFraction(t *testing.T) {
	tests := []struct {
		name   string
		rating float64
		max    float64
		want   float64
	}{
		{name: "half", rating: 9, max: 18, want: 0.5},
		{name: "clamped", rating: 20, max: 18, want: 1},
		{name: "zero", rating: 0, max: 18, want: 0},
		{name: "negative", rating: -2, max: 18, want: 0},
		{name: "default max", rating: 4.5, max: 0, want: 0.25},
		{name: "nan", rating: math.NaN(), max: 18, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GaugeFraction(tt.rating, tt.max); got != tt.want {
				t.Errorf("GaugeFraction(%v, %v) = %v, want %v", tt.rating, tt.max, got, tt.want)
			}
		})
	}
}

func TestGaugeArc(t *testing.T) {
	arc, offset := GaugeArc(1)
	wantArc := 2 * math.Pi * 54 * 300 / 360
	if math.Abs(arc-wantArc) > 1e-9 {
		t.Errorf("arcLength = %v, want %v", arc, wantArc)
	}
	if offset != 0 {
		t.Errorf("offset(full) = %v, want 0", offset)
	}

	_, offset = GaugeArc(0)
	if math.Abs(offset-wantArc) > 1e-9 {
		t.Errorf("offset(empty) = %v, want %v", offset, wantArc)
	}
}

func TestRatingEstimators(t *testing.T) {
	if got, ok := Rating01(25); !ok || got != 5 {
		t.Errorf("Rating01(25) = %v, %v, want 5, true", got, ok)
	}
	if got, ok := Rating01(21.37); !ok || got != 4.27 {
		t.Errorf("Rating01(21.37) = %v, %v, want 4.27, true", got, ok)
	}
	if _, ok := Rating01(0); ok {
		t.Error("Rating01(0) ok = true")
	}

	if got, ok := CricketRating(2.1); !ok || got != 5.25 {
		t.Errorf("CricketRating(2.1) = %v, %v, want 5.25, true", got, ok)
	}
	if _, ok := CricketRating(-1); ok {
		t.Error("CricketRating(-1) ok = true")
	}
}

func TestOverallRating(t *testing.T) {
	r01, rc := 5.0, 6.25

	if got, ok := OverallRating(&r01, &rc); !ok || got != 5.63 {
		t.Errorf("OverallRating(both) = %v, %v, want 5.63, true", got, ok)
	}
	if got, ok := OverallRating(&r01, nil); !ok || got != 5 {
		t.Errorf("OverallRating(01 only) = %v, %v, want 5, true", got, ok)
	}
	if got, ok := OverallRating(nil, &rc); !ok || got != 6.25 {
		t.Errorf("OverallRating(cricket only) = %v, %v, want 6.25, true", got, ok)
	}
	if _, ok := OverallRating(nil, nil); ok {
		t.Error("OverallRating(none) ok = true")
	}
}

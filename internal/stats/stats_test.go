package stats

import (
	"math"
	"testing"
)

func TestAverageOf(t *testing.T) {
	if _, ok := AverageOf(nil); ok {
		t.Error("AverageOf(nil) ok = true, want false")
	}
	got, ok := AverageOf([]float64{2, 4, 9})
	if !ok || got != 5 {
		t.Errorf("AverageOf() = %v, %v, want 5, true", got, ok)
	}
}

func TestSummarize(t *testing.T) {
	t.Run("drops missing samples", func(t *testing.T) {
		s, ok := Summarize([]float64{7, 3, 9, Missing})
		if !ok {
			t.Fatal("Summarize() ok = false")
		}
		got := s.Format()
		want := FormattedSummary{Best: "9.0", Avg: "6.3", Latest: "7.0"}
		if got != want {
			t.Errorf("Summarize().Format() = %+v, want %+v", got, want)
		}
		if s.Count != 3 {
			t.Errorf("Count = %d, want 3", s.Count)
		}
	})

	t.Run("latest is first valid element", func(t *testing.T) {
		s, ok := Summarize([]float64{Missing, 4.25, 8})
		if !ok {
			t.Fatal("Summarize() ok = false")
		}
		if s.Latest != 4.25 {
			t.Errorf("Latest = %v, want 4.25", s.Latest)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if _, ok := Summarize(nil); ok {
			t.Error("Summarize(nil) ok = true")
		}
		if _, ok := Summarize([]float64{Missing, math.NaN()}); ok {
			t.Error("Summarize(all missing) ok = true")
		}
	})
}

func TestRound(t *testing.T) {
	tests := []struct {
		v      float64
		places int
		want   float64
	}{
		{v: 4.306, places: 2, want: 4.31},
		{v: 6.3333, places: 1, want: 6.3},
		{v: -1.25, places: 1, want: -1.3},
	}
	for _, tt := range tests {
		if got := Round(tt.v, tt.places); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Round(%v, %d) = %v, want %v", tt.v, tt.places, got, tt.want)
		}
	}
}

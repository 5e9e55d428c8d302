package dsl_test

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"dsl-go/internal/dsl"
	"dsl-go/internal/model"
	"dsl-go/internal/testutil"
)

func TestRatingLog_Record(t *testing.T) {
	t.Run("same date overwrites in place", func(t *testing.T) {
		env := testutil.NewTestEnv(t)
		log := env.Service.Ratings()

		day1 := model.MustParseDate("2024-05-01")
		day2 := model.MustParseDate("2024-05-02")
		for _, rec := range []struct {
			date  model.Date
			value float64
		}{{day1, 5}, {day2, 6}, {day1, 5.5}} {
			if err := log.Record(rec.date, rec.value); err != nil {
				t.Fatalf("Record() error = %v", err)
			}
		}

		got, err := log.History()
		if err != nil {
			t.Fatalf("History() error = %v", err)
		}
		want := []model.RatingPoint{{Date: day1, Value: 5.5}, {Date: day2, Value: 6}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("History() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("keeps the newest points", func(t *testing.T) {
		env := testutil.NewTestEnv(t)
		log := env.Service.Ratings()

		start := model.MustParseDate("2024-01-01")
		for i := 0; i < dsl.MaxRatingHistory+10; i++ {
			if err := log.Record(start.AddDays(i), float64(i)); err != nil {
				t.Fatalf("Record(#%d) error = %v", i, err)
			}
		}

		got, err := log.History()
		if err != nil {
			t.Fatalf("History() error = %v", err)
		}
		if len(got) != dsl.MaxRatingHistory {
			t.Fatalf("History() kept %d points, want %d", len(got), dsl.MaxRatingHistory)
		}
		if got[0].Date != start.AddDays(10) || got[0].Value != 10 {
			t.Errorf("oldest kept point = %+v, want day 10", got[0])
		}
		last := got[len(got)-1]
		if last.Date != start.AddDays(dsl.MaxRatingHistory+9) {
			t.Errorf("newest point = %+v, want day %d", last, dsl.MaxRatingHistory+9)
		}
	})
}

func TestRatingLog_ManualRating(t *testing.T) {
	env := testutil.NewTestEnv(t)
	log := env.Service.Ratings()

	if _, ok, err := log.ManualRating(); err != nil || ok {
		t.Fatalf("ManualRating() on empty store = (ok=%v, err=%v), want unset", ok, err)
	}

	if err := log.SetManualRating(11.27); err != nil {
		t.Fatalf("SetManualRating() error = %v", err)
	}
	rating, ok, err := log.ManualRating()
	if err != nil || !ok || rating != 11.27 {
		t.Errorf("ManualRating() = (%v, %v, %v), want (11.27, true, nil)", rating, ok, err)
	}

	history, err := log.History()
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	want := []model.RatingPoint{{Date: model.MustParseDate("2024-05-15"), Value: 11.27}}
	if diff := cmp.Diff(want, history); diff != "" {
		t.Errorf("History() mismatch (-want +got):\n%s", diff)
	}

	if err := log.ClearManualRating(); err != nil {
		t.Fatalf("ClearManualRating() error = %v", err)
	}
	if _, ok, _ := log.ManualRating(); ok {
		t.Error("ManualRating() still set after clear")
	}
	if history, _ := log.History(); len(history) != 1 {
		t.Errorf("History() after clear = %d points, want 1", len(history))
	}
}

func TestRatingLog_SetManualRatingRange(t *testing.T) {
	tests := []struct {
		name    string
		rating  float64
		wantErr bool
	}{
		{"zero", 0, false},
		{"top of scale", 18, false},
		{"negative", -0.5, true},
		{"above scale", 18.01, true},
		{"not a number", math.NaN(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testutil.NewTestEnv(t)
			err := env.Service.Ratings().SetManualRating(tt.rating)
			if tt.wantErr {
				if !errors.Is(err, dsl.ErrInvalidInput) {
					t.Errorf("SetManualRating(%v) error = %v, want ErrInvalidInput", tt.rating, err)
				}
				return
			}
			if err != nil {
				t.Errorf("SetManualRating(%v) error = %v", tt.rating, err)
			}
		})
	}
}

func TestRatingLog_NotInSnapshot(t *testing.T) {
	env := testutil.NewTestEnv(t)
	startOn(t, env, "2024-05-15")
	if err := env.Service.Ratings().SetManualRating(7); err != nil {
		t.Fatal(err)
	}

	if err := env.Service.ClearAll(); err != nil {
		t.Fatalf("ClearAll() error = %v", err)
	}

	rating, ok, err := env.Service.Ratings().ManualRating()
	if err != nil || !ok || rating != 7 {
		t.Errorf("ManualRating() after ClearAll = (%v, %v, %v), want (7, true, nil)", rating, ok, err)
	}
}

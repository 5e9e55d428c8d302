package dsl_test

import (
	"testing"
	"time"

	"dsl-go/internal/dsl"
	"dsl-go/internal/model"
	"dsl-go/internal/preset"
	"dsl-go/internal/testutil"
)

// startOn moves the clock to the evening of date, starts that day's session
// and restores the clock afterwards.
func startOn(t *testing.T, env *testutil.TestEnv, date string) *dsl.Draft {
	t.Helper()

	restore := env.Clock.Now()
	defer env.Clock.Set(restore)

	d := model.MustParseDate(date)
	env.Clock.Set(time.Date(d.Year, d.Month, d.Day, 20, 0, 0, 0, testutil.JST))

	draft, err := env.Service.StartTodaySession(dsl.SessionDefaults{})
	if err != nil {
		t.Fatalf("StartTodaySession(%s) error = %v", date, err)
	}
	return draft
}

// recordOn starts the session for date with the given 01 rating, cricket MPR
// and count-up score. Empty strings leave the item blank.
func recordOn(t *testing.T, env *testutil.TestEnv, date, rating, mpr, countup string) *dsl.Draft {
	t.Helper()

	draft := startOn(t, env, date)
	values := []struct {
		activity model.ActivityType
		key      string
		raw      string
	}{
		{preset.Game01, preset.KeyRatingAvg, rating},
		{preset.GameCricket, preset.KeyMPRAvg, mpr},
		{preset.GameCountUp, preset.KeyScoreAvg, countup},
	}
	for _, v := range values {
		if v.raw == "" {
			continue
		}
		if err := draft.SetValue(v.activity, v.key, v.raw); err != nil {
			t.Fatalf("SetValue(%s, %s, %q) error = %v", v.activity, v.key, v.raw, err)
		}
	}
	if err := env.Service.SaveDraft(draft); err != nil {
		t.Fatalf("SaveDraft(%s) error = %v", date, err)
	}
	return draft
}

func sessionDates(sessions []*model.Session) []string {
	out := make([]string, len(sessions))
	for i, s := range sessions {
		out[i] = s.Date.String()
	}
	return out
}

func blockTypes(blocks []*model.StatBlock) []model.ActivityType {
	out := make([]model.ActivityType, len(blocks))
	for i, b := range blocks {
		out[i] = b.ActivityType
	}
	return out
}

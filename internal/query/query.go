// Package query narrows session sets by period and game and computes streaks.
package query

import (
	"fmt"

	"dsl-go/internal/model"
)

// StreakLookback is how many days CalculateStreak scans, today included.
const StreakLookback = 365

// AllActivities passes every session through FilterByActivityType.
const AllActivities model.ActivityType = "all"

// BlockLookup returns the stat blocks owned by a session.
type BlockLookup func(sessionID string) ([]*model.StatBlock, error)

// FilterByPeriod keeps sessions dated on or after today minus period.Days.
// The cutoff is computed on calendar dates, not elapsed time.
func FilterByPeriod(sessions []*model.Session, period model.Period, today model.Date) []*model.Session {
	if period.IsAll() {
		return sessions
	}
	cutoff := today.AddDays(-period.Days)

	out := make([]*model.Session, 0, len(sessions))
	for _, s := range sessions {
		if !s.Date.Before(cutoff) {
			out = append(out, s)
		}
	}
	return out
}

// FilterByActivityType keeps sessions that own at least one block of type t.
// AllActivities (or the empty type) passes sessions through untouched.
func FilterByActivityType(sessions []*model.Session, t model.ActivityType, lookup BlockLookup) ([]*model.Session, error) {
	if t == AllActivities || t == "" {
		return sessions, nil
	}

	out := make([]*model.Session, 0, len(sessions))
	for _, s := range sessions {
		blocks, err := lookup(s.ID)
		if err != nil {
			return nil, fmt.Errorf("loading stat blocks for session %s: %w", s.ID, err)
		}
		for _, b := range blocks {
			if b.ActivityType == t {
				out = append(out, s)
				break
			}
		}
	}
	return out, nil
}

// CalculateStreak counts consecutive days with a session, walking back from
// today. A missing today does not end the scan; the first gap after it does.
func CalculateStreak(sessions []*model.Session, today model.Date) int {
	if len(sessions) == 0 {
		return 0
	}
	dates := make(map[model.Date]bool, len(sessions))
	for _, s := range sessions {
		dates[s.Date] = true
	}

	streak := 0
	for i := 0; i < StreakLookback; i++ {
		if dates[today.AddDays(-i)] {
			streak++
		} else if i > 0 {
			break
		}
	}
	return streak
}

// ActiveDaysInMonth counts distinct session dates in today's calendar month.
func ActiveDaysInMonth(sessions []*model.Session, today model.Date) int {
	days := make(map[model.Date]bool)
	for _, s := range sessions {
		if s.Date.SameMonth(today) {
			days[s.Date] = true
		}
	}
	return len(days)
}

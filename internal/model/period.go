package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Period is a relative date range: either all time or the last N days.
type Period struct {
	Days int // 0 means all
}

// AllTime is the unrestricted period.
var AllTime = Period{}

// LastDays returns the period covering today and the n days before it.
func LastDays(n int) Period { return Period{Days: n} }

// ParsePeriod accepts "all" or a positive integer number of days.
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "all") {
		return AllTime, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return Period{}, fmt.Errorf("invalid period %q: want \"all\" or a positive number of days", s)
	}
	return LastDays(n), nil
}

func (p Period) IsAll() bool { return p.Days <= 0 }

func (p Period) String() string {
	if p.IsAll() {
		return "all"
	}
	return strconv.Itoa(p.Days)
}

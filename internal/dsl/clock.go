package dsl

import (
	"time"

	"github.com/google/uuid"

	"dsl-go/internal/model"
)

// Clock abstracts time retrieval so business logic is deterministic in tests.
// The location of the returned time decides what "today" is.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time in Location (time.Local when nil).
type RealClock struct {
	Location *time.Location
}

func (c RealClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// Today returns the calendar date of c.Now().
func Today(c Clock) model.Date {
	return model.DateOf(c.Now())
}

// IDGenerator abstracts unique ID generation so tests are deterministic.
type IDGenerator interface {
	New() string
}

// UUIDGenerator produces random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.New().String() }

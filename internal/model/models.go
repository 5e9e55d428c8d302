package model

import (
	"encoding/json"
	"time"
)

// ActivityType identifies a game in the preset catalog ("01", "CRICKET", ...).
// The empty ActivityType marks an ad hoc block.
type ActivityType string

// BlockKind distinguishes schema-backed blocks. Only PRESET exists today.
type BlockKind string

const KindPreset BlockKind = "PRESET"

// Session is one practice record for a calendar date.
type Session struct {
	ID        string // UUID, immutable
	Date      Date   // immutable after creation; unique across sessions
	Location  string
	Memo      string
	Tags      Tags
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StatBlock holds one activity type's measurements within a Session.
type StatBlock struct {
	ID           string // UUID
	SessionID    string // Foreign key to Session
	Kind         BlockKind
	ActivityType ActivityType // empty for ad hoc blocks
	Items        []Item
	Attachments  []json.RawMessage // opaque, preserved through round trips
}

// Item is a single keyed measurement inside a StatBlock.
type Item struct {
	Key   string
	Label string
	Value Value
	Unit  string
	Note  string
}

// Item returns the item with the given key, or nil.
func (b *StatBlock) Item(key string) *Item {
	for i := range b.Items {
		if b.Items[i].Key == key {
			return &b.Items[i]
		}
	}
	return nil
}

// NumberValue returns the number stored under key, if any.
func (b *StatBlock) NumberValue(key string) (float64, bool) {
	it := b.Item(key)
	if it == nil {
		return 0, false
	}
	return it.Value.Number()
}

// Clone returns a deep copy of b.
func (b *StatBlock) Clone() *StatBlock {
	c := *b
	c.Items = append([]Item(nil), b.Items...)
	c.Attachments = make([]json.RawMessage, len(b.Attachments))
	for i, a := range b.Attachments {
		c.Attachments[i] = append(json.RawMessage(nil), a...)
	}
	return &c
}

// RatingPoint is one entry of the manual rating history.
type RatingPoint struct {
	Date  Date    `json:"date"`
	Value float64 `json:"value"`
}

// Operation is an audit record for a CLI command that mutated the store.
type Operation struct {
	ID         int64
	Operation  string
	Parameters string
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     string // "success" or "error"; empty while running
}

// Package preset holds the static catalog of game schemas used to seed new
// stat blocks. The catalog is never mutated at runtime.
package preset

import (
	"fmt"
	"sort"

	"dsl-go/internal/model"
)

const (
	Game01      model.ActivityType = "01"
	GameCricket model.ActivityType = "CRICKET"
	GameCountUp model.ActivityType = "COUNTUP"
	GameOther   model.ActivityType = "OTHER"
)

// Well-known item keys read by the analytics layer.
const (
	KeyRatingAvg = "Rating_avg"
	KeyRatingMax = "Rating_max"
	KeyMPRAvg    = "MPR_avg"
	KeyMPRMax    = "MPR_max"
	KeyScoreAvg  = "Score_avg"
	KeyScoreMax  = "Score_max"
	KeyNote      = "Note"
)

// Field describes one item of a preset schema.
type Field struct {
	Key       string
	Label     string
	ValueType model.ValueType
	Unit      string
}

// Preset is the schema for one activity type.
type Preset struct {
	Type        model.ActivityType
	DisplayName string
	Icon        string
	Color       string
	Fields      []Field
}

var catalog = map[model.ActivityType]Preset{
	Game01: {
		Type:        Game01,
		DisplayName: "01 GAMES",
		Icon:        "🎯",
		Color:       "#ffaa00",
		Fields: []Field{
			{Key: KeyRatingAvg, Label: "Rating (avg)", ValueType: model.ValueNumber},
			{Key: KeyRatingMax, Label: "Rating (max)", ValueType: model.ValueNumber},
		},
	},
	GameCricket: {
		Type:        GameCricket,
		DisplayName: "CRICKET",
		Icon:        "🦋",
		Color:       "#00ffaa",
		Fields: []Field{
			{Key: KeyMPRAvg, Label: "MPR (avg)", ValueType: model.ValueNumber},
			{Key: KeyMPRMax, Label: "MPR (max)", ValueType: model.ValueNumber},
		},
	},
	GameCountUp: {
		Type:        GameCountUp,
		DisplayName: "COUNT-UP",
		Icon:        "💯",
		Color:       "#ff6688",
		Fields: []Field{
			{Key: KeyScoreAvg, Label: "Score (avg)", ValueType: model.ValueNumber},
			{Key: KeyScoreMax, Label: "Score (max)", ValueType: model.ValueNumber},
		},
	},
	GameOther: {
		Type:        GameOther,
		DisplayName: "OTHER",
		Icon:        "📝",
		Color:       "#888888",
		Fields: []Field{
			{Key: KeyNote, Label: "Memo", ValueType: model.ValueText},
		},
	},
}

// defaults are the games every session editor starts with, in display order.
var defaults = []model.ActivityType{Game01, GameCricket, GameCountUp}

// Lookup returns the preset for t.
func Lookup(t model.ActivityType) (Preset, bool) {
	p, ok := catalog[t]
	if !ok {
		return Preset{}, false
	}
	p.Fields = append([]Field(nil), p.Fields...)
	return p, true
}

// All returns every preset, ordered by Order.
func All() []Preset {
	out := make([]Preset, 0, len(catalog))
	for t := range catalog {
		p, _ := Lookup(t)
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		oi, oj := Order(out[i].Type), Order(out[j].Type)
		if oi != oj {
			return oi < oj
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// Defaults returns the activity types seeded into every new session.
func Defaults() []model.ActivityType {
	return append([]model.ActivityType(nil), defaults...)
}

// Order is the editor sort key: defaults first in catalog order, then the rest.
func Order(t model.ActivityType) int {
	for i, d := range defaults {
		if d == t {
			return i
		}
	}
	return 99
}

// Items returns fresh, empty items following the preset's schema.
func (p Preset) Items() []model.Item {
	items := make([]model.Item, len(p.Fields))
	for i, f := range p.Fields {
		label := f.Label
		if label == "" {
			label = f.Key
		}
		items[i] = model.Item{
			Key:   f.Key,
			Label: label,
			Value: model.EmptyValue(f.ValueType),
			Unit:  f.Unit,
		}
	}
	return items
}

// NewStatBlock returns an unsaved PRESET block for activity type t.
// The caller assigns ID and SessionID.
func NewStatBlock(t model.ActivityType) (*model.StatBlock, error) {
	p, ok := Lookup(t)
	if !ok {
		return nil, fmt.Errorf("unknown activity type: %q", t)
	}
	return &model.StatBlock{
		Kind:         model.KindPreset,
		ActivityType: t,
		Items:        p.Items(),
	}, nil
}

package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// itemJSON is the wire form of an Item. Exactly one of the value_* fields
// may be non-null and it must agree with value_type.
type itemJSON struct {
	Key         string   `json:"key"`
	Label       string   `json:"label"`
	ValueType   string   `json:"value_type"`
	ValueNumber *float64 `json:"value_number"`
	ValueText   *string  `json:"value_text"`
	ValueBool   *bool    `json:"value_bool"`
	Unit        string   `json:"unit"`
	Note        *string  `json:"note"`
}

func (it Item) MarshalJSON() ([]byte, error) {
	w := itemJSON{
		Key:       it.Key,
		Label:     it.Label,
		ValueType: string(it.Value.Type()),
		Unit:      it.Unit,
	}
	if n, ok := it.Value.Number(); ok {
		w.ValueNumber = &n
	}
	if s, ok := it.Value.Text(); ok {
		w.ValueText = &s
	}
	if b, ok := it.Value.Bool(); ok {
		w.ValueBool = &b
	}
	if it.Note != "" {
		w.Note = &it.Note
	}
	return json.Marshal(w)
}

func (it *Item) UnmarshalJSON(data []byte) error {
	var w itemJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Key == "" {
		return errors.New("item key is required")
	}
	vt, err := ParseValueType(w.ValueType)
	if err != nil {
		return fmt.Errorf("item %q: %w", w.Key, err)
	}

	populated := 0
	for _, set := range []bool{w.ValueNumber != nil, w.ValueText != nil, w.ValueBool != nil} {
		if set {
			populated++
		}
	}
	if populated > 1 {
		return fmt.Errorf("item %q: more than one value populated", w.Key)
	}

	v := EmptyValue(vt)
	switch {
	case w.ValueNumber != nil:
		if vt != ValueNumber {
			return fmt.Errorf("item %q: value_number set on %s item", w.Key, vt)
		}
		v = Number(*w.ValueNumber)
	case w.ValueText != nil:
		if vt != ValueText {
			return fmt.Errorf("item %q: value_text set on %s item", w.Key, vt)
		}
		v = Text(*w.ValueText)
	case w.ValueBool != nil:
		if vt != ValueBool {
			return fmt.Errorf("item %q: value_bool set on %s item", w.Key, vt)
		}
		v = Bool(*w.ValueBool)
	}

	*it = Item{Key: w.Key, Label: w.Label, Value: v, Unit: w.Unit}
	if w.Note != nil {
		it.Note = *w.Note
	}
	return nil
}

// ValidateItems checks that item keys are non-empty and unique and that
// numbers are finite.
func ValidateItems(items []Item) error {
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if it.Key == "" {
			return errors.New("item key is required")
		}
		if seen[it.Key] {
			return fmt.Errorf("duplicate item key %q", it.Key)
		}
		if it.Value.Type() == "" {
			return fmt.Errorf("item %q has no value type", it.Key)
		}
		if n, ok := it.Value.Number(); ok && (math.IsNaN(n) || math.IsInf(n, 0)) {
			return fmt.Errorf("item %q: number is not finite", it.Key)
		}
		seen[it.Key] = true
	}
	return nil
}

package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"dsl-go/internal/model"
)

func sampleRecords() ([]*model.Session, []*model.StatBlock) {
	created := time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)
	sessions := []*model.Session{
		{
			ID:        "s-1",
			Date:      model.MustParseDate("2024-06-15"),
			Location:  "Bar Bullseye",
			Memo:      "felt good",
			Tags:      model.NewTags("league", "practice"),
			CreatedAt: created,
			UpdatedAt: created.Add(time.Hour),
		},
		{
			ID:        "s-2",
			Date:      model.MustParseDate("2024-06-14"),
			CreatedAt: created.Add(-24 * time.Hour),
			UpdatedAt: created.Add(-24 * time.Hour),
		},
	}
	blocks := []*model.StatBlock{
		{
			ID:           "b-1",
			SessionID:    "s-1",
			Kind:         model.KindPreset,
			ActivityType: "01",
			Items: []model.Item{
				{Key: "Rating_avg", Label: "Rating (avg)", Value: model.Number(7.5)},
				{Key: "Rating_max", Label: "Rating (max)", Value: model.EmptyValue(model.ValueNumber)},
			},
			Attachments: []json.RawMessage{json.RawMessage(`{"kind":"photo","ref":"x"}`)},
		},
		{
			ID:        "b-2",
			SessionID: "s-2",
			Kind:      model.KindPreset,
			Items: []model.Item{
				{Key: "Note", Value: model.Text("warmup only"), Note: "short"},
				{Key: "Tournament", Value: model.Bool(false)},
			},
		},
	}
	return sessions, blocks
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	sessions, blocks := sampleRecords()
	exportedAt := time.Date(2024, 6, 16, 8, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	if err := Encode(&buf, New(sessions, blocks, exportedAt)); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	doc, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if doc.Version != Version {
		t.Errorf("Version = %d, want %d", doc.Version, Version)
	}
	if !doc.ExportedAt.Equal(exportedAt) {
		t.Errorf("ExportedAt = %v, want %v", doc.ExportedAt, exportedAt)
	}

	gotSessions, gotBlocks := doc.Records()
	opts := cmpopts.EquateEmpty()
	if diff := cmp.Diff(sessions, gotSessions, opts); diff != "" {
		t.Errorf("sessions mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(blocks, gotBlocks, opts); diff != "" {
		t.Errorf("statblocks mismatch (-want +got):\n%s", diff)
	}
}

func TestEncode_FieldNames(t *testing.T) {
	sessions, blocks := sampleRecords()

	var buf bytes.Buffer
	if err := Encode(&buf, New(sessions, blocks, time.Now())); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	out := buf.String()
	for _, field := range []string{
		`"version": 1`, `"exported_at"`, `"sessions"`, `"statblocks"`,
		`"session_id"`, `"date": "2024-06-15"`, `"location"`, `"memo"`, `"tags"`, `"created_at"`, `"updated_at"`,
		`"statblock_id"`, `"type": "PRESET"`, `"game_type": "01"`, `"items"`, `"attachments"`,
		`"value_type": "NUMBER"`, `"value_number": 7.5`, `"value_text": null`, `"value_bool": null`, `"unit"`, `"note"`,
	} {
		if !strings.Contains(out, field) {
			t.Errorf("encoded document missing %s", field)
		}
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "missing arrays", in: `{"foo":1}`},
		{name: "missing statblocks", in: `{"version":1,"sessions":[]}`},
		{name: "null sessions", in: `{"sessions":null,"statblocks":[]}`},
		{name: "sessions not an array", in: `{"sessions":{},"statblocks":[]}`},
		{name: "not json", in: `version: 1`},
		{name: "orphan block", in: `{"sessions":[],"statblocks":[{"statblock_id":"b","session_id":"nope","items":[]}]}`},
		{name: "duplicate date", in: `{"sessions":[
			{"session_id":"a","date":"2024-06-15"},
			{"session_id":"b","date":"2024-06-15"}],"statblocks":[]}`},
		{name: "duplicate session id", in: `{"sessions":[
			{"session_id":"a","date":"2024-06-15"},
			{"session_id":"a","date":"2024-06-16"}],"statblocks":[]}`},
		{name: "bad date", in: `{"sessions":[{"session_id":"a","date":"15/06/2024"}],"statblocks":[]}`},
		{name: "bad item", in: `{"sessions":[{"session_id":"a","date":"2024-06-15"}],
			"statblocks":[{"statblock_id":"b","session_id":"a","items":[{"key":"k","value_type":"TEXT","value_number":3}]}]}`},
		{name: "duplicate item key", in: `{"sessions":[{"session_id":"a","date":"2024-06-15"}],
			"statblocks":[{"statblock_id":"b","session_id":"a","items":[
				{"key":"k","value_type":"NUMBER"},{"key":"k","value_type":"NUMBER"}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.in))
			if !errors.Is(err, ErrInvalidFormat) {
				t.Errorf("Decode() error = %v, want ErrInvalidFormat", err)
			}
		})
	}
}

func TestDecode_AcceptsOtherVersionsAndDefaults(t *testing.T) {
	in := `{"version":7,"sessions":[{"session_id":"a","date":"2024-06-15","location":null,"tags":null}],
		"statblocks":[{"statblock_id":"b","session_id":"a","game_type":null,"items":[]}]}`

	doc, err := Decode(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if doc.Version != 7 {
		t.Errorf("Version = %d, want 7", doc.Version)
	}

	sessions, blocks := doc.Records()
	if sessions[0].Location != "" || len(sessions[0].Tags) != 0 {
		t.Errorf("session = %+v", sessions[0])
	}
	if blocks[0].Kind != model.KindPreset {
		t.Errorf("Kind = %q, want PRESET default", blocks[0].Kind)
	}
	if blocks[0].ActivityType != "" {
		t.Errorf("ActivityType = %q, want empty", blocks[0].ActivityType)
	}
}

package dsl_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"dsl-go/internal/dsl"
	"dsl-go/internal/model"
	"dsl-go/internal/preset"
	"dsl-go/internal/snapshot"
	"dsl-go/internal/testutil"
)

// storeView flattens the store into comparable strings.
type storeView struct {
	Sessions []string
	Blocks   []string
}

func viewOf(t *testing.T, svc *dsl.DSLService) storeView {
	t.Helper()

	sessions, err := svc.ListSessions()
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	blocks, err := svc.ListAllStatBlocks()
	if err != nil {
		t.Fatalf("ListAllStatBlocks() error = %v", err)
	}

	var v storeView
	for _, s := range sessions {
		v.Sessions = append(v.Sessions, strings.Join([]string{s.ID, s.Date.String(), s.Location, s.Memo, strings.Join(s.Tags, ",")}, "|"))
	}
	for _, b := range blocks {
		var items []string
		for _, it := range b.Items {
			items = append(items, it.Key+"="+it.Value.String())
		}
		v.Blocks = append(v.Blocks, strings.Join([]string{b.ID, b.SessionID, string(b.ActivityType), strings.Join(items, ",")}, "|"))
	}
	return v
}

func seedStore(t *testing.T, env *testutil.TestEnv) {
	t.Helper()

	recordOn(t, env, "2024-05-14", "8.5", "2.2", "")
	draft := recordOn(t, env, "2024-05-15", "9", "", "512")
	draft.Session.Location = "Bar Bull"
	draft.Session.Memo = "good night"
	if err := draft.AddTag("league"); err != nil {
		t.Fatal(err)
	}
	if err := draft.AddBlock(preset.GameOther); err != nil {
		t.Fatal(err)
	}
	if err := draft.SetValue(preset.GameOther, preset.KeyNote, "finished on D16"); err != nil {
		t.Fatal(err)
	}
	if err := env.Service.SaveDraft(draft); err != nil {
		t.Fatal(err)
	}
}

func TestExportImport_RoundTrip(t *testing.T) {
	src := testutil.NewTestEnv(t)
	seedStore(t, src)

	var buf bytes.Buffer
	if err := src.Service.Export(&buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	dst := testutil.NewTestEnv(t)
	startOn(t, dst, "2023-01-01") // replaced by the import

	result, err := dst.Service.Import(&buf)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	want := &dsl.ImportResult{Sessions: 2, StatBlocks: 7, Version: snapshot.Version}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Errorf("Import() result mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(viewOf(t, src.Service), viewOf(t, dst.Service)); diff != "" {
		t.Errorf("store after round trip mismatch (-src +dst):\n%s", diff)
	}
}

func TestExport_Document(t *testing.T) {
	env := testutil.NewTestEnv(t)
	seedStore(t, env)

	doc, err := env.Service.ExportDocument()
	if err != nil {
		t.Fatalf("ExportDocument() error = %v", err)
	}
	if doc.Version != snapshot.Version {
		t.Errorf("Version = %d, want %d", doc.Version, snapshot.Version)
	}
	if !doc.ExportedAt.Equal(env.Clock.Now()) {
		t.Errorf("ExportedAt = %v, want %v", doc.ExportedAt, env.Clock.Now())
	}
	if len(doc.Sessions) != 2 || len(doc.StatBlocks) != 7 {
		t.Errorf("document has %d sessions and %d blocks, want 2 and 7", len(doc.Sessions), len(doc.StatBlocks))
	}

	var buf bytes.Buffer
	if err := env.Service.Export(&buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	var generic map[string]any
	if err := json.Unmarshal(buf.Bytes(), &generic); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	for _, key := range []string{"version", "exported_at", "sessions", "statblocks"} {
		if _, ok := generic[key]; !ok {
			t.Errorf("export is missing %q", key)
		}
	}
}

func TestImport_InvalidLeavesStoreUnchanged(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{{{`},
		{"missing statblocks", `{"version": 1, "sessions": []}`},
		{"duplicate session date", `{"version": 1, "sessions": [
			{"session_id": "a", "date": "2024-05-01", "tags": [], "created_at": "2024-05-01T10:00:00Z", "updated_at": "2024-05-01T10:00:00Z"},
			{"session_id": "b", "date": "2024-05-01", "tags": [], "created_at": "2024-05-01T10:00:00Z", "updated_at": "2024-05-01T10:00:00Z"}
		], "statblocks": []}`},
		{"orphan block", `{"version": 1, "sessions": [], "statblocks": [
			{"statblock_id": "x", "session_id": "missing", "type": "PRESET", "game_type": "01", "items": [], "attachments": []}
		]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testutil.NewTestEnv(t)
			seedStore(t, env)
			before := viewOf(t, env.Service)

			_, err := env.Service.ImportBytes([]byte(tt.doc))
			if !errors.Is(err, dsl.ErrInvalidFormat) {
				t.Errorf("ImportBytes() error = %v, want ErrInvalidFormat", err)
			}

			if diff := cmp.Diff(before, viewOf(t, env.Service)); diff != "" {
				t.Errorf("store changed after failed import (-before +after):\n%s", diff)
			}
		})
	}
}

func TestImport_EmptyDocumentClearsStore(t *testing.T) {
	env := testutil.NewTestEnv(t)
	seedStore(t, env)

	result, err := env.Service.ImportBytes([]byte(`{"version": 1, "sessions": [], "statblocks": []}`))
	if err != nil {
		t.Fatalf("ImportBytes() error = %v", err)
	}
	if result.Sessions != 0 || result.StatBlocks != 0 {
		t.Errorf("ImportBytes() = %+v, want zero counts", result)
	}

	sessions, _ := env.Service.ListSessions()
	if len(sessions) != 0 {
		t.Errorf("store still has %d sessions", len(sessions))
	}
}

func TestClearAll(t *testing.T) {
	env := testutil.NewTestEnv(t)
	seedStore(t, env)

	if err := env.Service.ClearAll(); err != nil {
		t.Fatalf("ClearAll() error = %v", err)
	}

	got := viewOf(t, env.Service)
	if len(got.Sessions) != 0 || len(got.Blocks) != 0 {
		t.Errorf("store after ClearAll = %+v, want empty", got)
	}

	// Today's date is free again.
	if _, err := env.Service.GetSessionByDate(model.MustParseDate("2024-05-15")); !errors.Is(err, dsl.ErrNotFound) {
		t.Errorf("GetSessionByDate() error = %v, want ErrNotFound", err)
	}
	if _, err := env.Service.CreateSession(dsl.SessionDefaults{}); err != nil {
		t.Errorf("CreateSession() after ClearAll error = %v", err)
	}
}

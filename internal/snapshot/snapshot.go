// Package snapshot encodes and decodes the versioned backup document:
//
//	{
//	  "version": 1,
//	  "exported_at": "<RFC 3339>",
//	  "sessions":   [{session_id, date, location, memo, tags, created_at, updated_at}],
//	  "statblocks": [{statblock_id, session_id, type, game_type, items, attachments}]
//	}
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"dsl-go/internal/model"
)

// Version is the document version written by Encode.
const Version = 1

// ErrInvalidFormat is returned for documents that cannot be imported.
var ErrInvalidFormat = errors.New("invalid snapshot format")

// Document is the full, denormalized dump of both collections.
type Document struct {
	Version    int               `json:"version"`
	ExportedAt time.Time         `json:"exported_at"`
	Sessions   []SessionRecord   `json:"sessions"`
	StatBlocks []StatBlockRecord `json:"statblocks"`
}

type SessionRecord struct {
	SessionID string     `json:"session_id"`
	Date      model.Date `json:"date"`
	Location  *string    `json:"location"`
	Memo      *string    `json:"memo"`
	Tags      []string   `json:"tags"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type StatBlockRecord struct {
	StatBlockID string            `json:"statblock_id"`
	SessionID   string            `json:"session_id"`
	Type        string            `json:"type"`
	GameType    *string           `json:"game_type"`
	Items       []model.Item      `json:"items"`
	Attachments []json.RawMessage `json:"attachments"`
}

// New builds a document from the store's contents.
func New(sessions []*model.Session, blocks []*model.StatBlock, exportedAt time.Time) *Document {
	doc := &Document{
		Version:    Version,
		ExportedAt: exportedAt.UTC(),
		Sessions:   make([]SessionRecord, len(sessions)),
		StatBlocks: make([]StatBlockRecord, len(blocks)),
	}
	for i, s := range sessions {
		tags := []string(s.Tags)
		if tags == nil {
			tags = []string{}
		}
		doc.Sessions[i] = SessionRecord{
			SessionID: s.ID,
			Date:      s.Date,
			Location:  optional(s.Location),
			Memo:      optional(s.Memo),
			Tags:      tags,
			CreatedAt: s.CreatedAt.UTC(),
			UpdatedAt: s.UpdatedAt.UTC(),
		}
	}
	for i, b := range blocks {
		items := b.Items
		if items == nil {
			items = []model.Item{}
		}
		attachments := b.Attachments
		if attachments == nil {
			attachments = []json.RawMessage{}
		}
		doc.StatBlocks[i] = StatBlockRecord{
			StatBlockID: b.ID,
			SessionID:   b.SessionID,
			Type:        string(b.Kind),
			GameType:    optional(string(b.ActivityType)),
			Items:       items,
			Attachments: attachments,
		}
	}
	return doc
}

// Encode writes doc as indented JSON.
func Encode(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return nil
}

// rawDocument lets Decode tell a missing array from an empty one.
type rawDocument struct {
	Version    *int            `json:"version"`
	ExportedAt *time.Time      `json:"exported_at"`
	Sessions   json.RawMessage `json:"sessions"`
	StatBlocks json.RawMessage `json:"statblocks"`
}

// Decode parses a document and validates every record. Nothing in the
// returned document refers to data outside it. The version number is read
// but not enforced.
func Decode(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if isAbsent(raw.Sessions) || isAbsent(raw.StatBlocks) {
		return nil, fmt.Errorf("%w: sessions and statblocks arrays are required", ErrInvalidFormat)
	}

	doc := &Document{}
	if raw.Version != nil {
		doc.Version = *raw.Version
	}
	if raw.ExportedAt != nil {
		doc.ExportedAt = *raw.ExportedAt
	}
	if err := json.Unmarshal(raw.Sessions, &doc.Sessions); err != nil {
		return nil, fmt.Errorf("%w: sessions: %v", ErrInvalidFormat, err)
	}
	if err := json.Unmarshal(raw.StatBlocks, &doc.StatBlocks); err != nil {
		return nil, fmt.Errorf("%w: statblocks: %v", ErrInvalidFormat, err)
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Validate checks ids, per-date uniqueness, block ownership and item keys.
func (d *Document) Validate() error {
	sessionIDs := make(map[string]bool, len(d.Sessions))
	dates := make(map[model.Date]string, len(d.Sessions))
	for i, s := range d.Sessions {
		if s.SessionID == "" {
			return fmt.Errorf("%w: sessions[%d]: session_id is required", ErrInvalidFormat, i)
		}
		if s.Date.IsZero() {
			return fmt.Errorf("%w: session %s: date is required", ErrInvalidFormat, s.SessionID)
		}
		if sessionIDs[s.SessionID] {
			return fmt.Errorf("%w: duplicate session_id %s", ErrInvalidFormat, s.SessionID)
		}
		if other, ok := dates[s.Date]; ok {
			return fmt.Errorf("%w: sessions %s and %s share date %s", ErrInvalidFormat, other, s.SessionID, s.Date)
		}
		sessionIDs[s.SessionID] = true
		dates[s.Date] = s.SessionID
	}

	blockIDs := make(map[string]bool, len(d.StatBlocks))
	for i, b := range d.StatBlocks {
		if b.StatBlockID == "" {
			return fmt.Errorf("%w: statblocks[%d]: statblock_id is required", ErrInvalidFormat, i)
		}
		if blockIDs[b.StatBlockID] {
			return fmt.Errorf("%w: duplicate statblock_id %s", ErrInvalidFormat, b.StatBlockID)
		}
		if !sessionIDs[b.SessionID] {
			return fmt.Errorf("%w: statblock %s references unknown session %q", ErrInvalidFormat, b.StatBlockID, b.SessionID)
		}
		if err := model.ValidateItems(b.Items); err != nil {
			return fmt.Errorf("%w: statblock %s: %v", ErrInvalidFormat, b.StatBlockID, err)
		}
		blockIDs[b.StatBlockID] = true
	}
	return nil
}

// Records converts the document into store entities, ids preserved.
func (d *Document) Records() ([]*model.Session, []*model.StatBlock) {
	sessions := make([]*model.Session, len(d.Sessions))
	for i, s := range d.Sessions {
		sessions[i] = &model.Session{
			ID:        s.SessionID,
			Date:      s.Date,
			Location:  deref(s.Location),
			Memo:      deref(s.Memo),
			Tags:      model.NewTags(s.Tags...),
			CreatedAt: s.CreatedAt,
			UpdatedAt: s.UpdatedAt,
		}
	}

	blocks := make([]*model.StatBlock, len(d.StatBlocks))
	for i, b := range d.StatBlocks {
		kind := model.BlockKind(b.Type)
		if kind == "" {
			kind = model.KindPreset
		}
		blocks[i] = &model.StatBlock{
			ID:           b.StatBlockID,
			SessionID:    b.SessionID,
			Kind:         kind,
			ActivityType: model.ActivityType(deref(b.GameType)),
			Items:        b.Items,
			Attachments:  compactAll(b.Attachments),
		}
	}
	return sessions, blocks
}

// compactAll strips the indentation Encode adds inside opaque attachments.
func compactAll(raw []json.RawMessage) []json.RawMessage {
	out := make([]json.RawMessage, len(raw))
	for i, r := range raw {
		var buf bytes.Buffer
		if err := json.Compact(&buf, r); err != nil {
			out[i] = r
			continue
		}
		out[i] = buf.Bytes()
	}
	return out
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || trimmed[0] != '['
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package dsl

import (
	"fmt"
	"sort"

	"dsl-go/internal/model"
	"dsl-go/internal/preset"
)

// Draft is an in-memory edit of a session and its blocks. Nothing is
// persisted until SaveDraft.
type Draft struct {
	Session *model.Session
	Blocks  []*model.StatBlock
}

// StartTodaySession creates today's session seeded with the default games.
// The session and its blocks are stored together, so a failed start leaves
// the date free.
func (s *DSLService) StartTodaySession(defaults SessionDefaults) (*Draft, error) {
	draft := &Draft{Session: s.newSession(defaults)}
	if err := draft.ensureDefaults(); err != nil {
		return nil, err
	}
	if err := s.prepareBlocks(draft); err != nil {
		return nil, err
	}

	if err := s.database.CreateSessionWithBlocks(draft.Session, draft.Blocks); err != nil {
		return nil, fmt.Errorf("creating session for %s: %w", draft.Session.Date, err)
	}

	s.logger.Info("session created", "session_id", draft.Session.ID, "date", draft.Session.Date.String(), "blocks", len(draft.Blocks))
	return draft, nil
}

// OpenDraft loads a session for editing. Default games missing from the
// session are added (unsaved) and blocks are sorted into display order.
func (s *DSLService) OpenDraft(sessionID string) (*Draft, error) {
	detail, err := s.GetSessionDetail(sessionID)
	if err != nil {
		return nil, err
	}

	draft := &Draft{Session: detail.Session, Blocks: detail.Blocks}
	if err := draft.ensureDefaults(); err != nil {
		return nil, err
	}
	return draft, nil
}

// SaveDraft persists the draft. Blocks keep their ids across saves; blocks
// without an id get one here and blocks dropped from the draft are deleted.
func (s *DSLService) SaveDraft(d *Draft) error {
	if err := s.prepareBlocks(d); err != nil {
		return err
	}

	d.Session.Tags = model.NewTags(d.Session.Tags...)
	d.Session.UpdatedAt = s.clock.Now().UTC()

	if err := s.database.SaveDraft(d.Session, d.Blocks); err != nil {
		return fmt.Errorf("saving session %s: %w", d.Session.ID, err)
	}

	s.logger.Info("session saved", "session_id", d.Session.ID, "blocks", len(d.Blocks))
	return nil
}

// prepareBlocks validates the draft's blocks and fills in ids, kind and the
// owning session.
func (s *DSLService) prepareBlocks(d *Draft) error {
	for _, b := range d.Blocks {
		if err := model.ValidateItems(b.Items); err != nil {
			return fmt.Errorf("%w: block %s: %v", ErrInvalidInput, b.ActivityType, err)
		}
	}
	for _, b := range d.Blocks {
		if b.ID == "" {
			b.ID = s.idgen.New()
		}
		if b.Kind == "" {
			b.Kind = model.KindPreset
		}
		b.SessionID = d.Session.ID
	}
	return nil
}

func (d *Draft) ensureDefaults() error {
	for _, t := range preset.Defaults() {
		if d.Block(t) != nil {
			continue
		}
		if err := d.AddBlock(t); err != nil {
			return err
		}
	}
	d.sortBlocks()
	return nil
}

func (d *Draft) sortBlocks() {
	sort.SliceStable(d.Blocks, func(i, j int) bool {
		return preset.Order(d.Blocks[i].ActivityType) < preset.Order(d.Blocks[j].ActivityType)
	})
}

// Block returns the first block of activity type t, or nil.
func (d *Draft) Block(t model.ActivityType) *model.StatBlock {
	for _, b := range d.Blocks {
		if b.ActivityType == t {
			return b
		}
	}
	return nil
}

// AddBlock appends a fresh preset block of type t.
func (d *Draft) AddBlock(t model.ActivityType) error {
	block, err := preset.NewStatBlock(t)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	block.SessionID = d.Session.ID
	d.Blocks = append(d.Blocks, block)
	return nil
}

// RemoveBlock drops the block at index i.
func (d *Draft) RemoveBlock(i int) error {
	if i < 0 || i >= len(d.Blocks) {
		return fmt.Errorf("%w: block index %d out of range", ErrInvalidInput, i)
	}
	d.Blocks = append(d.Blocks[:i], d.Blocks[i+1:]...)
	return nil
}

// RemoveBlockByID drops the block with the given id.
func (d *Draft) RemoveBlockByID(id string) error {
	for i, b := range d.Blocks {
		if b.ID == id {
			return d.RemoveBlock(i)
		}
	}
	return fmt.Errorf("stat block %s: %w", id, ErrNotFound)
}

// SetValue parses raw according to the item's type and stores it in the
// first block of type t. An empty raw clears the value.
func (d *Draft) SetValue(t model.ActivityType, key, raw string) error {
	block := d.Block(t)
	if block == nil {
		return fmt.Errorf("no %q block in session: %w", t, ErrNotFound)
	}
	item := block.Item(key)
	if item == nil {
		return fmt.Errorf("no item %q in %q block: %w", key, t, ErrNotFound)
	}

	v, err := model.ParseValue(item.Value.Type(), raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	item.Value = v
	return nil
}

// AddCustomItem appends a user-defined item to the first block of type t.
func (d *Draft) AddCustomItem(t model.ActivityType, key string, vt model.ValueType) error {
	block := d.Block(t)
	if block == nil {
		return fmt.Errorf("no %q block in session: %w", t, ErrNotFound)
	}
	if key == "" {
		return fmt.Errorf("%w: item key is required", ErrInvalidInput)
	}
	if block.Item(key) != nil {
		return fmt.Errorf("%w: item %q already exists", ErrInvalidInput, key)
	}
	block.Items = append(block.Items, model.Item{Key: key, Label: key, Value: model.EmptyValue(vt)})
	return nil
}

// AddTag adds a tag unless already present.
func (d *Draft) AddTag(tag string) error {
	if model.NormalizeTag(tag) == "" {
		return fmt.Errorf("%w: tag is empty", ErrInvalidInput)
	}
	d.Session.Tags = d.Session.Tags.Add(tag)
	return nil
}

// RemoveTag removes a tag if present.
func (d *Draft) RemoveTag(tag string) {
	d.Session.Tags = d.Session.Tags.Remove(tag)
}

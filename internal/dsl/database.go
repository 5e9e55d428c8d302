package dsl

import "dsl-go/internal/model"

// Database provides the entity store for sessions and stat blocks.
// Lookups that miss return ErrNotFound; integrity violations return
// ErrConstraint; persistence failures return a *StorageError.
// Multi-record operations are applied in a single transaction.
type Database interface {
	// Session operations

	// CreateSession inserts a session. Fails with ErrConstraint when a
	// session already exists for s.Date.
	CreateSession(s *model.Session) error

	// CreateSessionWithBlocks inserts a session and its blocks in one
	// transaction. Nothing is stored when any insert fails.
	CreateSessionWithBlocks(s *model.Session, blocks []*model.StatBlock) error

	// GetSession returns the session with the given id.
	GetSession(id string) (*model.Session, error)

	// GetSessionByDate returns the only session on date.
	GetSessionByDate(date model.Date) (*model.Session, error)

	// ListSessions returns all sessions, newest date first, ties in insertion order.
	ListSessions() ([]*model.Session, error)

	// UpdateSession replaces the mutable fields (location, memo, tags, updated_at).
	UpdateSession(s *model.Session) error

	// DeleteSession removes the session and every stat block it owns.
	DeleteSession(id string) error

	// StatBlock operations

	// CreateStatBlock inserts a block. Fails with ErrNotFound when the owning
	// session does not exist.
	CreateStatBlock(b *model.StatBlock) error

	// GetStatBlock returns the block with the given id.
	GetStatBlock(id string) (*model.StatBlock, error)

	// ListStatBlocksBySession returns a session's blocks in insertion order.
	ListStatBlocksBySession(sessionID string) ([]*model.StatBlock, error)

	// ListAllStatBlocks returns every block, grouped by session insertion order.
	ListAllStatBlocks() ([]*model.StatBlock, error)

	// UpdateStatBlock replaces a block's kind, activity type, items and attachments.
	UpdateStatBlock(b *model.StatBlock) error

	// DeleteStatBlock removes a single block.
	DeleteStatBlock(id string) error

	// SaveDraft updates the session and makes blocks the complete set it
	// owns: known ids are updated, new ids inserted, the rest deleted.
	SaveDraft(s *model.Session, blocks []*model.StatBlock) error

	// Bulk operations

	// ClearAll empties both collections.
	ClearAll() error

	// ReplaceAll swaps the whole data set for the given records. On failure
	// the previous contents are left untouched.
	ReplaceAll(sessions []*model.Session, blocks []*model.StatBlock) error

	// Operation tracking

	CreateOperation(operation, parameters string) (*model.Operation, error)
	FinishOperation(id int64, status string) error
	ListOperations(limit int) ([]*model.Operation, error)
	MaxOperationID() (int64, error)

	// CheckMigrations verifies the schema is at the latest version.
	CheckMigrations() error

	// Close closes the database connection.
	Close() error
}

// Settings is a small string key-value store kept outside the entity
// transactions and outside snapshots.
type Settings interface {
	// GetSetting returns the stored value; ok is false when the key is unset.
	GetSetting(key string) (value string, ok bool, err error)
	SetSetting(key, value string) error
	DeleteSetting(key string) error
}

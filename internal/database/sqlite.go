package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"dsl-go/internal/database/migrations"
	"dsl-go/internal/dsl"
	"dsl-go/internal/model"
)

// SQLiteDatabase implements dsl.Database and dsl.Settings using SQLite.
type SQLiteDatabase struct {
	db      *sql.DB
	queries *Queries
	path    string
}

// NewSQLiteDatabase opens the database at path and applies any pending
// migrations. path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return &SQLiteDatabase{
		db:      db,
		queries: newQueries(db),
		path:    path,
	}, nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB) *SQLiteDatabase {
	return &SQLiteDatabase{
		db:      db,
		queries: newQueries(db),
		path:    "",
	}
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// This is exported for use in tools and tests that need a properly configured SQLite connection.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// PRAGMAs and ":memory:" databases are per connection; keep exactly one.
	db.SetMaxOpenConns(1)

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// Session operations

func (s *SQLiteDatabase) CreateSession(session *model.Session) error {
	row, err := toSessionRow(session)
	if err != nil {
		return err
	}
	if err := s.queries.InsertSession(context.Background(), row); err != nil {
		return mapError("creating session", err)
	}
	return nil
}

func (s *SQLiteDatabase) CreateSessionWithBlocks(session *model.Session, blocks []*model.StatBlock) error {
	row, err := toSessionRow(session)
	if err != nil {
		return err
	}
	return s.inTx("creating session", func(ctx context.Context, qtx *Queries) error {
		if err := qtx.InsertSession(ctx, row); err != nil {
			return mapError("creating session", err)
		}
		for _, block := range blocks {
			if err := createStatBlockTx(ctx, qtx, block); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLiteDatabase) GetSession(id string) (*model.Session, error) {
	row, err := s.queries.GetSessionByID(context.Background(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session %s: %w", id, dsl.ErrNotFound)
		}
		return nil, mapError("finding session", err)
	}
	return fromSessionRow(row)
}

func (s *SQLiteDatabase) GetSessionByDate(date model.Date) (*model.Session, error) {
	row, err := s.queries.GetSessionByDate(context.Background(), date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session on %s: %w", date, dsl.ErrNotFound)
		}
		return nil, mapError("finding session by date", err)
	}
	return fromSessionRow(row)
}

func (s *SQLiteDatabase) ListSessions() ([]*model.Session, error) {
	rows, err := s.queries.ListSessions(context.Background())
	if err != nil {
		return nil, mapError("listing sessions", err)
	}

	result := make([]*model.Session, len(rows))
	for i := range rows {
		if result[i], err = fromSessionRow(rows[i]); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *SQLiteDatabase) UpdateSession(session *model.Session) error {
	return s.updateSession(context.Background(), s.queries, session)
}

func (s *SQLiteDatabase) updateSession(ctx context.Context, q *Queries, session *model.Session) error {
	row, err := toSessionRow(session)
	if err != nil {
		return err
	}
	n, err := q.UpdateSession(ctx, row)
	if err != nil {
		return mapError("updating session", err)
	}
	if n == 0 {
		return fmt.Errorf("session %s: %w", session.ID, dsl.ErrNotFound)
	}
	return nil
}

// DeleteSession removes the session's blocks and then the session in one transaction.
func (s *SQLiteDatabase) DeleteSession(id string) error {
	return s.inTx("deleting session", func(ctx context.Context, qtx *Queries) error {
		if err := qtx.DeleteStatBlocksBySessionID(ctx, id); err != nil {
			return mapError("deleting stat blocks", err)
		}
		n, err := qtx.DeleteSessionByID(ctx, id)
		if err != nil {
			return mapError("deleting session", err)
		}
		if n == 0 {
			return fmt.Errorf("session %s: %w", id, dsl.ErrNotFound)
		}
		return nil
	})
}

// StatBlock operations

func (s *SQLiteDatabase) CreateStatBlock(block *model.StatBlock) error {
	return s.inTx("creating stat block", func(ctx context.Context, qtx *Queries) error {
		return createStatBlockTx(ctx, qtx, block)
	})
}

// createStatBlockTx checks the owning session first so a missing session is
// reported as ErrNotFound rather than a foreign key failure.
func createStatBlockTx(ctx context.Context, q *Queries, block *model.StatBlock) error {
	if _, err := q.GetSessionByID(ctx, block.SessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("session %s: %w", block.SessionID, dsl.ErrNotFound)
		}
		return mapError("finding session", err)
	}

	row, err := toStatBlockRow(block)
	if err != nil {
		return err
	}
	if err := q.InsertStatBlock(ctx, row); err != nil {
		return mapError("inserting stat block", err)
	}
	return nil
}

func (s *SQLiteDatabase) GetStatBlock(id string) (*model.StatBlock, error) {
	row, err := s.queries.GetStatBlockByID(context.Background(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("stat block %s: %w", id, dsl.ErrNotFound)
		}
		return nil, mapError("finding stat block", err)
	}
	return fromStatBlockRow(row)
}

func (s *SQLiteDatabase) ListStatBlocksBySession(sessionID string) ([]*model.StatBlock, error) {
	rows, err := s.queries.GetStatBlocksBySessionID(context.Background(), sessionID)
	if err != nil {
		return nil, mapError("listing stat blocks", err)
	}
	return fromStatBlockRows(rows)
}

func (s *SQLiteDatabase) ListAllStatBlocks() ([]*model.StatBlock, error) {
	rows, err := s.queries.ListAllStatBlocks(context.Background())
	if err != nil {
		return nil, mapError("listing stat blocks", err)
	}
	return fromStatBlockRows(rows)
}

func (s *SQLiteDatabase) UpdateStatBlock(block *model.StatBlock) error {
	row, err := toStatBlockRow(block)
	if err != nil {
		return err
	}
	n, err := s.queries.UpdateStatBlock(context.Background(), row)
	if err != nil {
		return mapError("updating stat block", err)
	}
	if n == 0 {
		return fmt.Errorf("stat block %s: %w", block.ID, dsl.ErrNotFound)
	}
	return nil
}

func (s *SQLiteDatabase) DeleteStatBlock(id string) error {
	n, err := s.queries.DeleteStatBlockByID(context.Background(), id)
	if err != nil {
		return mapError("deleting stat block", err)
	}
	if n == 0 {
		return fmt.Errorf("stat block %s: %w", id, dsl.ErrNotFound)
	}
	return nil
}

// SaveDraft atomically writes an edited session:
// 1. Updates the session's mutable fields.
// 2. Updates blocks whose id is already stored for this session.
// 3. Inserts the remaining blocks.
// 4. Deletes stored blocks that are no longer part of the draft.
func (s *SQLiteDatabase) SaveDraft(session *model.Session, blocks []*model.StatBlock) error {
	return s.inTx("saving session", func(ctx context.Context, qtx *Queries) error {
		if err := s.updateSession(ctx, qtx, session); err != nil {
			return err
		}

		stored, err := qtx.GetStatBlocksBySessionID(ctx, session.ID)
		if err != nil {
			return mapError("listing stat blocks", err)
		}
		existing := make(map[string]bool, len(stored))
		for _, r := range stored {
			existing[r.ID] = true
		}

		keep := make(map[string]bool, len(blocks))
		for _, b := range blocks {
			if b.SessionID != session.ID {
				return fmt.Errorf("%w: stat block %s belongs to session %s", dsl.ErrConstraint, b.ID, b.SessionID)
			}
			keep[b.ID] = true

			if existing[b.ID] {
				row, err := toStatBlockRow(b)
				if err != nil {
					return err
				}
				if _, err := qtx.UpdateStatBlock(ctx, row); err != nil {
					return mapError("updating stat block", err)
				}
				continue
			}
			if err := createStatBlockTx(ctx, qtx, b); err != nil {
				return err
			}
		}

		for _, r := range stored {
			if keep[r.ID] {
				continue
			}
			if _, err := qtx.DeleteStatBlockByID(ctx, r.ID); err != nil {
				return mapError("deleting stat block", err)
			}
		}
		return nil
	})
}

// Bulk operations

func (s *SQLiteDatabase) ClearAll() error {
	return s.inTx("clearing data", clearAll)
}

func clearAll(ctx context.Context, qtx *Queries) error {
	if err := qtx.DeleteAllStatBlocks(ctx); err != nil {
		return mapError("deleting stat blocks", err)
	}
	if err := qtx.DeleteAllSessions(ctx); err != nil {
		return mapError("deleting sessions", err)
	}
	return nil
}

// ReplaceAll clears both tables and inserts the given records in one
// transaction. Any failure rolls back to the previous contents.
func (s *SQLiteDatabase) ReplaceAll(sessions []*model.Session, blocks []*model.StatBlock) error {
	return s.inTx("replacing data", func(ctx context.Context, qtx *Queries) error {
		if err := clearAll(ctx, qtx); err != nil {
			return err
		}
		for _, session := range sessions {
			row, err := toSessionRow(session)
			if err != nil {
				return err
			}
			if err := qtx.InsertSession(ctx, row); err != nil {
				return mapError(fmt.Sprintf("inserting session %s", session.ID), err)
			}
		}
		for _, b := range blocks {
			if err := createStatBlockTx(ctx, qtx, b); err != nil {
				return err
			}
		}
		return nil
	})
}

// Settings

func (s *SQLiteDatabase) GetSetting(key string) (string, bool, error) {
	value, err := s.queries.GetSetting(context.Background(), key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, mapError("reading setting", err)
	}
	return value, true, nil
}

func (s *SQLiteDatabase) SetSetting(key, value string) error {
	if err := s.queries.UpsertSetting(context.Background(), key, value); err != nil {
		return mapError("writing setting", err)
	}
	return nil
}

func (s *SQLiteDatabase) DeleteSetting(key string) error {
	if err := s.queries.DeleteSetting(context.Background(), key); err != nil {
		return mapError("deleting setting", err)
	}
	return nil
}

// Operation tracking

func (s *SQLiteDatabase) CreateOperation(operation string, parameters string) (*model.Operation, error) {
	ctx := context.Background()
	id, err := s.queries.InsertOperation(ctx, operation, parameters, time.Now().UTC())
	if err != nil {
		return nil, mapError("creating operation", err)
	}
	row, err := s.queries.GetOperationByID(ctx, id)
	if err != nil {
		return nil, mapError("reading operation", err)
	}
	return fromOperationRow(row), nil
}

func (s *SQLiteDatabase) FinishOperation(id int64, status string) error {
	n, err := s.queries.UpdateOperationFinished(context.Background(), id, time.Now().UTC(), status)
	if err != nil {
		return mapError("finishing operation", err)
	}
	if n == 0 {
		return fmt.Errorf("operation %d: %w", id, dsl.ErrNotFound)
	}
	return nil
}

func (s *SQLiteDatabase) ListOperations(limit int) ([]*model.Operation, error) {
	rows, err := s.queries.GetOperations(context.Background(), int64(limit))
	if err != nil {
		return nil, mapError("listing operations", err)
	}

	result := make([]*model.Operation, len(rows))
	for i := range rows {
		result[i] = fromOperationRow(rows[i])
	}
	return result, nil
}

func (s *SQLiteDatabase) MaxOperationID() (int64, error) {
	id, err := s.queries.GetMaxOperationID(context.Background())
	if err != nil {
		return 0, mapError("getting max operation ID", err)
	}
	return id, nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// inTx runs fn inside a transaction, committing only when fn succeeds.
func (s *SQLiteDatabase) inTx(op string, fn func(ctx context.Context, qtx *Queries) error) error {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &dsl.StorageError{Op: op, Err: fmt.Errorf("starting transaction: %w", err)}
	}
	defer tx.Rollback()

	if err := fn(ctx, s.queries.WithTx(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return &dsl.StorageError{Op: op, Err: fmt.Errorf("committing transaction: %w", err)}
	}
	return nil
}

// mapError translates driver errors into the dsl error sentinels.
func mapError(op string, err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%s: %w: %v", op, dsl.ErrConstraint, err)
	}
	return &dsl.StorageError{Op: op, Err: err}
}

// Row conversion

func toSessionRow(session *model.Session) (sessionRow, error) {
	tags := session.Tags
	if tags == nil {
		tags = model.Tags{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return sessionRow{}, fmt.Errorf("encoding tags: %w", err)
	}
	return sessionRow{
		ID:        session.ID,
		Date:      session.Date,
		Location:  session.Location,
		Memo:      session.Memo,
		Tags:      string(data),
		CreatedAt: session.CreatedAt.UTC(),
		UpdatedAt: session.UpdatedAt.UTC(),
	}, nil
}

func fromSessionRow(row sessionRow) (*model.Session, error) {
	var tags model.Tags
	if err := json.Unmarshal([]byte(row.Tags), &tags); err != nil {
		return nil, &dsl.StorageError{Op: "decoding tags", Err: err}
	}
	return &model.Session{
		ID:        row.ID,
		Date:      row.Date,
		Location:  row.Location,
		Memo:      row.Memo,
		Tags:      tags,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}, nil
}

func toStatBlockRow(block *model.StatBlock) (statBlockRow, error) {
	items := block.Items
	if items == nil {
		items = []model.Item{}
	}
	itemData, err := json.Marshal(items)
	if err != nil {
		return statBlockRow{}, fmt.Errorf("encoding items: %w", err)
	}

	attachments := block.Attachments
	if attachments == nil {
		attachments = []json.RawMessage{}
	}
	attachmentData, err := json.Marshal(attachments)
	if err != nil {
		return statBlockRow{}, fmt.Errorf("encoding attachments: %w", err)
	}

	kind := block.Kind
	if kind == "" {
		kind = model.KindPreset
	}

	return statBlockRow{
		ID:           block.ID,
		SessionID:    block.SessionID,
		Kind:         string(kind),
		ActivityType: string(block.ActivityType),
		Items:        string(itemData),
		Attachments:  string(attachmentData),
	}, nil
}

func fromStatBlockRow(row statBlockRow) (*model.StatBlock, error) {
	var items []model.Item
	if err := json.Unmarshal([]byte(row.Items), &items); err != nil {
		return nil, &dsl.StorageError{Op: "decoding items", Err: err}
	}
	var attachments []json.RawMessage
	if err := json.Unmarshal([]byte(row.Attachments), &attachments); err != nil {
		return nil, &dsl.StorageError{Op: "decoding attachments", Err: err}
	}
	return &model.StatBlock{
		ID:           row.ID,
		SessionID:    row.SessionID,
		Kind:         model.BlockKind(row.Kind),
		ActivityType: model.ActivityType(row.ActivityType),
		Items:        items,
		Attachments:  attachments,
	}, nil
}

func fromStatBlockRows(rows []statBlockRow) ([]*model.StatBlock, error) {
	result := make([]*model.StatBlock, len(rows))
	for i := range rows {
		b, err := fromStatBlockRow(rows[i])
		if err != nil {
			return nil, err
		}
		result[i] = b
	}
	return result, nil
}

func fromOperationRow(row operationRow) *model.Operation {
	op := &model.Operation{
		ID:         row.ID,
		Operation:  row.Operation,
		Parameters: row.Parameters,
		StartedAt:  row.StartedAt.UTC(),
		Status:     row.Status,
	}
	if row.FinishedAt.Valid {
		t := row.FinishedAt.Time.UTC()
		op.FinishedAt = &t
	}
	return op
}

// Compile-time checks that SQLiteDatabase implements the dsl interfaces.
var (
	_ dsl.Database = (*SQLiteDatabase)(nil)
	_ dsl.Settings = (*SQLiteDatabase)(nil)
)

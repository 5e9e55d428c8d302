package database

import (
	"context"
	"database/sql"
	"time"

	"dsl-go/internal/model"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries holds the SQL statements used by SQLiteDatabase. Each method maps
// to one statement; JSON columns are passed through as text.
type Queries struct {
	db DBTX
}

func newQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries bound to tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type sessionRow struct {
	ID        string
	Date      model.Date
	Location  string
	Memo      string
	Tags      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type statBlockRow struct {
	ID           string
	SessionID    string
	Kind         string
	ActivityType string
	Items        string
	Attachments  string
}

type operationRow struct {
	ID         int64
	Operation  string
	Parameters string
	StartedAt  time.Time
	FinishedAt sql.NullTime
	Status     string
}

const sessionColumns = `id, date, location, memo, tags, created_at, updated_at`

func scanSession(row interface{ Scan(...any) error }) (sessionRow, error) {
	var r sessionRow
	err := row.Scan(&r.ID, &r.Date, &r.Location, &r.Memo, &r.Tags, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

const insertSession = `INSERT INTO sessions (` + sessionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertSession(ctx context.Context, r sessionRow) error {
	_, err := q.db.ExecContext(ctx, insertSession, r.ID, r.Date, r.Location, r.Memo, r.Tags, r.CreatedAt, r.UpdatedAt)
	return err
}

const getSessionByID = `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ?`

func (q *Queries) GetSessionByID(ctx context.Context, id string) (sessionRow, error) {
	return scanSession(q.db.QueryRowContext(ctx, getSessionByID, id))
}

const getSessionByDate = `SELECT ` + sessionColumns + ` FROM sessions WHERE date = ?`

func (q *Queries) GetSessionByDate(ctx context.Context, date model.Date) (sessionRow, error) {
	return scanSession(q.db.QueryRowContext(ctx, getSessionByDate, date))
}

const listSessions = `SELECT ` + sessionColumns + ` FROM sessions ORDER BY date DESC, rowid ASC`

func (q *Queries) ListSessions(ctx context.Context) ([]sessionRow, error) {
	rows, err := q.db.QueryContext(ctx, listSessions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []sessionRow
	for rows.Next() {
		r, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateSession = `UPDATE sessions SET location = ?, memo = ?, tags = ?, updated_at = ? WHERE id = ?`

func (q *Queries) UpdateSession(ctx context.Context, r sessionRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateSession, r.Location, r.Memo, r.Tags, r.UpdatedAt, r.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteSessionByID = `DELETE FROM sessions WHERE id = ?`

func (q *Queries) DeleteSessionByID(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteSessionByID, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteAllSessions = `DELETE FROM sessions`

func (q *Queries) DeleteAllSessions(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllSessions)
	return err
}

const statBlockColumns = `id, session_id, kind, activity_type, items, attachments`

func scanStatBlock(row interface{ Scan(...any) error }) (statBlockRow, error) {
	var r statBlockRow
	err := row.Scan(&r.ID, &r.SessionID, &r.Kind, &r.ActivityType, &r.Items, &r.Attachments)
	return r, err
}

const insertStatBlock = `INSERT INTO statblocks (` + statBlockColumns + `) VALUES (?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertStatBlock(ctx context.Context, r statBlockRow) error {
	_, err := q.db.ExecContext(ctx, insertStatBlock, r.ID, r.SessionID, r.Kind, r.ActivityType, r.Items, r.Attachments)
	return err
}

const getStatBlockByID = `SELECT ` + statBlockColumns + ` FROM statblocks WHERE id = ?`

func (q *Queries) GetStatBlockByID(ctx context.Context, id string) (statBlockRow, error) {
	return scanStatBlock(q.db.QueryRowContext(ctx, getStatBlockByID, id))
}

const getStatBlocksBySessionID = `SELECT ` + statBlockColumns + ` FROM statblocks WHERE session_id = ? ORDER BY rowid ASC`

func (q *Queries) GetStatBlocksBySessionID(ctx context.Context, sessionID string) ([]statBlockRow, error) {
	return q.listStatBlocks(ctx, getStatBlocksBySessionID, sessionID)
}

const listAllStatBlocks = `SELECT b.id, b.session_id, b.kind, b.activity_type, b.items, b.attachments
FROM statblocks b JOIN sessions s ON s.id = b.session_id
ORDER BY s.date DESC, s.rowid ASC, b.rowid ASC`

func (q *Queries) ListAllStatBlocks(ctx context.Context) ([]statBlockRow, error) {
	return q.listStatBlocks(ctx, listAllStatBlocks)
}

func (q *Queries) listStatBlocks(ctx context.Context, query string, args ...any) ([]statBlockRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []statBlockRow
	for rows.Next() {
		r, err := scanStatBlock(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateStatBlock = `UPDATE statblocks SET kind = ?, activity_type = ?, items = ?, attachments = ? WHERE id = ?`

func (q *Queries) UpdateStatBlock(ctx context.Context, r statBlockRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateStatBlock, r.Kind, r.ActivityType, r.Items, r.Attachments, r.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteStatBlockByID = `DELETE FROM statblocks WHERE id = ?`

func (q *Queries) DeleteStatBlockByID(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteStatBlockByID, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteStatBlocksBySessionID = `DELETE FROM statblocks WHERE session_id = ?`

func (q *Queries) DeleteStatBlocksBySessionID(ctx context.Context, sessionID string) error {
	_, err := q.db.ExecContext(ctx, deleteStatBlocksBySessionID, sessionID)
	return err
}

const deleteAllStatBlocks = `DELETE FROM statblocks`

func (q *Queries) DeleteAllStatBlocks(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllStatBlocks)
	return err
}

const getSetting = `SELECT value FROM settings WHERE key = ?`

func (q *Queries) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := q.db.QueryRowContext(ctx, getSetting, key).Scan(&value)
	return value, err
}

const upsertSetting = `INSERT INTO settings (key, value) VALUES (?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value`

func (q *Queries) UpsertSetting(ctx context.Context, key, value string) error {
	_, err := q.db.ExecContext(ctx, upsertSetting, key, value)
	return err
}

const deleteSetting = `DELETE FROM settings WHERE key = ?`

func (q *Queries) DeleteSetting(ctx context.Context, key string) error {
	_, err := q.db.ExecContext(ctx, deleteSetting, key)
	return err
}

const operationColumns = `id, operation, parameters, started_at, finished_at, status`

func scanOperation(row interface{ Scan(...any) error }) (operationRow, error) {
	var r operationRow
	err := row.Scan(&r.ID, &r.Operation, &r.Parameters, &r.StartedAt, &r.FinishedAt, &r.Status)
	return r, err
}

const insertOperation = `INSERT INTO operations (operation, parameters, started_at) VALUES (?, ?, ?)`

func (q *Queries) InsertOperation(ctx context.Context, operation, parameters string, startedAt time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertOperation, operation, parameters, startedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const getOperationByID = `SELECT ` + operationColumns + ` FROM operations WHERE id = ?`

func (q *Queries) GetOperationByID(ctx context.Context, id int64) (operationRow, error) {
	return scanOperation(q.db.QueryRowContext(ctx, getOperationByID, id))
}

const updateOperationFinished = `UPDATE operations SET finished_at = ?, status = ? WHERE id = ?`

func (q *Queries) UpdateOperationFinished(ctx context.Context, id int64, finishedAt time.Time, status string) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateOperationFinished, finishedAt, status, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getOperations = `SELECT ` + operationColumns + ` FROM operations ORDER BY id DESC LIMIT ?`

func (q *Queries) GetOperations(ctx context.Context, limit int64) ([]operationRow, error) {
	rows, err := q.db.QueryContext(ctx, getOperations, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []operationRow
	for rows.Next() {
		r, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getMaxOperationID = `SELECT COALESCE(MAX(id), 0) FROM operations`

func (q *Queries) GetMaxOperationID(ctx context.Context) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, getMaxOperationID).Scan(&id)
	return id, err
}

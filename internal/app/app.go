package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"dsl-go/internal/config"
	"dsl-go/internal/database"
	"dsl-go/internal/dsl"
	"dsl-go/internal/encryption"
	"dsl-go/internal/model"
	"dsl-go/internal/query"
	"dsl-go/internal/vault"
)

// Options describe the command a DSLApp is built for.
type Options struct {
	// Operation identifies the CLI command being run (e.g. "session new", "backup").
	Operation  string
	Parameters string
	LogLevel   slog.Level

	// Clock and IDs default to the real clock in the configured timezone and
	// random UUIDs.
	Clock dsl.Clock
	IDs   dsl.IDGenerator
}

// DSLApp is the application layer between the CLI and DSLService.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw strings from the command line, and manages the DB
// lifecycle on Close.
type DSLApp struct {
	cfg       *config.Config
	db        *database.SQLiteDatabase
	vault     dsl.Vault // nil when no vault is configured
	encryptor dsl.Encryptor
	service   *dsl.DSLService
	op        *Operation
	backedUp  bool
	logFile   *os.File
}

// NewDSLApp creates a fully wired DSLApp from the given config.
// The caller must call Close when done.
func NewDSLApp(cfg *config.Config, opts Options) (*DSLApp, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	var v dsl.Vault
	if len(cfg.Vaults) > 0 {
		v, err = vault.NewVaultFromConfig(cfg.Vaults[0])
		if err != nil {
			return nil, fmt.Errorf("creating vault: %w", err)
		}
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := db.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	opID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID, opts.LogLevel)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger = logger.With("profile_id", cfg.ProfileID)

	clock := opts.Clock
	if clock == nil {
		clock = dsl.RealClock{Location: loc}
	}
	ids := opts.IDs
	if ids == nil {
		ids = dsl.UUIDGenerator{}
	}

	svc := dsl.NewDSLService(db, db, v, enc, &slogAdapter{l: logger}, clock, ids)

	return &DSLApp{
		cfg:       cfg,
		db:        db,
		vault:     v,
		encryptor: enc,
		service:   svc,
		op:        NewOperation(opts.Operation, opts.Parameters),
		logFile:   logFile,
	}, nil
}

// Service exposes the service for read-only queries.
func (a *DSLApp) Service() *dsl.DSLService {
	return a.service
}

// persistOperation saves the operation to the database, giving it an
// auto-increment ID. This should only be called for DB-mutating commands.
// It refuses to run when the vault holds a newer copy than the local store,
// since writing on top of stale data would fork the history.
func (a *DSLApp) persistOperation() error {
	if a.op.Persisted() {
		return nil
	}
	if a.vault != nil {
		status, err := a.service.GetBackupStatus(a.cfg.ProfileID)
		if err != nil {
			return fmt.Errorf("checking vault version: %w", err)
		}
		if status.Behind() {
			return fmt.Errorf("local store is behind the vault (local=%d, remote=%d): run 'dsl restore' first",
				status.LocalVersion, status.RemoteVersion)
		}
	}
	return a.recordOperation()
}

func (a *DSLApp) recordOperation() error {
	if a.op.Persisted() {
		return nil
	}
	dbOp, err := a.db.CreateOperation(a.op.Operation, a.op.Parameters)
	if err != nil {
		return fmt.Errorf("persisting operation: %w", err)
	}
	a.op.ID = dbOp.ID
	return nil
}

// ResolveDate accepts "today" (or empty), "yesterday" or YYYY-MM-DD.
func (a *DSLApp) ResolveDate(raw string) (model.Date, error) {
	today := a.service.Today()
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "today":
		return today, nil
	case "yesterday":
		return today.AddDays(-1), nil
	}
	d, err := model.ParseDate(strings.TrimSpace(raw))
	if err != nil {
		return model.Date{}, fmt.Errorf("%w: %v", dsl.ErrInvalidInput, err)
	}
	return d, nil
}

// StartSession creates today's session with the default games. Config
// session defaults fill in whatever the caller leaves empty.
func (a *DSLApp) StartSession(location, memo string, tags []string) (*dsl.Draft, error) {
	if err := a.persistOperation(); err != nil {
		return nil, err
	}
	if location == "" {
		location = a.cfg.Session.Location
	}
	defaults := dsl.SessionDefaults{
		Location: location,
		Memo:     memo,
		Tags:     append(append([]string{}, a.cfg.Session.Tags...), tags...),
	}
	draft, err := a.service.StartTodaySession(defaults)
	return draft, a.op.Record(err)
}

// EditSession opens the session on rawDate as a draft, applies edit and
// saves it. Nothing is written if edit fails.
func (a *DSLApp) EditSession(rawDate string, edit func(*dsl.Draft) error) (*dsl.Draft, error) {
	date, err := a.ResolveDate(rawDate)
	if err != nil {
		return nil, err
	}
	if err := a.persistOperation(); err != nil {
		return nil, err
	}

	session, err := a.service.GetSessionByDate(date)
	if err != nil {
		return nil, a.op.Record(fmt.Errorf("no session on %s: %w", date, err))
	}
	draft, err := a.service.OpenDraft(session.ID)
	if err != nil {
		return nil, a.op.Record(err)
	}
	if err := edit(draft); err != nil {
		return nil, a.op.Record(err)
	}
	return draft, a.op.Record(a.service.SaveDraft(draft))
}

// DeleteSession removes the session on rawDate and its blocks.
func (a *DSLApp) DeleteSession(rawDate string) error {
	date, err := a.ResolveDate(rawDate)
	if err != nil {
		return err
	}
	if err := a.persistOperation(); err != nil {
		return err
	}
	session, err := a.service.GetSessionByDate(date)
	if err != nil {
		return a.op.Record(fmt.Errorf("no session on %s: %w", date, err))
	}
	return a.op.Record(a.service.DeleteSession(session.ID))
}

// SessionDetail returns the session on rawDate with its blocks.
func (a *DSLApp) SessionDetail(rawDate string) (*dsl.SessionDetail, error) {
	date, err := a.ResolveDate(rawDate)
	if err != nil {
		return nil, err
	}
	return a.service.GetSessionDetailByDate(date)
}

// ListSessions lists sessions within rawPeriod ("all" or a number of days)
// that include the given game ("all" or empty for every game).
func (a *DSLApp) ListSessions(rawPeriod, activity string) ([]*model.Session, error) {
	period, err := parsePeriod(rawPeriod)
	if err != nil {
		return nil, err
	}
	return a.service.FilterSessions(period, parseActivity(activity))
}

// Analyze returns the series and summary for a metric over rawPeriod.
func (a *DSLApp) Analyze(rawMetric, rawPeriod string) (*dsl.Analysis, error) {
	metric, err := dsl.ParseMetric(rawMetric)
	if err != nil {
		return nil, err
	}
	period, err := parsePeriod(rawPeriod)
	if err != nil {
		return nil, err
	}
	return a.service.Analyze(metric, period)
}

// SetRating stores the manual rating and records today's history point.
func (a *DSLApp) SetRating(rating float64) error {
	if err := a.persistOperation(); err != nil {
		return err
	}
	return a.op.Record(a.service.Ratings().SetManualRating(rating))
}

// ClearRating removes the manual rating.
func (a *DSLApp) ClearRating() error {
	if err := a.persistOperation(); err != nil {
		return err
	}
	return a.op.Record(a.service.Ratings().ClearManualRating())
}

// Export writes a snapshot of every session to w.
func (a *DSLApp) Export(w io.Writer) error {
	return a.service.Export(w)
}

// Import replaces the store with the snapshot read from r.
func (a *DSLApp) Import(r io.Reader) (*dsl.ImportResult, error) {
	if err := a.persistOperation(); err != nil {
		return nil, err
	}
	result, err := a.service.Import(r)
	return result, a.op.Record(err)
}

// ClearAll deletes every session and stat block.
func (a *DSLApp) ClearAll() error {
	if err := a.persistOperation(); err != nil {
		return err
	}
	return a.op.Record(a.service.ClearAll())
}

// EncryptionConfigured reports whether backup keys exist.
func (a *DSLApp) EncryptionConfigured() bool {
	return a.encryptor.IsConfigured()
}

// RequiresPassphrase reports whether SetupEncryption and Restore need a passphrase.
func (a *DSLApp) RequiresPassphrase() bool {
	return a.encryptor.RequiresPassphrase()
}

// SetupEncryption creates the backup key pair protected by passphrase.
func (a *DSLApp) SetupEncryption(passphrase string) error {
	return a.encryptor.Setup(passphrase)
}

// Backup encrypts a snapshot and uploads it to the vault.
func (a *DSLApp) Backup() (int64, error) {
	if err := a.persistOperation(); err != nil {
		return 0, err
	}
	version, err := a.service.Backup(a.cfg.ProfileID)
	if err == nil {
		a.backedUp = true
	}
	return version, a.op.Record(err)
}

// Restore replaces the local store with the vault copy.
// The behind-vault check is skipped: restoring is how a stale store catches up.
func (a *DSLApp) Restore(passphrase string) (*dsl.ImportResult, error) {
	decryptCtx, err := a.encryptor.Unlock(passphrase)
	if err != nil {
		return nil, fmt.Errorf("unlocking key: %w", err)
	}
	if err := a.recordOperation(); err != nil {
		return nil, err
	}
	result, err := a.service.Restore(a.cfg.ProfileID, decryptCtx)
	if err == nil {
		a.backedUp = true
	}
	return result, a.op.Record(err)
}

// ValidateVault checks that the configured vault is reachable.
func (a *DSLApp) ValidateVault() error {
	if a.vault == nil {
		return fmt.Errorf("no vault configured")
	}
	if err := a.vault.ValidateSetup(); err != nil {
		return fmt.Errorf("vault %s: %w", a.cfg.Vaults[0].Name, err)
	}
	return nil
}

// BackupStatus compares the local and vault versions.
func (a *DSLApp) BackupStatus() (*dsl.BackupStatus, error) {
	return a.service.GetBackupStatus(a.cfg.ProfileID)
}

// GetHistory returns the most recent operations.
func (a *DSLApp) GetHistory(limit int) ([]*model.Operation, error) {
	return a.service.GetHistory(limit)
}

// Close finalizes the operation and closes all resources.
// For persisted operations: finishes the operation record and, when
// auto_backup is set, uploads a fresh snapshot to the vault.
// For non-persisted operations: just closes the database.
func (a *DSLApp) Close() error {
	var firstErr error

	if a.op.Persisted() {
		if err := a.db.FinishOperation(a.op.ID, a.op.Status); err != nil {
			firstErr = fmt.Errorf("finishing operation: %w", err)
		}

		if a.cfg.AutoBackup && a.vault != nil && !a.backedUp && a.op.Status == StatusSuccess {
			if _, err := a.service.Backup(a.cfg.ProfileID); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("automatic backup: %w", err)
			}
		}
	}

	if err := a.db.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}

func parsePeriod(raw string) (model.Period, error) {
	if strings.TrimSpace(raw) == "" {
		return model.AllTime, nil
	}
	p, err := model.ParsePeriod(raw)
	if err != nil {
		return model.Period{}, fmt.Errorf("%w: %v", dsl.ErrInvalidInput, err)
	}
	return p, nil
}

func parseActivity(raw string) model.ActivityType {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, string(query.AllActivities)) {
		return query.AllActivities
	}
	return model.ActivityType(strings.ToUpper(raw))
}

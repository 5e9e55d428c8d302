package dsl

import (
	"fmt"

	"dsl-go/internal/model"
	"dsl-go/internal/query"
)

// DSLService is the orchestration layer the CLI talks to. It owns id and
// timestamp assignment and delegates persistence to Database.
type DSLService struct {
	database  Database
	settings  Settings
	vault     Vault
	encryptor Encryptor
	logger    Logger
	clock     Clock
	idgen     IDGenerator
	ratings   *RatingLog
}

// NewDSLService creates a new DSLService with the provided dependencies.
// vault and encryptor may be nil when backups are not configured.
func NewDSLService(database Database, settings Settings, vault Vault, encryptor Encryptor, logger Logger, clock Clock, idgen IDGenerator) *DSLService {
	return &DSLService{
		database:  database,
		settings:  settings,
		vault:     vault,
		encryptor: encryptor,
		logger:    logger,
		clock:     clock,
		idgen:     idgen,
		ratings:   NewRatingLog(settings, clock),
	}
}

// Today returns the service's current calendar date.
func (s *DSLService) Today() model.Date {
	return Today(s.clock)
}

// Ratings returns the manual rating side log.
func (s *DSLService) Ratings() *RatingLog {
	return s.ratings
}

// SessionDefaults are the optional fields a new session starts with.
type SessionDefaults struct {
	Location string
	Memo     string
	Tags     []string
}

// CreateSession creates today's session. It fails with ErrConstraint if a
// session already exists for today.
func (s *DSLService) CreateSession(defaults SessionDefaults) (*model.Session, error) {
	session := s.newSession(defaults)
	if err := s.database.CreateSession(session); err != nil {
		return nil, fmt.Errorf("creating session for %s: %w", session.Date, err)
	}

	s.logger.Info("session created", "session_id", session.ID, "date", session.Date.String())
	return session, nil
}

func (s *DSLService) newSession(defaults SessionDefaults) *model.Session {
	now := s.clock.Now()
	return &model.Session{
		ID:        s.idgen.New(),
		Date:      model.DateOf(now),
		Location:  defaults.Location,
		Memo:      defaults.Memo,
		Tags:      model.NewTags(defaults.Tags...),
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

// GetSession returns the session with the given id.
func (s *DSLService) GetSession(id string) (*model.Session, error) {
	return s.database.GetSession(id)
}

// GetSessionByDate returns the session recorded on date.
func (s *DSLService) GetSessionByDate(date model.Date) (*model.Session, error) {
	return s.database.GetSessionByDate(date)
}

// ListSessions returns all sessions, newest first.
func (s *DSLService) ListSessions() ([]*model.Session, error) {
	return s.database.ListSessions()
}

// UpdateSession saves location, memo and tags and refreshes UpdatedAt.
func (s *DSLService) UpdateSession(session *model.Session) error {
	session.Tags = model.NewTags(session.Tags...)
	session.UpdatedAt = s.clock.Now().UTC()

	if err := s.database.UpdateSession(session); err != nil {
		return fmt.Errorf("updating session %s: %w", session.ID, err)
	}
	s.logger.Info("session updated", "session_id", session.ID)
	return nil
}

// DeleteSession removes a session and all of its stat blocks.
func (s *DSLService) DeleteSession(id string) error {
	if err := s.database.DeleteSession(id); err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	s.logger.Info("session deleted", "session_id", id)
	return nil
}

// SessionDetail is a session together with the blocks it owns.
type SessionDetail struct {
	Session *model.Session
	Blocks  []*model.StatBlock
}

// GetSessionDetail loads a session and its blocks by session id.
func (s *DSLService) GetSessionDetail(id string) (*SessionDetail, error) {
	session, err := s.database.GetSession(id)
	if err != nil {
		return nil, err
	}
	return s.detail(session)
}

// GetSessionDetailByDate loads a session and its blocks by date.
func (s *DSLService) GetSessionDetailByDate(date model.Date) (*SessionDetail, error) {
	session, err := s.database.GetSessionByDate(date)
	if err != nil {
		return nil, err
	}
	return s.detail(session)
}

func (s *DSLService) detail(session *model.Session) (*SessionDetail, error) {
	blocks, err := s.database.ListStatBlocksBySession(session.ID)
	if err != nil {
		return nil, fmt.Errorf("loading stat blocks: %w", err)
	}
	return &SessionDetail{Session: session, Blocks: blocks}, nil
}

// CreateStatBlock adds a block to an existing session. The block's ID and
// SessionID are assigned here; Kind defaults to PRESET.
func (s *DSLService) CreateStatBlock(sessionID string, block *model.StatBlock) (*model.StatBlock, error) {
	if err := model.ValidateItems(block.Items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	created := block.Clone()
	created.ID = s.idgen.New()
	created.SessionID = sessionID
	if created.Kind == "" {
		created.Kind = model.KindPreset
	}

	if err := s.database.CreateStatBlock(created); err != nil {
		return nil, fmt.Errorf("creating stat block: %w", err)
	}
	s.logger.Debug("stat block created", "statblock_id", created.ID, "session_id", sessionID)
	return created, nil
}

// ListStatBlocksBySession returns the blocks owned by a session.
func (s *DSLService) ListStatBlocksBySession(sessionID string) ([]*model.StatBlock, error) {
	return s.database.ListStatBlocksBySession(sessionID)
}

// ListAllStatBlocks returns every stored block.
func (s *DSLService) ListAllStatBlocks() ([]*model.StatBlock, error) {
	return s.database.ListAllStatBlocks()
}

// UpdateStatBlock replaces a block's contents.
func (s *DSLService) UpdateStatBlock(block *model.StatBlock) error {
	if err := model.ValidateItems(block.Items); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.database.UpdateStatBlock(block); err != nil {
		return fmt.Errorf("updating stat block %s: %w", block.ID, err)
	}
	return nil
}

// DeleteStatBlock removes a single block.
func (s *DSLService) DeleteStatBlock(id string) error {
	if err := s.database.DeleteStatBlock(id); err != nil {
		return fmt.Errorf("deleting stat block %s: %w", id, err)
	}
	return nil
}

// FilterSessions lists sessions narrowed by period and activity type.
func (s *DSLService) FilterSessions(period model.Period, activity model.ActivityType) ([]*model.Session, error) {
	sessions, err := s.database.ListSessions()
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	sessions = query.FilterByPeriod(sessions, period, s.Today())
	return query.FilterByActivityType(sessions, activity, s.database.ListStatBlocksBySession)
}

// Streak returns the current run of consecutive practice days.
func (s *DSLService) Streak() (int, error) {
	sessions, err := s.database.ListSessions()
	if err != nil {
		return 0, fmt.Errorf("listing sessions: %w", err)
	}
	return query.CalculateStreak(sessions, s.Today()), nil
}

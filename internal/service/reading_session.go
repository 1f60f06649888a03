package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shelfmarkapp/shelfmark-server/internal/clock"
	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	domainerrors "github.com/shelfmarkapp/shelfmark-server/internal/errors"
	"github.com/shelfmarkapp/shelfmark-server/internal/id"
	"github.com/shelfmarkapp/shelfmark-server/internal/store"
	"github.com/shelfmarkapp/shelfmark-server/internal/store/sqlite"
)

// ReadingSessionService records timed reading sessions and feeds closed
// sessions into the streak tracker.
type ReadingSessionService struct {
	db          *sqlite.Store
	userService *UserService
	clock       clock.Clock
	logger      *slog.Logger
}

// NewReadingSessionService creates a new reading session service.
func NewReadingSessionService(
	db *sqlite.Store,
	userService *UserService,
	clk clock.Clock,
	logger *slog.Logger,
) *ReadingSessionService {
	return &ReadingSessionService{
		db:          db,
		userService: userService,
		clock:       clk,
		logger:      logger,
	}
}

// StartSessionRequest contains the data for opening a reading session.
// StartTime defaults to now. When EndTime is set the session is logged
// already closed, for clients that track reading offline.
type StartSessionRequest struct {
	BookID    string     `json:"book_id" validate:"required"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

// StartSession opens (or, with an end time, logs) a reading session.
func (s *ReadingSessionService) StartSession(ctx context.Context, userID string, req StartSessionRequest) (*domain.ReadingSession, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.db.GetBook(ctx, req.BookID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("book not found")
		}
		return nil, fmt.Errorf("get book: %w", err)
	}

	start := s.clock.Now()
	if req.StartTime != nil {
		start = *req.StartTime
	}

	session := &domain.ReadingSession{
		UserID:    userID,
		BookID:    req.BookID,
		StartTime: start,
		CreatedAt: s.clock.Now(),
	}

	if req.EndTime != nil {
		if req.EndTime.Before(start) {
			return nil, domainerrors.InvalidRange("end_time must not be before start_time")
		}
		end := *req.EndTime
		dur := domain.SessionDurationMin(start, end)
		session.EndTime = &end
		session.DurationMin = &dur
	}

	sessionID, err := id.Generate("rsession")
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}
	session.ID = sessionID

	if err := s.db.CreateReadingSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create reading session: %w", err)
	}

	if session.EndTime != nil {
		s.recordActivity(ctx, userID, domain.DateOf(session.EndTime.UTC()))
	}

	s.logger.Debug("Reading session started",
		"session_id", session.ID,
		"user_id", userID,
		"book_id", req.BookID,
		"closed", session.EndTime != nil,
	)

	return session, nil
}

// EndSession closes an open reading session. The end time defaults to now.
// Sessions belonging to other users are reported as not found rather than
// forbidden, so session IDs cannot be probed.
func (s *ReadingSessionService) EndSession(ctx context.Context, callerID, sessionID string, endTime *time.Time) (*domain.ReadingSession, error) {
	session, err := s.db.GetReadingSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("reading session not found")
		}
		return nil, fmt.Errorf("get reading session: %w", err)
	}
	if session.UserID != callerID {
		return nil, domainerrors.NotFound("reading session not found")
	}
	if !session.IsOpen() {
		return nil, domainerrors.Conflict("reading session is already ended")
	}

	end := s.clock.Now()
	if endTime != nil {
		end = *endTime
	}
	if end.Before(session.StartTime) {
		return nil, domainerrors.InvalidRange("end_time must not be before start_time")
	}

	dur := domain.SessionDurationMin(session.StartTime, end)
	closed, err := s.db.CloseReadingSession(ctx, sessionID, end, dur)
	if err != nil {
		return nil, fmt.Errorf("close reading session: %w", err)
	}
	if !closed {
		// Lost a race with another close of the same session.
		return nil, domainerrors.Conflict("reading session is already ended")
	}

	session.EndTime = &end
	session.DurationMin = &dur

	s.recordActivity(ctx, callerID, domain.DateOf(end.UTC()))

	s.logger.Debug("Reading session ended",
		"session_id", sessionID,
		"user_id", callerID,
		"duration_min", dur,
	)

	return session, nil
}

// GetSession retrieves a session visible to the caller.
func (s *ReadingSessionService) GetSession(ctx context.Context, callerID, sessionID string) (*domain.ReadingSession, error) {
	session, err := s.db.GetReadingSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("reading session not found")
		}
		return nil, fmt.Errorf("get reading session: %w", err)
	}
	if session.UserID != callerID {
		return nil, domainerrors.NotFound("reading session not found")
	}
	return session, nil
}

// GetOpenSession returns the caller's most recent open session for a book,
// or nil when none is open.
func (s *ReadingSessionService) GetOpenSession(ctx context.Context, userID, bookID string) (*domain.ReadingSession, error) {
	session, err := s.db.GetOpenReadingSession(ctx, userID, bookID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get open reading session: %w", err)
	}
	return session, nil
}

// ListUserSessions returns a user's sessions, most recent start first.
func (s *ReadingSessionService) ListUserSessions(ctx context.Context, userID string, limit, offset int) ([]*domain.ReadingSession, error) {
	sessions, err := s.db.ListReadingSessionsByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list reading sessions: %w", err)
	}
	return sessions, nil
}

// ListBookSessions returns a book's sessions across all readers, most
// recent start first.
func (s *ReadingSessionService) ListBookSessions(ctx context.Context, bookID string, limit, offset int) ([]*domain.ReadingSession, error) {
	sessions, err := s.db.ListReadingSessionsByBook(ctx, bookID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list book reading sessions: %w", err)
	}
	return sessions, nil
}

// recordActivity feeds a closed session into the streak tracker. Streak
// updates never fail session writes.
func (s *ReadingSessionService) recordActivity(ctx context.Context, userID string, day domain.Date) {
	user, err := s.db.GetUser(ctx, userID)
	if err != nil {
		s.logger.Warn("Failed to load user for streak update", "user_id", userID, "error", err)
		return
	}
	s.userService.RecordActivity(ctx, user, day)
}

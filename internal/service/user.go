package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shelfmarkapp/shelfmark-server/internal/auth"
	"github.com/shelfmarkapp/shelfmark-server/internal/clock"
	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	domainerrors "github.com/shelfmarkapp/shelfmark-server/internal/errors"
	"github.com/shelfmarkapp/shelfmark-server/internal/store"
	"github.com/shelfmarkapp/shelfmark-server/internal/store/sqlite"
)

// streakRetries bounds the compare-and-set loop in RecordActivity.
// Once exhausted the update is dropped without surfacing an error.
const streakRetries = 3

// UserService handles user accounts, profiles, and streak bookkeeping.
type UserService struct {
	db             *sqlite.Store
	sessionService *SessionService
	clock          clock.Clock
	logger         *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(db *sqlite.Store, sessionService *SessionService, clk clock.Clock, logger *slog.Logger) *UserService {
	return &UserService{
		db:             db,
		sessionService: sessionService,
		clock:          clk,
		logger:         logger,
	}
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.db.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// GetProfile returns the public profile of a user.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	profile, err := s.db.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

// UpdateMeRequest contains the fields a user may change on their own account.
type UpdateMeRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8,max=1024"`
}

// UpdateMe applies profile changes to the calling user's account.
// A password change revokes all other login sessions.
func (s *UserService) UpdateMe(ctx context.Context, userID string, req UpdateMeRequest) (*domain.User, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}

	passwordChanged := false
	if req.Password != nil {
		passwordHash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = passwordHash
		passwordChanged = true
	}

	user.Touch()
	if err := s.db.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	if passwordChanged {
		if err := s.sessionService.DeleteAllUserSessions(ctx, userID); err != nil {
			s.logger.Warn("Failed to revoke sessions after password change",
				"user_id", userID,
				"error", err,
			)
		}
	}

	return user, nil
}

// DeleteAccount soft-deletes a user and revokes all their sessions.
// Reading history and reviews are retained; owned books are detached.
func (s *UserService) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.db.SoftDeleteUser(ctx, userID, s.clock.Now()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("user not found")
		}
		return fmt.Errorf("delete user: %w", err)
	}

	if err := s.sessionService.DeleteAllUserSessions(ctx, userID); err != nil {
		s.logger.Warn("Failed to revoke sessions after account deletion",
			"user_id", userID,
			"error", err,
		)
	}

	s.logger.Info("User account deleted", "user_id", userID)
	return nil
}

// RecordActivity advances the user's streak for the given day.
// The write is a compare-and-set; on a lost race the state is re-read and
// the transition re-applied, so two concurrent activities never double-count.
// Errors are logged, never surfaced: streaks are motivational bookkeeping
// and must not break the operation that triggered them.
func (s *UserService) RecordActivity(ctx context.Context, user *domain.User, day domain.Date) {
	prev := user.Streak()

	for attempt := 0; attempt < streakRetries; attempt++ {
		next, changed := domain.AdvanceStreak(prev, day)
		if !changed {
			return
		}

		ok, err := s.db.ConditionalUpdateStreak(ctx, user.ID, prev, next)
		if err != nil {
			s.logger.Warn("Failed to update streak",
				"user_id", user.ID,
				"error", err,
			)
			return
		}
		if ok {
			user.ApplyStreak(next)
			s.logger.Debug("streak advanced",
				"user_id", user.ID,
				"current_streak", next.Current,
			)
			return
		}

		// Lost the race: re-read and re-apply.
		fresh, err := s.db.GetUser(ctx, user.ID)
		if err != nil {
			s.logger.Warn("Failed to re-read user after streak race",
				"user_id", user.ID,
				"error", err,
			)
			return
		}
		prev = fresh.Streak()
		user.ApplyStreak(prev)
	}

	s.logger.Warn("Gave up advancing streak after retries", "user_id", user.ID)
}

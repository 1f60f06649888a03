package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shelfmarkapp/shelfmark-server/internal/auth"
	"github.com/shelfmarkapp/shelfmark-server/internal/clock"
	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	domainerrors "github.com/shelfmarkapp/shelfmark-server/internal/errors"
	"github.com/shelfmarkapp/shelfmark-server/internal/id"
	"github.com/shelfmarkapp/shelfmark-server/internal/store"
	"github.com/shelfmarkapp/shelfmark-server/internal/store/sqlite"
)

// SessionService handles login session management and lifecycle.
// Login sessions track authenticated devices and their refresh tokens.
type SessionService struct {
	sessions     *store.Store
	db           *sqlite.Store
	tokenService *auth.TokenService
	clock        clock.Clock
	logger       *slog.Logger
}

// NewSessionService creates a new session management service.
func NewSessionService(
	sessions *store.Store,
	db *sqlite.Store,
	tokenService *auth.TokenService,
	clk clock.Clock,
	logger *slog.Logger,
) *SessionService {
	return &SessionService{
		sessions:     sessions,
		db:           db,
		tokenService: tokenService,
		clock:        clk,
		logger:       logger,
	}
}

// SessionResponse contains session tokens and metadata.
type SessionResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"` // Seconds until access token expires
	SessionID    string `json:"session_id"`
}

// CreateSession generates tokens and creates a new login session for a user.
func (s *SessionService) CreateSession(
	ctx context.Context,
	user *domain.User,
	clientInfo auth.ClientInfo,
	ipAddress string,
) (*SessionResponse, error) {
	accessToken, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := s.tokenService.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	sessionID, err := id.Generate("session")
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}

	now := s.clock.Now()
	session := &domain.LoginSession{
		ID:               sessionID,
		UserID:           user.ID,
		RefreshTokenHash: auth.HashRefreshToken(refreshToken),
		ExpiresAt:        now.Add(s.tokenService.RefreshTokenDuration()),
		CreatedAt:        now,
		LastSeenAt:       now,
		IPAddress:        ipAddress,
	}
	applyClientInfo(session, clientInfo)

	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	expiresIn := int(s.tokenService.AccessTokenDuration().Seconds())

	return &SessionResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    expiresIn,
		SessionID:    sessionID,
	}, nil
}

// RefreshSession rotates tokens for an existing session.
// The old refresh token is invalidated (token rotation for security).
func (s *SessionService) RefreshSession(
	ctx context.Context,
	refreshToken string,
	clientInfo auth.ClientInfo,
	ipAddress string,
) (*SessionResponse, *domain.User, error) {
	tokenHash := auth.HashRefreshToken(refreshToken)
	session, err := s.sessions.GetSessionByRefreshToken(ctx, tokenHash)
	if err != nil {
		return nil, nil, domainerrors.TokenExpired("invalid or expired refresh token").WithCause(err)
	}

	user, err := s.db.GetUser(ctx, session.UserID)
	if err != nil {
		// User was deleted, clean up session
		_ = s.sessions.DeleteSession(ctx, session.ID)
		return nil, nil, domainerrors.NotFound("user not found").WithCause(err)
	}

	accessToken, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate access token: %w", err)
	}

	newRefreshToken, err := s.tokenService.GenerateRefreshToken()
	if err != nil {
		return nil, nil, fmt.Errorf("generate refresh token: %w", err)
	}

	// Update session with new refresh token (rotation)
	session.RefreshTokenHash = auth.HashRefreshToken(newRefreshToken)
	session.Touch(s.clock.Now())

	if clientInfo.IsValid() {
		applyClientInfo(session, clientInfo)
	}
	if ipAddress != "" {
		session.IPAddress = ipAddress
	}

	if err := s.sessions.UpdateSession(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("update session: %w", err)
	}

	expiresIn := int(s.tokenService.AccessTokenDuration().Seconds())

	return &SessionResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    expiresIn,
		SessionID:    session.ID,
	}, user, nil
}

// DeleteSession ends a session (logout).
func (s *SessionService) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.sessions.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	s.logger.Info("Session deleted", "session_id", sessionID)
	return nil
}

// ListUserSessions returns all active login sessions for a user.
func (s *SessionService) ListUserSessions(ctx context.Context, userID string) ([]*domain.LoginSession, error) {
	sessions, err := s.sessions.ListUserSessions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user sessions: %w", err)
	}
	return sessions, nil
}

// DeleteAllUserSessions revokes every session a user holds.
// Used on account deletion and password change.
func (s *SessionService) DeleteAllUserSessions(ctx context.Context, userID string) error {
	if err := s.sessions.DeleteAllUserSessions(ctx, userID); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all expired sessions.
// This should be run periodically as a cleanup job.
func (s *SessionService) DeleteExpiredSessions(ctx context.Context) (int, error) {
	count, err := s.sessions.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}

	if count > 0 {
		s.logger.Info("Deleted expired sessions", "count", count)
	}

	return count, nil
}

// applyClientInfo copies client info fields to the session.
// Extracted to avoid duplication between create and refresh flows.
func applyClientInfo(session *domain.LoginSession, info auth.ClientInfo) {
	session.ClientName = info.ClientName
	session.ClientVersion = info.ClientVersion
	session.DeviceName = info.DeviceName
}

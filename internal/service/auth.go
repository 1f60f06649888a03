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
	"github.com/shelfmarkapp/shelfmark-server/internal/id"
	"github.com/shelfmarkapp/shelfmark-server/internal/store"
	"github.com/shelfmarkapp/shelfmark-server/internal/store/sqlite"
	"github.com/shelfmarkapp/shelfmark-server/internal/validation"
)

// validate is the shared request validator for all services.
var validate = validation.New()

// AuthService handles user authentication (registration, login, token
// verification). Login session lifecycle is delegated to SessionService.
type AuthService struct {
	db             *sqlite.Store
	tokenService   *auth.TokenService
	sessionService *SessionService
	userService    *UserService
	clock          clock.Clock
	logger         *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	db *sqlite.Store,
	tokenService *auth.TokenService,
	sessionService *SessionService,
	userService *UserService,
	clk clock.Clock,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		db:             db,
		tokenService:   tokenService,
		sessionService: sessionService,
		userService:    userService,
		clock:          clk,
		logger:         logger,
	}
}

// RegisterRequest contains user registration data.
type RegisterRequest struct {
	Email      string          `json:"email" validate:"required,email"`
	Password   string          `json:"password" validate:"required,min=8,max=1024"`
	Name       string          `json:"name" validate:"required,max=100"`
	ClientInfo auth.ClientInfo `json:"client_info"`
	IPAddress  string          `json:"-"` // Extracted from request by handler
}

// LoginRequest contains user credentials and client information.
type LoginRequest struct {
	Email      string          `json:"email" validate:"required,email"`
	Password   string          `json:"password" validate:"required"`
	ClientInfo auth.ClientInfo `json:"client_info"`
	IPAddress  string          `json:"-"` // Extracted from request by handler
}

// RefreshRequest contains the refresh token and updated client info.
type RefreshRequest struct {
	RefreshToken string          `json:"refresh_token" validate:"required"`
	ClientInfo   auth.ClientInfo `json:"client_info"` // Optional updates
	IPAddress    string          `json:"-"`           // Extracted from request by handler
}

// AuthResponse contains authentication tokens and user data.
type AuthResponse struct {
	User *domain.User `json:"user"`
	SessionResponse
}

// Register creates a new user account and logs it in.
// The very first account on the server becomes the admin.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	// Validate request
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	// Hash password
	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	// First account gets admin rights.
	isAdmin, err := s.isFirstUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("check first user: %w", err)
	}

	now := s.clock.Now()
	user := &domain.User{
		Record: domain.Record{
			ID: userID,
		},
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: passwordHash,
		IsAdmin:      isAdmin,
		LastLoginAt:  now,
	}
	user.InitTimestamps()

	if err := s.db.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("email already in use")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	// Signing up counts as activity.
	s.userService.RecordActivity(ctx, user, domain.DateOf(now))

	sessionResp, err := s.sessionService.CreateSession(ctx, user, req.ClientInfo, req.IPAddress)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("User registered",
		"user_id", userID,
		"is_admin", isAdmin,
	)

	return &AuthResponse{
		User:            user,
		SessionResponse: *sessionResp,
	}, nil
}

// Login authenticates a user, advances their streak, and creates a session.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	// Validate request
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	// Find user by email
	user, err := s.db.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Don't leak whether email exists
			return nil, domainerrors.InvalidCredentials("invalid email or password")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	// Verify password
	valid, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}

	now := s.clock.Now()

	// Update last login
	if err := s.db.UpdateUserLastLogin(ctx, user.ID, now); err != nil {
		// Log but don't fail login
		s.logger.Warn("Failed to update last login time",
			"user_id", user.ID,
			"error", err,
		)
	}
	user.LastLoginAt = now

	// Logging in counts as activity for the streak.
	s.userService.RecordActivity(ctx, user, domain.DateOf(now))

	sessionResp, err := s.sessionService.CreateSession(ctx, user, req.ClientInfo, req.IPAddress)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("User logged in",
		"user_id", user.ID,
		"client", req.ClientInfo.ClientName,
	)

	return &AuthResponse{
		User:            user,
		SessionResponse: *sessionResp,
	}, nil
}

// RefreshTokens generates new tokens using a refresh token.
// The old refresh token is invalidated (token rotation).
func (s *AuthService) RefreshTokens(ctx context.Context, req RefreshRequest) (*AuthResponse, error) {
	// Validate request
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	sessionResp, user, err := s.sessionService.RefreshSession(ctx, req.RefreshToken, req.ClientInfo, req.IPAddress)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		User:            user,
		SessionResponse: *sessionResp,
	}, nil
}

// Logout revokes a session, invalidating its refresh token.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessionService.DeleteSession(ctx, sessionID)
}

// VerifyAccessToken validates a token and returns the associated user.
// Used by authentication middleware.
func (s *AuthService) VerifyAccessToken(ctx context.Context, tokenString string) (*domain.User, *auth.AccessClaims, error) {
	// Verify and parse token
	claims, err := s.tokenService.VerifyAccessToken(tokenString)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid token: %w", err)
	}

	// Get user
	user, err := s.db.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, errors.New("user not found")
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}

	return user, claims, nil
}

// isFirstUser reports whether no account exists yet.
func (s *AuthService) isFirstUser(ctx context.Context) (bool, error) {
	count, err := s.db.CountUsers(ctx)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

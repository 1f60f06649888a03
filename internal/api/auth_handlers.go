package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfmarkapp/shelfmark-server/internal/auth"
	"github.com/shelfmarkapp/shelfmark-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "register",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/register",
		Summary:     "Register new user",
		Description: "Creates a new user account and logs it in. The first account on the server becomes the admin.",
		Tags:        []string{"Authentication"},
	}, s.handleRegister)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "User login",
		Description: "Authenticates a user and returns access and refresh tokens",
		Tags:        []string{"Authentication"},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "refresh",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/refresh",
		Summary:     "Refresh tokens",
		Description: "Exchanges a refresh token for new tokens. The old refresh token is invalidated.",
		Tags:        []string{"Authentication"},
	}, s.handleRefresh)

	huma.Register(s.api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/logout",
		Summary:     "Logout",
		Description: "Revokes the specified session",
		Tags:        []string{"Authentication"},
	}, s.handleLogout)
}

// === DTOs ===

// ClientInfo contains client metadata for session tracking.
type ClientInfo struct {
	ClientName    string `json:"client_name,omitempty" validate:"omitempty,max=100" doc:"Client name (Shelfmark Web, etc.)"`
	ClientVersion string `json:"client_version,omitempty" validate:"omitempty,max=50" doc:"Client version (1.0.0)"`
	DeviceName    string `json:"device_name,omitempty" validate:"omitempty,max=100" doc:"Human-readable device name"`
}

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Email      string     `json:"email" validate:"required,email,max=254" doc:"User email address"`
	Password   string     `json:"password" validate:"required,min=8,max=1024" doc:"User password"`
	Name       string     `json:"name" validate:"required,min=1,max=100" doc:"Display name"`
	ClientInfo ClientInfo `json:"client_info,omitempty" doc:"Client info"`
}

// RegisterInput wraps the register request for Huma.
type RegisterInput struct {
	Body          RegisterRequest
	XForwardedFor string `header:"X-Forwarded-For"`
	XRealIP       string `header:"X-Real-IP"`
}

// LoginRequest is the request body for user login.
type LoginRequest struct {
	Email      string     `json:"email" validate:"required,email,max=254" doc:"User email"`
	Password   string     `json:"password" validate:"required,max=1024" doc:"User password"`
	ClientInfo ClientInfo `json:"client_info,omitempty" doc:"Client info"`
}

// LoginInput wraps the login request with headers for Huma.
type LoginInput struct {
	Body          LoginRequest
	XForwardedFor string `header:"X-Forwarded-For"`
	XRealIP       string `header:"X-Real-IP"`
}

// RefreshRequest is the request body for token refresh.
type RefreshRequest struct {
	RefreshToken string     `json:"refresh_token" validate:"required" doc:"Refresh token"`
	ClientInfo   ClientInfo `json:"client_info,omitempty" doc:"Updated client info"`
}

// RefreshInput wraps the refresh request with headers for Huma.
type RefreshInput struct {
	Body          RefreshRequest
	XForwardedFor string `header:"X-Forwarded-For"`
	XRealIP       string `header:"X-Real-IP"`
}

// LogoutRequest is the request body for logout.
type LogoutRequest struct {
	SessionID string `json:"session_id" validate:"required,max=100" doc:"Session ID to revoke"`
}

// LogoutInput wraps the logout request for Huma.
type LogoutInput struct {
	Body LogoutRequest
}

// UserResponse contains user information in API responses.
// The password hash never leaves the service layer.
type UserResponse struct {
	ID             string    `json:"id" doc:"User ID"`
	Email          string    `json:"email" doc:"User email"`
	Name           string    `json:"name" doc:"Display name"`
	IsAdmin        bool      `json:"is_admin" doc:"Whether user is the admin"`
	CurrentStreak  int       `json:"current_streak" doc:"Current reading streak in days"`
	LastStreak     int       `json:"last_streak" doc:"Previous streak length"`
	LastActiveDate string    `json:"last_active_date,omitempty" doc:"Last activity date (YYYY-MM-DD)"`
	CreatedAt      time.Time `json:"created_at" doc:"Creation timestamp"`
	LastLoginAt    time.Time `json:"last_login_at" doc:"Last login timestamp"`
}

// AuthResponse contains authentication tokens and user info.
type AuthResponse struct {
	AccessToken  string       `json:"access_token" doc:"PASETO access token"`
	RefreshToken string       `json:"refresh_token" doc:"Refresh token"`
	SessionID    string       `json:"session_id" doc:"Session identifier"`
	TokenType    string       `json:"token_type" doc:"Token type (Bearer)"`
	ExpiresIn    int          `json:"expires_in" doc:"Token expiry in seconds"`
	User         UserResponse `json:"user" doc:"Authenticated user"`
}

// AuthOutput wraps the auth response for Huma.
type AuthOutput struct {
	Body AuthResponse
}

// MessageResponse contains a simple message.
type MessageResponse struct {
	Message string `json:"message" doc:"Success message"`
}

// MessageOutput wraps the message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// === Handlers ===

func (s *Server) handleRegister(ctx context.Context, input *RegisterInput) (*AuthOutput, error) {
	ip := extractIP(input.XForwardedFor, input.XRealIP)
	if err := s.checkAuthRateLimit(ip); err != nil {
		return nil, err
	}

	req := service.RegisterRequest{
		Email:      input.Body.Email,
		Password:   input.Body.Password,
		Name:       input.Body.Name,
		ClientInfo: mapClientInfo(input.Body.ClientInfo),
		IPAddress:  ip,
	}

	resp, err := s.services.Auth.Register(ctx, req)
	if err != nil {
		return nil, err
	}

	return &AuthOutput{Body: mapAuthResponse(resp)}, nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	ip := extractIP(input.XForwardedFor, input.XRealIP)
	if err := s.checkAuthRateLimit(ip); err != nil {
		return nil, err
	}

	req := service.LoginRequest{
		Email:      input.Body.Email,
		Password:   input.Body.Password,
		ClientInfo: mapClientInfo(input.Body.ClientInfo),
		IPAddress:  ip,
	}

	resp, err := s.services.Auth.Login(ctx, req)
	if err != nil {
		return nil, err
	}

	return &AuthOutput{Body: mapAuthResponse(resp)}, nil
}

func (s *Server) handleRefresh(ctx context.Context, input *RefreshInput) (*AuthOutput, error) {
	req := service.RefreshRequest{
		RefreshToken: input.Body.RefreshToken,
		ClientInfo:   mapClientInfo(input.Body.ClientInfo),
		IPAddress:    extractIP(input.XForwardedFor, input.XRealIP),
	}

	resp, err := s.services.Auth.RefreshTokens(ctx, req)
	if err != nil {
		return nil, err
	}

	return &AuthOutput{Body: mapAuthResponse(resp)}, nil
}

func (s *Server) handleLogout(ctx context.Context, input *LogoutInput) (*MessageOutput, error) {
	if err := s.services.Auth.Logout(ctx, input.Body.SessionID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Logged out successfully"}}, nil
}

// === Helpers ===

// checkAuthRateLimit guards credential endpoints against brute force.
func (s *Server) checkAuthRateLimit(ip string) error {
	if s.authRateLimiter == nil || s.authRateLimiter.Allow(ip) {
		return nil
	}

	s.logger.Warn("Auth rate limit exceeded", "ip", ip)
	return huma.Error429TooManyRequests("Too many attempts. Please try again later.")
}

func mapClientInfo(info ClientInfo) auth.ClientInfo {
	return auth.ClientInfo{
		ClientName:    info.ClientName,
		ClientVersion: info.ClientVersion,
		DeviceName:    info.DeviceName,
	}
}

func mapAuthResponse(resp *service.AuthResponse) AuthResponse {
	return AuthResponse{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		SessionID:    resp.SessionID,
		TokenType:    resp.TokenType,
		ExpiresIn:    resp.ExpiresIn,
		User:         mapUserResponse(resp.User),
	}
}

func extractIP(xForwardedFor, xRealIP string) string {
	if xForwardedFor != "" {
		for i := 0; i < len(xForwardedFor); i++ {
			if xForwardedFor[i] == ',' {
				return xForwardedFor[:i]
			}
		}
		return xForwardedFor
	}
	return xRealIP
}

package domain

import "time"

// LoginSession represents an authenticated device session with a refresh token.
// Each device gets its own session - you can see what's connected.
type LoginSession struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	RefreshTokenHash string    `json:"refresh_token_hash,omitempty"` // Stored hashed, filter from API responses
	ExpiresAt        time.Time `json:"expires_at"`
	CreatedAt        time.Time `json:"created_at"`
	LastSeenAt       time.Time `json:"last_seen_at"`
	IPAddress        string    `json:"ip_address,omitempty"`

	// Client information, as reported at login
	ClientName    string `json:"client_name,omitempty"`    // Shelfmark Web, Shelfmark Mobile
	ClientVersion string `json:"client_version,omitempty"` // 1.0.0
	DeviceName    string `json:"device_name,omitempty"`    // user-set, optional
}

// Touch updates the session's last seen timestamp.
func (s *LoginSession) Touch(now time.Time) {
	s.LastSeenAt = now
}

// IsExpired checks if the session has passed its expiration time.
func (s *LoginSession) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// DisplayName returns a human-readable description of the device.
func (s *LoginSession) DisplayName() string {
	if s.DeviceName != "" {
		return s.DeviceName
	}
	if s.ClientName != "" {
		if s.ClientVersion != "" {
			return s.ClientName + " " + s.ClientVersion
		}
		return s.ClientName
	}
	return "Unknown Device"
}

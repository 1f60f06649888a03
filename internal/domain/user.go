package domain

import "time"

// User represents an authenticated user account in the system.
type User struct {
	Record
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"password_hash,omitempty"` // Stored hashed, filter from API responses
	IsAdmin      bool   `json:"is_admin"`

	// Streak state, only ever mutated through domain.AdvanceStreak.
	LastActiveDate *Date `json:"last_active_date,omitempty"`
	CurrentStreak  int   `json:"current_streak"`
	LastStreak     int   `json:"last_streak"`

	LastLoginAt time.Time `json:"last_login_at"`
}

// Streak returns the user's streak state for the calculator.
func (u *User) Streak() Streak {
	return Streak{
		LastActiveDate: u.LastActiveDate,
		Current:        u.CurrentStreak,
		Last:           u.LastStreak,
	}
}

// ApplyStreak writes a calculator result back onto the user.
func (u *User) ApplyStreak(s Streak) {
	u.LastActiveDate = s.LastActiveDate
	u.CurrentStreak = s.Current
	u.LastStreak = s.Last
}

// DisplayName returns the best available name to display for the user.
// Falls back to email when the name is empty.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// Profile is the public view of a user, safe to show to other users.
type Profile struct {
	UserID        string    `json:"user_id"`
	Name          string    `json:"name"`
	CurrentStreak int       `json:"current_streak"`
	LastStreak    int       `json:"last_streak"`
	Followers     int       `json:"followers"`
	Following     int       `json:"following"`
	JoinedAt      time.Time `json:"joined_at"`
}

package models

import "time"

// UserProfile is the authenticated relationship manager's profile,
// immutable once set and replaced wholesale on login.
type UserProfile struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	EmployeeCode string `json:"employeeCode,omitempty"`
	Branch       string `json:"branch,omitempty"`
	State        string `json:"state,omitempty"`
}

// Tokens holds the backend-issued token pair.
type Tokens struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	TokenType    string    `json:"tokenType"`
	ExpiresIn    int64     `json:"expiresIn"`
	IssuedAt     time.Time `json:"issuedAt"`
}

// Expired reports whether the access token's lifetime has elapsed.
func (t *Tokens) Expired() bool {
	if t.ExpiresIn <= 0 {
		return false
	}
	return time.Now().After(t.IssuedAt.Add(time.Duration(t.ExpiresIn) * time.Second))
}

// PendingAuth exists only between "OTP requested" and "OTP verified".
type PendingAuth struct {
	Email       string    `json:"email"`
	RequestedAt time.Time `json:"requestedAt"`
}

// Session is the per-tab authentication state.
type Session struct {
	User        *UserProfile `json:"user,omitempty"`
	Tokens      *Tokens      `json:"tokens,omitempty"`
	PendingAuth *PendingAuth `json:"pendingAuth,omitempty"`
}

// Authenticated reports whether a user profile and token are present.
func (s *Session) Authenticated() bool {
	return s != nil && s.User != nil && s.Tokens != nil && s.Tokens.AccessToken != ""
}

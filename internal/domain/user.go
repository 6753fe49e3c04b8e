package domain

import (
	"time"
)

// User represents a registered user in the system.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TokenTypeBearer is the only token type currently issued.
const TokenTypeBearer = "bearer"

// AccessTokenTTLSeconds is the access token validity window surfaced to
// clients as accessExpiresIn.
const AccessTokenTTLSeconds = 3600

// TokenRecord is one row of the session ledger. A record is live while both
// IsExpired and IsRevoked are false; revocation always sets both.
type TokenRecord struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	IsExpired    bool      `json:"is_expired"`
	IsRevoked    bool      `json:"is_revoked"`
	CreatedAt    time.Time `json:"created_at"`
}

// Valid reports whether the record still represents a live session.
func (t *TokenRecord) Valid() bool {
	return !t.IsExpired && !t.IsRevoked
}

// Session is the result of a successful register, login, or refresh.
type Session struct {
	Username     string `json:"username"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"accessExpiresIn"`
}

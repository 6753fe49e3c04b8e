package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "uauth"

// ErrInvalidToken is returned for any token the codec rejects: bad signature,
// malformed payload, expiry, or subject mismatch.
var ErrInvalidToken = errors.New("invalid token")

// Codec issues and inspects the HS256 tokens that identify a user session.
// The subject of every token is the user's email.
type Codec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewCodec creates a codec with the given signing secret and token lifetimes.
func NewCodec(secret string, accessTTL, refreshTTL time.Duration) *Codec {
	return &Codec{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// WithClock overrides the codec's clock. Intended for expiry boundary tests.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	c.now = now
	return c
}

// AccessTTL returns the configured access token lifetime.
func (c *Codec) AccessTTL() time.Duration {
	return c.accessTTL
}

// IssueAccess creates a signed access token for the given subject.
func (c *Codec) IssueAccess(subject string) (string, error) {
	return c.issue(subject, c.accessTTL)
}

// IssueRefresh creates a signed refresh token for the given subject.
func (c *Codec) IssueRefresh(subject string) (string, error) {
	return c.issue(subject, c.refreshTTL)
}

func (c *Codec) issue(subject string, ttl time.Duration) (string, error) {
	now := c.now().UTC()
	claims := &jwt.RegisteredClaims{
		ID:        uuid.New().String(),
		Subject:   subject,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ExtractSubject returns the subject of a token whose signature verifies,
// regardless of expiry. A malformed or tampered token yields ErrInvalidToken.
func (c *Codec) ExtractSubject(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, c.keyFunc,
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}

// Validate checks the token's signature and expiry and that it was issued for
// the given subject.
func (c *Codec) Validate(tokenString, subject string) error {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, c.keyFunc,
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	if claims.Subject != subject {
		return fmt.Errorf("%w: subject mismatch", ErrInvalidToken)
	}
	return nil
}

func (c *Codec) keyFunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return c.secret, nil
}

package repository

import (
	"context"

	"github.com/aqdev/uauth/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// ExistsByEmail reports whether a user with the given email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// TokenRepository defines the interface for the session ledger. Records are
// append-only; invalidation flips the expired and revoked flags rather than
// deleting rows.
type TokenRepository interface {
	// Create appends a new live record to the ledger.
	Create(ctx context.Context, rec *domain.TokenRecord) error

	// GetByAccessToken retrieves a record by its access token, regardless of
	// its flags.
	GetByAccessToken(ctx context.Context, accessToken string) (*domain.TokenRecord, error)

	// ListValidByUserID returns the user's live records (neither expired nor
	// revoked).
	ListValidByUserID(ctx context.Context, userID string) ([]domain.TokenRecord, error)

	// Revoke flips both flags on the record with the given id.
	Revoke(ctx context.Context, id string) error

	// RevokeAllAndCreate atomically revokes every live record for the user
	// and inserts the new record in the same transaction, so concurrent
	// logins can never leave two live sessions behind.
	RevokeAllAndCreate(ctx context.Context, userID string, rec *domain.TokenRecord) error
}

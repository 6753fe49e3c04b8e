package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aqdev/uauth/internal/domain"
	"github.com/aqdev/uauth/pkg/database"
	apperrors "github.com/aqdev/uauth/pkg/errors"
)

// TokenRepository implements repository.TokenRepository using PostgreSQL.
type TokenRepository struct {
	db database.DBTX
}

// NewTokenRepository creates a new PostgreSQL-backed session ledger.
func NewTokenRepository(db database.DBTX) *TokenRepository {
	return &TokenRepository{db: db}
}

const tokenColumns = `id, user_id, access_token, refresh_token, token_type, expires_in, is_expired, is_revoked, created_at`

const insertTokenQuery = `
		INSERT INTO token_records (` + tokenColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

const revokeAllQuery = `
		UPDATE token_records
		SET is_expired = true, is_revoked = true
		WHERE user_id = $1 AND is_expired = false AND is_revoked = false`

// Concurrent rotations for the same user must not interleave: at READ
// COMMITTED, two transactions can each see zero live rows, revoke nothing,
// and insert, leaving two live sessions. The per-user advisory lock is held
// until the transaction commits.
const lockUserSessionsQuery = `SELECT pg_advisory_xact_lock(hashtext($1))`

// Create appends a new live record to the ledger.
func (r *TokenRepository) Create(ctx context.Context, rec *domain.TokenRecord) error {
	ctx, end := database.TraceQuery(ctx, "CreateTokenRecord", insertTokenQuery)
	_, err := r.db.Exec(ctx, insertTokenQuery,
		rec.ID,
		rec.UserID,
		rec.AccessToken,
		rec.RefreshToken,
		rec.TokenType,
		rec.ExpiresIn,
		rec.IsExpired,
		rec.IsRevoked,
		rec.CreatedAt,
	)
	end(err)
	if err != nil {
		return fmt.Errorf("insert token record: %w", err)
	}
	return nil
}

// GetByAccessToken retrieves a record by its access token, regardless of flags.
func (r *TokenRepository) GetByAccessToken(ctx context.Context, accessToken string) (*domain.TokenRecord, error) {
	query := `SELECT ` + tokenColumns + ` FROM token_records WHERE access_token = $1`

	ctx, end := database.TraceQuery(ctx, "GetTokenRecordByAccessToken", query)
	rec, err := scanTokenRecord(r.db.QueryRow(ctx, query, accessToken))
	end(err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get token record: %w", err)
	}
	return rec, nil
}

// ListValidByUserID returns the user's live records.
func (r *TokenRepository) ListValidByUserID(ctx context.Context, userID string) (records []domain.TokenRecord, err error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM token_records
		WHERE user_id = $1 AND is_expired = false AND is_revoked = false
		ORDER BY created_at DESC`

	ctx, end := database.TraceQuery(ctx, "ListValidTokenRecords", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list token records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec domain.TokenRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.AccessToken,
			&rec.RefreshToken,
			&rec.TokenType,
			&rec.ExpiresIn,
			&rec.IsExpired,
			&rec.IsRevoked,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan token record row: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token record rows: %w", err)
	}

	if records == nil {
		records = []domain.TokenRecord{}
	}
	return records, nil
}

// Revoke flips both ledger flags on the record with the given id.
func (r *TokenRepository) Revoke(ctx context.Context, id string) error {
	query := `
		UPDATE token_records
		SET is_expired = true, is_revoked = true
		WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "RevokeTokenRecord", query)
	ct, err := r.db.Exec(ctx, query, id)
	end(err)
	if err != nil {
		return fmt.Errorf("revoke token record: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("token record", id)
	}
	return nil
}

// RevokeAllAndCreate revokes every live record for the user and inserts the
// new record within a single transaction. A per-user advisory lock serializes
// concurrent rotations so the ledger never ends up with two live records.
func (r *TokenRepository) RevokeAllAndCreate(ctx context.Context, userID string, rec *domain.TokenRecord) (err error) {
	ctx, end := database.TraceQuery(ctx, "RevokeAllAndCreateTokenRecord", insertTokenQuery)
	defer func() { end(err) }()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, lockUserSessionsQuery, userID); err != nil {
		return fmt.Errorf("lock user sessions: %w", err)
	}

	if _, err := tx.Exec(ctx, revokeAllQuery, userID); err != nil {
		return fmt.Errorf("revoke user token records: %w", err)
	}

	if _, err := tx.Exec(ctx, insertTokenQuery,
		rec.ID,
		rec.UserID,
		rec.AccessToken,
		rec.RefreshToken,
		rec.TokenType,
		rec.ExpiresIn,
		rec.IsExpired,
		rec.IsRevoked,
		rec.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert token record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func scanTokenRecord(row pgx.Row) (*domain.TokenRecord, error) {
	var rec domain.TokenRecord
	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.AccessToken,
		&rec.RefreshToken,
		&rec.TokenType,
		&rec.ExpiresIn,
		&rec.IsExpired,
		&rec.IsRevoked,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Package repository implements token persistence for PostgreSQL.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/dbgrant/internal/database"
	apperrors "github.com/allisson/dbgrant/internal/errors"
	tokenDomain "github.com/allisson/dbgrant/internal/token/domain"
)

// PostgreSQLTokenRepository implements token persistence for PostgreSQL.
// Uses transaction support via database.GetTx().
type PostgreSQLTokenRepository struct {
	db *sql.DB
}

// Create inserts a new token. The token column carries a unique constraint,
// so an external collision surfaces as an error instead of a silent overwrite.
func (p *PostgreSQLTokenRepository) Create(ctx context.Context, token *tokenDomain.Token) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO email_tokens (id, email, kind, token, expires_at, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := querier.ExecContext(
		ctx,
		query,
		token.ID,
		token.Email,
		token.Kind,
		token.Token,
		token.ExpiresAt,
		token.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create token")
	}
	return nil
}

// GetValidLink retrieves an unexpired link token by its token string.
// Returns ErrTokenNotFound for absent and expired tokens alike.
func (p *PostgreSQLTokenRepository) GetValidLink(
	ctx context.Context,
	tokenStr string,
	now time.Time,
) (*tokenDomain.Token, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, email, kind, token, expires_at, created_at
			  FROM email_tokens
			  WHERE token = $1 AND kind = $2 AND expires_at >= $3`

	var token tokenDomain.Token

	err := querier.QueryRowContext(ctx, query, tokenStr, tokenDomain.KindLink, now).Scan(
		&token.ID,
		&token.Email,
		&token.Kind,
		&token.Token,
		&token.ExpiresAt,
		&token.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, tokenDomain.ErrTokenNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get link token")
	}

	return &token, nil
}

// Delete removes a token by ID. Deleting an already removed token is not an
// error; the single-use guarantee comes from the delete happening before the
// fetch token is revealed.
func (p *PostgreSQLTokenRepository) Delete(ctx context.Context, tokenID uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	_, err := querier.ExecContext(ctx, `DELETE FROM email_tokens WHERE id = $1`, tokenID)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete token")
	}
	return nil
}

// LatestFetchForEmail returns the fetch token with the latest expiry for an
// email. A freshly issued link must resolve to the freshly issued fetch
// token, not a stale one still on record.
func (p *PostgreSQLTokenRepository) LatestFetchForEmail(
	ctx context.Context,
	email string,
) (*tokenDomain.Token, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, email, kind, token, expires_at, created_at
			  FROM email_tokens
			  WHERE email = $1 AND kind = $2
			  ORDER BY expires_at DESC
			  LIMIT 1`

	var token tokenDomain.Token

	err := querier.QueryRowContext(ctx, query, email, tokenDomain.KindFetch).Scan(
		&token.ID,
		&token.Email,
		&token.Kind,
		&token.Token,
		&token.ExpiresAt,
		&token.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, tokenDomain.ErrTokenNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get fetch token")
	}

	return &token, nil
}

// EmailForFetch returns the email owning the given fetch token, requiring
// expires_at >= cutoff. Pass a zero cutoff to accept expired tokens.
func (p *PostgreSQLTokenRepository) EmailForFetch(
	ctx context.Context,
	tokenStr string,
	cutoff time.Time,
) (string, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT email FROM email_tokens
			  WHERE token = $1 AND kind = $2 AND expires_at >= $3`

	var email string

	err := querier.QueryRowContext(ctx, query, tokenStr, tokenDomain.KindFetch, cutoff).Scan(&email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", tokenDomain.ErrTokenNotFound
		}
		return "", apperrors.Wrap(err, "failed to resolve fetch token")
	}

	return email, nil
}

// DeleteExpired removes every token past its expiry at the given instant.
// Returns the number of rows removed; running it again is a no-op.
func (p *PostgreSQLTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM email_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired tokens")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count deleted tokens")
	}
	return rows, nil
}

// NewPostgreSQLTokenRepository creates a new PostgreSQL token repository.
func NewPostgreSQLTokenRepository(db *sql.DB) *PostgreSQLTokenRepository {
	return &PostgreSQLTokenRepository{db: db}
}

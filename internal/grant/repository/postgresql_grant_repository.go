// Package repository implements grant record persistence for PostgreSQL.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/allisson/dbgrant/internal/database"
	apperrors "github.com/allisson/dbgrant/internal/errors"
	grantDomain "github.com/allisson/dbgrant/internal/grant/domain"
	ruleDomain "github.com/allisson/dbgrant/internal/rule/domain"
)

// Wildcard matches any value in a grant filter dimension.
const Wildcard = "*"

// PostgreSQLGrantRepository implements grant record persistence for PostgreSQL.
// Uses transaction support via database.GetTx().
type PostgreSQLGrantRepository struct {
	db *sql.DB
}

// GetByTuple retrieves the grant record for (email, host, db, role).
// Returns ErrGrantNotFound if none exists.
func (p *PostgreSQLGrantRepository) GetByTuple(
	ctx context.Context,
	email, host, db string,
	role ruleDomain.Role,
) (*grantDomain.Grant, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, email, host, db, role, username, created_at, updated_at
			  FROM grants WHERE email = $1 AND host = $2 AND db = $3 AND role = $4`

	var grant grantDomain.Grant

	err := querier.QueryRowContext(ctx, query, email, host, db, role).Scan(
		&grant.ID,
		&grant.Email,
		&grant.Host,
		&grant.DB,
		&grant.Role,
		&grant.Username,
		&grant.CreatedAt,
		&grant.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, grantDomain.ErrGrantNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get grant")
	}

	return &grant, nil
}

// Upsert stores a grant record, updating username and updated_at when the
// (email, host, db, role) tuple already has one.
func (p *PostgreSQLGrantRepository) Upsert(ctx context.Context, grant *grantDomain.Grant) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO grants (id, email, host, db, role, username, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  ON CONFLICT (email, host, db, role)
			  DO UPDATE SET username = EXCLUDED.username, updated_at = EXCLUDED.updated_at`

	_, err := querier.ExecContext(
		ctx,
		query,
		grant.ID,
		grant.Email,
		grant.Host,
		grant.DB,
		grant.Role,
		grant.Username,
		grant.CreatedAt,
		grant.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to upsert grant")
	}
	return nil
}

// FindMatching returns every grant record matching the filter. Any dimension
// set to Wildcard matches all values.
func (p *PostgreSQLGrantRepository) FindMatching(
	ctx context.Context,
	email, host, db, role string,
) ([]*grantDomain.Grant, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, email, host, db, role, username, created_at, updated_at
			  FROM grants
			  WHERE ($1 = '*' OR email = $1)
			    AND ($2 = '*' OR host = $2)
			    AND ($3 = '*' OR db = $3)
			    AND ($4 = '*' OR role = $4)
			  ORDER BY created_at`

	rows, err := querier.QueryContext(ctx, query, email, host, db, role)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to find grants")
	}
	defer func() { _ = rows.Close() }()

	var grants []*grantDomain.Grant
	for rows.Next() {
		var grant grantDomain.Grant
		err := rows.Scan(
			&grant.ID,
			&grant.Email,
			&grant.Host,
			&grant.DB,
			&grant.Role,
			&grant.Username,
			&grant.CreatedAt,
			&grant.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan grant")
		}
		grants = append(grants, &grant)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate grants")
	}

	return grants, nil
}

// Delete removes a grant record by ID.
func (p *PostgreSQLGrantRepository) Delete(ctx context.Context, grantID uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM grants WHERE id = $1`

	_, err := querier.ExecContext(ctx, query, grantID)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete grant")
	}
	return nil
}

// NewPostgreSQLGrantRepository creates a new PostgreSQL grant repository.
func NewPostgreSQLGrantRepository(db *sql.DB) *PostgreSQLGrantRepository {
	return &PostgreSQLGrantRepository{db: db}
}

// Package repository implements rule and ruler persistence for PostgreSQL.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/allisson/dbgrant/internal/database"
	apperrors "github.com/allisson/dbgrant/internal/errors"
	ruleDomain "github.com/allisson/dbgrant/internal/rule/domain"
)

// PostgreSQLRuleRepository implements allow/deny rule persistence for PostgreSQL.
// Uses transaction support via database.GetTx().
type PostgreSQLRuleRepository struct {
	db *sql.DB
}

// Upsert inserts a rule row, ignoring duplicates. Each row is one db of the
// (email, host, role, which) key, so repeated inserts implement set-union.
func (p *PostgreSQLRuleRepository) Upsert(ctx context.Context, rule *ruleDomain.Rule) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO rules (id, email, host, role, db, which, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  ON CONFLICT (email, host, role, db, which) DO NOTHING`

	_, err := querier.ExecContext(
		ctx,
		query,
		rule.ID,
		rule.Email,
		rule.Host,
		rule.Role,
		rule.DB,
		rule.Which,
		rule.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to upsert rule")
	}
	return nil
}

// Exists reports whether any rule in the given collection matches
// (email, host, db) with a role from the widened set.
func (p *PostgreSQLRuleRepository) Exists(
	ctx context.Context,
	email, host, db string,
	roles []ruleDomain.Role,
	which ruleDomain.Kind,
) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	roleStrs := make([]string, len(roles))
	for i, role := range roles {
		roleStrs[i] = string(role)
	}

	query := `SELECT EXISTS (
				SELECT 1 FROM rules
				WHERE email = $1 AND host = $2 AND db = $3
				  AND role = ANY($4) AND which = $5
			  )`

	var exists bool
	err := querier.QueryRowContext(ctx, query, email, host, db, pq.Array(roleStrs), which).Scan(&exists)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to check rule existence")
	}
	return exists, nil
}

// HasAllowForEmail reports whether any allow rule mentions the email.
// Gates token generation: no allow rule, no tokens.
func (p *PostgreSQLRuleRepository) HasAllowForEmail(ctx context.Context, email string) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT EXISTS (SELECT 1 FROM rules WHERE email = $1 AND which = $2)`

	var exists bool
	err := querier.QueryRowContext(ctx, query, email, ruleDomain.KindAllow).Scan(&exists)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to check allow rules for email")
	}
	return exists, nil
}

// NewPostgreSQLRuleRepository creates a new PostgreSQL rule repository.
func NewPostgreSQLRuleRepository(db *sql.DB) *PostgreSQLRuleRepository {
	return &PostgreSQLRuleRepository{db: db}
}

// PostgreSQLRulerRepository implements ruler document persistence for PostgreSQL.
type PostgreSQLRulerRepository struct {
	db *sql.DB
}

// Create stores a new ruler document.
func (p *PostgreSQLRulerRepository) Create(ctx context.Context, ruler *ruleDomain.Ruler) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO rulers (id, email, hosts, dbs, emails, which, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := querier.ExecContext(
		ctx,
		query,
		ruler.ID,
		ruler.Email,
		ruler.Hosts,
		ruler.DBs,
		ruler.Emails,
		ruler.Which,
		ruler.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create ruler")
	}
	return nil
}

// GetByEmail retrieves the ruler document for an admin email.
// Returns ErrRulerNotFound if the email has no rule-setting authority.
func (p *PostgreSQLRulerRepository) GetByEmail(ctx context.Context, email string) (*ruleDomain.Ruler, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, email, hosts, dbs, emails, which, created_at
			  FROM rulers WHERE email = $1`

	var ruler ruleDomain.Ruler

	err := querier.QueryRowContext(ctx, query, email).Scan(
		&ruler.ID,
		&ruler.Email,
		&ruler.Hosts,
		&ruler.DBs,
		&ruler.Emails,
		&ruler.Which,
		&ruler.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ruleDomain.ErrRulerNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get ruler")
	}

	return &ruler, nil
}

// NewPostgreSQLRulerRepository creates a new PostgreSQL ruler repository.
func NewPostgreSQLRulerRepository(db *sql.DB) *PostgreSQLRulerRepository {
	return &PostgreSQLRulerRepository{db: db}
}

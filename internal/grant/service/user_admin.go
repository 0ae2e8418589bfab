package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"

	"github.com/allisson/dbgrant/internal/config"
	apperrors "github.com/allisson/dbgrant/internal/errors"
	ruleDomain "github.com/allisson/dbgrant/internal/rule/domain"
)

var (
	// ErrDuplicateUser indicates the user already exists on the target host.
	ErrDuplicateUser = apperrors.New("database user already exists")

	// ErrUserNotFound indicates the user does not exist on the target host.
	ErrUserNotFound = apperrors.New("database user not found")
)

// UserAdmin runs user administration commands against provisioning hosts,
// speaking the dialect the host's driver implies.
type UserAdmin interface {
	// CreateUser creates the user with the passphrase and grants role on db.
	// Returns ErrDuplicateUser if the user already exists.
	CreateUser(ctx context.Context, host, username, passphrase, db string, role ruleDomain.Role) error

	// UpdatePassword resets the user's passphrase. Returns ErrUserNotFound
	// if the user does not exist.
	UpdatePassword(ctx context.Context, host, username, passphrase string) error

	// DropUser removes the user. Returns ErrUserNotFound if absent.
	DropUser(ctx context.Context, host, username string) error
}

// sqlUserAdmin implements UserAdmin over an AdminPool.
//
// User names and database names cannot be bound as query parameters, so
// they are quoted with the dialect's identifier rules. Usernames are
// derived server-side and passphrases stay lowercase alphanumeric, but quoting
// is unconditional anyway.
type sqlUserAdmin struct {
	pool           *AdminPool
	commandTimeout time.Duration
}

func (s *sqlUserAdmin) CreateUser(ctx context.Context, host, username, passphrase, db string, role ruleDomain.Role) error {
	conn, err := s.pool.Conn(ctx, host)
	if err != nil {
		return err
	}

	var stmts []string
	switch conn.Driver {
	case config.DriverPostgres:
		stmts = postgresCreateUser(username, passphrase, db, role)
	case config.DriverMySQL:
		stmts = mysqlCreateUser(username, passphrase, db, role)
	default:
		return apperrors.Wrap(apperrors.ErrConfig, "unsupported admin driver "+conn.Driver)
	}

	return s.run(ctx, host, conn, stmts)
}

func (s *sqlUserAdmin) UpdatePassword(ctx context.Context, host, username, passphrase string) error {
	conn, err := s.pool.Conn(ctx, host)
	if err != nil {
		return err
	}

	var stmt string
	switch conn.Driver {
	case config.DriverPostgres:
		stmt = "ALTER USER " + pq.QuoteIdentifier(username) + " WITH PASSWORD " + pq.QuoteLiteral(passphrase)
	case config.DriverMySQL:
		stmt = "ALTER USER " + mysqlQuoteAccount(username) + " IDENTIFIED BY " + mysqlQuoteString(passphrase)
	default:
		return apperrors.Wrap(apperrors.ErrConfig, "unsupported admin driver "+conn.Driver)
	}

	return s.run(ctx, host, conn, []string{stmt})
}

func (s *sqlUserAdmin) DropUser(ctx context.Context, host, username string) error {
	conn, err := s.pool.Conn(ctx, host)
	if err != nil {
		return err
	}

	var stmt string
	switch conn.Driver {
	case config.DriverPostgres:
		stmt = "DROP USER " + pq.QuoteIdentifier(username)
	case config.DriverMySQL:
		stmt = "DROP USER " + mysqlQuoteAccount(username)
	default:
		return apperrors.Wrap(apperrors.ErrConfig, "unsupported admin driver "+conn.Driver)
	}

	return s.run(ctx, host, conn, []string{stmt})
}

// run executes the statements in order with a bounded timeout each.
// Driver errors are classified before wrapping; an auth error invalidates
// the cached connection so the next call re-dials.
func (s *sqlUserAdmin) run(ctx context.Context, host string, conn *AdminConn, stmts []string) error {
	for _, stmt := range stmts {
		cmdCtx, cancel := context.WithTimeout(ctx, s.commandTimeout)
		_, err := conn.DB.ExecContext(cmdCtx, stmt)
		cancel()
		if err == nil {
			continue
		}
		if isAuthError(err) {
			s.pool.Invalidate(host)
			return apperrors.Wrap(apperrors.ErrConfig, "admin auth rejected by host "+host+": "+err.Error())
		}
		if classified := classifyUserError(err); classified != nil {
			return classified
		}
		return apperrors.Wrap(err, "user administration command failed on host "+host)
	}
	return nil
}

// classifyUserError maps driver-specific codes onto the two conditions the
// provisioning flow branches on. Returns nil for anything else.
func classifyUserError(err error) error {
	var pqErr *pq.Error
	if apperrors.As(err, &pqErr) {
		switch pqErr.Code {
		case "42710": // duplicate_object
			return apperrors.Wrap(ErrDuplicateUser, pqErr.Message)
		case "42704": // undefined_object
			return apperrors.Wrap(ErrUserNotFound, pqErr.Message)
		}
		return nil
	}
	var myErr *mysql.MySQLError
	if apperrors.As(err, &myErr) {
		// 1396 ER_CANNOT_USER covers both CREATE USER on an existing account
		// and ALTER/DROP USER on a missing one; the message names the verb.
		if myErr.Number == 1396 {
			if strings.Contains(myErr.Message, "CREATE USER") {
				return apperrors.Wrap(ErrDuplicateUser, myErr.Message)
			}
			return apperrors.Wrap(ErrUserNotFound, myErr.Message)
		}
	}
	return nil
}

func postgresCreateUser(username, passphrase, db string, role ruleDomain.Role) []string {
	user := pq.QuoteIdentifier(username)
	stmts := []string{
		"CREATE USER " + user + " WITH PASSWORD " + pq.QuoteLiteral(passphrase),
		"GRANT CONNECT ON DATABASE " + pq.QuoteIdentifier(db) + " TO " + user,
		"GRANT pg_read_all_data TO " + user,
	}
	if role == ruleDomain.RoleReadWrite {
		stmts = append(stmts, "GRANT pg_write_all_data TO "+user)
	}
	return stmts
}

func mysqlCreateUser(username, passphrase, db string, role ruleDomain.Role) []string {
	account := mysqlQuoteAccount(username)
	privileges := "SELECT"
	if role == ruleDomain.RoleReadWrite {
		privileges = "SELECT, INSERT, UPDATE, DELETE"
	}
	return []string{
		"CREATE USER " + account + " IDENTIFIED BY " + mysqlQuoteString(passphrase),
		"GRANT " + privileges + " ON " + mysqlQuoteIdentifier(db) + ".* TO " + account,
	}
}

func mysqlQuoteAccount(username string) string {
	return mysqlQuoteString(username) + "@'%'"
}

func mysqlQuoteString(s string) string {
	return "'" + strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), "'", `\'`) + "'"
}

func mysqlQuoteIdentifier(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

// NewUserAdmin creates a UserAdmin over the admin pool.
func NewUserAdmin(pool *AdminPool, commandTimeout time.Duration) UserAdmin {
	return &sqlUserAdmin{pool: pool, commandTimeout: commandTimeout}
}

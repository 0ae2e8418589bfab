package service

import (
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	ruleDomain "github.com/allisson/dbgrant/internal/rule/domain"
)

func TestPostgresCreateUser(t *testing.T) {
	t.Run("read role", func(t *testing.T) {
		stmts := postgresCreateUser("alice_example_org_read", "word-word", "app_db", ruleDomain.RoleRead)
		assert.Equal(t, []string{
			`CREATE USER "alice_example_org_read" WITH PASSWORD 'word-word'`,
			`GRANT CONNECT ON DATABASE "app_db" TO "alice_example_org_read"`,
			`GRANT pg_read_all_data TO "alice_example_org_read"`,
		}, stmts)
	})

	t.Run("readWrite adds write grant", func(t *testing.T) {
		stmts := postgresCreateUser("u", "p", "d", ruleDomain.RoleReadWrite)
		assert.Contains(t, stmts, `GRANT pg_write_all_data TO "u"`)
	})
}

func TestMysqlCreateUser(t *testing.T) {
	t.Run("read role", func(t *testing.T) {
		stmts := mysqlCreateUser("alice_example_org_read", "word-word", "app_db", ruleDomain.RoleRead)
		assert.Equal(t, []string{
			`CREATE USER 'alice_example_org_read'@'%' IDENTIFIED BY 'word-word'`,
			"GRANT SELECT ON `app_db`.* TO 'alice_example_org_read'@'%'",
		}, stmts)
	})

	t.Run("readWrite grants DML", func(t *testing.T) {
		stmts := mysqlCreateUser("u", "p", "d", ruleDomain.RoleReadWrite)
		assert.Contains(t, stmts[1], "SELECT, INSERT, UPDATE, DELETE")
	})
}

func TestMysqlQuoteString(t *testing.T) {
	assert.Equal(t, `'it\'s'`, mysqlQuoteString("it's"))
	assert.Equal(t, `'a\\b'`, mysqlQuoteString(`a\b`))
}

func TestClassifyUserError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected error
	}{
		{
			name:     "postgres duplicate object",
			err:      &pq.Error{Code: "42710", Message: `role "u" already exists`},
			expected: ErrDuplicateUser,
		},
		{
			name:     "postgres undefined object",
			err:      &pq.Error{Code: "42704", Message: `role "u" does not exist`},
			expected: ErrUserNotFound,
		},
		{
			name:     "mysql create on existing account",
			err:      &mysql.MySQLError{Number: 1396, Message: "Operation CREATE USER failed for 'u'@'%'"},
			expected: ErrDuplicateUser,
		},
		{
			name:     "mysql drop on missing account",
			err:      &mysql.MySQLError{Number: 1396, Message: "Operation DROP USER failed for 'u'@'%'"},
			expected: ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := classifyUserError(tt.err)
			assert.ErrorIs(t, classified, tt.expected)
		})
	}

	t.Run("other errors pass through unclassified", func(t *testing.T) {
		assert.Nil(t, classifyUserError(&pq.Error{Code: "42601", Message: "syntax error"}))
	})
}

func TestIsAuthError(t *testing.T) {
	assert.True(t, isAuthError(&pq.Error{Code: "28P01"}))
	assert.True(t, isAuthError(&mysql.MySQLError{Number: 1045}))
	assert.False(t, isAuthError(&pq.Error{Code: "42710"}))
}

// Package domain defines grant bookkeeping records and the credentials
// handed back to callers.
package domain

import (
	"time"

	"github.com/google/uuid"

	ruleDomain "github.com/allisson/dbgrant/internal/rule/domain"
)

// Grant records that a database user was provisioned for
// (email, host, db, role). The password is never stored; only the caller
// holding the provisioning response ever sees it.
type Grant struct {
	ID        uuid.UUID
	Email     string
	Host      string
	DB        string
	Role      ruleDomain.Role
	Username  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Credentials is the provisioning result returned to the caller. This is
// the only place the password ever appears.
type Credentials struct {
	Host     string
	DB       string
	Role     ruleDomain.Role
	Username string
	Password string
}

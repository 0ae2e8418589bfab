// Package usecase implements rule evaluation and administration: grant
// eligibility checks with asymmetric role widening, ruler-scoped rule
// writes, and ruler creation.
package usecase

import (
	"context"

	ruleDomain "github.com/allisson/dbgrant/internal/rule/domain"
)

// RuleRepository defines persistence operations for allow/deny rules.
type RuleRepository interface {
	// Upsert inserts a rule row with set-union semantics.
	Upsert(ctx context.Context, rule *ruleDomain.Rule) error

	// Exists reports whether any rule of the given kind matches
	// (email, host, db) with a role from the set.
	Exists(ctx context.Context, email, host, db string, roles []ruleDomain.Role, which ruleDomain.Kind) (bool, error)

	// HasAllowForEmail reports whether any allow rule mentions the email.
	HasAllowForEmail(ctx context.Context, email string) (bool, error)
}

// RulerRepository defines persistence operations for ruler documents.
type RulerRepository interface {
	// Create stores a new ruler document.
	Create(ctx context.Context, ruler *ruleDomain.Ruler) error

	// GetByEmail retrieves the ruler document for an admin email.
	// Returns ErrRulerNotFound when the email has no authority.
	GetByEmail(ctx context.Context, email string) (*ruleDomain.Ruler, error)
}

// AdminHostChecker reports whether the server holds admin credentials for a
// host. Without them a grant could never be provisioned, so rule checks
// fail closed.
type AdminHostChecker interface {
	HasHost(host string) bool
}

// SetRuleInput names the rule a ruler wants to write.
type SetRuleInput struct {
	Email string
	Host  string
	DB    string
	Role  ruleDomain.Role
	Which ruleDomain.Kind
}

// CreateRulerInput carries the scope dimensions for a new ruler.
type CreateRulerInput struct {
	Email  string
	Hosts  string
	DBs    string
	Emails string
	Which  string
}

// RuleUseCase defines rule evaluation and administration operations.
type RuleUseCase interface {
	// CanGrant reports whether role on (host, db) may be granted to email:
	// an allow rule must match under upward widening, no deny rule may match
	// under downward widening, and the server must hold admin credentials
	// for the host.
	CanGrant(ctx context.Context, email, host, db string, role ruleDomain.Role) (bool, error)

	// SetRule writes a rule on behalf of rulerEmail. Every dimension of the
	// rule must fall inside the ruler's scope or ErrForbidden is returned.
	SetRule(ctx context.Context, rulerEmail string, input SetRuleInput) error

	// SetRuleAsOperator writes a rule without a ruler check. Operator CLI only.
	SetRuleAsOperator(ctx context.Context, input SetRuleInput) error

	// CreateRuler stores a new ruler document. Operator-only.
	CreateRuler(ctx context.Context, input CreateRulerInput) error
}

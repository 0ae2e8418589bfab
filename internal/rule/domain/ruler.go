package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ScopeAll marks a ruler dimension with no restriction.
const ScopeAll = "all"

// Ruler scopes the slice of rule-space an administrator email may edit.
// Each dimension is either ScopeAll or a comma-separated set: Hosts holds
// exact host names, DBs holds database name prefixes, Emails holds email
// address suffixes, and Which holds rule kinds.
//
// Ruler documents are created by a higher-trust process (operator CLI);
// the grant flow only reads them.
type Ruler struct {
	ID        uuid.UUID
	Email     string
	Hosts     string
	DBs       string
	Emails    string
	Which     string
	CreatedAt time.Time
}

// AllowsHost reports whether the ruler may edit rules for the host.
func (r *Ruler) AllowsHost(host string) bool {
	return scopeAllows(r.Hosts, func(entry string) bool {
		return entry == host
	})
}

// AllowsDB reports whether the ruler may edit rules for the database.
// Scope entries are name prefixes.
func (r *Ruler) AllowsDB(db string) bool {
	return scopeAllows(r.DBs, func(entry string) bool {
		return strings.HasPrefix(db, entry)
	})
}

// AllowsEmail reports whether the ruler may edit rules for the subject email.
// Scope entries are address suffixes, e.g. "@lbl.gov".
func (r *Ruler) AllowsEmail(email string) bool {
	return scopeAllows(r.Emails, func(entry string) bool {
		return strings.HasSuffix(email, entry)
	})
}

// AllowsKind reports whether the ruler may write to the rule collection.
func (r *Ruler) AllowsKind(which Kind) bool {
	return scopeAllows(r.Which, func(entry string) bool {
		return entry == string(which)
	})
}

// scopeAllows evaluates one ruler dimension. Every dimension is checked
// independently by the caller; a ruler scoped to one host must not leak
// authority over another host through a match on a different dimension.
func scopeAllows(scope string, match func(entry string) bool) bool {
	if scope == ScopeAll {
		return true
	}
	for entry := range strings.SplitSeq(scope, ",") {
		entry = strings.TrimSpace(entry)
		if entry != "" && match(entry) {
			return true
		}
	}
	return false
}

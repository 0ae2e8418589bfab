// Package service holds the provisioning building blocks: username
// derivation, passphrase generation, admin connection pooling, and
// dialect-aware database user administration.
package service

import (
	"strings"

	ruleDomain "github.com/allisson/dbgrant/internal/rule/domain"
)

// UsernameFromEmail derives the database username for (email, role).
// The mapping is deterministic so repeated grants for the same pair always
// land on the same user: the email is lowercased, every character outside
// [a-z0-9] becomes '_', and the role is appended. Usernames stay plain
// identifiers in every SQL dialect, no quoting needed.
func UsernameFromEmail(email string, role ruleDomain.Role) string {
	var b strings.Builder
	b.Grow(len(email) + len(role) + 1)
	for _, c := range strings.ToLower(email) {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteRune(c)
		} else {
			b.WriteByte('_')
		}
	}
	b.WriteByte('_')
	b.WriteString(string(role))
	return b.String()
}

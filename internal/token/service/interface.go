// Package service provides token string generation.
package service

// TokenGenerator produces opaque token strings for links and fetches.
type TokenGenerator interface {
	// NewToken returns a fresh random token string with at least 128 bits
	// of entropy.
	NewToken() string
}

package service

import (
	"crypto/rand"
	"encoding/hex"
)

// randomTokenGenerator draws token bytes straight from crypto/rand.
type randomTokenGenerator struct{}

// NewToken returns 32 hex characters covering 128 random bits. The string
// is URL-safe and needs no escaping in links or connection strings.
func (g *randomTokenGenerator) NewToken() string {
	buf := make([]byte, 16)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}

// NewTokenGenerator creates a TokenGenerator backed by crypto/rand.
func NewTokenGenerator() TokenGenerator {
	return &randomTokenGenerator{}
}

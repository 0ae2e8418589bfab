package service

import (
	"crypto/rand"
	"math/big"
	"strings"

	apperrors "github.com/allisson/dbgrant/internal/errors"
)

const (
	// passphraseAlphabet holds characters that never need escaping in a
	// connection string.
	passphraseAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

	// passphraseGroups and passphraseGroupLength size the passphrase.
	// groups * length * log2(len(alphabet)) must stay at or above 128.
	passphraseGroups      = 5
	passphraseGroupLength = 5

	// passphraseSeparator joins the groups.
	passphraseSeparator = "-"
)

// PassphraseGenerator produces database user passwords.
type PassphraseGenerator interface {
	// NewPassphrase returns a fresh random passphrase with at least 128
	// bits of entropy.
	NewPassphrase() (string, error)
}

// randomPassphraseGenerator draws hyphen-separated groups of lowercase
// alphanumeric characters. The grouping keeps the password readable over
// the phone while the character pool keeps it copy-paste safe in every DSN.
type randomPassphraseGenerator struct {
	alphabet string
	groups   int
	length   int
}

// NewPassphrase returns the configured number of character groups joined
// by the separator, drawn with crypto/rand.
func (g *randomPassphraseGenerator) NewPassphrase() (string, error) {
	max := big.NewInt(int64(len(g.alphabet)))
	parts := make([]string, g.groups)
	for i := range parts {
		var sb strings.Builder
		for range g.length {
			n, err := rand.Int(rand.Reader, max)
			if err != nil {
				return "", apperrors.Wrap(err, "failed to draw random character")
			}
			sb.WriteByte(g.alphabet[n.Int64()])
		}
		parts[i] = sb.String()
	}
	return strings.Join(parts, passphraseSeparator), nil
}

// NewPassphraseGenerator creates a PassphraseGenerator with the default
// alphabet and sizing.
func NewPassphraseGenerator() PassphraseGenerator {
	return &randomPassphraseGenerator{
		alphabet: passphraseAlphabet,
		groups:   passphraseGroups,
		length:   passphraseGroupLength,
	}
}

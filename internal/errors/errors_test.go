package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	t.Run("wraps error with context", func(t *testing.T) {
		err := Wrap(ErrNotFound, "token lookup")
		assert.Error(t, err)
		assert.Equal(t, "token lookup: not found", err.Error())
		assert.True(t, Is(err, ErrNotFound))
	})

	t.Run("returns nil for nil error", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, "context"))
	})

	t.Run("preserves the chain across multiple wraps", func(t *testing.T) {
		err := Wrap(Wrap(ErrConfig, "admin host"), "provision")
		assert.True(t, Is(err, ErrConfig))
		assert.False(t, Is(err, ErrForbidden))
	})
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("outer: %w", ErrForbidden)
	assert.True(t, Is(err, ErrForbidden))
	assert.False(t, Is(err, ErrUnauthorized))
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{ErrNotFound, ErrConflict, ErrInvalidInput, ErrUnauthorized, ErrForbidden, ErrConfig}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			assert.False(t, Is(a, b), "%v should not match %v", a, b)
		}
	}
}

package derrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches the direct code", func(t *testing.T) {
		err := New(CodeValidation, "bad input")
		assert.True(t, HasCode(err, CodeValidation))
		assert.False(t, HasCode(err, CodeConflict))
	})

	t.Run("matches a wrapped code", func(t *testing.T) {
		inner := New(CodeNotFound, "missing")
		err := Wrap(inner, CodeInternal, "lookup failed")
		assert.True(t, HasCode(err, CodeInternal))
		assert.True(t, HasCode(err, CodeNotFound))
	})

	t.Run("sees through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("context: %w", New(CodeBusy, "action in flight"))
		assert.True(t, HasCode(err, CodeBusy))
	})

	t.Run("uncoded errors match nothing", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("plain"), CodeInternal))
	})
}

func TestCodeOf(t *testing.T) {
	t.Run("returns the outermost code", func(t *testing.T) {
		err := Wrap(New(CodeNotFound, "missing"), CodeUnavailable, "store unreachable")
		assert.Equal(t, CodeUnavailable, CodeOf(err))
	})

	t.Run("defaults to internal", func(t *testing.T) {
		assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
	})
}

func TestErrorMessage(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Wrap(cause, CodeUnavailable, "profile store unreachable")

	require.EqualError(t, err, "profile store unreachable: dial tcp: refused")
	assert.Equal(t, "profile store unreachable", MessageOf(err))
	assert.ErrorIs(t, err, cause)
}

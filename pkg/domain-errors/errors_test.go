package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches direct coded error", func(t *testing.T) {
		err := New(CodeDuplicateSubmission, "already answered")
		assert.True(t, HasCode(err, CodeDuplicateSubmission))
		assert.False(t, HasCode(err, CodeValidation))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("submit: %w", New(CodeValidation, "email required"))
		assert.True(t, HasCode(err, CodeValidation))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("db down"), CodeInternal))
	})
}

func TestWrap(t *testing.T) {
	t.Run("preserves cause for errors.Is", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := Wrap(cause, CodeInternal, "failed to persist response")
		require.Error(t, err)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, CodeInternal, CodeOf(err))
	})

	t.Run("nil cause yields nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
	})
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeNotFound, CodeOf(New(CodeNotFound, "respondent not found")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("uncoded")))
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "email required", MessageOf(New(CodeValidation, "email required")))
	assert.Empty(t, MessageOf(errors.New("uncoded")))
}

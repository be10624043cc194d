package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessages(t *testing.T) {
	assert.Equal(t, "limit: must be positive", Validation("limit", "must be positive").Error())
	assert.Equal(t, "bad input", (&ValidationError{Message: "bad input"}).Error())
	assert.Equal(t, "User with id 42 not found", (&NotFoundError{ID: "42"}).Error())
	assert.Equal(t, "User with email a@b.c already exists", (&ConflictError{Email: "a@b.c"}).Error())
}

func TestStoreWrapping(t *testing.T) {
	cause := errors.New("connection refused")

	err := Store("find", cause)
	assert.True(t, IsStore(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "store find: connection refused", err.Error())

	assert.Nil(t, Store("find", nil))
	assert.Same(t, err, Store("count", err))
}

func TestStorePassesTaxonomyThrough(t *testing.T) {
	tests := []error{
		Validation("id", "invalid"),
		&NotFoundError{ID: "1"},
		fmt.Errorf("update: %w", &ConflictError{Email: "a@b.c"}),
	}
	for _, in := range tests {
		out := Store("update", in)
		assert.Equal(t, in, out)
		assert.False(t, IsStore(out))
	}
}

func TestClassifiersAreExclusive(t *testing.T) {
	err := &NotFoundError{ID: "1"}
	assert.True(t, IsNotFound(err))
	assert.False(t, IsValidation(err))
	assert.False(t, IsConflict(err))
	assert.False(t, IsStore(err))
}

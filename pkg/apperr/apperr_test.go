package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_HasKind_SeesThroughWrapping(t *testing.T) {
	err := NotFound("case not found")
	wrapped := fmt.Errorf("loading case: %w", err)

	assert.True(t, HasKind(wrapped, KindNotFound))
	assert.False(t, HasKind(wrapped, KindForbidden))
	assert.False(t, HasKind(errors.New("plain"), KindNotFound))
	assert.False(t, HasKind(nil, KindNotFound))
}

func Test_KindOf_DefaultsToInternal(t *testing.T) {
	assert.Equal(t, KindForbidden, KindOf(Forbidden("no")))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func Test_Internal_KeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, KindInternal, err.Kind)
}

func Test_New_MessageIsStable(t *testing.T) {
	err := InvalidStatus("invalid case status")
	assert.Equal(t, "invalid case status", err.Error())
	assert.Nil(t, errors.Unwrap(err))
}

package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuntimeError_Format(t *testing.T) {
	err := newError(ErrCodeDivisionByZero, 4, "%d / 0", 5)
	assert.Equal(t, "DIVISION_BY_ZERO: 5 / 0 (pos=4)", err.Error())

	err = newError(ErrCodeNoReturnReached, -1, "program ended without ret")
	assert.Equal(t, "NO_RETURN_REACHED: program ended without ret", err.Error())
}

func TestRuntimeError_WrappedCodes(t *testing.T) {
	wrapped := fmt.Errorf("evaluating: %w", newError(ErrCodeStepLimitExceeded, 0, "exceeded"))

	assert.Equal(t, ErrCodeStepLimitExceeded, CodeOf(wrapped))
	assert.True(t, IsStepLimit(wrapped))
	assert.False(t, IsOverflow(wrapped))
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
	assert.False(t, IsCode(nil, ErrCodeStepLimitExceeded))
}

func TestAt_StampsOnlyUnsetPositions(t *testing.T) {
	err := at(newVarError(ErrCodeUnassignedVariable, 2, "unset"), 9)
	assert.Equal(t, 9, err.(*RuntimeError).Pos)

	err = at(newError(ErrCodeTypeMismatch, 3, "x"), 9)
	assert.Equal(t, 3, err.(*RuntimeError).Pos)
}

package engine

import (
	"errors"
	"fmt"
	"strconv"
)

// RuntimeError is a fatal condition detected while executing a program.
// Every error returned by Execute is a *RuntimeError, possibly wrapped.
type RuntimeError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Pos is the record position that raised the error, or -1.
	Pos int

	// VarID is the variable involved, or -1.
	VarID int

	// Details contains additional context.
	Details map[string]string
}

// ErrorCode categorizes runtime errors.
type ErrorCode string

const (
	// ErrCodeSSAViolation indicates a second assignment under the pure policy.
	ErrCodeSSAViolation ErrorCode = "SSA_VIOLATION"

	// ErrCodeUnassignedVariable indicates a read of a never-assigned variable.
	ErrCodeUnassignedVariable ErrorCode = "UNASSIGNED_VARIABLE"

	// ErrCodeVariableOutOfRange indicates a variable id beyond the table bound.
	ErrCodeVariableOutOfRange ErrorCode = "VARIABLE_OUT_OF_RANGE"

	// ErrCodeOperandMissing indicates too few operands for an operator.
	ErrCodeOperandMissing ErrorCode = "OPERAND_MISSING"

	// ErrCodeTypeMismatch indicates an operand of the wrong kind.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"

	// ErrCodeDivisionByZero indicates a zero divisor.
	ErrCodeDivisionByZero ErrorCode = "DIVISION_BY_ZERO"

	// ErrCodeOverflowPromoted marks a result widened to hold it. It only
	// appears in trace steps, never as a returned error.
	ErrCodeOverflowPromoted ErrorCode = "OVERFLOW_PROMOTED"

	// ErrCodeOverflowBeyondMaxWidth indicates a result wider than 64 bits.
	ErrCodeOverflowBeyondMaxWidth ErrorCode = "OVERFLOW_BEYOND_MAX_WIDTH"

	// ErrCodeUnknownOperator indicates an operator the executor cannot run.
	ErrCodeUnknownOperator ErrorCode = "UNKNOWN_OPERATOR"

	// ErrCodeBlockStackOverflow indicates nesting deeper than the limit.
	ErrCodeBlockStackOverflow ErrorCode = "BLOCK_STACK_OVERFLOW"

	// ErrCodeBlockStackUnderflow indicates an exit from the root block.
	ErrCodeBlockStackUnderflow ErrorCode = "BLOCK_STACK_UNDERFLOW"

	// ErrCodeBlockLimitExceeded indicates more blocks than the limit.
	ErrCodeBlockLimitExceeded ErrorCode = "BLOCK_LIMIT_EXCEEDED"

	// ErrCodeNoValidPhiSource indicates no phi source was assigned.
	ErrCodeNoValidPhiSource ErrorCode = "NO_VALID_PHI_SOURCE"

	// ErrCodeNoReturnReached indicates the program ended without a result.
	ErrCodeNoReturnReached ErrorCode = "NO_RETURN_REACHED"

	// ErrCodeStepLimitExceeded indicates the step budget ran out.
	ErrCodeStepLimitExceeded ErrorCode = "STEP_LIMIT_EXCEEDED"

	// ErrCodeUnbalancedBlock indicates a block opener with no matching end.
	ErrCodeUnbalancedBlock ErrorCode = "UNBALANCED_BLOCK"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("%s: %s (pos=%d)", e.Code, e.Message, e.Pos)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code ErrorCode, pos int, format string, args ...any) *RuntimeError {
	return &RuntimeError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Pos:     pos,
		VarID:   -1,
	}
}

func newVarError(code ErrorCode, id int, format string, args ...any) *RuntimeError {
	e := newError(code, -1, format, args...)
	e.VarID = id
	e.Details = map[string]string{"var": strconv.Itoa(id)}
	return e
}

// at stamps a position onto an error raised below the executor.
func at(err error, pos int) error {
	var re *RuntimeError
	if errors.As(err, &re) && re.Pos < 0 {
		re.Pos = pos
	}
	return err
}

// CodeOf returns the code of a RuntimeError in err's chain, or "".
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsCode returns true if err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// IsSSAViolation returns true if the error is a pure-policy reassignment.
func IsSSAViolation(err error) bool {
	return IsCode(err, ErrCodeSSAViolation)
}

// IsDivisionByZero returns true if the error is a zero divisor.
func IsDivisionByZero(err error) bool {
	return IsCode(err, ErrCodeDivisionByZero)
}

// IsOverflow returns true if a result did not fit in 64 bits.
// The evaluation that raised it failed cleanly; the caller may continue
// with a new evaluation.
func IsOverflow(err error) bool {
	return IsCode(err, ErrCodeOverflowBeyondMaxWidth)
}

// IsStepLimit returns true if the error is a step budget exhaustion.
func IsStepLimit(err error) bool {
	return IsCode(err, ErrCodeStepLimitExceeded)
}

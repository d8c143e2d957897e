package compiler

import (
	"fmt"

	"github.com/LowLevelDaniel/rpnmath/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// Block structure errors (E100-E109)
	ErrEndWithoutBlock  = "E100" // end with no open block
	ErrUnclosedBlock    = "E101" // if/while/loop never closed
	ErrBranchOutsideIf  = "E102" // else/elif not directly inside an if chain
	ErrBranchAfterElse  = "E103" // else/elif following an else

	// Operator errors (E110-E119)
	ErrReturnNoOperands = "E110" // ret/0
	ErrCallUnsupported  = "E111" // call is reserved
	ErrOperandShortfall = "E112" // fewer operands than the operator needs
)

// ValidationError represents a static program error.
type ValidationError struct {
	Index   int    `json:"index"`
	Token   string `json:"token"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] record %d %q: %s", e.Code, e.Index, e.Token, e.Message)
}

type openBlock struct {
	index   int
	op      ir.CfopKind
	sawElse bool
}

// Validate checks block balance and operator placement.
// Returns all errors found (does not fail-fast).
//
// The operand check is a straight-line approximation: it tracks how many
// values each operator leaves behind without following branches, so it only
// reports operators that could never have enough operands.
func Validate(items []ir.Item) []ValidationError {
	var errs []ValidationError
	var stack []openBlock
	depth := 0 // values available since the last control-flow record

	report := func(i int, code, format string, args ...any) {
		errs = append(errs, ValidationError{
			Index:   i,
			Token:   fmt.Sprint(items[i]),
			Message: fmt.Sprintf(format, args...),
			Code:    code,
		})
	}

	for i, it := range items {
		switch v := it.(type) {
		case ir.Constant, ir.LocalRef:
			depth++
		case ir.Operator:
			if depth < v.Op.ArgCount() {
				report(i, ErrOperandShortfall, "%s needs %d operands", v.Op.Symbol(), v.Op.ArgCount())
			}
			depth = max(depth-v.Op.ArgCount(), 0) + v.Op.ReturnCount()
		case ir.VariadicOperator:
			switch {
			case v.Op == ir.VopCall:
				report(i, ErrCallUnsupported, "call is not supported")
			case v.ArgCount == 0:
				report(i, ErrReturnNoOperands, "ret needs at least one operand")
			case depth < v.ArgCount:
				report(i, ErrOperandShortfall, "ret/%d needs %d operands", v.ArgCount, v.ArgCount)
			}
			depth = 0
		case ir.ControlFlowOperator:
			switch v.Op {
			case ir.CfIf, ir.CfWhile, ir.CfLoop:
				stack = append(stack, openBlock{index: i, op: v.Op})
			case ir.CfElse, ir.CfElif:
				if len(stack) == 0 || stack[len(stack)-1].op != ir.CfIf {
					report(i, ErrBranchOutsideIf, "%s must follow an if", v.Op.Name())
				} else if top := &stack[len(stack)-1]; top.sawElse {
					report(i, ErrBranchAfterElse, "%s after else", v.Op.Name())
				} else if v.Op == ir.CfElse {
					top.sawElse = true
				}
			case ir.CfEnd:
				if len(stack) == 0 {
					report(i, ErrEndWithoutBlock, "end without an open block")
				} else {
					stack = stack[:len(stack)-1]
				}
			}
			if v.Op != ir.CfPhi && v.Op != ir.CfMerge {
				depth = 0
			}
		}
	}

	for _, b := range stack {
		report(b.index, ErrUnclosedBlock, "%s has no matching end", b.op.Name())
	}
	return errs
}

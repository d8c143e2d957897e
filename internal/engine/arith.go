package engine

import (
	"math"

	"github.com/LowLevelDaniel/rpnmath/internal/ir"
)

// Arithmetic applies +, -, * or / to two values. The result width starts at
// the wider operand and doubles until the result fits, stopping at 64 bits.
// promoted reports whether the result is wider than both operands.
// Division truncates toward zero.
func Arithmetic(op ir.OpKind, a, b ir.Constant) (result ir.Constant, promoted bool, err error) {
	x, y := a.Int64(), b.Int64()
	var r int64
	overflow := false

	switch op {
	case ir.OpAdd:
		r = x + y
		overflow = (x > 0 && y > 0 && r < 0) || (x < 0 && y < 0 && r >= 0)
	case ir.OpSub:
		r = x - y
		overflow = (y < 0 && r < x) || (y > 0 && r > x)
	case ir.OpMul:
		r = x * y
		overflow = x != 0 && (r/x != y || (x == -1 && y == math.MinInt64) || (y == -1 && x == math.MinInt64))
	case ir.OpDiv:
		if y == 0 {
			return ir.Constant{}, false, newError(ErrCodeDivisionByZero, -1, "%d / 0", x)
		}
		if x == math.MinInt64 && y == -1 {
			overflow = true
		} else {
			r = x / y
		}
	default:
		return ir.Constant{}, false, newError(ErrCodeUnknownOperator, -1, "%s is not arithmetic", op.Symbol())
	}
	if overflow {
		return ir.Constant{}, false, &RuntimeError{
			Code:    ErrCodeOverflowBeyondMaxWidth,
			Message: "result exceeds 64 bits",
			Pos:     -1,
			VarID:   -1,
			Details: map[string]string{"op": op.Symbol(), "lhs": a.String(), "rhs": b.String()},
		}
	}

	base := max(a.Type.Bits, b.Type.Bits)
	width := max(base, 1)
	for !ir.Fits(r, width) && width < ir.MaxWidth {
		width = min(width*2, ir.MaxWidth)
	}
	c, err := ir.NewInt(r, width)
	if err != nil {
		return ir.Constant{}, false, newError(ErrCodeOverflowBeyondMaxWidth, -1, "%v", err)
	}
	return c, width > base, nil
}

// Compare applies a comparison operator and returns an 8-bit 1 or 0.
func Compare(op ir.OpKind, a, b ir.Constant) (ir.Constant, error) {
	x, y := a.Int64(), b.Int64()
	var r bool
	switch op {
	case ir.OpEq:
		r = x == y
	case ir.OpNe:
		r = x != y
	case ir.OpLt:
		r = x < y
	case ir.OpLe:
		r = x <= y
	case ir.OpGt:
		r = x > y
	case ir.OpGe:
		r = x >= y
	default:
		return ir.Constant{}, newError(ErrCodeUnknownOperator, -1, "%s is not a comparison", op.Symbol())
	}
	return ir.BoolConst(r), nil
}

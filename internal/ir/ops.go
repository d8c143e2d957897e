package ir

import "fmt"

// OpKind enumerates the fixed-arity operators.
type OpKind uint8

const (
	OpAdd    OpKind = iota // (Value, Value) -> Value
	OpSub                  // (Value, Value) -> Value
	OpMul                  // (Value, Value) -> Value
	OpDiv                  // (Value, Value) -> Value
	OpAssign               // (Value, Variable) -> Void
	OpEq                   // (Value, Value) -> Bool
	OpNe                   // (Value, Value) -> Bool
	OpLt                   // (Value, Value) -> Bool
	OpLe                   // (Value, Value) -> Bool
	OpGt                   // (Value, Value) -> Bool
	OpGe                   // (Value, Value) -> Bool
)

var opSymbols = map[OpKind]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpAssign: "=",
	OpEq: "==", OpNe: "!=", OpLt: "<", OpLe: "<=", OpGt: ">", OpGe: ">=",
}

var opNames = map[OpKind]string{
	OpAdd: "add", OpSub: "subtract", OpMul: "multiply", OpDiv: "divide", OpAssign: "assign",
	OpEq: "equal", OpNe: "not-equal", OpLt: "less", OpLe: "less-equal",
	OpGt: "greater", OpGe: "greater-equal",
}

// ParseOp maps an operator symbol to its kind.
func ParseOp(symbol string) (OpKind, bool) {
	for op, s := range opSymbols {
		if s == symbol {
			return op, true
		}
	}
	return 0, false
}

// ArgCount returns the number of operands the operator consumes.
func (o OpKind) ArgCount() int {
	if _, ok := opSymbols[o]; !ok {
		return 0
	}
	return 2
}

// ReturnCount returns the number of values the operator produces.
func (o OpKind) ReturnCount() int {
	switch {
	case o == OpAssign:
		return 0
	case o.IsArithmetic(), o.IsComparison():
		return 1
	default:
		return 0
	}
}

// IsArithmetic reports whether the operator is +, -, * or /.
func (o OpKind) IsArithmetic() bool {
	return o <= OpDiv
}

// IsComparison reports whether the operator yields a boolean.
func (o OpKind) IsComparison() bool {
	return o >= OpEq && o <= OpGe
}

// Symbol returns the source spelling of the operator.
func (o OpKind) Symbol() string {
	if s, ok := opSymbols[o]; ok {
		return s
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// Name returns a readable operator name for diagnostics.
func (o OpKind) Name() string {
	if n, ok := opNames[o]; ok {
		return n
	}
	return "unknown"
}

// VopKind enumerates the variadic operators.
type VopKind uint8

const (
	VopRet  VopKind = iota // (...) -> Exit
	VopCall                // (...) -> (...)
)

// ParseVop maps a variadic operator name to its kind.
func ParseVop(name string) (VopKind, bool) {
	switch name {
	case "ret":
		return VopRet, true
	case "call":
		return VopCall, true
	}
	return 0, false
}

// Name returns the source spelling of the variadic operator.
func (v VopKind) Name() string {
	switch v {
	case VopRet:
		return "ret"
	case VopCall:
		return "call"
	default:
		return "unknown"
	}
}

// CfopKind enumerates the control-flow operators.
type CfopKind uint8

const (
	CfIf    CfopKind = iota // condition precedes the keyword
	CfElif                  // condition follows the keyword
	CfElse                  //
	CfLoop                  // unconditional
	CfWhile                 // condition follows the keyword
	CfMerge                 // SSA convergence marker
	CfEnd                   //
	CfPhi                   // phi node for SSA
)

var cfopNames = [...]string{
	CfIf: "if", CfElif: "elif", CfElse: "else", CfLoop: "loop",
	CfWhile: "while", CfMerge: "merge", CfEnd: "end", CfPhi: "phi",
}

// ParseCfop maps a control-flow keyword to its kind. Phi nodes are not
// keywords; they are parsed with their payload.
func ParseCfop(keyword string) (CfopKind, bool) {
	for k, name := range cfopNames {
		if name == keyword && CfopKind(k) != CfPhi {
			return CfopKind(k), true
		}
	}
	return 0, false
}

// Name returns the keyword of the control-flow operator.
func (c CfopKind) Name() string {
	if int(c) < len(cfopNames) {
		return cfopNames[c]
	}
	return "unknown"
}

// OpensBlock reports whether the operator opens a nested scope that a
// matching end closes.
func (c CfopKind) OpensBlock() bool {
	return c == CfIf || c == CfWhile || c == CfLoop
}

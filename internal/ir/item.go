package ir

import (
	"fmt"
	"strings"
)

// Kind is the tag stored at the head of every record.
type Kind uint8

const (
	// KindVoid is the empty sentinel returned when a lookup finds nothing.
	KindVoid Kind = iota
	// KindConstant is an integer literal or computed value.
	KindConstant
	// KindLocalRef is a reference to an SSA variable ($0, $1, ...).
	KindLocalRef
	// KindOperator is a fixed-arity arithmetic, comparison or assign operator.
	KindOperator
	// KindVariadic is an operator with a declared argument count (ret/N, call/N).
	KindVariadic
	// KindControlFlow is a structured control-flow marker or a phi node.
	KindControlFlow
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindConstant:
		return "constant"
	case KindLocalRef:
		return "localref"
	case KindOperator:
		return "operator"
	case KindVariadic:
		return "variadic"
	case KindControlFlow:
		return "controlflow"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// IsOperand reports whether records of this kind are consumed as operands.
func IsOperand(k Kind) bool {
	return k == KindConstant || k == KindLocalRef
}

// IsOperator reports whether records of this kind are dispatched by the executor.
func IsOperator(k Kind) bool {
	return k == KindOperator || k == KindVariadic || k == KindControlFlow
}

// Record header sizes in bytes. Each header starts with a word-sized tag.
const (
	wordSize            = 8
	VoidHeaderSize      = wordSize
	ConstantHeaderSize  = 3 * wordSize // tag, bit width, payload length
	LocalRefHeaderSize  = 2 * wordSize // tag, variable id
	OperatorHeaderSize  = 2 * wordSize // tag, operator
	VariadicHeaderSize  = 4 * wordSize // tag, operator, argcount, retcount
	ControlFlowHeaderSz = 5 * wordSize // tag, operator, phi target, source count, source ref
)

// Item is a sealed interface implemented by the six record variants.
type Item interface {
	// Kind returns the record tag.
	Kind() Kind
	// Size returns the encoded length of the record in bytes.
	Size() int
	item()
}

// Void is the empty record.
type Void struct{}

func (Void) item()          {}
func (Void) Kind() Kind     { return KindVoid }
func (Void) Size() int      { return VoidHeaderSize }
func (Void) String() string { return "void" }

// LocalRef names an SSA variable slot.
type LocalRef struct {
	ID int
}

func (LocalRef) item()            {}
func (LocalRef) Kind() Kind       { return KindLocalRef }
func (LocalRef) Size() int        { return LocalRefHeaderSize }
func (r LocalRef) String() string { return fmt.Sprintf("$%d", r.ID) }

// Operator is a binary or unary operator with a fixed arity.
type Operator struct {
	Op OpKind
}

func (Operator) item()            {}
func (Operator) Kind() Kind       { return KindOperator }
func (Operator) Size() int        { return OperatorHeaderSize }
func (o Operator) String() string { return o.Op.Symbol() }

// VariadicOperator carries its own argument and return counts.
// Example: "10 ret/1" returns 10.
type VariadicOperator struct {
	Op       VopKind
	ArgCount int
	RetCount int
}

func (VariadicOperator) item()      {}
func (VariadicOperator) Kind() Kind { return KindVariadic }
func (VariadicOperator) Size() int  { return VariadicHeaderSize }

func (v VariadicOperator) String() string {
	if v.RetCount != 0 {
		return fmt.Sprintf("%s/%d/%d", v.Op.Name(), v.ArgCount, v.RetCount)
	}
	return fmt.Sprintf("%s/%d", v.Op.Name(), v.ArgCount)
}

// ControlFlowOperator is a block marker (if, while, end, ...) or a phi node.
// Target and Sources are only meaningful when Op is CfPhi.
type ControlFlowOperator struct {
	Op      CfopKind
	Target  int
	Sources []int
}

func (ControlFlowOperator) item()      {}
func (ControlFlowOperator) Kind() Kind { return KindControlFlow }

// Size is fixed: phi sources are held behind the header's source reference.
func (ControlFlowOperator) Size() int { return ControlFlowHeaderSz }

func (c ControlFlowOperator) String() string {
	if c.Op != CfPhi {
		return c.Op.Name()
	}
	parts := make([]string, 0, len(c.Sources)+1)
	parts = append(parts, fmt.Sprintf("$%d", c.Target))
	for _, src := range c.Sources {
		parts = append(parts, fmt.Sprintf("$%d", src))
	}
	return "phi(" + strings.Join(parts, ",") + ")"
}

// NewPhi builds a phi node. The sources slice is copied.
func NewPhi(target int, sources ...int) ControlFlowOperator {
	return ControlFlowOperator{Op: CfPhi, Target: target, Sources: append([]int(nil), sources...)}
}

// Clone returns a deep copy of a record. Constant payloads and phi source
// lists are duplicated; nil becomes Void.
func Clone(it Item) Item {
	switch v := it.(type) {
	case nil:
		return Void{}
	case Constant:
		return v.Clone()
	case ControlFlowOperator:
		if v.Sources != nil {
			v.Sources = append([]int(nil), v.Sources...)
		}
		return v
	default:
		return v
	}
}

// Equal reports whether two records are equal in every field,
// Constant payload bytes included.
func Equal(a, b Item) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Constant:
		return av.Equal(b.(Constant))
	case ControlFlowOperator:
		bv := b.(ControlFlowOperator)
		if av.Op != bv.Op || av.Target != bv.Target || len(av.Sources) != len(bv.Sources) {
			return false
		}
		for i := range av.Sources {
			if av.Sources[i] != bv.Sources[i] {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

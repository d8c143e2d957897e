package ir

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
)

// MaxWidth is the widest integer the evaluator represents.
// Arbitrary precision is out of scope.
const MaxWidth = 64

// BoolWidth is the width of comparison results.
const BoolWidth = 8

// IntType describes a signed integer of Bits width.
type IntType struct {
	Bits int
}

// Int returns the integer type of the given width.
func Int(bits int) IntType {
	return IntType{Bits: bits}
}

// ByteSize rounds the bit width up to whole bytes: an i23 occupies 3 bytes.
func (t IntType) ByteSize() int {
	return ByteSize(t.Bits)
}

// String returns the type spelling, e.g. "i16".
func (t IntType) String() string {
	return "i" + strconv.Itoa(t.Bits)
}

// ByteSize rounds a bit width up to whole bytes.
func ByteSize(bits int) int {
	return (bits + 7) / 8
}

// Constant is an integer value with an owned little-endian payload.
// len(Bytes) always equals Type.ByteSize().
type Constant struct {
	Type  IntType
	Bytes []byte
}

func (Constant) item()      {}
func (Constant) Kind() Kind { return KindConstant }

// Size is the fixed header plus the payload length recorded in it.
func (c Constant) Size() int { return ConstantHeaderSize + len(c.Bytes) }

// NewInt encodes v at the given width. It fails when the width is outside
// 1..MaxWidth or when v does not fit.
func NewInt(v int64, bits int) (Constant, error) {
	if bits < 1 || bits > MaxWidth {
		return Constant{}, fmt.Errorf("unsupported integer width %d (max %d)", bits, MaxWidth)
	}
	if !Fits(v, bits) {
		return Constant{}, fmt.Errorf("value %d does not fit in %s", v, Int(bits))
	}
	n := ByteSize(bits)
	buf := make([]byte, n)
	u := uint64(v)
	if bits < MaxWidth {
		// padding bits above the width are always zero
		u &= 1<<bits - 1
	}
	for i := 0; i < n; i++ {
		buf[i] = byte(u >> (8 * i))
	}
	return Constant{Type: Int(bits), Bytes: buf}, nil
}

// MustInt is like NewInt but panics on error.
// Use only when the width and value are known to be valid.
func MustInt(v int64, bits int) Constant {
	c, err := NewInt(v, bits)
	if err != nil {
		panic(err)
	}
	return c
}

// IntConst encodes v at its minimal width.
func IntConst(v int64) Constant {
	return MustInt(v, MinimalWidth(v))
}

// BoolConst encodes a comparison result as an 8-bit 1 or 0.
func BoolConst(b bool) Constant {
	if b {
		return MustInt(1, BoolWidth)
	}
	return MustInt(0, BoolWidth)
}

// MinimalWidth returns the smallest of 8, 16, 32 and 64 bits whose signed
// range holds v.
func MinimalWidth(v int64) int {
	switch {
	case v >= math.MinInt8 && v <= math.MaxInt8:
		return 8
	case v >= math.MinInt16 && v <= math.MaxInt16:
		return 16
	case v >= math.MinInt32 && v <= math.MaxInt32:
		return 32
	default:
		return 64
	}
}

// Fits reports whether v is representable as a signed integer of bits width.
func Fits(v int64, bits int) bool {
	if bits >= MaxWidth {
		return true
	}
	if bits < 1 {
		return false
	}
	lo := int64(-1) << (bits - 1)
	hi := -lo - 1
	return v >= lo && v <= hi
}

// Int64 decodes the payload, sign-extending from the declared bit width.
func (c Constant) Int64() int64 {
	bits := c.Type.Bits
	if bits < 1 || len(c.Bytes) == 0 {
		return 0
	}
	var u uint64
	for i := len(c.Bytes) - 1; i >= 0; i-- {
		u = u<<8 | uint64(c.Bytes[i])
	}
	if bits >= MaxWidth {
		return int64(u)
	}
	shift := uint(MaxWidth - bits)
	return int64(u<<shift) >> shift
}

// IsTrue reports whether the value is non-zero.
func (c Constant) IsTrue() bool {
	return c.Int64() != 0
}

// Clone returns a copy that shares no storage with c.
func (c Constant) Clone() Constant {
	out := Constant{Type: c.Type}
	if c.Bytes != nil {
		out.Bytes = append([]byte(nil), c.Bytes...)
	}
	return out
}

// Equal compares width and payload bytes.
func (c Constant) Equal(o Constant) bool {
	return c.Type == o.Type && bytes.Equal(c.Bytes, o.Bytes)
}

// String returns the decimal value.
func (c Constant) String() string {
	return strconv.FormatInt(c.Int64(), 10)
}

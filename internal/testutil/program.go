package testutil

import (
	"testing"

	"github.com/LowLevelDaniel/rpnmath/internal/buffer"
	"github.com/LowLevelDaniel/rpnmath/internal/compiler"
	"github.com/LowLevelDaniel/rpnmath/internal/engine"
	"github.com/LowLevelDaniel/rpnmath/internal/ir"
)

// MustBuffer compiles src into a fresh buffer or fails the test.
func MustBuffer(t testing.TB, src string) *buffer.Buffer {
	t.Helper()
	buf, err := compiler.Load(src, 0)
	if err != nil {
		t.Fatalf("compile %q: %v", src, err)
	}
	return buf
}

// MustEval executes src and returns its integer result or fails the test.
func MustEval(t testing.TB, src string, opts ...engine.Option) int64 {
	t.Helper()
	v, err := engine.Execute(MustBuffer(t, src), opts...)
	if err != nil {
		t.Fatalf("execute %q: %v", src, err)
	}
	return v.Int64()
}

// EvalErr executes src and returns the error code it fails with, or "" on
// success.
func EvalErr(t testing.TB, src string, opts ...engine.Option) engine.ErrorCode {
	t.Helper()
	_, err := engine.Execute(MustBuffer(t, src), opts...)
	return engine.CodeOf(err)
}

// Ints converts constants to their decoded values for easy comparison.
func Ints(cs ...ir.Constant) []int64 {
	out := make([]int64, len(cs))
	for i, c := range cs {
		out[i] = c.Int64()
	}
	return out
}

package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LowLevelDaniel/rpnmath/internal/buffer"
	"github.com/LowLevelDaniel/rpnmath/internal/compiler"
)

func mustLoad(t *testing.T, src string) *buffer.Buffer {
	t.Helper()
	buf, err := compiler.Load(src, 0)
	require.NoError(t, err)
	return buf
}

package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ValidPrograms(t *testing.T) {
	programs := []string{
		"3 4 +",
		"5 $0 = $0 3 + ret/1",
		"5 3 > if 100 ret/1 else 200 ret/1 end",
		"0 $0 = while $0 3 < $0 1 + $0 = end $0 ret/1",
		"0 if 1 ret/1 elif 2 3 < 2 ret/1 else 3 ret/1 end",
		"1 if 10 $0 = else 20 $1 = end phi($2,$0,$1) $2 ret/1",
	}
	for _, src := range programs {
		t.Run(src, func(t *testing.T) {
			assert.Empty(t, Validate(MustCompile(src)))
		})
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		code  string
		index int
	}{
		{"end without block", "1 end", ErrEndWithoutBlock, 1},
		{"unclosed while", "0 $0 = while $0 3 <", ErrUnclosedBlock, 3},
		{"else outside if", "1 while else end", ErrBranchOutsideIf, 2},
		{"elif after else", "1 if else elif end", ErrBranchAfterElse, 3},
		{"ret without operands", "1 ret/0", ErrReturnNoOperands, 1},
		{"call", "1 call/1", ErrCallUnsupported, 1},
		{"operator shortfall", "1 +", ErrOperandShortfall, 1},
		{"ret shortfall", "1 ret/2", ErrOperandShortfall, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(MustCompile(tt.src))
			require.Len(t, errs, 1)
			assert.Equal(t, tt.code, errs[0].Code)
			assert.Equal(t, tt.index, errs[0].Index)
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	errs := Validate(MustCompile("end + if"))
	require.Len(t, errs, 3)
	assert.Equal(t, ErrEndWithoutBlock, errs[0].Code)
	assert.Equal(t, ErrOperandShortfall, errs[1].Code)
	assert.Equal(t, ErrUnclosedBlock, errs[2].Code)
}

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileFilter(t *testing.T) {
	tests := []struct {
		name       string
		pred       Predicate
		wantSQL    string
		wantParams []any
	}{
		{"nil", nil, "1 = 1", nil},
		{"text equals", Equals{Field: "error", Value: "DIVISION_BY_ZERO"}, "error_code = ?", []any{"DIVISION_BY_ZERO"}},
		{"integer equals", &Equals{Field: "bits", Value: int64(16)}, "result_bits = ?", []any{int64(16)}},
		{"empty and", And{}, "1 = 1", nil},
		{
			"and",
			And{Predicates: []Predicate{
				Equals{Field: "session", Value: "s1"},
				Equals{Field: "value", Value: int64(7)},
			}},
			"session_id = ? AND result_value = ?",
			[]any{"s1", int64(7)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := CompileFilter(tt.pred)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantParams, params)
		})
	}
}

func TestCompileFilter_ValuesAreNeverInterpolated(t *testing.T) {
	sql, params, err := CompileFilter(Equals{Field: "program", Value: "'; DROP TABLE evaluations; --"})
	require.NoError(t, err)
	assert.Equal(t, "program = ?", sql)
	assert.Equal(t, []any{"'; DROP TABLE evaluations; --"}, params)
}

func TestCompileFilter_Errors(t *testing.T) {
	tests := []struct {
		name string
		pred Predicate
	}{
		{"unknown field", Equals{Field: "id; --", Value: "x"}},
		{"text for integer field", Equals{Field: "seq", Value: "1"}},
		{"integer for text field", Equals{Field: "error", Value: int64(1)}},
		{"unsupported value", Equals{Field: "error", Value: 1.5}},
		{"nested error", And{Predicates: []Predicate{Equals{Field: "nope", Value: "x"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := CompileFilter(tt.pred)
			assert.Error(t, err)
		})
	}
}

func TestParseFilter(t *testing.T) {
	p, err := ParseFilter([]string{"error=DIVISION_BY_ZERO", "bits = 16", "program=3 4 +"})
	require.NoError(t, err)
	assert.Equal(t, And{Predicates: []Predicate{
		Equals{Field: "error", Value: "DIVISION_BY_ZERO"},
		Equals{Field: "bits", Value: int64(16)},
		Equals{Field: "program", Value: "3 4 +"},
	}}, p)

	for _, bad := range []string{"error", "colour=red", "seq=first"} {
		_, err := ParseFilter([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestQueryEvaluations(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestSession(t, s, "s1")
	createTestSession(t, s, "s2")

	for _, ev := range []Evaluation{
		{ID: "e1", SessionID: "s2", Seq: 1, Program: "3 4 +", ProgramHash: "h1", HasResult: true, Value: 7, Bits: 8, Steps: 2},
		{ID: "e2", SessionID: "s1", Seq: 2, Program: "5 0 /", ProgramHash: "h2", ErrorCode: "DIVISION_BY_ZERO", ErrorMessage: "5 / 0", Steps: 1},
		{ID: "e3", SessionID: "s1", Seq: 1, Program: "3 4 +", ProgramHash: "h1", HasResult: true, Value: 7, Bits: 8, Steps: 2},
	} {
		require.NoError(t, s.WriteEvaluation(ctx, ev))
	}

	all, err := s.QueryEvaluations(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"e3", "e2", "e1"}, []string{all[0].ID, all[1].ID, all[2].ID})

	sevens, err := s.QueryEvaluations(ctx, And{Predicates: []Predicate{
		Equals{Field: "value", Value: int64(7)},
		Equals{Field: "session", Value: "s2"},
	}})
	require.NoError(t, err)
	require.Len(t, sevens, 1)
	assert.Equal(t, "e1", sevens[0].ID)

	failures, err := s.QueryEvaluations(ctx, Equals{Field: "error", Value: "DIVISION_BY_ZERO"})
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.False(t, failures[0].HasResult)

	_, err = s.QueryEvaluations(ctx, Equals{Field: "nope", Value: "x"})
	assert.Error(t, err)
}

package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Predicate filters evaluations in QueryEvaluations.
//
// This is a sealed interface: only Equals and And implement it, so the
// compiler below can switch over every case.
type Predicate interface {
	predicateNode()
}

// Equals matches a filter field against a literal. Value must be a string
// for text fields and an int64 for integer fields.
type Equals struct {
	Field string
	Value any
}

func (Equals) predicateNode() {}

// And matches when every predicate matches. An empty And matches all rows.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

type filterField struct {
	column  string
	integer bool
}

// filterFields maps filter names to evaluation columns. Only these names
// can appear in SQL, so field names are never taken from user input.
var filterFields = map[string]filterField{
	"session": {column: "session_id"},
	"seq":     {column: "seq", integer: true},
	"program": {column: "program"},
	"hash":    {column: "program_hash"},
	"value":   {column: "result_value", integer: true},
	"bits":    {column: "result_bits", integer: true},
	"error":   {column: "error_code"},
	"steps":   {column: "steps", integer: true},
}

// FilterFields returns the names accepted by Equals, sorted.
func FilterFields() []string {
	names := make([]string, 0, len(filterFields))
	for name := range filterFields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CompileFilter converts p into a WHERE fragment with ? placeholders.
// Values are always passed as parameters, never interpolated.
func CompileFilter(p Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case nil:
		return "1 = 1", nil, nil
	case Equals:
		return compileEquals(pred)
	case *Equals:
		return compileEquals(*pred)
	case And:
		return compileAnd(pred)
	case *And:
		return compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compileEquals(eq Equals) (string, []any, error) {
	f, ok := filterFields[eq.Field]
	if !ok {
		return "", nil, fmt.Errorf("unknown filter field %q (want one of %s)", eq.Field, strings.Join(FilterFields(), ", "))
	}
	switch eq.Value.(type) {
	case int64:
		if !f.integer {
			return "", nil, fmt.Errorf("filter field %q takes text, got an integer", eq.Field)
		}
	case string:
		if f.integer {
			return "", nil, fmt.Errorf("filter field %q takes an integer, got text", eq.Field)
		}
	default:
		return "", nil, fmt.Errorf("filter field %q: unsupported value type %T", eq.Field, eq.Value)
	}
	return f.column + " = ?", []any{eq.Value}, nil
}

func compileAnd(and And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}
	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, p := range and.Predicates {
		sql, ps, err := CompileFilter(p)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, ps...)
	}
	return strings.Join(parts, " AND "), params, nil
}

// ParseFilter parses field=value terms into an And of Equals. Values of
// integer fields are parsed as base-10 int64.
func ParseFilter(terms []string) (Predicate, error) {
	and := And{Predicates: make([]Predicate, 0, len(terms))}
	for _, term := range terms {
		name, value, ok := strings.Cut(term, "=")
		if !ok {
			return nil, fmt.Errorf("filter %q: want field=value", term)
		}
		name = strings.TrimSpace(name)
		f, known := filterFields[name]
		if !known {
			return nil, fmt.Errorf("filter %q: unknown field %q (want one of %s)", term, name, strings.Join(FilterFields(), ", "))
		}
		if !f.integer {
			and.Predicates = append(and.Predicates, Equals{Field: name, Value: value})
			continue
		}
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("filter %q: %s takes an integer", term, name)
		}
		and.Predicates = append(and.Predicates, Equals{Field: name, Value: n})
	}
	return and, nil
}

// QueryEvaluations returns the evaluations matching p, ordered by session
// then seq.
func (s *Store) QueryEvaluations(ctx context.Context, p Predicate) ([]Evaluation, error) {
	where, params, err := CompileFilter(p)
	if err != nil {
		return nil, fmt.Errorf("compile filter: %w", err)
	}
	return s.queryEvaluations(ctx, `
		SELECT `+evaluationColumns+`
		FROM evaluations
		WHERE `+where+`
		ORDER BY session_id COLLATE BINARY ASC, seq ASC
	`, params...)
}

package compiler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/LowLevelDaniel/rpnmath/internal/buffer"
	"github.com/LowLevelDaniel/rpnmath/internal/ir"
)

// CompileError reports a token that could not be turned into a record.
type CompileError struct {
	Token   string
	Index   int // token index
	Offset  int // byte offset in the source
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("token %d %q (offset %d): %s", e.Index, e.Token, e.Offset, e.Message)
}

// Token is one whitespace-separated word of the source.
type Token struct {
	Text   string
	Offset int
}

// Tokenize splits src on whitespace, keeping byte offsets.
func Tokenize(src string) []Token {
	var toks []Token
	start := -1
	for i, r := range src {
		if unicode.IsSpace(r) {
			if start >= 0 {
				toks = append(toks, Token{Text: src[start:i], Offset: start})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		toks = append(toks, Token{Text: src[start:], Offset: start})
	}
	return toks
}

// Compile builds records from src. Variable ids must be below maxVariables;
// a non-positive maxVariables disables the check.
func Compile(src string, maxVariables int) ([]ir.Item, error) {
	toks := Tokenize(src)
	items := make([]ir.Item, 0, len(toks))
	for i, tok := range toks {
		it, err := compileToken(tok.Text, maxVariables)
		if err != nil {
			return nil, &CompileError{Token: tok.Text, Index: i, Offset: tok.Offset, Message: err.Error()}
		}
		items = append(items, it)
	}
	return items, nil
}

// Load compiles src into a fresh buffer.
func Load(src string, maxVariables int) (*buffer.Buffer, error) {
	items, err := Compile(src, maxVariables)
	if err != nil {
		return nil, err
	}
	return buffer.FromItems(items), nil
}

// MustCompile is like Compile but panics on error.
// Use only in tests or with known-valid source.
func MustCompile(src string) []ir.Item {
	items, err := Compile(src, 0)
	if err != nil {
		panic(err)
	}
	return items
}

func compileToken(tok string, maxVariables int) (ir.Item, error) {
	if v, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return ir.IntConst(v), nil
	} else if errors.Is(err, strconv.ErrRange) {
		return nil, fmt.Errorf("integer exceeds %d bits", ir.MaxWidth)
	}

	if strings.HasPrefix(tok, "$") {
		id, err := parseVar(tok, maxVariables)
		if err != nil {
			return nil, err
		}
		return ir.LocalRef{ID: id}, nil
	}

	if tok == "." {
		return ir.VariadicOperator{Op: ir.VopRet, ArgCount: 1}, nil
	}
	if op, ok := ir.ParseOp(tok); ok {
		return ir.Operator{Op: op}, nil
	}
	if cf, ok := ir.ParseCfop(tok); ok {
		return ir.ControlFlowOperator{Op: cf}, nil
	}
	if strings.HasPrefix(tok, "phi(") {
		return parsePhi(tok, maxVariables)
	}
	if strings.Contains(tok, "/") {
		return parseVariadic(tok)
	}
	return nil, fmt.Errorf("unknown token")
}

func parseVar(tok string, maxVariables int) (int, error) {
	digits := strings.TrimPrefix(tok, "$")
	if digits == "" || strings.TrimFunc(digits, unicode.IsDigit) != "" {
		return 0, fmt.Errorf("variable must be $ followed by digits")
	}
	id, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("variable id too large")
	}
	if maxVariables > 0 && id >= maxVariables {
		return 0, fmt.Errorf("variable $%d exceeds maximum $%d", id, maxVariables-1)
	}
	return id, nil
}

// parsePhi reads phi($target,$src,...).
func parsePhi(tok string, maxVariables int) (ir.Item, error) {
	if !strings.HasSuffix(tok, ")") {
		return nil, fmt.Errorf("phi must close with )")
	}
	inner := tok[len("phi(") : len(tok)-1]
	parts := strings.Split(inner, ",")
	if len(parts) < 2 {
		return nil, fmt.Errorf("phi needs a target and at least one source")
	}
	ids := make([]int, len(parts))
	for i, p := range parts {
		id, err := parseVar(p, maxVariables)
		if err != nil {
			return nil, fmt.Errorf("phi entry %d: %w", i, err)
		}
		ids[i] = id
	}
	return ir.NewPhi(ids[0], ids[1:]...), nil
}

// parseVariadic reads name/argc or name/argc/retc.
func parseVariadic(tok string) (ir.Item, error) {
	parts := strings.Split(tok, "/")
	if len(parts) < 2 || len(parts) > 3 {
		return nil, fmt.Errorf("variadic operator must be name/argc[/retc]")
	}
	op, ok := ir.ParseVop(parts[0])
	if !ok {
		return nil, fmt.Errorf("unknown variadic operator %q", parts[0])
	}
	argc, err := strconv.Atoi(parts[1])
	if err != nil || argc < 0 {
		return nil, fmt.Errorf("invalid argument count %q", parts[1])
	}
	retc := 0
	if len(parts) == 3 {
		retc, err = strconv.Atoi(parts[2])
		if err != nil || retc < 0 {
			return nil, fmt.Errorf("invalid return count %q", parts[2])
		}
	}
	return ir.VariadicOperator{Op: op, ArgCount: argc, RetCount: retc}, nil
}

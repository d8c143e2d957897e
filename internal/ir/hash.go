package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainProgram    = "rpnmath/program/v1"
	DomainEvaluation = "rpnmath/evaluation/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// FormatProgram renders records back into source form, one space apart.
func FormatProgram(items []Item) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = fmt.Sprint(it)
	}
	return strings.Join(parts, " ")
}

// ProgramHash identifies a program by its records, so spacing and other
// formatting differences in the source text do not change it.
func ProgramHash(items []Item) (string, error) {
	tokens := make([]any, len(items))
	for i, it := range items {
		tokens[i] = map[string]any{
			"kind": it.Kind().String(),
			"text": fmt.Sprint(it),
		}
	}
	canonical, err := MarshalCanonical(tokens)
	if err != nil {
		return "", fmt.Errorf("ProgramHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainProgram, canonical), nil
}

// EvaluationID computes the content-addressed ID of one recorded evaluation.
func EvaluationID(sessionID string, seq int64, programHash string) (string, error) {
	canonical, err := MarshalCanonical(map[string]any{
		"session_id":   sessionID,
		"seq":          seq,
		"program_hash": programHash,
	})
	if err != nil {
		return "", fmt.Errorf("EvaluationID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainEvaluation, canonical), nil
}

// MustProgramHash is like ProgramHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustProgramHash(items []Item) string {
	h, err := ProgramHash(items)
	if err != nil {
		panic(err)
	}
	return h
}

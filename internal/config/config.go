// Package config loads engine settings from YAML or CUE files.
//
// Both formats are checked against the embedded CUE schema (#Config in
// schema.cue). Fields absent from a file keep their defaults.
package config

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/LowLevelDaniel/rpnmath/internal/engine"
)

//go:embed schema.cue
var schemaCUE string

// Config holds the settings an evaluation session runs with.
type Config struct {
	Policy       string `json:"policy" yaml:"policy"`
	MaxVariables int    `json:"max_variables" yaml:"max_variables"`
	MaxBlocks    int    `json:"max_blocks" yaml:"max_blocks"`
	MaxDepth     int    `json:"max_depth" yaml:"max_depth"`
	MaxSteps     int    `json:"max_steps" yaml:"max_steps"`
	StrictReturn bool   `json:"strict_return" yaml:"strict_return"`
	History      string `json:"history,omitempty" yaml:"history,omitempty"` // SQLite path, empty disables recording
}

// Default returns the engine defaults.
func Default() Config {
	l := engine.DefaultLimits()
	return Config{
		Policy:       engine.PolicyVersioned.String(),
		MaxVariables: l.MaxVariables,
		MaxBlocks:    l.MaxBlocks,
		MaxDepth:     l.MaxDepth,
		MaxSteps:     l.MaxSteps,
	}
}

// Limits returns the resource bounds as engine limits.
func (c Config) Limits() engine.Limits {
	return engine.Limits{
		MaxVariables: c.MaxVariables,
		MaxBlocks:    c.MaxBlocks,
		MaxDepth:     c.MaxDepth,
		MaxSteps:     c.MaxSteps,
	}
}

// EngineOptions converts the config into executor options.
func (c Config) EngineOptions() ([]engine.Option, error) {
	policy, err := engine.ParsePolicy(c.Policy)
	if err != nil {
		return nil, &ConfigError{Field: "policy", Message: err.Error()}
	}
	return []engine.Option{
		engine.WithPolicy(policy),
		engine.WithLimits(c.Limits()),
		engine.WithStrictReturn(c.StrictReturn),
	}, nil
}

// Validate checks c against the schema.
func (c Config) Validate() error {
	ctx := cuecontext.New()
	schema, err := compileSchema(ctx)
	if err != nil {
		return err
	}
	v := ctx.Encode(c)
	if err := v.Err(); err != nil {
		return formatCUEError("", err)
	}
	if err := schema.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return formatCUEError("", err)
	}
	return nil
}

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Path    string // file the value came from, empty for in-memory configs
	Field   string
	Message string
	Pos     token.Pos
}

func (e *ConfigError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func compileSchema(ctx *cue.Context) (cue.Value, error) {
	v := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("compile config schema: %w", err)
	}
	return v.LookupPath(cue.ParsePath("#Config")), nil
}

// formatCUEError turns the first CUE error into a ConfigError carrying its
// field path and position.
func formatCUEError(path string, err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	ce := &ConfigError{Path: path, Field: "config", Message: first.Error()}
	if sel := first.Path(); len(sel) > 0 {
		ce.Field = sel[len(sel)-1]
	}
	if positions := errors.Positions(first); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}

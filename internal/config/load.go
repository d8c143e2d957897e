package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

// Overrides mirrors Config with optional fields so a file or scenario only
// overrides what it names.
type Overrides struct {
	Policy       *string `json:"policy,omitempty" yaml:"policy"`
	MaxVariables *int    `json:"max_variables,omitempty" yaml:"max_variables"`
	MaxBlocks    *int    `json:"max_blocks,omitempty" yaml:"max_blocks"`
	MaxDepth     *int    `json:"max_depth,omitempty" yaml:"max_depth"`
	MaxSteps     *int    `json:"max_steps,omitempty" yaml:"max_steps"`
	StrictReturn *bool   `json:"strict_return,omitempty" yaml:"strict_return"`
	History      *string `json:"history,omitempty" yaml:"history"`
}

// Load reads a config file. Files ending in .cue are evaluated as CUE;
// anything else is parsed as YAML. An empty path returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if filepath.Ext(path) == ".cue" {
		return ParseCUE(path, data)
	}
	return ParseYAML(path, data)
}

// ParseYAML decodes a YAML config. Unknown fields are rejected.
func ParseYAML(path string, data []byte) (Config, error) {
	var fc Overrides
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}

	ctx := cuecontext.New()
	schema, err := compileSchema(ctx)
	if err != nil {
		return Config{}, err
	}
	v := ctx.Encode(fc)
	if err := schema.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return Config{}, formatCUEError(path, err)
	}
	return fc.Apply(Default()), nil
}

// ParseCUE evaluates a CUE config and unifies it with the schema.
func ParseCUE(path string, data []byte) (Config, error) {
	ctx := cuecontext.New()
	schema, err := compileSchema(ctx)
	if err != nil {
		return Config{}, err
	}
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return Config{}, formatCUEError(path, err)
	}
	unified := schema.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Config{}, formatCUEError(path, err)
	}

	var fc Overrides
	if err := unified.Decode(&fc); err != nil {
		return Config{}, formatCUEError(path, err)
	}
	return fc.Apply(Default()), nil
}

// Apply returns c with every set field of o replaced.
func (o Overrides) Apply(c Config) Config {
	if o.Policy != nil {
		c.Policy = *o.Policy
	}
	if o.MaxVariables != nil {
		c.MaxVariables = *o.MaxVariables
	}
	if o.MaxBlocks != nil {
		c.MaxBlocks = *o.MaxBlocks
	}
	if o.MaxDepth != nil {
		c.MaxDepth = *o.MaxDepth
	}
	if o.MaxSteps != nil {
		c.MaxSteps = *o.MaxSteps
	}
	if o.StrictReturn != nil {
		c.StrictReturn = *o.StrictReturn
	}
	if o.History != nil {
		c.History = *o.History
	}
	return c
}

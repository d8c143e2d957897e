package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/LowLevelDaniel/rpnmath/internal/config"
)

// Scenario defines a conformance test scenario: a sequence of programs
// evaluated in one session, with expected outcomes and assertions.
type Scenario struct {
	Name        string `yaml:"name"` // also the golden file name
	Description string `yaml:"description"`

	// Session is an optional fixed session id. Defaults to "test-session".
	Session string `yaml:"session,omitempty"`

	// Config overrides engine defaults for every step.
	Config config.Overrides `yaml:"config,omitempty"`

	// Steps are evaluated in order, each in a fresh executor.
	Steps []Step `yaml:"steps"`

	// Assertions validate the trace, variables and history.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one program evaluation.
type Step struct {
	Program string  `yaml:"program"`
	Expect  *Expect `yaml:"expect,omitempty"`
}

// Expect is the expected outcome of a step. Exactly one of Value and Error
// must be set.
type Expect struct {
	Value *int64 `yaml:"value,omitempty"`

	// Bits is the expected result width; 0 skips the check.
	Bits int `yaml:"bits,omitempty"`

	// Error is the expected error code, e.g. DIVISION_BY_ZERO.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the trace, variables or history.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Action is the executor step action (trace_contains, trace_count).
	Action string `yaml:"action,omitempty"`

	// Detail, if set, must equal the step detail (trace_contains).
	Detail string `yaml:"detail,omitempty"`

	// Actions is the expected action order (trace_order).
	Actions []string `yaml:"actions,omitempty"`

	// Count is the expected number of occurrences (trace_count).
	Count int `yaml:"count,omitempty"`

	// Step is the 1-based scenario step (variable). 0 means the last step.
	Step int `yaml:"step,omitempty"`

	// Var is the variable id (variable).
	Var *int `yaml:"var,omitempty"`

	// Value is the expected value (variable, history).
	Value *int64 `yaml:"value,omitempty"`

	// Version is the expected slot version (variable).
	Version *int `yaml:"version,omitempty"`

	// Seq is the recorded evaluation seq (history).
	Seq int64 `yaml:"seq,omitempty"`

	// Error is the expected recorded error code (history).
	Error string `yaml:"error,omitempty"`
}

const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertVariable      = "variable"
	AssertHistory       = "history"
)

// LoadScenario reads a scenario file. See ParseScenario.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes scenario YAML. Unknown keys are rejected, so a
// misspelt "assertion:" fails loudly instead of silently testing nothing.
func ParseScenario(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	s := new(Scenario)
	if err := dec.Decode(s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return s, nil
}

// FindScenarios lists the .yaml and .yml files below dir in lexical order.
func FindScenarios(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" {
			files = append(files, path)
		}
		return nil
	})
	slices.Sort(files)
	return files, err
}

func (s *Scenario) validate() error {
	switch {
	case s.Name == "":
		return errors.New("name is required")
	case s.Description == "":
		return errors.New("description is required")
	case len(s.Steps) == 0:
		return errors.New("steps list is required and must be non-empty")
	}

	for i, st := range s.Steps {
		if err := st.validate(); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	for i, a := range s.Assertions {
		if err := a.validate(len(s.Steps)); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func (st Step) validate() error {
	if strings.TrimSpace(st.Program) == "" {
		return errors.New("program is required")
	}
	e := st.Expect
	if e == nil {
		return nil
	}
	if (e.Value == nil) == (e.Error == "") {
		return errors.New("expect: exactly one of value and error is required")
	}
	if e.Error != "" && e.Bits != 0 {
		return errors.New("expect: bits only applies to a value")
	}
	return nil
}

func (a Assertion) validate(steps int) error {
	need := func(ok bool, what string) error {
		if ok {
			return nil
		}
		return fmt.Errorf("%s is required for %s", what, a.Type)
	}

	switch a.Type {
	case "":
		return errors.New("type is required")
	case AssertTraceContains:
		return need(a.Action != "", "action")
	case AssertTraceOrder:
		return need(len(a.Actions) > 0, "actions list")
	case AssertTraceCount:
		if a.Count < 0 {
			return errors.New("count must be non-negative for trace_count")
		}
		return need(a.Action != "", "action")
	case AssertVariable:
		if a.Step < 0 || a.Step > steps {
			return fmt.Errorf("step %d out of range [1,%d]", a.Step, steps)
		}
		if err := need(a.Var != nil, "var"); err != nil {
			return err
		}
		return need(a.Value != nil || a.Version != nil, "value or version")
	case AssertHistory:
		if err := need(a.Seq >= 1, "seq"); err != nil {
			return err
		}
		if (a.Value == nil) == (a.Error == "") {
			return errors.New("exactly one of value and error is required for history")
		}
		return nil
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

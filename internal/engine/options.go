package engine

import "log/slog"

// Default bounds for one evaluation session.
const (
	DefaultMaxVariables = 256
	DefaultMaxBlocks    = 1024
	DefaultMaxDepth     = 64
	DefaultMaxSteps     = 1_000_000
)

// Limits bounds the resources one evaluation may use.
// MaxSteps of 0 disables the step budget.
type Limits struct {
	MaxVariables int
	MaxBlocks    int
	MaxDepth     int
	MaxSteps     int
}

// DefaultLimits returns the default bounds.
func DefaultLimits() Limits {
	return Limits{
		MaxVariables: DefaultMaxVariables,
		MaxBlocks:    DefaultMaxBlocks,
		MaxDepth:     DefaultMaxDepth,
		MaxSteps:     DefaultMaxSteps,
	}
}

// Option configures an Executor.
type Option func(*Executor)

// WithPolicy selects the variable assignment policy.
// Default: PolicyVersioned.
func WithPolicy(p Policy) Option {
	return func(e *Executor) {
		e.policy = p
	}
}

// WithLimits replaces all bounds at once.
func WithLimits(l Limits) Option {
	return func(e *Executor) {
		e.limits = l
	}
}

// WithMaxVariables bounds variable ids to [0, n).
func WithMaxVariables(n int) Option {
	return func(e *Executor) {
		e.limits.MaxVariables = n
	}
}

// WithMaxBlocks bounds the number of blocks created in one evaluation.
func WithMaxBlocks(n int) Option {
	return func(e *Executor) {
		e.limits.MaxBlocks = n
	}
}

// WithMaxDepth bounds block nesting depth.
func WithMaxDepth(n int) Option {
	return func(e *Executor) {
		e.limits.MaxDepth = n
	}
}

// WithMaxSteps bounds the number of executor steps.
//
// Default: 1,000,000 steps (DefaultMaxSteps)
// Use WithMaxSteps(0) to disable the budget.
// Use WithMaxSteps(10) for testing runaway loops.
func WithMaxSteps(n int) Option {
	return func(e *Executor) {
		e.limits.MaxSteps = n
	}
}

// WithStrictReturn requires an explicit ret. Without it, a program that
// runs out of operators at the root block yields its last operand.
func WithStrictReturn(strict bool) Option {
	return func(e *Executor) {
		e.strict = strict
	}
}

// WithLogger sets the logger for debug output. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.log = l
		}
	}
}

// WithTracer registers an observer for executor steps.
func WithTracer(t Tracer) Option {
	return func(e *Executor) {
		e.tracer = t
	}
}

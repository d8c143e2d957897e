package engine

import (
	"fmt"

	"github.com/LowLevelDaniel/rpnmath/internal/ir"
)

// Policy selects how reassignment of a variable is treated.
type Policy int

const (
	// PolicyVersioned allows reassignment; each write bumps the slot version
	// and records the owning block.
	PolicyVersioned Policy = iota

	// PolicyPure rejects a second write to the same id with SSA_VIOLATION.
	PolicyPure
)

// String returns the configuration spelling of the policy.
func (p Policy) String() string {
	switch p {
	case PolicyVersioned:
		return "versioned"
	case PolicyPure:
		return "pure"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy maps "versioned" or "pure" to a Policy. The empty string
// selects PolicyVersioned.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "versioned":
		return PolicyVersioned, nil
	case "pure":
		return PolicyPure, nil
	default:
		return 0, fmt.Errorf("unknown variable policy %q (want versioned or pure)", s)
	}
}

// Slot is the state of one variable id.
type Slot struct {
	Value    ir.Constant
	Assigned bool
	Version  int
	Block    BlockID
}

// Variables is the SSA variable table of one evaluation session.
// Slots are allocated on first write; ids are bounded by limit.
type Variables struct {
	policy Policy
	limit  int
	slots  []Slot
}

// NewVariables creates an empty table accepting ids in [0, limit).
func NewVariables(limit int, policy Policy) *Variables {
	return &Variables{policy: policy, limit: limit}
}

// Policy returns the assignment policy.
func (v *Variables) Policy() Policy { return v.policy }

// Max returns the id bound.
func (v *Variables) Max() int { return v.limit }

func (v *Variables) check(id int) error {
	if id < 0 || id >= v.limit {
		return newVarError(ErrCodeVariableOutOfRange, id, "variable $%d out of range [0,%d)", id, v.limit)
	}
	return nil
}

// Assign stores a deep copy of value in id on behalf of block.
func (v *Variables) Assign(id int, value ir.Constant, block BlockID) error {
	if err := v.check(id); err != nil {
		return err
	}
	if id >= len(v.slots) {
		v.slots = append(v.slots, make([]Slot, id+1-len(v.slots))...)
	}
	s := &v.slots[id]
	if s.Assigned && v.policy == PolicyPure {
		return newVarError(ErrCodeSSAViolation, id, "variable $%d already assigned", id)
	}
	s.Value = value.Clone()
	s.Assigned = true
	s.Version++
	s.Block = block
	return nil
}

// Read returns a deep copy of the value stored in id.
func (v *Variables) Read(id int) (ir.Constant, error) {
	if err := v.check(id); err != nil {
		return ir.Constant{}, err
	}
	if id >= len(v.slots) || !v.slots[id].Assigned {
		return ir.Constant{}, newVarError(ErrCodeUnassignedVariable, id, "variable $%d read before assignment", id)
	}
	return v.slots[id].Value.Clone(), nil
}

// Slot returns a copy of the slot state for diagnostics.
func (v *Variables) Slot(id int) (Slot, bool) {
	if id < 0 || id >= len(v.slots) {
		return Slot{}, false
	}
	s := v.slots[id]
	s.Value = s.Value.Clone()
	return s, s.Assigned
}

// Assigned returns the assigned variable ids in ascending order.
func (v *Variables) Assigned() []int {
	var ids []int
	for id, s := range v.slots {
		if s.Assigned {
			ids = append(ids, id)
		}
	}
	return ids
}

// Reset clears every slot.
func (v *Variables) Reset() {
	v.slots = nil
}

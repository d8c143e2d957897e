package engine

import "fmt"

// ResolvePhi assigns target from the listed source with the highest
// version. Equal versions prefer the source listed later. Unassigned
// sources are ignored; if none is assigned the result is
// NO_VALID_PHI_SOURCE. It returns the chosen source id.
func ResolvePhi(vars *Variables, target int, sources []int, block BlockID) (int, error) {
	chosen, best := -1, -1
	for _, id := range sources {
		s, ok := vars.Slot(id)
		if !ok {
			continue
		}
		if s.Version >= best {
			chosen, best = id, s.Version
		}
	}
	if chosen < 0 {
		return -1, &RuntimeError{
			Code:    ErrCodeNoValidPhiSource,
			Message: fmt.Sprintf("phi for $%d has no assigned source among %v", target, sources),
			Pos:     -1,
			VarID:   target,
		}
	}
	v, err := vars.Read(chosen)
	if err != nil {
		return -1, err
	}
	if err := vars.Assign(target, v, block); err != nil {
		return -1, err
	}
	return chosen, nil
}

package dialogue

import "fmt"

// ReadinessPolicy decides when enough is known to leave Collecting.
// Each group in Required needs at least one filled slot.
type ReadinessPolicy struct {
	Name     string
	Required [][]Slot
}

var (
	// LenientPolicy needs when and where.
	LenientPolicy = ReadinessPolicy{
		Name: "lenient",
		Required: [][]Slot{
			{SlotDate},
			{SlotLocationGeo, SlotLocationType},
		},
	}

	// StrictPolicy needs when, where and with whom.
	StrictPolicy = ReadinessPolicy{
		Name: "strict",
		Required: [][]Slot{
			{SlotDate},
			{SlotLocationGeo, SlotLocationType},
			{SlotCompanionAge, SlotCompanionGender, SlotCompanionStyle},
		},
	}
)

// ParsePolicy returns the policy with the given name; empty means lenient.
func ParsePolicy(name string) (ReadinessPolicy, error) {
	switch name {
	case "", LenientPolicy.Name:
		return LenientPolicy, nil
	case StrictPolicy.Name:
		return StrictPolicy, nil
	default:
		return ReadinessPolicy{}, fmt.Errorf("unknown readiness policy %q", name)
	}
}

// Ready reports whether slots satisfy every required group.
func (p ReadinessPolicy) Ready(slots SlotSet) bool {
	for _, group := range p.Required {
		satisfied := false
		for _, slot := range group {
			if slots.Filled(slot) {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return false
		}
	}
	return true
}

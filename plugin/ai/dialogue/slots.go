package dialogue

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Slot names one piece of trip context extracted from the conversation.
type Slot string

const (
	SlotDate            Slot = "date"
	SlotLocationGeo     Slot = "location_geo"
	SlotLocationType    Slot = "location_type"
	SlotCompanionAge    Slot = "companion_age"
	SlotCompanionGender Slot = "companion_gender"
	SlotCompanionStyle  Slot = "companion_style"
	SlotTransport       Slot = "transport"
	SlotDailyPlan       Slot = "daily_plan"
)

// AllSlots is the fixed slot enumeration, in prompt order.
var AllSlots = []Slot{
	SlotDate,
	SlotLocationGeo,
	SlotLocationType,
	SlotCompanionAge,
	SlotCompanionGender,
	SlotCompanionStyle,
	SlotTransport,
	SlotDailyPlan,
}

func isKnownSlot(s Slot) bool {
	for _, known := range AllSlots {
		if s == known {
			return true
		}
	}
	return false
}

// SlotSet holds the filled slots. A slot missing from the map is unfilled and
// marshals as JSON null; every slot key is always present in the JSON form.
type SlotSet map[Slot]string

// NewSlotSet returns an empty SlotSet.
func NewSlotSet() SlotSet {
	return SlotSet{}
}

// Get returns the slot value and whether it is filled.
func (s SlotSet) Get(slot Slot) (string, bool) {
	v, ok := s[slot]
	return v, ok
}

// Filled reports whether slot has a value.
func (s SlotSet) Filled(slot Slot) bool {
	_, ok := s[slot]
	return ok
}

// FilledCount returns the number of filled slots.
func (s SlotSet) FilledCount() int {
	n := 0
	for _, slot := range AllSlots {
		if s.Filled(slot) {
			n++
		}
	}
	return n
}

// IsEmpty reports whether no slot is filled.
func (s SlotSet) IsEmpty() bool {
	return s.FilledCount() == 0
}

// AllFilled reports whether every slot has a value.
func (s SlotSet) AllFilled() bool {
	return s.FilledCount() == len(AllSlots)
}

// Merge returns a new SlotSet with update applied: filled values in update
// overwrite, unfilled ones never erase. Neither input is modified.
func (s SlotSet) Merge(update SlotSet) SlotSet {
	merged := make(SlotSet, len(AllSlots))
	for slot, v := range s {
		merged[slot] = v
	}
	for slot, v := range update {
		if isKnownSlot(slot) && !isUnfilled(v) {
			merged[slot] = v
		}
	}
	return merged
}

func (s SlotSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, slot := range AllSlots {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(string(slot))
		buf.Write(key)
		buf.WriteByte(':')
		if v, ok := s[slot]; ok {
			value, err := json.Marshal(v)
			if err != nil {
				return nil, err
			}
			buf.Write(value)
		} else {
			buf.WriteString("null")
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts model and client output leniently: unknown keys are
// dropped, null, "" and "null" mean unfilled, and non-string values keep
// their JSON text.
func (s *SlotSet) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(SlotSet, len(raw))
	for key, value := range raw {
		slot := Slot(key)
		if !isKnownSlot(slot) {
			continue
		}
		if v, ok := slotValue(value); ok {
			out[slot] = v
		}
	}
	*s = out
	return nil
}

func slotValue(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		str = strings.TrimSpace(str)
		if isUnfilled(str) {
			return "", false
		}
		return str, true
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return "", false
	}
	return compact.String(), true
}

func isUnfilled(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, "null")
}

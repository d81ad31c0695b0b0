package dialogue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotSet_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(SlotSet{SlotDate: "tomorrow evening"})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded, len(AllSlots))
	assert.Equal(t, "tomorrow evening", decoded["date"])
	assert.Contains(t, decoded, "daily_plan")
	assert.Nil(t, decoded["daily_plan"])

	data, err = json.Marshal(SlotSet(nil))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"transport":null`)
}

func TestSlotSet_UnmarshalJSON(t *testing.T) {
	var s SlotSet
	require.NoError(t, json.Unmarshal([]byte(`{
		"date": "Saturday",
		"location_geo": null,
		"location_type": "",
		"companion_age": 30,
		"companion_gender": "null",
		"transport": "  train ",
		"mood": "happy"
	}`), &s))

	assert.Equal(t, SlotSet{
		SlotDate:         "Saturday",
		SlotCompanionAge: "30",
		SlotTransport:    "train",
	}, s)

	require.NoError(t, json.Unmarshal([]byte(`null`), &s))
	assert.True(t, s.IsEmpty())

	assert.Error(t, json.Unmarshal([]byte(`["date"]`), &s))
}

func TestSlotSet_MergeNeverErases(t *testing.T) {
	// Every subset of slots filled in the base, merged with every update
	// shape, keeps previously filled values unless overwritten.
	values := []string{"", "null", "new"}
	for mask := 0; mask < 1<<len(AllSlots); mask += 7 {
		base := NewSlotSet()
		for i, slot := range AllSlots {
			if mask&(1<<i) != 0 {
				base[slot] = "old"
			}
		}
		for _, v := range values {
			update := NewSlotSet()
			for _, slot := range AllSlots {
				update[slot] = v
			}
			merged := base.Merge(update)
			for _, slot := range AllSlots {
				switch {
				case v == "new":
					assert.Equal(t, "new", merged[slot])
				case base.Filled(slot):
					assert.Equal(t, "old", merged[slot])
				default:
					assert.False(t, merged.Filled(slot))
				}
			}
		}
	}
}

func TestSlotSet_MergeDoesNotMutate(t *testing.T) {
	base := SlotSet{SlotDate: "today"}
	merged := base.Merge(SlotSet{SlotTransport: "car", Slot("mood"): "happy"})

	assert.Equal(t, SlotSet{SlotDate: "today"}, base)
	assert.Equal(t, SlotSet{SlotDate: "today", SlotTransport: "car"}, merged)
	assert.Equal(t, 2, merged.FilledCount())
	assert.False(t, merged.AllFilled())
}

func TestReadinessPolicy(t *testing.T) {
	tests := []struct {
		name    string
		slots   SlotSet
		lenient bool
		strict  bool
	}{
		{"empty", SlotSet{}, false, false},
		{"date only", SlotSet{SlotDate: "Friday"}, false, false},
		{"date and place", SlotSet{SlotDate: "Friday", SlotLocationGeo: "Kyoto"}, true, false},
		{"date and venue type", SlotSet{SlotDate: "Friday", SlotLocationType: "dinner"}, true, false},
		{"when where who", SlotSet{SlotDate: "Friday", SlotLocationGeo: "Kyoto", SlotCompanionGender: "female"}, true, true},
		{"where who", SlotSet{SlotLocationGeo: "Kyoto", SlotCompanionStyle: "casual"}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.lenient, LenientPolicy.Ready(tt.slots))
			assert.Equal(t, tt.strict, StrictPolicy.Ready(tt.slots))
		})
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, "lenient", p.Name)

	p, err = ParsePolicy("strict")
	require.NoError(t, err)
	assert.Equal(t, "strict", p.Name)

	_, err = ParsePolicy("eager")
	assert.Error(t, err)
}

package dialogue

// State is the conversation phase.
type State int

const (
	// StateCollecting gathers the minimum context; proposals are optional.
	StateCollecting State = iota
	// StateProposing offers an interim outfit with every turn.
	StateProposing
	// StateFinal is terminal until the caller restarts with empty slots.
	StateFinal
)

func (s State) String() string {
	switch s {
	case StateCollecting:
		return "collecting"
	case StateProposing:
		return "proposing"
	case StateFinal:
		return "final"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// TurnType classifies an assistant turn.
type TurnType string

const (
	TypeQuestion        TurnType = "question"
	TypeSuggestion      TurnType = "suggestion"
	TypeFinalSuggestion TurnType = "final_suggestion"
)

// Turn is the manager's answer to one user message.
type Turn struct {
	Type            TurnType `json:"type"`
	State           State    `json:"state"`
	Text            string   `json:"text"`
	SuggestionItems []string `json:"suggestion_items"`
	UpdatedSlots    SlotSet  `json:"updated_slots"`
}

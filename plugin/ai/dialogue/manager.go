// Package dialogue implements the slot-filling conversation that refines an
// outfit proposal turn by turn. The manager keeps no state between calls:
// history, slots and the new message fully determine each turn.
package dialogue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	aierrors "github.com/hrygo/closetmind/internal/errors"
	"github.com/hrygo/closetmind/plugin/ai"
	"github.com/hrygo/closetmind/plugin/ai/timeout"
)

// Manager advances a conversation by one turn.
type Manager struct {
	llm    ai.LLMService
	policy ReadinessPolicy
	prompt string
}

// NewManager creates a Manager using policy to decide when to start proposing.
func NewManager(llm ai.LLMService, policy ReadinessPolicy) *Manager {
	return &Manager{
		llm:    llm,
		policy: policy,
		prompt: systemPrompt(policy),
	}
}

// Policy returns the readiness policy in use.
func (m *Manager) Policy() ReadinessPolicy {
	return m.policy
}

// Advance runs one turn. history holds the earlier user and assistant turns
// (system turns are dropped). A reached Final state is recognized from an
// assistant turn carrying the JSON returned for it, or from WithPriorFinal.
//
// A response that is not a JSON object, or that leaves an already Proposing
// or Final conversation without suggestion items, is a DIALOGUE_FAILED error
// and the slots are not advanced; the caller should resubmit the turn. The
// turn that first makes the slots ready may come back as a question.
func (m *Manager) Advance(ctx context.Context, history []ai.Message, slots SlotSet, message string, opts ...AdvanceOption) (*Turn, error) {
	var o advanceOptions
	for _, opt := range opts {
		opt(&o)
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, aierrors.InvalidArgument("message is required")
	}
	if slots == nil {
		slots = NewSlotSet()
	}

	prior := m.priorState(history, slots, o.final)

	snapshot, err := json.Marshal(slots)
	if err != nil {
		return nil, aierrors.DialogueFailed("encode slots", err)
	}

	turns := make([]ai.Message, 0, len(history))
	for _, turn := range history {
		if turn.Role == ai.RoleUser || turn.Role == ai.RoleAssistant {
			turns = append(turns, turn)
		}
	}
	messages := ai.FormatMessages(m.prompt, fmt.Sprintf(userTurnTemplate, snapshot, message), turns)

	start := time.Now()
	response, err := m.llm.Chat(ctx, messages, ai.WithJSONResponse())
	if err != nil {
		return nil, aierrors.DialogueFailed("dialogue completion failed", err)
	}

	parsed, err := parseModelTurn(response)
	if err != nil {
		slog.Warn("unparseable dialogue turn",
			"error", err,
			"response", timeout.Truncate(response))
		return nil, aierrors.DialogueFailed("dialogue response is not a valid turn", err)
	}

	merged := slots.Merge(parsed.slots)
	state := m.nextState(prior, merged, parsed.kind == TypeFinalSuggestion)

	turn := &Turn{
		State:           state,
		Text:            parsed.text,
		SuggestionItems: parsed.items,
		UpdatedSlots:    merged,
	}
	switch state {
	case StateFinal:
		turn.Type = TypeFinalSuggestion
	case StateProposing:
		turn.Type = TypeSuggestion
	default:
		turn.Type = TypeQuestion
		if len(parsed.items) > 0 {
			turn.Type = TypeSuggestion
		}
	}

	// The model learns the threshold was crossed from this very message, so a
	// crossing turn without items stays a question; the merged slots make the
	// next turn start from Proposing.
	if prior == StateCollecting && state != StateCollecting && len(turn.SuggestionItems) == 0 {
		state = StateCollecting
		turn.State = state
		turn.Type = TypeQuestion
	}

	if state != StateCollecting && len(turn.SuggestionItems) == 0 {
		return nil, aierrors.DialogueFailed("turn is missing suggestion items", nil).
			WithContext("state", state.String())
	}

	slog.Debug("dialogue turn advanced",
		"prior_state", prior.String(),
		"state", state.String(),
		"type", turn.Type,
		"filled_slots", merged.FilledCount(),
		"latency_ms", time.Since(start).Milliseconds())

	return turn, nil
}

// AdvanceOption adjusts a single Advance call.
type AdvanceOption func(*advanceOptions)

type advanceOptions struct {
	final bool
}

// WithPriorFinal marks the conversation as already Final. Clients that keep
// only plain text in history use it to carry the state they were last given.
func WithPriorFinal() AdvanceOption {
	return func(o *advanceOptions) { o.final = true }
}

// priorState derives where the conversation stood before this turn.
func (m *Manager) priorState(history []ai.Message, slots SlotSet, final bool) State {
	if slots.IsEmpty() {
		return StateCollecting
	}
	if final || reachedFinal(history) {
		return StateFinal
	}
	if m.policy.Ready(slots) {
		return StateProposing
	}
	return StateCollecting
}

func (m *Manager) nextState(prior State, merged SlotSet, agreed bool) State {
	switch {
	case prior == StateFinal:
		return StateFinal
	case merged.AllFilled():
		return StateFinal
	case agreed && prior == StateProposing:
		return StateFinal
	case m.policy.Ready(merged):
		return StateProposing
	default:
		return StateCollecting
	}
}

// reachedFinal reports whether an earlier assistant turn was a final suggestion.
func reachedFinal(history []ai.Message) bool {
	for _, turn := range history {
		if turn.Role != ai.RoleAssistant {
			continue
		}
		var echoed struct {
			Type TurnType `json:"type"`
		}
		if err := json.Unmarshal([]byte(ai.StripCodeFence(turn.Content)), &echoed); err == nil && echoed.Type == TypeFinalSuggestion {
			return true
		}
	}
	return false
}

type modelTurn struct {
	kind  TurnType
	text  string
	items []string
	slots SlotSet
}

// parseModelTurn requires a JSON object carrying text or suggestion_items.
// Each other field is recovered on its own: absent or malformed values
// become empty instead of failing the turn.
func parseModelTurn(response string) (*modelTurn, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(ai.StripCodeFence(response)), &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("response is null")
	}

	turn := &modelTurn{items: []string{}, slots: NewSlotSet()}

	var kind string
	if v, ok := raw["type"]; ok && json.Unmarshal(v, &kind) == nil {
		turn.kind = TurnType(strings.TrimSpace(kind))
	}
	_, hasText := raw["text"]
	if hasText {
		_ = json.Unmarshal(raw["text"], &turn.text)
	}
	_, hasItems := raw["suggestion_items"]
	if hasItems {
		turn.items = parseItems(raw["suggestion_items"])
	}
	if !hasText && !hasItems {
		return nil, fmt.Errorf("response has neither text nor suggestion_items")
	}
	if v, ok := raw["updated_slots"]; ok {
		var slots SlotSet
		if err := json.Unmarshal(v, &slots); err == nil {
			turn.slots = slots
		}
	}
	return turn, nil
}

// parseItems accepts a list of strings or a single string; blanks are dropped.
func parseItems(raw json.RawMessage) []string {
	items := []string{}

	var list []any
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, v := range list {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				items = append(items, strings.TrimSpace(s))
			}
		}
		return items
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil && strings.TrimSpace(single) != "" {
		items = append(items, strings.TrimSpace(single))
	}
	return items
}

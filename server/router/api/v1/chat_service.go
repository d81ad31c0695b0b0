package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	aierrors "github.com/hrygo/closetmind/internal/errors"
	"github.com/hrygo/closetmind/plugin/ai"
	"github.com/hrygo/closetmind/plugin/ai/dialogue"
)

// ProposeChatRequest is one user turn plus the conversation so far.
//
// A conversation that reached "final" stays final only if the server can see
// it: either an assistant history entry carries the JSON of the turn returned
// for it, or State echoes the "state" of the last returned turn. Plain-text
// assistant history with no State restarts proposing.
type ProposeChatRequest struct {
	History []ai.Message     `json:"history"`
	Slots   dialogue.SlotSet `json:"slots"`
	Message string           `json:"message"`
	State   string           `json:"state,omitempty"`
}

// ProposeChat advances the outfit conversation by one turn.
// POST /api/v1/chat/propose
func (s *APIV1Service) ProposeChat(c echo.Context) error {
	if s.Dialogue == nil {
		return aierrors.ServiceUnavailable("outfit chat is disabled")
	}
	if _, err := owner(c); err != nil {
		return err
	}

	var req ProposeChatRequest
	if err := c.Bind(&req); err != nil {
		return aierrors.InvalidArgument("malformed request body")
	}
	for _, m := range req.History {
		switch m.Role {
		case ai.RoleUser, ai.RoleAssistant, ai.RoleSystem:
		default:
			return aierrors.InvalidArgument("unknown history role " + m.Role)
		}
	}

	var opts []dialogue.AdvanceOption
	switch req.State {
	case "", dialogue.StateCollecting.String(), dialogue.StateProposing.String():
	case dialogue.StateFinal.String():
		opts = append(opts, dialogue.WithPriorFinal())
	default:
		return aierrors.InvalidArgument("unknown conversation state " + req.State)
	}

	turn, err := s.Dialogue.Advance(c.Request().Context(), req.History, req.Slots, req.Message, opts...)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, turn)
}

package api

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	advisorx "github.com/Purvi09/credit-card-advisor/agent/advisor"
	contractx "github.com/Purvi09/credit-card-advisor/agent/contract"
	statex "github.com/Purvi09/credit-card-advisor/agent/state"
)

type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type ChatResponse struct {
	Reply     string `json:"reply"`
	SessionID string `json:"session_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

type ResetRequest struct {
	SessionID string `json:"session_id"`
}

type ResetResponse struct {
	Reply     string `json:"reply"`
	SessionID string `json:"session_id"`
}

type Handler struct {
	advisor  *advisorx.Advisor
	registry *statex.Registry
}

func NewHandler(advisor *advisorx.Advisor, registry *statex.Registry) (*Handler, error) {
	if advisor == nil {
		return nil, errors.New("advisor is required")
	}
	if registry == nil {
		return nil, errors.New("session registry is required")
	}
	return &Handler{advisor: advisor, registry: registry}, nil
}

func (h *Handler) Banner(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Credit Card Advisor API. POST /chat to talk, POST /reset to start over.",
	})
}

// Chat handles one conversational turn. A missing session_id starts a
// new session. Internal failures degrade to a 200 apology with an error
// field so the conversation surface never hard-crashes on the client.
func (h *Handler) Chat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ChatResponse{
			Reply: "I couldn't read that request.",
			Error: "invalid request body",
		})
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	reply, _, err := h.advisor.HandleTurn(c.UserContext(), sessionID, req.Message)
	switch {
	case errors.Is(err, contractx.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(ChatResponse{
			Reply:     "Please type a message so I can help.",
			SessionID: sessionID,
			Error:     err.Error(),
		})
	case err != nil:
		log.Error().Err(err).Str("session_id", sessionID).Msg("chat turn failed")
		return c.JSON(ChatResponse{
			Reply:     "Sorry, something went wrong on my side. Please try again.",
			SessionID: sessionID,
			Error:     "internal error",
		})
	}

	return c.JSON(ChatResponse{Reply: reply, SessionID: sessionID})
}

// Reset hands out a fresh session identifier. The old session's state
// is not deleted; it ages out through idle eviction.
func (h *Handler) Reset(c *fiber.Ctx) error {
	var req ResetRequest
	_ = c.BodyParser(&req) // body is optional

	fresh := h.registry.Reset(strings.TrimSpace(req.SessionID))
	return c.JSON(ResetResponse{
		Reply:     "Done, we're starting fresh. What is your monthly income in rupees?",
		SessionID: fresh,
	})
}

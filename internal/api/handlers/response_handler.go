package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sipadu-ai/evidence-service/internal/evidence"
	"github.com/sipadu-ai/evidence-service/internal/selection"
	"github.com/sipadu-ai/evidence-service/pkg/logger"
)

type ResponseHandler struct {
	engine *selection.Engine
}

func NewResponseHandler(engine *selection.Engine) *ResponseHandler {
	return &ResponseHandler{
		engine: engine,
	}
}

// HandleRegister records a finished bot response and its evidence panels
// as the conversation's current response. Indexing is deferred until the
// first selection arrives.
func (h *ResponseHandler) HandleRegister(c *fiber.Ctx) error {
	var req struct {
		SessionID      string           `json:"session_id"`
		ConversationID string           `json:"conversation_id"`
		ResponseID     string           `json:"response_id"`
		Panels         []evidence.Panel `json:"panels"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.SessionID == "" || req.ConversationID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "session_id and conversation_id are required",
		})
	}

	if req.ResponseID == "" {
		req.ResponseID = uuid.New().String()
	}

	if err := h.engine.RegisterResponse(c.Context(), req.SessionID, req.ConversationID, req.ResponseID, req.Panels); err != nil {
		logger.Error("Failed to register response", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to register response",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"response_id": req.ResponseID,
		"panels":      len(req.Panels),
	})
}

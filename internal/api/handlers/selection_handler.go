package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sipadu-ai/evidence-service/internal/selection"
	"github.com/sipadu-ai/evidence-service/pkg/logger"
)

type SelectionHandler struct {
	engine *selection.Engine
}

func NewSelectionHandler(engine *selection.Engine) *SelectionHandler {
	return &SelectionHandler{
		engine: engine,
	}
}

// HandleSelection matches a user's text selection against the current
// response's evidence and returns the highlighted panels. Misses are
// ordinary 200 responses; the outcome field tells them apart.
func (h *SelectionHandler) HandleSelection(c *fiber.Ctx) error {
	var req struct {
		SessionID      string `json:"session_id"`
		ConversationID string `json:"conversation_id"`
		Selection      string `json:"selection"`
		ViewerOpen     bool   `json:"viewer_open"`
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

	result, err := h.engine.MatchSelection(c.Context(), selection.Request{
		SessionID:      req.SessionID,
		ConversationID: req.ConversationID,
		Selection:      req.Selection,
		ViewerOpen:     req.ViewerOpen,
	})
	if err != nil {
		logger.Error("Failed to process selection", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process selection",
		})
	}

	return c.JSON(result)
}

// GetSelectionHistory returns the session's recent selection events,
// newest first.
func (h *SelectionHandler) GetSelectionHistory(c *fiber.Ctx) error {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "session_id is required",
		})
	}

	limit := c.QueryInt("limit", 50)

	events, err := h.engine.History(sessionID, limit)
	if err != nil {
		logger.Error("Failed to load selection history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load selection history",
		})
	}

	return c.JSON(fiber.Map{
		"history": events,
	})
}

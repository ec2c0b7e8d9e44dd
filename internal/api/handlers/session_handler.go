package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sipadu-ai/evidence-service/internal/session"
	"github.com/sipadu-ai/evidence-service/pkg/logger"
)

type SessionHandler struct {
	manager *session.Manager
}

func NewSessionHandler(manager *session.Manager) *SessionHandler {
	return &SessionHandler{
		manager: manager,
	}
}

// HandleValidate reconciles the browser's current SSO token with the
// session. A changed or missing token clears everything cached for the
// session before the response goes out.
func (h *SessionHandler) HandleValidate(c *fiber.Ctx) error {
	var req struct {
		SessionID string `json:"session_id"`
		Token     string `json:"token"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.SessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "session_id is required",
		})
	}

	resolution, err := h.manager.Resolve(c.Context(), req.SessionID, req.Token)
	if err != nil {
		if errors.Is(err, session.ErrInvalidToken) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}
		logger.Error("Token validation failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Token validation unavailable",
		})
	}

	return c.JSON(resolution)
}

// HandleLogout drops the session's cached state and points the frontend
// back at the dashboard.
func (h *SessionHandler) HandleLogout(c *fiber.Ctx) error {
	var req struct {
		SessionID string `json:"session_id"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.SessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "session_id is required",
		})
	}

	resolution := h.manager.Logout(c.Context(), req.SessionID)

	return c.JSON(resolution)
}

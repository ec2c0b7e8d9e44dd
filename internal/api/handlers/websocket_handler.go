package handlers

import (
	"context"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/sipadu-ai/evidence-service/internal/selection"
	"github.com/sipadu-ai/evidence-service/pkg/logger"
)

// WebSocketHandler serves the live selection channel: the frontend
// pushes selections as the user makes them and receives highlight
// results without a round of HTTP requests per selection.
type WebSocketHandler struct {
	engine *selection.Engine
}

func NewWebSocketHandler(engine *selection.Engine) *WebSocketHandler {
	return &WebSocketHandler{
		engine: engine,
	}
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg struct {
			Type           string `json:"type"`
			SessionID      string `json:"session_id"`
			ConversationID string `json:"conversation_id"`
			Selection      string `json:"selection"`
			ViewerOpen     bool   `json:"viewer_open"`
		}

		err := c.ReadJSON(&msg)
		if err != nil {
			logger.Error("Failed to read WebSocket message", zap.Error(err))
			break
		}

		if msg.Type != "selection" {
			continue
		}

		if msg.SessionID == "" || msg.ConversationID == "" {
			h.sendError(c, "session_id and conversation_id are required")
			continue
		}

		result, err := h.engine.MatchSelection(context.Background(), selection.Request{
			SessionID:      msg.SessionID,
			ConversationID: msg.ConversationID,
			Selection:      msg.Selection,
			ViewerOpen:     msg.ViewerOpen,
		})
		if err != nil {
			logger.Error("Failed to process selection", zap.Error(err))
			h.sendError(c, "Failed to process selection")
			continue
		}

		err = c.WriteJSON(map[string]interface{}{
			"type":   "result",
			"result": result,
		})
		if err != nil {
			logger.Error("Failed to write WebSocket message", zap.Error(err))
			break
		}
	}
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) {
	msg := map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	}

	c.WriteJSON(msg)
}

package validation

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Config struct {
	MaxSelectionLength  int
	MaxPanelBytes       int
	MaxPanels           int
	AllowedContentTypes []string
	Logger              *zap.Logger
}

// Middleware bounds the selection and response payloads before they
// reach the handlers. Selections are arbitrary document text, so only
// size limits apply; panel markup is capped per panel and per response.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxSelectionLength == 0 {
		cfg.MaxSelectionLength = 2000
	}
	if cfg.MaxPanelBytes == 0 {
		cfg.MaxPanelBytes = 262144
	}
	if cfg.MaxPanels == 0 {
		cfg.MaxPanels = 50
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{"application/json"}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		if c.Method() == "POST" || c.Method() == "PUT" {
			contentType := c.Get("Content-Type")
			if contentType != "" {
				allowed := false
				for _, allowedType := range cfg.AllowedContentTypes {
					if strings.Contains(contentType, allowedType) {
						allowed = true
						break
					}
				}
				if !allowed {
					return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
						"error": "Unsupported content type",
					})
				}
			}
		}

		path := c.Path()

		if strings.Contains(path, "/api/v1/selection") && c.Method() == "POST" {
			var req map[string]interface{}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid JSON format",
				})
			}

			selection, ok := req["selection"].(string)
			if !ok {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Selection is required and must be a string",
				})
			}

			if len(selection) > cfg.MaxSelectionLength {
				cfg.Logger.Warn("Selection exceeds maximum length",
					zap.String("ip", c.IP()),
					zap.Int("length", len(selection)),
				)
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Selection exceeds maximum length",
				})
			}
		}

		if strings.Contains(path, "/api/v1/responses") && c.Method() == "POST" {
			var req struct {
				Panels []struct {
					HTML string `json:"html"`
				} `json:"panels"`
			}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid JSON format",
				})
			}

			if len(req.Panels) > cfg.MaxPanels {
				return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
					"error": "Too many evidence panels",
				})
			}

			for _, panel := range req.Panels {
				if len(panel.HTML) > cfg.MaxPanelBytes {
					return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
						"error": "Panel content exceeds maximum size",
					})
				}
			}
		}

		return c.Next()
	}
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sipadu-ai/evidence-service/pkg/config"
)

type UIHandler struct {
	branding config.BrandingConfig
}

func NewUIHandler(branding config.BrandingConfig) *UIHandler {
	return &UIHandler{
		branding: branding,
	}
}

// HandleConfig serves the overlay settings the frontend applies on top
// of the stock UI: title, logo, preloader timing, which tabs to hide
// and which to rename.
func (h *UIHandler) HandleConfig(c *fiber.Ctx) error {
	hiddenTabs := h.branding.HiddenTabs
	if hiddenTabs == nil {
		hiddenTabs = []string{}
	}
	tabRenames := h.branding.TabRenames
	if tabRenames == nil {
		tabRenames = map[string]string{}
	}

	return c.JSON(fiber.Map{
		"title":          h.branding.Title,
		"logo_url":       h.branding.LogoURL,
		"preloader_ms":   h.branding.PreloaderMS,
		"hidden_tabs":    hiddenTabs,
		"tab_renames":    tabRenames,
		"show_dashboard": h.branding.ShowDashboard,
	})
}

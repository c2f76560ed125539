package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/austinhq/austin-web/internal/config"
	"github.com/austinhq/austin-web/internal/view"
)

type LocaleHandler struct {
	cfg config.LocaleConfig
}

// NewLocaleHandler creates a new locale handler
func NewLocaleHandler(cfg config.LocaleConfig) *LocaleHandler {
	return &LocaleHandler{cfg: cfg}
}

// GetLocale handles GET /api/locale
// Returns the locale resolved for this request. Pass ?lang=<tag> to switch.
func (h *LocaleHandler) GetLocale(c *gin.Context) {
	locale := c.GetString(view.LocaleKey)
	if locale == "" {
		locale = h.cfg.Default
	}

	c.JSON(http.StatusOK, gin.H{
		"locale":    locale,
		"default":   h.cfg.Default,
		"supported": h.cfg.Supported,
		"param":     h.cfg.Param,
	})
}

package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"mailstudio/builder/internal/services"
)

// LayoutHandler serves the static HTML shell the editor previews against.
type LayoutHandler struct {
	layoutService services.ILayoutService
}

// NewLayoutHandler creates a new LayoutHandler.
func NewLayoutHandler(layoutService services.ILayoutService) *LayoutHandler {
	return &LayoutHandler{layoutService: layoutService}
}

// GetEmailLayout returns the raw layout HTML.
// Handles GET /api/getEmailLayout
func (h *LayoutHandler) GetEmailLayout(c *gin.Context) {
	layout, err := h.layoutService.GetLayout(c.Request.Context())
	if err != nil {
		log.Printf("Error reading layout file: %v", err)
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrLayoutNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "Error reading layout file"})
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", layout)
}

package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"mailstudio/builder/internal/models"
	"mailstudio/builder/internal/tasks"
)

// EmailHandler queues test deliveries of draft configurations.
type EmailHandler struct {
	taskClient IAsynqClient
}

// NewEmailHandler creates a new EmailHandler.
func NewEmailHandler(taskClient IAsynqClient) *EmailHandler {
	return &EmailHandler{taskClient: taskClient}
}

type sendTestEmailRequest struct {
	To     string             `json:"to" binding:"required,email"`
	Config models.EmailConfig `json:"config"`
}

// SendTestEmail enqueues a background task that renders the given config and
// emails the result to the requested address.
// Handles POST /api/sendTestEmail
func (h *EmailHandler) SendTestEmail(c *gin.Context) {
	var req sendTestEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A valid recipient address is required"})
		return
	}

	task, err := tasks.NewTestEmailTask(req.To, req.Config)
	if err != nil {
		log.Printf("Error building test email task: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue test email"})
		return
	}

	if _, err := h.taskClient.EnqueueContext(c.Request.Context(), task); err != nil {
		log.Printf("Error enqueuing test email task: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue test email"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"success": true})
}

package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"mailstudio/builder/internal/api/handlers"
	"mailstudio/builder/internal/api/middleware"
	"mailstudio/builder/internal/config"
	"mailstudio/builder/internal/render"
	"mailstudio/builder/internal/services"
	"mailstudio/builder/internal/storage"
)

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, configStore services.IConfigStore, assetStore storage.IAssetStore, taskClient handlers.IAsynqClient) *gin.Engine {
	layoutService := services.NewLayoutService(cfg.LayoutPath)
	gateway := render.NewGateway(cfg.RenderApiURL, cfg.RenderTimeout)

	r := gin.Default()

	// Apply global middleware first (order matters)
	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)
	r.Use(middleware.CORSMiddleware())
	r.Use(rateLimiter.Limit())

	// Initialize handlers
	layoutHandler := handlers.NewLayoutHandler(layoutService)
	configHandler := handlers.NewConfigHandler(configStore, assetStore, taskClient)
	uploadHandler := handlers.NewUploadHandler(assetStore, taskClient, cfg.MaxUploadSizeMB)
	renderHandler := handlers.NewRenderHandler(gateway)
	emailHandler := handlers.NewEmailHandler(taskClient)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/getEmailLayout", layoutHandler.GetEmailLayout)
		apiGroup.GET("/getEmailConfigs", configHandler.GetEmailConfigs)
		apiGroup.POST("/uploadEmailConfig", configHandler.UploadEmailConfig)
		apiGroup.POST("/upload", uploadHandler.UploadFile)
		apiGroup.POST("/uploadImage", uploadHandler.UploadImage)
		apiGroup.POST("/renderAndDownloadTemplate", renderHandler.RenderAndDownloadTemplate)
		apiGroup.POST("/sendTestEmail", emailHandler.SendTestEmail)

		apiGroup.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})
	}

	// Uploaded assets are served straight off disk. With the S3 backend the
	// returned references point at the bucket instead, so this route simply
	// never matches.
	r.Static(cfg.UploadBaseURL, cfg.UploadDir)

	return r
}

// SetupServiceRouter configures and returns the service Gin engine used for
// operational commands such as shutdown.
func SetupServiceRouter(cfg *config.Config, shutdownChan chan<- struct{}) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.POST("/api", func(c *gin.Context) {
		var req struct {
			Method    string          `json:"method"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
			return
		}

		switch req.Method {
		case "shutdown":
			fmt.Println("Received shutdown command via Service API")
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "Shutdown initiated"})
			select {
			case shutdownChan <- struct{}{}:
				fmt.Println("Shutdown signal sent successfully.")
			default:
				fmt.Println("Shutdown channel already signaled or blocked.")
			}
		case "ping":
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "pong"})
		default:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Unknown service method: %s", req.Method)})
		}
	})
	return r
}

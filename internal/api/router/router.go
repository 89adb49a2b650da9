package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adityawrm/voiceguard/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "voiceguard-api",
		})
	})

	authHandler := handler.NewAuthHandler(deps)
	analysisHandler := handler.NewAnalysisHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		{
			// POST /api/v1/auth/register - Create an account
			authGroup.POST("/register", authHandler.Register)

			// POST /api/v1/auth/login - Exchange credentials for a token
			authGroup.POST("/login", authHandler.Login)
		}

		protected := v1.Group("")
		protected.Use(AuthMiddleware(deps.Tokens))
		{
			// POST /api/v1/analysis/audio - Submit an audio file for analysis
			protected.POST("/analysis/audio", analysisHandler.SubmitAudio)

			// GET /api/v1/analysis/:analysis_id - Get one analysis, owner-scoped
			protected.GET("/analysis/:analysis_id", analysisHandler.Status)

			// GET /api/v1/history - List the caller's analyses newest first
			protected.GET("/history", analysisHandler.History)
		}
	}

	return r
}

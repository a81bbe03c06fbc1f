package api

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all the routes for the assistant gateway.
func RegisterRoutes(router *gin.Engine, api *API) {
	router.GET("/healthz", api.HealthHandler)

	v1 := router.Group("/api")
	pdf := v1.Group("/pdf-proxy")
	{
		pdf.POST("/upload", api.UploadHandler)
		pdf.POST("/ask", api.AskHandler)
		pdf.GET("/sessions/:id", api.SessionHandler)
		pdf.DELETE("/sessions/:id", api.ForgetSessionHandler)
	}
	v1.POST("/ghana-chat", api.ChatHandler)
	v1.POST("/cover-letter", api.CoverLetterHandler)
	v1.POST("/analyze-cv", api.AnalyzeCVHandler)
}

package router

import (
	"net/http"

	"shopbot/controller"
	"shopbot/middleware"

	"github.com/gin-gonic/gin"
)

func addBasicRouter(engine *gin.Engine) {
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID)
	engine.Use(middleware.Logger)

	engine.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func addApiRouter(engine *gin.Engine) {
	api := engine.Group("/api/v1")
	{
		api.POST("/chat", controller.Chat)
		api.POST("/chat/stream", controller.ChatStream)

		// Telegram bot entry point
		api.POST("/telegram/webhook", controller.TelegramWebhook)

		// knowledge base
		api.POST("/document", controller.AddDocument)
		api.GET("/document/:document_id", controller.GetDocument)
		api.DELETE("/document/:document_id", controller.DeleteDocument)
		api.GET("/documents", controller.ListDocuments)
		api.POST("/documents/search", controller.SearchDocuments)

		// conversational memory
		api.POST("/memory", controller.RecordMemory)
		api.POST("/memory/recall", controller.RecallMemories)
	}
}

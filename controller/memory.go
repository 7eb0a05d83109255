package controller

import (
	"net/http"

	"shopbot/model"
	"shopbot/service/factory"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// RecordMemory writes one memory row directly (facts, preferences).
func RecordMemory(ctx *gin.Context) {
	var req model.RecordMemoryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := factory.GetServiceFactory().NewMemoryService().Record(
		ctx, req.Content, req.Role, req.ConversationID, req.MemoryType, req.Priority)
	if err != nil {
		log.Errorf("RecordMemory error: %v", err)
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"memory_id": id})
}

// RecallMemories ranks stored memories against a query.
func RecallMemories(ctx *gin.Context) {
	var req model.RecallRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	minSimilarity := 0.0
	if req.MinSimilarity != nil {
		minSimilarity = *req.MinSimilarity
	}

	matches, err := factory.GetServiceFactory().NewMemoryService().Recall(
		ctx, req.Query, req.ConversationID, req.K, minSimilarity, req.MemoryTypes)
	if err != nil {
		log.Errorf("RecallMemories error: %v", err)
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"matches": matches})
}

package controller

import (
	"net/http"

	"shopbot/model"
	"shopbot/service/factory"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

// AddDocument ingests a document from inline text or a file path.
func AddDocument(ctx *gin.Context) {
	var req model.AddDocumentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	service := factory.GetServiceFactory().NewDocumentService()

	var id int64
	var err *model.Error
	if req.Path != "" {
		id, err = service.AddDocumentFromFile(ctx, req.Path, req.Title, req.Metadata)
	} else {
		id, err = service.AddDocumentFromText(ctx, req.Text, req.Title, req.Source, req.Metadata)
	}
	if err != nil {
		log.Errorf("AddDocument error: %v", err)
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"document_id": id})
}

// GetDocument returns one document by id.
func GetDocument(ctx *gin.Context) {
	id := cast.ToInt64(ctx.Param("document_id"))
	if id <= 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "document_id is required"})
		return
	}

	doc, err := factory.GetServiceFactory().NewDocumentService().GetDocumentByID(ctx, id)
	if err != nil {
		log.Errorf("GetDocument error: %v", err)
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, doc)
}

// ListDocuments lists documents with optional pager/order query params.
func ListDocuments(ctx *gin.Context) {
	condition := &model.GetDocumentsCondition{}
	if limit := cast.ToInt(ctx.Query("limit")); limit > 0 {
		condition.Pager = &model.Pager{Limit: limit, Offset: cast.ToInt(ctx.Query("offset"))}
	}

	docs, total, err := factory.GetServiceFactory().NewDocumentService().ListDocuments(ctx, condition)
	if err != nil {
		log.Errorf("ListDocuments error: %v", err)
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"documents": docs, "total": total})
}

// DeleteDocument removes a document with all of its chunks.
func DeleteDocument(ctx *gin.Context) {
	id := cast.ToInt64(ctx.Param("document_id"))
	if id <= 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "document_id is required"})
		return
	}

	if err := factory.GetServiceFactory().NewDocumentService().DeleteDocument(ctx, id); err != nil {
		log.Errorf("DeleteDocument error: %v", err)
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"deleted": id})
}

// SearchDocuments ranks knowledge-base chunks against a query.
func SearchDocuments(ctx *gin.Context) {
	var req model.SearchDocumentsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	minRelevance := 0.0
	if req.MinRelevance != nil {
		minRelevance = *req.MinRelevance
	}

	matches, err := factory.GetServiceFactory().NewDocumentService().Search(ctx, req.Query, req.K, minRelevance, req.Filters)
	if err != nil {
		log.Errorf("SearchDocuments error: %v", err)
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"matches": matches})
}

package controller

import (
	"net/http"

	"shopbot/model"

	"github.com/gin-gonic/gin"
)

// respondError maps the numeric error table onto HTTP statuses.
func respondError(ctx *gin.Context, err *model.Error) {
	status := http.StatusInternalServerError
	switch err.Code {
	case model.ErrorParams, model.ErrorEmptyId, model.ErrorInvalidInput:
		status = http.StatusBadRequest
	case model.ErrorDocumentNotFound:
		status = http.StatusNotFound
	case model.ErrorEmbeddingUnavailable:
		status = http.StatusServiceUnavailable
	}
	ctx.JSON(status, gin.H{"code": err.Code, "error": err.Message})
}

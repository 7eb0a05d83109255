package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestID tags every request with an id, minting one when the caller did
// not send X-Request-ID. The logger picks it up from the gin context.
func RequestID(ctx *gin.Context) {
	requestID := ctx.GetHeader(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	ctx.Set(RequestIDHeader, requestID)
	ctx.Writer.Header().Set(RequestIDHeader, requestID)

	ctx.Next()
}

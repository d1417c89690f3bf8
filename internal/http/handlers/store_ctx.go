package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

// storeCtx bounds a store call and ends it early if the client goes away.
func storeCtx(ctx *gin.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request.Context(), d)
}

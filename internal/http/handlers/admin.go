package handlers

import (
	"context"
	"time"

	"github.com/geocoder89/bloodhub/internal/domain/stats"
	"github.com/gin-gonic/gin"
)

type StatsReader interface {
	Counts(ctx context.Context) (stats.Counts, error)
}

type AdminHandler struct {
	stats StatsReader
}

func NewAdminHandler(stats StatsReader) *AdminHandler {
	return &AdminHandler{stats: stats}
}

// Stats reports exact collection sizes. Never cached.
func (h *AdminHandler) Stats(ctx *gin.Context) {
	cctx, cancel := storeCtx(ctx, 3*time.Second)
	defer cancel()

	counts, err := h.stats.Counts(cctx)
	if err != nil {
		RespondInternal(ctx, "could not compute stats")
		return
	}

	RespondOK(ctx, gin.H{"stats": counts})
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Check is one named readiness check, e.g. the store or redis.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type HealthHandler struct {
	checks []Check
}

// create a new instance of the health handler
func NewHealthHandler(checks ...Check) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"ok": true, "status": "ok"})
}

// Readyz runs every check and reports 503 if any fails.
func (h *HealthHandler) Readyz(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	results := make(gin.H, len(h.checks))
	ready := true

	for _, c := range h.checks {
		if err := c.Ping(cctx); err != nil {
			results[c.Name] = err.Error()
			ready = false
			continue
		}
		results[c.Name] = "ok"
	}

	if !ready {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "status": "not_ready", "checks": results})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"ok": true, "status": "ready", "checks": results})
}

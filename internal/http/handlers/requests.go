package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/bloodhub/internal/cache"
	"github.com/geocoder89/bloodhub/internal/domain/request"
	"github.com/gin-gonic/gin"
)

const requestsCacheKey = "requests:list"

type RequestsStore interface {
	Create(ctx context.Context, req request.CreateRequest) (request.Request, error)
	List(ctx context.Context) ([]request.Request, error)
}

type RequestNotifier interface {
	RequestCreated(ctx context.Context, req request.Request) error
}

type RequestsHandler struct {
	repo     RequestsStore
	notifier RequestNotifier
	cache    *cache.Cache[cachedBody]
	log      *slog.Logger
}

// NewRequestsHandler wires the requests endpoints. notifier may be nil.
func NewRequestsHandler(repo RequestsStore, notifier RequestNotifier, listTTL time.Duration, log *slog.Logger) *RequestsHandler {
	if log == nil {
		log = slog.Default()
	}

	return &RequestsHandler{
		repo:     repo,
		notifier: notifier,
		cache:    cache.New[cachedBody](listTTL),
		log:      log,
	}
}

// CreateRequest is open to anonymous callers.
func (h *RequestsHandler) CreateRequest(ctx *gin.Context) {
	var req request.CreateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := storeCtx(ctx, 3*time.Second)
	defer cancel()

	created, err := h.repo.Create(cctx, req)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "create request failed", "err", err)
		RespondInternal(ctx, "could not create request")
		return
	}

	h.cache.Delete(requestsCacheKey)
	h.notify(ctx, created)

	RespondOK(ctx, gin.H{"request": created})
}

func (h *RequestsHandler) ListRequests(ctx *gin.Context) {
	if cb, ok := h.cache.Get(requestsCacheKey); ok {
		respondCached(ctx, cb)
		return
	}

	// read before the store so a create racing this list cannot be masked
	gen := h.cache.Generation()

	cctx, cancel := storeCtx(ctx, 3*time.Second)
	defer cancel()

	items, err := h.repo.List(cctx)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "list requests failed", "err", err)
		RespondInternal(ctx, "could not list requests")
		return
	}

	cb, err := renderBody(gin.H{"ok": true, "requests": items})
	if err != nil {
		RespondInternal(ctx, "could not list requests")
		return
	}

	h.cache.SetIfCurrent(requestsCacheKey, cb, gen)
	respondCached(ctx, cb)
}

// notify is best effort. The request is already stored, so failures are only
// logged.
func (h *RequestsHandler) notify(ctx *gin.Context, created request.Request) {
	if h.notifier == nil {
		return
	}

	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx.Request.Context()), 2*time.Second)
	defer cancel()

	if err := h.notifier.RequestCreated(nctx, created); err != nil {
		h.log.WarnContext(ctx.Request.Context(), "request notification failed",
			"request_id", created.ID,
			"err", err,
		)
	}
}

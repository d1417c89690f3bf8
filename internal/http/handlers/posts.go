package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/bloodhub/internal/cache"
	"github.com/geocoder89/bloodhub/internal/domain/post"
	"github.com/geocoder89/bloodhub/internal/http/middlewares"
	"github.com/geocoder89/bloodhub/internal/storage"
	"github.com/gin-gonic/gin"
)

const postsCacheKey = "posts:list"

type PostsStore interface {
	Create(ctx context.Context, in post.NewPost) (post.Post, error)
	List(ctx context.Context) ([]post.Post, error)
}

type PostsHandler struct {
	repo     PostsStore
	photos   storage.PhotoStore
	maxBytes int64
	cache    *cache.Cache[cachedBody]
	log      *slog.Logger
}

func NewPostsHandler(repo PostsStore, photos storage.PhotoStore, maxBytes int64, listTTL time.Duration, log *slog.Logger) *PostsHandler {
	if log == nil {
		log = slog.Default()
	}

	return &PostsHandler{
		repo:     repo,
		photos:   photos,
		maxBytes: maxBytes,
		cache:    cache.New[cachedBody](listTTL),
		log:      log,
	}
}

// CreatePost takes a multipart form with an optional single "photo" file.
// Route is gated to ngo and admin roles.
func (h *PostsHandler) CreatePost(ctx *gin.Context) {
	id, ok := middlewares.IdentityFromContext(ctx)
	if !ok {
		RespondUnauthenticated(ctx, "missing auth")
		return
	}

	var form post.CreatePostForm
	if !BindForm(ctx, &form) {
		return
	}

	photoURL, ok := h.savePhoto(ctx)
	if !ok {
		return
	}

	cctx, cancel := storeCtx(ctx, 3*time.Second)
	defer cancel()

	created, err := h.repo.Create(cctx, post.NewPost{
		NGOID:        id.ID,
		Title:        form.Title,
		Description:  form.Description,
		LocationText: form.LocationText,
		PhotoURL:     photoURL,
	})
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "create post failed", "err", err)
		h.discardPhoto(ctx, photoURL)
		RespondInternal(ctx, "could not create post")
		return
	}

	h.cache.Delete(postsCacheKey)

	RespondOK(ctx, gin.H{"post": created})
}

func (h *PostsHandler) ListPosts(ctx *gin.Context) {
	if cb, ok := h.cache.Get(postsCacheKey); ok {
		respondCached(ctx, cb)
		return
	}

	gen := h.cache.Generation()

	cctx, cancel := storeCtx(ctx, 3*time.Second)
	defer cancel()

	items, err := h.repo.List(cctx)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "list posts failed", "err", err)
		RespondInternal(ctx, "could not list posts")
		return
	}

	cb, err := renderBody(gin.H{"ok": true, "posts": items})
	if err != nil {
		RespondInternal(ctx, "could not list posts")
		return
	}

	h.cache.SetIfCurrent(postsCacheKey, cb, gen)
	respondCached(ctx, cb)
}

// savePhoto stores the "photo" part if present. It returns "" when the form
// has no photo; ok is false once an error response has been written.
func (h *PostsHandler) savePhoto(ctx *gin.Context) (string, bool) {
	if h.photos == nil {
		return "", true
	}

	header, err := ctx.FormFile("photo")
	if err != nil {
		switch {
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			return "", true
		case isTooLarge(err):
			RespondTooLarge(ctx, "photo too large")
			return "", false
		default:
			RespondValidation(ctx, "invalid photo upload", gin.H{"reason": err.Error()})
			return "", false
		}
	}

	if h.maxBytes > 0 && header.Size > h.maxBytes {
		RespondTooLarge(ctx, "photo too large")
		return "", false
	}

	file, err := header.Open()
	if err != nil {
		RespondInternal(ctx, "could not read photo")
		return "", false
	}
	defer file.Close()

	cctx, cancel := storeCtx(ctx, 10*time.Second)
	defer cancel()

	url, err := h.photos.Save(cctx, storage.Upload{
		Filename:    header.Filename,
		Body:        file,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		BaseURL:     requestBaseURL(ctx),
	})
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "save photo failed", "err", err)
		RespondInternal(ctx, "could not store photo")
		return "", false
	}

	return url, true
}

// discardPhoto removes a stored photo whose post was never created.
func (h *PostsHandler) discardPhoto(ctx *gin.Context, url string) {
	if url == "" {
		return
	}

	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx.Request.Context()), 5*time.Second)
	defer cancel()

	if err := h.photos.Delete(dctx, url); err != nil {
		h.log.WarnContext(ctx.Request.Context(), "orphaned photo not removed", "url", url, "err", err)
	}
}

func requestBaseURL(ctx *gin.Context) string {
	scheme := "http"
	if ctx.Request.TLS != nil {
		scheme = "https"
	}
	if p := ctx.GetHeader("X-Forwarded-Proto"); p == "http" || p == "https" {
		scheme = p
	}

	return scheme + "://" + ctx.Request.Host
}

package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// cachedBody is a pre-rendered JSON response plus its validator.
type cachedBody struct {
	body []byte
	etag string
}

func renderBody(payload interface{}) (cachedBody, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return cachedBody{}, err
	}

	return cachedBody{body: b, etag: etagFor(b)}, nil
}

// respondCached writes the body with its ETag, or 304 when the client
// already holds it.
func respondCached(ctx *gin.Context, cb cachedBody) {
	ctx.Header("ETag", cb.etag)
	ctx.Header("Cache-Control", "no-cache")

	if ifNoneMatchMatches(ctx.GetHeader("If-None-Match"), cb.etag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.Data(http.StatusOK, "application/json; charset=utf-8", cb.body)
}

func etagFor(b []byte) string {
	sum := sha256.Sum256(b)

	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

func ifNoneMatchMatches(headerValue, currentETag string) bool {
	if strings.TrimSpace(headerValue) == "" || strings.TrimSpace(currentETag) == "" {
		return false
	}

	if strings.TrimSpace(headerValue) == "*" {
		return true
	}

	current := normalizeETag(currentETag)

	for _, part := range strings.Split(headerValue, ",") {
		if normalizeETag(part) == current {
			return true
		}
	}

	return false
}

func normalizeETag(raw string) string {
	v := strings.TrimSpace(raw)

	// RFC allows weak validators like W/"abc".
	if strings.HasPrefix(v, "W/") {
		v = strings.TrimSpace(strings.TrimPrefix(v, "W/"))
	}

	return v
}

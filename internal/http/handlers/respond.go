package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// error kinds surfaced in the "code" field
const (
	CodeValidation         = "validation_error"
	CodeDuplicateEmail     = "duplicate_email"
	CodeInvalidCredentials = "invalid_credentials"
	CodeUnauthenticated    = "unauthenticated"
	CodeForbidden          = "forbidden"
	CodeNotFound           = "not_found"
	CodePayloadTooLarge    = "payload_too_large"
	CodeInternal           = "internal_error"
)

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get("request_id")

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

// RespondOK writes payload with ok=true added.
func RespondOK(ctx *gin.Context, payload gin.H) {
	payload["ok"] = true
	ctx.JSON(http.StatusOK, payload)
}

// RespondError writes {ok:false, error, code, requestId, details}.
func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	body := gin.H{
		"ok":    false,
		"error": message,
		"code":  code,
	}

	if id := requestIDFrom(ctx); id != "" {
		body["requestId"] = id
	}
	if details != nil {
		body["details"] = details
	}

	ctx.AbortWithStatusJSON(status, body)
}

func RespondValidation(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, CodeValidation, message, details)
}

func RespondBadRequest(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusBadRequest, code, message, nil)
}

func RespondUnauthenticated(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusUnauthorized, CodeUnauthenticated, message, nil)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, CodeNotFound, message, nil)
}

func RespondTooLarge(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, CodeInternal, message, nil)
}

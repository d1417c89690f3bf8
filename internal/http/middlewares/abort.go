package middlewares

import "github.com/gin-gonic/gin"

// abortWithError stops the chain with the same body shape the handlers use.
func abortWithError(c *gin.Context, status int, code, message string) {
	body := gin.H{
		"ok":    false,
		"error": message,
		"code":  code,
	}

	if id, ok := c.Get(CtxRequestID); ok {
		if s, ok := id.(string); ok && s != "" {
			body["requestId"] = s
		}
	}

	c.AbortWithStatusJSON(status, body)
}

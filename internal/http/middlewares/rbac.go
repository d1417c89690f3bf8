package middlewares

import (
	"net/http"

	"github.com/geocoder89/bloodhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// RequireRoles lets the request through only when the authenticated role is
// in allowed. It must run after RequireAuth.
func (m *AuthMiddleware) RequireRoles(allowed ...user.Role) gin.HandlerFunc {
	set := make(map[user.Role]struct{}, len(allowed))
	for _, r := range allowed {
		set[r] = struct{}{}
	}

	return func(c *gin.Context) {
		id, ok := IdentityFromContext(c)

		if !ok {
			abortWithError(c, http.StatusUnauthorized, "unauthenticated", "missing auth")
			return
		}
		if _, ok := set[id.Role]; !ok {
			abortWithError(c, http.StatusForbidden, "forbidden", "forbidden")
			return
		}
		c.Next()
	}
}

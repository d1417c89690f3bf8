package middlewares

import (
	"net/http"
	"strings"

	"github.com/geocoder89/bloodhub/internal/actorctx"
	"github.com/geocoder89/bloodhub/internal/auth"
	"github.com/geocoder89/bloodhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	jwt TokenVerifier
}

func NewAuthMiddleware(jwt TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

// RequireAuth resolves the bearer token to an identity. Expired and invalid
// tokens get the same 401.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortWithError(c, http.StatusUnauthorized, "unauthenticated", "missing auth")
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if raw == "" {
			abortWithError(c, http.StatusUnauthorized, "unauthenticated", "missing auth")
			return
		}

		claims, err := m.jwt.Verify(raw)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "unauthenticated", "invalid token")
			return
		}

		id := actorctx.Identity{
			ID:    claims.UserID,
			Email: claims.Email,
			Role:  user.Role(claims.Role),
		}

		// Stash identity on both the gin context and the request context
		c.Set(ctxIdentityKey, id)
		c.Request = c.Request.WithContext(actorctx.WithIdentity(c.Request.Context(), id))

		c.Next()
	}
}

// IdentityFromContext returns the identity RequireAuth attached.
func IdentityFromContext(c *gin.Context) (actorctx.Identity, bool) {
	v, ok := c.Get(ctxIdentityKey)
	if !ok {
		return actorctx.Identity{}, false
	}
	id, ok := v.(actorctx.Identity)
	return id, ok && id.ID != 0
}

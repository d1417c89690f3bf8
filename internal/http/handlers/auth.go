package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/bloodhub/internal/domain/user"
	"github.com/geocoder89/bloodhub/internal/http/middlewares"
	"github.com/geocoder89/bloodhub/internal/security"
	"github.com/gin-gonic/gin"
)

type UserReader interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id int64) (user.User, error)
}

type UserWriter interface {
	Create(ctx context.Context, in user.NewUser) (user.User, error)
}

type TokenIssuer interface {
	Issue(userID int64, email, role string) (string, error)
}

type AuthHandler struct {
	users        UserReader
	userWriter   UserWriter
	jwt          TokenIssuer
	allowedRoles map[user.Role]struct{}
}

// NewAuthHandler builds the auth endpoints. An empty allowedRoles accepts any
// role a client asks for at registration.
func NewAuthHandler(users UserReader, userWriter UserWriter, jwt TokenIssuer, allowedRoles []string) *AuthHandler {
	h := &AuthHandler{
		users:      users,
		userWriter: userWriter,
		jwt:        jwt,
	}

	if len(allowedRoles) > 0 {
		h.allowedRoles = make(map[user.Role]struct{}, len(allowedRoles))
		for _, r := range allowedRoles {
			h.allowedRoles[user.Role(strings.TrimSpace(r))] = struct{}{}
		}
	}

	return h
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	role := user.ResolveRole(req.Role)
	if !h.roleAllowed(role) {
		RespondValidation(ctx, "role is not allowed", gin.H{
			"fields": []FieldError{{Field: "role", Rule: "oneof", Message: "is not an allowed role"}},
		})
		return
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooLong) {
			RespondValidation(ctx, "password must be at most 72 bytes", gin.H{
				"fields": []FieldError{{Field: "password", Rule: "max", Param: "72", Message: "must be at most 72 bytes"}},
			})
			return
		}
		RespondInternal(ctx, "could not create user")
		return
	}

	cctx, cancel := storeCtx(ctx, 3*time.Second)
	defer cancel()

	u, err := h.userWriter.Create(cctx, user.NewUser{
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
		Name:         user.NormalizeName(req.Name),
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondBadRequest(ctx, CodeDuplicateEmail, "email already registered")
			return
		}

		RespondInternal(ctx, "could not create user")
		return
	}

	h.respondWithToken(ctx, u)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for the lookup
	cctx, cancel := storeCtx(ctx, 2*time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			RespondInternal(ctx, "could not log in")
			return
		}

		security.BurnCompare(req.Password)
		RespondBadRequest(ctx, CodeInvalidCredentials, "invalid credentials")
		return
	}

	if err := security.CheckPassword(foundUser.PasswordHash, req.Password); err != nil {
		RespondBadRequest(ctx, CodeInvalidCredentials, "invalid credentials")
		return
	}

	h.respondWithToken(ctx, foundUser)
}

// Profile returns the caller's own public record.
func (h *AuthHandler) Profile(ctx *gin.Context) {
	id, ok := middlewares.IdentityFromContext(ctx)
	if !ok {
		RespondUnauthenticated(ctx, "missing auth")
		return
	}

	cctx, cancel := storeCtx(ctx, 2*time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, id.ID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "user not found")
			return
		}
		RespondInternal(ctx, "could not load profile")
		return
	}

	RespondOK(ctx, gin.H{"user": u.Public()})
}

func (h *AuthHandler) respondWithToken(ctx *gin.Context, u user.User) {
	token, err := h.jwt.Issue(u.ID, u.Email, string(u.Role))
	if err != nil {
		RespondInternal(ctx, "could not issue token")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"ok":    true,
		"user":  u.Public(),
		"token": token,
	})
}

func (h *AuthHandler) roleAllowed(role user.Role) bool {
	if h.allowedRoles == nil {
		return true
	}

	_, ok := h.allowedRoles[role]
	return ok
}

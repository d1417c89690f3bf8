package http

import (
	"log/slog"
	"time"

	"github.com/geocoder89/bloodhub/internal/domain/user"
	"github.com/geocoder89/bloodhub/internal/http/handlers"
	"github.com/geocoder89/bloodhub/internal/http/middlewares"
	"github.com/geocoder89/bloodhub/internal/observability"
	"github.com/geocoder89/bloodhub/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const jsonBodyLimit = 1 << 20

// UsersStore is everything the HTTP layer needs from a users backend.
type UsersStore interface {
	handlers.UserReader
	handlers.UserWriter
	handlers.DonorLister
}

type TokenService interface {
	handlers.TokenIssuer
	middlewares.TokenVerifier
}

// Deps carries the wired backends into the router. Photos, Notifier, Prom,
// Gatherer and UploadDir are optional.
type Deps struct {
	Env string

	Users    UsersStore
	Requests handlers.RequestsStore
	Posts    handlers.PostsStore
	Stats    handlers.StatsReader
	Tokens   TokenService

	Photos         storage.PhotoStore
	UploadDir      string
	UploadMaxBytes int64

	Notifier handlers.RequestNotifier

	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
	Checks   []handlers.Check

	CORSOrigins   []string
	RegisterRoles []string
	ListCacheTTL  time.Duration
}

func NewRouter(log *slog.Logger, deps Deps) *gin.Engine {
	if deps.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	handlers.RegisterValidators()

	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware("bloodhub"))
	r.Use(middlewares.RequestLogger(log))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(deps.CORSOrigins))

	// health + metrics
	h := handlers.NewHealthHandler(deps.Checks...)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	if deps.UploadDir != "" {
		r.Static(storage.PublicPrefix, deps.UploadDir)
	}

	am := middlewares.NewAuthMiddleware(deps.Tokens)
	jsonBody := []gin.HandlerFunc{middlewares.RequireJSON(), middlewares.MaxBodyBytes(jsonBodyLimit)}

	authHandler := handlers.NewAuthHandler(deps.Users, deps.Users, deps.Tokens, deps.RegisterRoles)
	donorsHandler := handlers.NewDonorsHandler(deps.Users)
	requestsHandler := handlers.NewRequestsHandler(deps.Requests, deps.Notifier, deps.ListCacheTTL, log)
	postsHandler := handlers.NewPostsHandler(deps.Posts, deps.Photos, deps.UploadMaxBytes, deps.ListCacheTTL, log)
	adminHandler := handlers.NewAdminHandler(deps.Stats)

	api := r.Group("/api")

	api.POST("/auth/register", append(jsonBody, authHandler.Register)...)
	api.POST("/auth/login", append(jsonBody, authHandler.Login)...)
	api.GET("/profile", am.RequireAuth(), authHandler.Profile)

	api.GET("/donors", donorsHandler.ListDonors)

	// open to anonymous callers
	api.GET("/requests", requestsHandler.ListRequests)
	api.POST("/requests", append(jsonBody, requestsHandler.CreateRequest)...)

	// the multipart overhead on top of the photo gets its own slack
	api.GET("/ngo/posts", postsHandler.ListPosts)
	api.POST("/ngo/posts",
		am.RequireAuth(),
		am.RequireRoles(user.RoleNGO, user.RoleAdmin),
		middlewares.MaxBodyBytes(deps.UploadMaxBytes+jsonBodyLimit),
		postsHandler.CreatePost,
	)

	api.GET("/admin/stats", am.RequireAuth(), am.RequireRoles(user.RoleAdmin), adminHandler.Stats)

	return r
}

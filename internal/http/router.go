package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/learnhub/internal/auth"
	"github.com/geocoder89/learnhub/internal/config"
	"github.com/geocoder89/learnhub/internal/domain/role"
	"github.com/geocoder89/learnhub/internal/domain/user"
	"github.com/geocoder89/learnhub/internal/gate"
	"github.com/geocoder89/learnhub/internal/http/handlers"
	"github.com/geocoder89/learnhub/internal/http/middlewares"
	"github.com/geocoder89/learnhub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type UsersStore interface {
	handlers.AuthUsers
	handlers.ProfileWriter
	handlers.AdminUsersRepo
}

// Deps is everything the API needs. MockAuth is nil unless mock auth was
// enabled at startup; its routes do not exist otherwise.
type Deps struct {
	Config   config.Config
	Log      *slog.Logger
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer

	Resolver  *auth.Resolver
	JWT       *auth.Manager
	Providers map[user.Provider]handlers.SocialLogin
	Refresh   auth.RefreshStore
	Broker    handlers.RoleChangePublisher
	MockAuth  auth.MockStore

	Users    UsersStore
	Contents handlers.ContentService
	Jobs     handlers.AdminJobsRepo
	Health   handlers.HealthChecker

	Ready          func(ctx context.Context) error
	IsShuttingDown func() bool
}

func NewRouter(d Deps) *gin.Engine {
	if d.Config.Env != "dev" && d.Config.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}

	handlers.RegisterValidators()

	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	if d.Config.ServiceName != "" {
		r.Use(otelgin.Middleware(d.Config.ServiceName))
	}
	r.Use(middlewares.RequestID())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Config.AllowedOrigin))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.Session(d.Resolver))
	r.Use(middlewares.RequestLogger(d.Log))

	// probes and metrics sit outside the body and rate limits
	hh := handlers.NewHealthHandler(d.Health, d.Ready, d.IsShuttingDown)
	r.GET("/healthz", hh.Healthz)
	r.GET("/readyz", hh.Readyz)
	r.GET("/health", hh.Overall)
	r.GET("/health/:service", hh.Service)

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	perMinute := d.Config.RateLimitPerMinute
	if perMinute <= 0 {
		perMinute = 120
	}
	limiter := middlewares.NewRateLimiter(perMinute, time.Minute)

	api := r.Group("/")
	api.Use(middlewares.MaxBodyBytes(1 << 20))
	api.Use(middlewares.RequireJSON())
	api.Use(limiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP))

	mon := handlers.NewMonitoringHandler(d.Prom, d.Log)
	api.POST("/monitoring/health", mon.Ingest)

	// auth
	ah := handlers.NewAuthHandler(d.Users, d.Providers, d.JWT, d.Refresh, d.Config, d.Log)
	me := handlers.NewMeHandler(d.Users, d.Resolver)

	authGroup := api.Group("/auth")
	authGroup.GET("/:provider/login", ah.Login)
	authGroup.GET("/:provider/callback", ah.Callback)
	authGroup.POST("/refresh", ah.Refresh)
	authGroup.POST("/logout", ah.Logout)
	authGroup.GET("/me", me.Get)

	api.PATCH("/me", me.UpdateProfile)

	// content
	ch := handlers.NewContentsHandler(d.Contents)

	api.GET("/contents", ch.ListPublic)
	api.GET("/contents/:id", ch.Get)

	writers := api.Group("/")
	writers.Use(middlewares.Protect(gate.Requirement{Capability: role.CanCreateContent}))
	writers.POST("/contents", ch.Submit)

	api.GET("/me/contents", ch.ListMine)

	// moderation queue
	moderators := api.Group("/admin/contents")
	moderators.Use(middlewares.Protect(gate.Requirement{Capability: role.CanModerate}))
	moderators.GET("", ch.ListAll)
	moderators.POST("/:id/moderate", ch.Moderate)

	// admin
	admin := api.Group("/admin")
	admin.Use(middlewares.Protect(gate.Requirement{Capability: role.CanAccessAdmin}))

	uh := handlers.NewAdminUsersHandler(d.Users, d.Broker, d.Refresh, d.Log)
	admin.GET("/users", uh.List)
	admin.PATCH("/users/:id/role", uh.ChangeRole)
	admin.POST("/users/:id/ban", uh.Ban)
	admin.POST("/users/:id/deactivate", uh.Deactivate)

	if d.Jobs != nil {
		jh := handlers.NewAdminJobsHandler(d.Jobs)
		admin.GET("/jobs", jh.List)
		admin.GET("/jobs/:id", jh.GetByID)
		admin.POST("/jobs/:id/retry", jh.Retry)
	}

	if d.MockAuth != nil {
		mh := handlers.NewMockAuthHandler(d.MockAuth, d.Log)
		test := api.Group("/test")
		test.PUT("/mock-auth", mh.Set)
		test.GET("/mock-auth", mh.Get)
		test.DELETE("/mock-auth", mh.Clear)
		d.Log.Warn("mock auth routes enabled")
	}

	return r
}

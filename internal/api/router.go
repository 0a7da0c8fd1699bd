package api

import (
	"net/http"

	"auditorium/internal/metrics"
	"auditorium/internal/middleware"
	"auditorium/internal/service"
	"auditorium/pkg/constraints"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type Handlers struct {
	Auth          *AuthHandler
	Users         *UserHandler
	Conferences   *ConferenceHandler
	Registrations *RegistrationHandler
	Feedbacks     *FeedbackHandler
}

// NewHandlers builds every handler over one in-memory domain.
func NewHandlers(d *service.Domain) Handlers {
	return Handlers{
		Auth:          NewAuthHandler(d.Auth),
		Users:         NewUserHandler(d.Users, d.Catalog, d.Auth.Logout),
		Conferences:   NewConferenceHandler(d.Catalog),
		Registrations: NewRegistrationHandler(d.Catalog, d.Users),
		Feedbacks:     NewFeedbackHandler(d.Catalog),
	}
}

type RouterOptions struct {
	RequestsPerSecond int
	AllowedOrigins    []string
}

// RegisterRoutes mounts the API. rdb backs the write rate limiter and may be
// nil.
func RegisterRoutes(h Handlers, parser middleware.TokenParser, rdb redis.Scripter, opts RouterOptions) *gin.Engine {
	useJSONFieldNames()
	r := gin.New()

	// Global Middleware
	r.Use(
		middleware.CorsMiddleware(opts.AllowedOrigins),
		middleware.RequestID(),
		middleware.TraceMiddleware(),
		middleware.GinZapLogger(),
		middleware.GinZapRecovery(),
		middleware.HttpMiddleware(),
	)
	r.SetTrustedProxies(nil)

	// Public Routes
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Rate limits: anonymous auth calls per IP, writes per signed-in user
	limiter := middleware.NewRateLimiter(rdb, opts.RequestsPerSecond)
	authLimiter := limiter.Handler("auth")
	writeLimiter := limiter.Handler("write")

	auth := r.Group("/auth")
	{
		auth.POST("/register/otp", authLimiter, h.Auth.RequestRegisterOTP)
		auth.POST("/register/otp/check", authLimiter, h.Auth.CheckRegisterOTP)
		auth.POST("/register", authLimiter, h.Auth.Register)
		auth.POST("/login", authLimiter, h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
		auth.POST("/reset-password/otp", authLimiter, h.Auth.RequestResetPasswordOTP)
		auth.POST("/reset-password", authLimiter, h.Auth.ResetPassword)
	}

	protected := r.Group("/")
	protected.Use(middleware.JWTMiddleware(parser))

	admin := middleware.RequireRole(constraints.RoleAdmin)
	organizer := middleware.RequireRole(constraints.RoleEventCoordinator, constraints.RoleAdmin)

	{
		protected.POST("/auth/logout", h.Auth.Logout)

		protected.GET("/users/me", h.Users.Me)
		protected.PATCH("/users/me", writeLimiter, h.Users.UpdateMe)
		protected.GET("/users/:id", h.Users.Get)
		protected.POST("/users", admin, writeLimiter, h.Users.Create)
		protected.DELETE("/users/:id", admin, h.Users.Delete)

		protected.GET("/conferences", h.Conferences.List)
		protected.POST("/conferences", organizer, writeLimiter, h.Conferences.Create)
		protected.GET("/conferences/:id", h.Conferences.Get)
		protected.PATCH("/conferences/:id", writeLimiter, h.Conferences.Update)
		protected.DELETE("/conferences/:id", h.Conferences.Delete)
		protected.PATCH("/conferences/:id/status", admin, h.Conferences.UpdateStatus)

		protected.POST("/registrations", writeLimiter, h.Registrations.Register)
		protected.GET("/registrations/conferences/:id", h.Registrations.Users)
		protected.GET("/registrations/users/:id", h.Registrations.Conferences)

		protected.POST("/feedbacks", writeLimiter, h.Feedbacks.Create)
		protected.GET("/feedbacks/conferences/:id", h.Feedbacks.ListByConference)
		protected.DELETE("/feedbacks/:id", h.Feedbacks.Delete)
	}
	return r
}

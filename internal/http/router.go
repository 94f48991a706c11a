// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/go-poll-backend/docs"
	"github.com/tbourn/go-poll-backend/internal/auth"
	"github.com/tbourn/go-poll-backend/internal/config"
	"github.com/tbourn/go-poll-backend/internal/domain"
	"github.com/tbourn/go-poll-backend/internal/http/handlers"
	"github.com/tbourn/go-poll-backend/internal/http/middleware"
	"github.com/tbourn/go-poll-backend/internal/realtime"
	"github.com/tbourn/go-poll-backend/internal/repo"
	"github.com/tbourn/go-poll-backend/internal/services"
)

// pollRepoShim adapts the repository free functions to the services.PollRepo
// interface expected by the PollService. This keeps services decoupled from
// the concrete repo package while reusing existing functions.
type pollRepoShim struct{}

// CreatePollWithOptions proxies repo.CreatePollWithOptions.
func (pollRepoShim) CreatePollWithOptions(ctx context.Context, db *gorm.DB, p *domain.Poll, optionTexts []string) (*domain.Poll, error) {
	return repo.CreatePollWithOptions(ctx, db, p, optionTexts)
}

// GetPoll proxies repo.GetPoll.
func (pollRepoShim) GetPoll(ctx context.Context, db *gorm.DB, id string) (*domain.Poll, error) {
	return repo.GetPoll(ctx, db, id)
}

// ListPublicPolls proxies repo.ListPublicPolls.
func (pollRepoShim) ListPublicPolls(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Poll, error) {
	return repo.ListPublicPolls(ctx, db, offset, limit)
}

// CountPublicPolls proxies repo.CountPublicPolls.
func (pollRepoShim) CountPublicPolls(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountPublicPolls(ctx, db)
}

// ListOwnerPolls proxies repo.ListOwnerPolls.
func (pollRepoShim) ListOwnerPolls(ctx context.Context, db *gorm.DB, ownerID string) ([]domain.Poll, error) {
	return repo.ListOwnerPolls(ctx, db, ownerID)
}

// SearchPolls proxies repo.SearchPolls.
func (pollRepoShim) SearchPolls(ctx context.Context, db *gorm.DB, s repo.PollSearch) ([]domain.Poll, int64, error) {
	return repo.SearchPolls(ctx, db, s)
}

// UpdatePollFields proxies repo.UpdatePollFields.
func (pollRepoShim) UpdatePollFields(ctx context.Context, db *gorm.DB, id string, u repo.PollUpdate) error {
	return repo.UpdatePollFields(ctx, db, id, u)
}

// ReplaceOptions proxies repo.ReplaceOptions.
func (pollRepoShim) ReplaceOptions(ctx context.Context, db *gorm.DB, pollID string, optionTexts []string) error {
	return repo.ReplaceOptions(ctx, db, pollID, optionTexts)
}

// SetStatusCAS proxies repo.SetStatusCAS.
func (pollRepoShim) SetStatusCAS(ctx context.Context, db *gorm.DB, id, from, to string) (bool, error) {
	return repo.SetStatusCAS(ctx, db, id, from, to)
}

// DeletePoll proxies repo.DeletePoll.
func (pollRepoShim) DeletePoll(ctx context.Context, db *gorm.DB, id string) error {
	return repo.DeletePoll(ctx, db, id)
}

// CountVotes proxies repo.CountVotes.
func (pollRepoShim) CountVotes(ctx context.Context, db *gorm.DB, pollID string) (int64, error) {
	return repo.CountVotes(ctx, db, pollID)
}

// EnsureProfile proxies repo.EnsureProfile.
func (pollRepoShim) EnsureProfile(ctx context.Context, db *gorm.DB, userID string) (*domain.Profile, error) {
	return repo.EnsureProfile(ctx, db, userID)
}

// EnsureShortLink proxies repo.EnsureShortLink.
func (pollRepoShim) EnsureShortLink(ctx context.Context, db *gorm.DB, pollID string) (*domain.PollShortLink, error) {
	return repo.EnsureShortLink(ctx, db, pollID)
}

// GetShortLinkByCode proxies repo.GetShortLinkByCode.
func (pollRepoShim) GetShortLinkByCode(ctx context.Context, db *gorm.DB, code string) (*domain.PollShortLink, error) {
	return repo.GetShortLinkByCode(ctx, db, code)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), rate limiting,
// CORS and security headers, health and metrics endpoints, and then mounts
// the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Rate limiter (per user/IP)
//  8. Bearer authentication (optional per request)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, hub *realtime.Hub, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction. Vote markers travel in cookies
	// (masked by default); the intent token rides the body and stays out of
	// logs entirely.
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (64 KiB; poll payloads are small)
	r.Use(limitBody(64 << 10))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// Dependency injection: services ← repo/db
	tokens := &auth.TokenIssuer{
		Secret:    []byte(cfg.Auth.JWTSecret),
		AccessTTL: cfg.Auth.AccessTTL,
		MarkerTTL: cfg.Auth.MarkerTTL,
		IntentTTL: cfg.Auth.IntentTTL,
	}
	accountSvc := &services.AuthService{DB: db}
	pollSvc := services.NewPollService(db, pollRepoShim{})
	voteSvc := &services.VoteService{DB: db}
	resultsSvc := &services.ResultsService{DB: db}
	profileSvc := &services.ProfileService{DB: db}
	h := handlers.New(pollSvc, voteSvc, resultsSvc, accountSvc, profileSvc, tokens, hub)

	// 8) Resolve the principal when a bearer token is present
	r.Use(middleware.Authenticate(tokens, accountSvc.ResolvePrincipal))

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (opt-in)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	// Listing and results payloads compress well; the SSE stream is
	// excluded so events flush immediately.
	api.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPathsRegexs([]string{`.*/results/stream$`})))
	{
		// Auth
		api.POST("/auth/signup", h.Signup)
		api.POST("/auth/login", h.Login)
		api.GET("/auth/me", h.Me)

		// Polls
		api.POST("/polls", h.CreatePoll)
		api.GET("/polls", h.ListPolls)
		api.GET("/polls/mine", h.ListMyPolls)
		api.GET("/polls/:id", h.GetPoll)
		api.PUT("/polls/:id", h.UpdatePoll)
		api.POST("/polls/:id/toggle", h.TogglePollStatus)
		api.DELETE("/polls/:id", h.DeletePoll)
		api.GET("/polls/:id/short-link", h.GetShortLink)
		api.GET("/s/:code", h.ResolveShortLink)

		// Votes
		api.POST("/polls/:id/votes", h.SubmitVote)

		// Results
		api.GET("/polls/:id/results", h.GetResults)
		api.GET("/polls/:id/results/stream", h.StreamResults)

		// Profile
		api.GET("/profile", h.GetProfile)
		api.PUT("/profile", h.UpdateProfile)

		// Admin
		api.GET("/admin/polls", h.AdminListPolls)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

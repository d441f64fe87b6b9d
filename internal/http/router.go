// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns
// such as tracing, correlation IDs, logging, panic recovery, metrics, CORS,
// security headers, and edge rate limiting.
//
// Design goals:
//   - Observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/tbourn/go-jukebox-backend/docs" // swagger spec registration
	"github.com/tbourn/go-jukebox-backend/internal/auth"
	"github.com/tbourn/go-jukebox-backend/internal/config"
	"github.com/tbourn/go-jukebox-backend/internal/http/handlers"
	"github.com/tbourn/go-jukebox-backend/internal/http/middleware"
	"github.com/tbourn/go-jukebox-backend/internal/queue"
	"github.com/tbourn/go-jukebox-backend/internal/ratelimit"
	"github.com/tbourn/go-jukebox-backend/internal/services"
)

// Deps groups the long-lived components constructed at process start and
// shared by every request.
type Deps struct {
	Auth    *auth.Manager
	Spotify services.Gateway
	Ledger  *queue.Ledger
	Limiter *ratelimit.Limiter
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given
// Gin engine.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. ClientIdentity: resolve the anonymous client identity once
//  4. Logger: structured access logs keyed by identity digest
//  5. Recovery: capture panics after logger
//  6. Body size limiter
//  7. Metrics
//  8. Edge token-bucket rate limiter (per identity)
//  9. CORS, security headers, gzip
func RegisterRoutes(r *gin.Engine, d Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Resolve the anonymous client identity once per request
	r.Use(middleware.ClientIdentity())

	// 4) Structured logging
	r.Use(middleware.Logger())

	// 5) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 6) Global body size limit (64 KiB; submissions are small)
	r.Use(limitBody(64 << 10))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	middleware.RegisterDomainGauges(d.Ledger, d.Limiter)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Edge token-bucket limiter per client identity
	rl := middleware.NewRateLimiter(cfg.RateLimit.EdgeRPS, cfg.RateLimit.EdgeBurst, middleware.KeyByClientIdentity())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured —
	// clients are anonymous devices on the office network)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Client-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Client-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
			AllowCredentials: false,
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

	// Compress the JSON payloads polled by client UIs
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, "Route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (opt-in)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← gateway/ledger/limiter
	queueSvc := services.NewQueueService(d.Auth, d.Spotify, d.Ledger, d.Limiter)
	playerSvc := services.NewPlayerService(d.Auth, d.Spotify, d.Ledger)
	h := handlers.New(d.Auth, playerSvc, queueSvc, formatWindow(cfg.RateLimit.Window))

	// Public API
	api := r.Group("/api")
	{
		// Host auth
		api.GET("/auth/login", h.Login)
		api.GET("/auth/callback", h.Callback)
		api.GET("/auth/status", h.Status)

		// Provider-backed reads
		api.GET("/search", h.Search)
		api.GET("/now-playing", h.NowPlaying)
		api.GET("/state", h.State)

		// Queue
		api.GET("/queue", h.GetQueue)
		api.POST("/queue", h.AddToQueue)
	}
}

// limitBody caps the request body size for all endpoints using
// http.MaxBytesReader; reads past the cap error downstream.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// formatWindow renders a window duration for client-facing guidance, e.g.
// "10 minutes" or "90 seconds".
func formatWindow(d time.Duration) string {
	switch {
	case d >= time.Minute && d%time.Minute == 0:
		m := int(d / time.Minute)
		if m == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", m)
	case d >= time.Second && d%time.Second == 0:
		s := int(d / time.Second)
		if s == 1 {
			return "1 second"
		}
		return fmt.Sprintf("%d seconds", s)
	default:
		return d.String()
	}
}

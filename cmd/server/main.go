// Command server runs the jukebox backend: a single-host Spotify queue
// service that lets anonymous clients on the office network search tracks
// and submit additions to the host's playback queue.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-jukebox-backend/internal/auth"
	"github.com/tbourn/go-jukebox-backend/internal/config"
	httpapi "github.com/tbourn/go-jukebox-backend/internal/http"
	"github.com/tbourn/go-jukebox-backend/internal/observability"
	"github.com/tbourn/go-jukebox-backend/internal/queue"
	"github.com/tbourn/go-jukebox-backend/internal/ratelimit"
	"github.com/tbourn/go-jukebox-backend/internal/spotify"
	"github.com/tbourn/go-jukebox-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// .env is optional; real deployments use the process environment.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	// Long-lived components; all state is memory-resident by design and
	// lost on restart.
	tokens := auth.NewManager(auth.Config{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		RedirectURL:  cfg.Spotify.RedirectURI,
	})
	if !tokens.Configured() {
		log.Warn().Msg("spotify credentials not configured; host login will fail until they are set")
	}

	gateway := spotify.NewClient(tokens)
	gateway.HTTPClient = &http.Client{Timeout: cfg.Spotify.Timeout}

	ledger := queue.NewLedger()

	limiter := ratelimit.New(cfg.RateLimit.Max, cfg.RateLimit.Window)
	limiter.StartSweeper(ctx, cfg.RateLimit.SweepInterval)

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		Auth:    tokens,
		Spotify: gateway,
		Ledger:  ledger,
		Limiter: limiter,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("jukebox backend listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

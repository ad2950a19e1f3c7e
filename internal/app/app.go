package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/havliksimon/anki-card-creator/internal/config"
	"github.com/havliksimon/anki-card-creator/internal/transport/middleware"
	"github.com/havliksimon/anki-card-creator/internal/transport/rest"
)

// Run is the server entry point. It loads configuration, wires the services,
// serves HTTP until ctx is cancelled and then shuts down gracefully: the
// listener first, then outstanding background tasks, then the backends.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)
	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	c, err := NewContainer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("wire services: %w", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Error("close backends", slog.String("error", err.Error()))
		}
	}()

	limiter := middleware.NewRateLimiter(time.Minute)
	defer limiter.Stop()

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      NewHandler(cfg, c, limiter, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", slog.String("error", err.Error()))
	}
	if err := c.Runner.Wait(shutdownCtx); err != nil {
		logger.Warn("background tasks abandoned",
			slog.String("error", err.Error()),
			slog.Uint64("dropped", c.Runner.Dropped()),
		)
	}
	return nil
}

// NewHandler builds the HTTP handler tree for c, with the middleware chain
// applied outermost-first. Recovery sits inside the access log so a
// recovered panic is logged with its 500 status and request id.
func NewHandler(cfg *config.Config, c *Container, limiter *middleware.RateLimiter, logger *slog.Logger) http.Handler {
	health := rest.NewHealthHandler(BuildVersion(), c.Media)
	if c.Pool != nil {
		health.WithCheck("database", c.Pool)
	}
	if c.Objects != nil {
		health.WithCheck("objectstore", c.Objects)
	}
	if p, ok := c.Legacy.(interface{ Ping(context.Context) error }); ok && cfg.Media.LegacyBackend == config.LegacyBackendSQLite {
		health.WithCheck("legacy", p)
	}

	handlers := rest.Handlers{
		Health: health,
		Media:  rest.NewMediaHandler(c.Media, logger),
		Enrich: rest.NewEnrichHandler(c.Enrichment, logger),
		Decks:  rest.NewDeckHandler(nil, logger),
	}
	if c.Decks != nil {
		handlers.Decks = rest.NewDeckHandler(c.Decks, logger)
	}

	mux := rest.NewRouter(handlers, limiter.Limit(cfg.Server.EnrichRatePerMinute))

	return middleware.Chain(
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.CORS(cfg.CORS),
	)(mux)
}

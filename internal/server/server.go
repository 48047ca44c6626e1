// Package server exposes the panel and ranked stories over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matheuskafuri/newsdesk/internal/cluster"
	"github.com/matheuskafuri/newsdesk/internal/panel"
	"github.com/matheuskafuri/newsdesk/internal/ranking"
)

// maxStoriesLimit bounds the ?max= override.
const maxStoriesLimit = 50

// ClusterLoader returns the clusters to rank for a request.
type ClusterLoader func(ctx context.Context) ([]cluster.Cluster, error)

// Server wires the HTTP routes.
type Server struct {
	echo   *echo.Echo
	panel  *panel.Panel
	ranker *ranking.Ranker
	load   ClusterLoader
	logger *slog.Logger
}

// New returns a Server with routes registered.
func New(p *panel.Panel, ranker *ranking.Ranker, load ClusterLoader, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ctx := c.Request().Context()
			if v.Error == nil {
				logger.InfoContext(ctx, "request completed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds())
			} else {
				logger.ErrorContext(ctx, "request failed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds(),
					"error", v.Error.Error())
			}
			return nil
		},
	}))
	e.Use(middleware.Recover())

	s := &Server{echo: e, panel: p, ranker: ranker, load: load, logger: logger}

	api := e.Group("/api")
	api.GET("/panel", handlePanel(p, load))
	api.GET("/stories", handleStories(ranker, load, p.MaxStories()))
	e.GET("/healthz", handleHealth())
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return s
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "starting newsdesk server", "address", addr)
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.echo.Shutdown(shutdownCtx)
}

func handlePanel(p *panel.Panel, load ClusterLoader) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		clusters, err := load(ctx)
		if err != nil {
			return handleError(c, err, "LoadClusters")
		}

		res, err := p.RenderTop(ctx, clusters, parseMax(c, p.MaxStories()))
		if err != nil {
			return handleError(c, err, "RenderPanel")
		}
		return c.HTML(http.StatusOK, res.HTML)
	}
}

type storiesResponse struct {
	Stories     []ranking.Story `json:"stories"`
	Candidates  int             `json:"candidates"`
	GeneratedAt time.Time       `json:"generated_at"`
}

func handleStories(ranker *ranking.Ranker, load ClusterLoader, defaultMax int) echo.HandlerFunc {
	return func(c echo.Context) error {
		clusters, err := load(c.Request().Context())
		if err != nil {
			return handleError(c, err, "LoadClusters")
		}

		stories := ranker.SelectTopStories(clusters, parseMax(c, defaultMax))
		return c.JSON(http.StatusOK, storiesResponse{
			Stories:     stories,
			Candidates:  len(clusters),
			GeneratedAt: time.Now().UTC(),
		})
	}
}

func handleHealth() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}

// parseMax reads ?max=, falling back to def for missing or invalid values.
func parseMax(c echo.Context, def int) int {
	n, err := strconv.Atoi(c.QueryParam("max"))
	if err != nil || n <= 0 {
		return def
	}
	if n > maxStoriesLimit {
		return maxStoriesLimit
	}
	return n
}

func handleError(c echo.Context, err error, op string) error {
	slog.ErrorContext(c.Request().Context(), "handler error",
		"operation", op,
		"error", err.Error())
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

// Package server exposes the headline service over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/deusflow/headlines/internal/app"
	"github.com/deusflow/headlines/internal/categorize"
	"github.com/deusflow/headlines/internal/metrics"
	"github.com/deusflow/headlines/internal/pipeline"
	"github.com/deusflow/headlines/internal/ratelimit"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

type HeadlineService interface {
	Headlines(ctx context.Context, req app.Request) (app.Page, error)
	Categories() []categorize.Rule
	Metrics() *metrics.Metrics
	Stats() map[string]interface{}
}

type handler struct {
	svc HeadlineService
	log *slog.Logger
}

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(svc HeadlineService, log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID(log))

	h := &handler{svc: svc, log: log}
	api := r.Group("/api")
	{
		api.GET("/headlines", h.headlines)
		api.GET("/categories", h.categories)
	}
	r.GET("/health", h.health)
	r.GET("/metrics", h.metrics)
	return r
}

// RequestID tags each request with an id, reusing the caller's
// X-Request-ID when present, and logs the finished request.
func RequestID(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)

		c.Next()

		log.Info("http request",
			"request_id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"took", time.Since(start))
	}
}

func (h *handler) headlines(c *gin.Context) {
	req := app.Request{
		Strategy: pipeline.Strategy(c.DefaultQuery("strategy", string(pipeline.StrategyTop))),
		Category: c.Query("category"),
		Query:    c.Query("q"),
	}

	var err error
	if req.Page, err = intParam(c, "page"); err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}
	if req.PageSize, err = intParam(c, "pageSize"); err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}

	page, err := h.svc.Headlines(c.Request.Context(), req)
	if err != nil {
		h.fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *handler) categories(c *gin.Context) {
	rules := h.svc.Categories()
	out := make([]gin.H, 0, len(rules))
	for _, r := range rules {
		out = append(out, gin.H{"slug": r.Slug, "name": r.Name})
	}
	c.JSON(http.StatusOK, gin.H{"categories": out})
}

func (h *handler) health(c *gin.Context) {
	stats := h.svc.Metrics().GetStats()

	code, status := http.StatusOK, "ok"
	if healthy, _ := stats["is_healthy"].(bool); !healthy {
		code, status = http.StatusServiceUnavailable, "error"
	}
	c.JSON(code, gin.H{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
		"timestamp":  time.Now().Unix(),
	})
}

func (h *handler) metrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Stats())
}

func (h *handler) fail(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", "request_id", c.GetString(requestIDKey), "error", err)
	}
	c.JSON(status, gin.H{
		"error":      err.Error(),
		"request_id": c.GetString(requestIDKey),
	})
}

func intParam(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return n, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, app.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrUnknownCategory):
		return http.StatusNotFound
	case errors.Is(err, ratelimit.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	default:
		return http.StatusBadGateway
	}
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down.
func Serve(ctx context.Context, addr string, h http.Handler, log *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down http server")
	return srv.Shutdown(shutdownCtx)
}

// Package api exposes the recorder's render and control boundary over HTTP:
// session status, windowed history for plotting, a live readout, and the
// start/stop/export/clear/interval operations.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ramorimdias/cwtlogger/internal/domain"
	"github.com/ramorimdias/cwtlogger/internal/ports"
	"github.com/ramorimdias/cwtlogger/pkg/log"
)

// Controller is the application surface the API serves. Both the internal
// session controller and the embeddable recorder facade implement it.
type Controller interface {
	StartLogging(ctx context.Context, channels []int, limitAmps float64) error
	StartCheck(ctx context.Context, channels []int, limitAmps float64) error
	Stop() error
	ExportNow(ctx context.Context) (string, error)
	ClearCache() error
	SetInterval(d time.Duration) error
	Interval() time.Duration
	Session() domain.SessionInfo
	Window(cutoff time.Time) domain.Window
	Last() (domain.Sample, bool)
}

// Options holds configuration for the control API server.
type Options struct {
	// Controller serves every operation behind the API.
	Controller Controller

	// Addr is the listen address. Default: 127.0.0.1:8344
	Addr string

	// WindowSpan is the history span served when a window request names no
	// bound. Default: 48h
	WindowSpan time.Duration

	// CurrentLimit is applied when a start request omits its own.
	CurrentLimit float64

	Logger ports.Logger
}

// Start launches the control API server. It blocks until ctx is canceled,
// then shuts down gracefully.
func Start(ctx context.Context, opts Options) error {
	if opts.Controller == nil {
		return errors.New("api: controller is required")
	}
	if opts.Addr == "" {
		opts.Addr = "127.0.0.1:8344"
	}
	if opts.WindowSpan <= 0 {
		opts.WindowSpan = 48 * time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}

	router := newRouter(opts)
	srv := &http.Server{
		Addr:    opts.Addr,
		Handler: router,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	opts.Logger.Info("control api listening", ports.String("addr", opts.Addr))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

// newRouter wires the routes onto a release-mode engine.
func newRouter(opts Options) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", handleHealth)

	v1 := router.Group("/api/v1")
	v1.GET("/session", handleSession(opts.Controller))
	v1.GET("/window", handleWindow(opts.Controller, opts.WindowSpan))
	v1.GET("/live", handleLive(opts.Controller))
	v1.POST("/start", handleStart(opts.Controller, opts.CurrentLimit))
	v1.POST("/stop", handleStop(opts.Controller))
	v1.POST("/export", handleExport(opts.Controller))
	v1.POST("/clear", handleClear(opts.Controller))
	v1.PUT("/interval", handleInterval(opts.Controller))

	return router
}

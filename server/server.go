// Package server exposes a trained predictor over HTTP with gin.
package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/YuminosukeSato/edusynth/pkg/errors"
	"github.com/YuminosukeSato/edusynth/pkg/log"
	"github.com/YuminosukeSato/edusynth/predictor"
)

// Config holds the HTTP settings.
type Config struct {
	Port            string
	Mode            string
	ShutdownTimeout time.Duration
}

// Server holds the state for the HTTP server.
type Server struct {
	config    Config
	router    *gin.Engine
	predictor *predictor.Predictor
	logger    log.Logger
	http      *http.Server
}

// New builds the router around p. p is only read by the handlers.
func New(cfg Config, p *predictor.Predictor) *Server {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	s := &Server{
		config:    cfg,
		predictor: p,
		logger:    log.GetLoggerWithName("server"),
	}
	s.router = s.setupRouter()
	return s
}

func (s *Server) setupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), AccessLog(s.logger))

	router.GET("/healthz", s.health)

	v1 := router.Group("/api/v1")
	v1.GET("/scenarios", s.scenarios)
	v1.GET("/model", s.model)
	v1.POST("/predict", s.predict)

	return router
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the HTTP server and blocks until ctx is cancelled, SIGINT or
// SIGTERM arrives, or the listener fails. It then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.http = &http.Server{
		Addr:         ":" + s.config.Port,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "http.addr", s.http.Addr)
		serverErrors <- s.http.ListenAndServe()
	}()

	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(osSignals)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "error starting server")
		}
		return nil
	case sig := <-osSignals:
		s.logger.Info("received OS signal, initiating shutdown", "os.signal", sig.String())
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
	}

	return s.Shutdown(context.Background())
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", err)
		return errors.Wrap(err, "server shutdown")
	}
	s.logger.Info("HTTP server gracefully stopped")
	return nil
}

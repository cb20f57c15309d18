// Package server exposes the nexus operations over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/vulnverified/nexus/internal/engine"
	"github.com/vulnverified/nexus/internal/logging"
	"github.com/vulnverified/nexus/internal/render"
)

const shutdownTimeout = 5 * time.Second

// Renderer writes a report document.
type Renderer func(w io.Writer, report *engine.ScanReport) error

// Server serves the recon operations. Every endpoint reads the target from
// the domain query parameter.
type Server struct {
	stages  engine.Stages
	log     logrus.FieldLogger
	render  Renderer
	version string
	router  *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithRenderer replaces the PDF renderer.
func WithRenderer(r Renderer) Option {
	return func(s *Server) { s.render = r }
}

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// New builds the router.
func New(stages engine.Stages, log logrus.FieldLogger, opts ...Option) *Server {
	if log == nil {
		log = logging.Discard()
	}
	s := &Server{
		stages:  stages,
		log:     log,
		render:  render.PDF,
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog(), cors())

	r.GET("/health", s.handleHealth)
	r.GET("/scan", s.handleScan)
	r.GET("/scan_ports", s.handleScanPorts)
	r.GET("/detect_tech", s.handleDetectTech)
	r.GET("/assess_risk", s.handleAssessRisk)
	r.GET("/generate_report", s.handleGenerateReport)

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("nexus API listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("shutting down nexus API")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"domain":    c.Query("domain"),
			"status":    c.Writer.Status(),
			"latency":   time.Since(start).String(),
			"client_ip": c.ClientIP(),
		}).Info("request")
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

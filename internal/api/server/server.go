package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feral-file/ff-sovereignty/internal/api/middleware"
	"github.com/feral-file/ff-sovereignty/internal/api/realtime"
	"github.com/feral-file/ff-sovereignty/internal/api/rest"
	"github.com/feral-file/ff-sovereignty/internal/api/shared/executor"
	"github.com/feral-file/ff-sovereignty/internal/logger"
)

// Config holds the server configuration
type Config struct {
	Debug              bool
	Host               string
	Port               int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	CORSAllowedOrigins []string
	Auth               middleware.AuthConfig
}

// Server wraps the HTTP server
type Server struct {
	config     Config
	executor   executor.Executor
	stream     *realtime.Handler
	httpServer *http.Server
}

// New creates a new API server. A nil stream handler disables the realtime endpoint.
func New(cfg Config, exec executor.Executor, stream *realtime.Handler) *Server {
	return &Server{
		config:   cfg,
		executor: exec,
		stream:   stream,
	}
}

// Router builds the gin engine with every route and middleware installed
func (s *Server) Router() *gin.Engine {
	// Set Gin mode based on debug flag
	if s.config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Setup middleware
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.SetupCORS(s.config.CORSAllowedOrigins))

	// Setup REST routes
	rest.SetupRoutes(router, rest.NewHandler(s.executor), s.config.Auth)

	// Setup realtime routes
	if s.stream != nil {
		realtime.SetupRoutes(router, s.stream)
	}

	return router
}

// Start initializes and starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	logger.Info("Starting API server",
		zap.String("address", addr),
	)

	// Start server
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down API server")

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}

	return nil
}

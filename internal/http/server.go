// Package http assembles the broker's public HTTP server: routing,
// middleware, and lifecycle.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	brokerHTTP "github.com/allisson/dbgrant/internal/broker/http"
	"github.com/allisson/dbgrant/internal/config"
)

// Server is the broker's public HTTP server.
type Server struct {
	server *http.Server
	router *gin.Engine
	logger *slog.Logger
}

// NewServer creates the server and mounts all routes.
func NewServer(
	cfg *config.Config,
	brokerHandler *brokerHTTP.BrokerHandler,
	logger *slog.Logger,
) *Server {
	gin.SetMode(cfg.GetGinMode())

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New())
	router.Use(CustomLoggerMiddleware(logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	router.GET("/health", HealthHandler)
	router.GET("/ready", ReadinessHandler)

	// The link request endpoint is the only one addressable without any
	// token, so it alone is rate limited per IP.
	getToken := router.Group("/")
	if cfg.RateLimitLinkEnabled {
		getToken.Use(LinkRateLimitMiddleware(cfg.RateLimitLinkRequestsPerSec, cfg.RateLimitLinkBurst, logger))
	}
	getToken.GET("/gettoken/:email", brokerHandler.GetTokenHandler)

	router.GET("/verifytoken/:token", brokerHandler.VerifyTokenHandler)
	router.POST("/grant/:token", brokerHandler.GrantHandler)
	router.POST("/setrule/:token", brokerHandler.SetRuleHandler)

	return &Server{
		router: router,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/middleware"
)

// Options carries the optional parts of the server.
type Options struct {
	// WriteLimiter throttles recipe writes. Nil disables it.
	WriteLimiter *middleware.RateLimiter
	// MediaDir is served under /media/ when set.
	MediaDir string
}

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	http   *http.Server
}

// New builds the router with the middleware chain and every route.
func New(cfg *config.Config, db *gorm.DB, svc *api.Services, opts Options) *Server {
	if cfg.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.CORS(cfg.CORSOrigins),
	)

	router.GET("/health", api.HealthCheck(db))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if opts.MediaDir != "" {
		router.Static("/media", opts.MediaDir)
	}

	paginator := api.Paginator{DefaultSize: cfg.PageSize, MaxSize: cfg.MaxPageSize}
	api.RegisterRoutes(router, svc, paginator, opts.WriteLimiter)

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	logging.Info().Str("addr", s.http.Addr).Msg("starting HTTP server")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.http.Shutdown(ctx)
}

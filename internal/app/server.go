// File: internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"fishtopia_backend/internal/auth"
	"fishtopia_backend/internal/comment"
	"fishtopia_backend/internal/config"
	"fishtopia_backend/internal/events"
	"fishtopia_backend/internal/friend"
	"fishtopia_backend/internal/jobs"
	"fishtopia_backend/internal/listing"
	"fishtopia_backend/internal/middleware"
	"fishtopia_backend/internal/notification"
	"fishtopia_backend/internal/readmodel"
	"fishtopia_backend/internal/search"
	"fishtopia_backend/internal/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers groups the HTTP handlers mounted under /api/v1.
type Handlers struct {
	Auth         *auth.Handler
	User         *user.Handler
	Listing      *listing.Handler
	Comment      *comment.Handler
	Notification *notification.Handler
	Friend       *friend.Handler
	ReadModel    *readmodel.Handler
	Search       *search.Handler
}

// Consumers are the change feed subscribers started with the server.
type Consumers struct {
	Mirror *search.Mirror
	Owners *readmodel.OwnerResolver
}

// Register subscribes the consumers to feed.
func (c Consumers) Register(feed events.Subscriber) error {
	if c.Mirror != nil {
		if err := c.Mirror.Register(feed); err != nil {
			return err
		}
	}
	if c.Owners != nil {
		if err := c.Owners.RegisterInvalidation(feed); err != nil {
			return fmt.Errorf("subscribing owner cache invalidation: %w", err)
		}
	}
	return nil
}

// Server struct holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger

	// Jobs
	reindexJob *jobs.SearchReindexJob
}

// NewServer creates a new instance of our application server. reindexJob may be nil.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	authenticator middleware.Authenticator,
	handlers Handlers,
	feed events.Subscriber,
	consumers Consumers,
	reindexJob *jobs.SearchReindexJob,
) (*Server, error) {
	if err := consumers.Register(feed); err != nil {
		return nil, err
	}

	gin.SetMode(cfg.GinMode)
	router := gin.New()

	// --- Global Middleware ---
	router.Use(middleware.ZapLogger(logger, cfg))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{"Content-Length", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	authMW := middleware.AuthMiddleware(authenticator, logger.Named("AuthMiddleware"))
	optionalAuthMW := middleware.OptionalAuthMiddleware(authenticator, logger.Named("OptionalAuthMiddleware"))

	// --- Setup Routes ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "FishTopia API is healthy!"})
	})
	if cfg.StorageBackend == "local" {
		router.Static("/uploads", cfg.ImageStoragePath)
	}

	v1 := router.Group("/api/v1")
	handlers.Auth.RegisterRoutes(v1, authMW)
	handlers.User.RegisterRoutes(v1, authMW)
	handlers.Listing.RegisterRoutes(v1, authMW)
	handlers.Comment.RegisterRoutes(v1, authMW)
	handlers.Notification.RegisterRoutes(v1, authMW)
	handlers.Friend.RegisterRoutes(v1, authMW)
	handlers.ReadModel.RegisterRoutes(v1, optionalAuthMW)
	handlers.Search.RegisterRoutes(v1)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.ServerTimeout,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		cfg:        cfg,
		logger:     logger,
		reindexJob: reindexJob,
	}, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	if s.reindexJob != nil {
		if err := s.reindexJob.SetupAndStart(); err != nil {
			s.logger.Error("Failed to setup and start search reindex job", zap.Error(err))
		}
	} else {
		s.logger.Info("Search reindex job is not configured, skipping start.")
	}

	s.logger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP Server stopped")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Attempting graceful server shutdown...")
	if s.reindexJob != nil {
		s.reindexJob.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/DanielBelovol/ThumbnailTester/internal/api/handlers"
	"github.com/DanielBelovol/ThumbnailTester/internal/api/middleware"
	"github.com/DanielBelovol/ThumbnailTester/internal/config"
	"github.com/DanielBelovol/ThumbnailTester/internal/logger"

	"github.com/gin-gonic/gin"
)

// Deps carries the constructed handlers into the router. Wiring happens in
// cmd/api.
type Deps struct {
	Tests *handlers.TestHandler
	Auth  *handlers.AuthHandler
}

type Server struct {
	config *config.Config
	logger *logger.Logger
	router *gin.Engine
	server *http.Server
}

func New(cfg *config.Config, logger *logger.Logger, deps Deps) *Server {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(cfg.CORSOrigins))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		tests := v1.Group("/tests")
		{
			tests.GET("", deps.Tests.List)
			tests.GET("/:id", deps.Tests.Get)
			tests.POST("", deps.Tests.Create)
			tests.POST("/:id/cancel", deps.Tests.Cancel)
		}

		auth := v1.Group("/auth/google")
		{
			auth.GET("/connect", deps.Auth.Connect)
			auth.GET("/callback", deps.Auth.Callback)
		}
	}

	return &Server{
		config: cfg,
		logger: logger,
		router: router,
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.APIHost, s.config.APIPort)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server on " + addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	return s.server.Shutdown(ctx)
}

// Router exposes the Gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

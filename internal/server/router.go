package server

import (
	"github.com/devanup/DocBox/internal/auth"
	"github.com/devanup/DocBox/internal/config"
	"github.com/devanup/DocBox/internal/file"
	"github.com/devanup/DocBox/internal/logger"
	"github.com/devanup/DocBox/internal/metrics"
	"github.com/devanup/DocBox/internal/presigned"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
)

// Dependencies groups the services required by the HTTP router.
type Dependencies struct {
	Config           config.Config
	DB               *pgxpool.Pool
	ObjectStore      *minio.Client
	AuthService      *auth.Service
	FileService      *file.Service
	PresignedHandler *presigned.Handler
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.Middleware())
	router.Use(metrics.Middleware())

	registerHealthRoutes(router, deps)
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)

	api := router.Group("/v1")
	if deps.AuthService != nil {
		auth.RegisterRoutes(api, deps.AuthService, deps.Config.Auth)

		protected := api.Group("/")
		protected.Use(auth.SessionMiddleware(deps.AuthService, deps.Config.Auth.CookieName))

		auth.RegisterSessionRoutes(protected)
		if deps.FileService != nil {
			file.RegisterRoutes(protected, deps.FileService)
		}
		if deps.PresignedHandler != nil {
			deps.PresignedHandler.RegisterRoutes(protected)
		}
	}

	return router
}

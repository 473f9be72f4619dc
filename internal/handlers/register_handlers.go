package handlers

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	portssvc "github.com/tokosume/toko_backoffice_app/internal/core/ports/services"
	"github.com/tokosume/toko_backoffice_app/internal/middleware"
	"github.com/tokosume/toko_backoffice_app/internal/platform/config"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	setupAPIV1Routes(r, cfg, services)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to the entity
// route registrations.
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	v1 := r.Group("/api/v1")
	if cfg.RateLimit != "" {
		ipLimiter, err := middleware.NewIPRateLimiter(cfg.RateLimit)
		if err != nil {
			slog.Warn("Invalid RATE_LIMIT, running without rate limiting", slog.String("rate", cfg.RateLimit), slog.String("error", err.Error()))
		} else {
			v1.Use(middleware.RateLimit(ipLimiter))
		}
	}
	v1.Use(middleware.AuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer))

	registerJournalRoutes(v1, services.Journal)
	registerStockRoutes(v1, services.Stock)
	registerReportingRoutes(v1, services.Reporting)
}

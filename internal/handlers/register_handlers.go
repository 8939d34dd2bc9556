package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	portssvc "github.com/jobcrew/auth_backend/internal/core/ports/services"
	"github.com/jobcrew/auth_backend/internal/middleware"
	"github.com/jobcrew/auth_backend/internal/platform/config"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces.
// tracker may be nil when analytics is disabled.
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	tracker portssvc.EventTracker,
) error {
	registerValidators()

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	loginLimiter, err := middleware.NewMemoryLimiter(cfg.LoginRateLimit)
	if err != nil {
		slog.Warn("Invalid LOGIN_RATE_LIMIT, using 5-M", slog.String("value", cfg.LoginRateLimit), slog.String("error", err.Error()))
		if loginLimiter, err = middleware.NewMemoryLimiter("5-M"); err != nil {
			return err
		}
	}

	registerAuthRoutes(r, NewAuthHandler(services.Session, services.User, cfg), middleware.RateLimit(loginLimiter))
	registerOAuthRoutes(r, NewOAuthHandler(services.OAuthClient, services.Providers, services.Session, cfg))

	// Apply the access-token middleware to the entire v1 group
	v1 := r.Group("/api/v1", middleware.AccessTokenAuth(services.TokenIssuer))
	if tracker != nil {
		v1.Use(middleware.PosthogMiddleware(tracker))
	}
	registerMeRoutes(v1, NewMeHandler(services.Session))
	return nil
}

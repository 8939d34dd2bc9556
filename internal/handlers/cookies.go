package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jobcrew/auth_backend/internal/platform/config"
)

const (
	refreshCookieMaxAge = 14 * 24 * 60 * 60
	oauthStateCookie    = "oauth_state"
	oauthStateMaxAge    = 10 * 60
)

// setRefreshCookie stores the refresh token in a cookie readable by client
// scripts. Production cookies are Secure and SameSite=Strict.
func setRefreshCookie(c *gin.Context, cfg *config.Config, token string) {
	sameSite := http.SameSiteLaxMode
	if cfg.IsProduction {
		sameSite = http.SameSiteStrictMode
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     cfg.RefreshTokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   refreshCookieMaxAge,
		Secure:   cfg.IsProduction,
		HttpOnly: false,
		SameSite: sameSite,
	})
}

func clearRefreshCookie(c *gin.Context, cfg *config.Config) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     cfg.RefreshTokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		SameSite: http.SameSiteLaxMode,
	})
}

func setOAuthStateCookie(c *gin.Context, cfg *config.Config, state string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   oauthStateMaxAge,
		Secure:   cfg.IsProduction,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearOAuthStateCookie(c *gin.Context, cfg *config.Config) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   cfg.IsProduction,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

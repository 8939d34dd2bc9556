package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jobcrew/auth_backend/internal/apperrors"
	"github.com/jobcrew/auth_backend/internal/core/domain"
	portssvc "github.com/jobcrew/auth_backend/internal/core/ports/services"
	"github.com/jobcrew/auth_backend/internal/dto"
	"github.com/jobcrew/auth_backend/internal/middleware"
	"github.com/jobcrew/auth_backend/internal/platform/config"
	"github.com/jobcrew/auth_backend/internal/utils"
)

// expiredAccessTokenHeader carries the expired access token on /auth/refresh.
// Its presence selects the dual-token refresh.
const expiredAccessTokenHeader = "X-Expired-Access-Token"

// AuthHandler handles login, signup, refresh and logout.
type AuthHandler struct {
	session portssvc.SessionSvcFacade
	users   portssvc.UserSvcFacade
	cfg     *config.Config
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(session portssvc.SessionSvcFacade, users portssvc.UserSvcFacade, cfg *config.Config) *AuthHandler {
	return &AuthHandler{session: session, users: users, cfg: cfg}
}

// registerAuthRoutes sets up the /auth routes. limit guards the credential endpoints.
func registerAuthRoutes(r *gin.Engine, h *AuthHandler, limit gin.HandlerFunc) {
	auth := r.Group("/auth")
	{
		auth.POST("/login", limit, h.Login)
		auth.POST("/signup", limit, h.Signup)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/logout", h.Logout)
	}
}

// Login authenticates a LOCAL identity. The access token is also returned in
// the Authorization header and the refresh token in a cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}

	bundle, err := h.session.Login(c.Request.Context(), req.Email, req.Password, utils.LoginContextFrom(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.Header("Authorization", "Bearer "+bundle.AccessToken)
	setRefreshCookie(c, h.cfg, bundle.RefreshToken)
	c.JSON(http.StatusOK, dto.ToTokenBundleResponse(bundle))
}

// Signup registers a LOCAL account.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindingError(err))
		return
	}
	req.Email = strings.TrimSpace(req.Email)

	principal, err := h.users.Signup(c.Request.Context(), req)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToSignupResponse(principal))
}

// Refresh renews the access token from the refresh cookie. With the
// expired-access-token header both tokens are checked and the refresh token
// is kept; without it the refresh token is rotated and the cookie re-set.
func (h *AuthHandler) Refresh(c *gin.Context) {
	ctx := c.Request.Context()
	refreshToken, err := c.Cookie(h.cfg.RefreshTokenCookieName)
	if err != nil || refreshToken == "" {
		respondWithError(c, apperrors.ErrRefreshTokenNotFound)
		return
	}

	var bundle *domain.TokenBundle
	if values := c.Request.Header.Values(expiredAccessTokenHeader); len(values) > 0 {
		expired := values[0]
		if token, ok := middleware.BearerToken(expired); ok {
			expired = token
		}
		bundle, err = h.session.Refresh(ctx, refreshToken, strings.TrimSpace(expired))
	} else {
		bundle, err = h.session.RefreshLegacy(ctx, refreshToken)
		if err == nil {
			setRefreshCookie(c, h.cfg, bundle.RefreshToken)
		}
	}
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.Header("Authorization", "Bearer "+bundle.AccessToken)
	c.JSON(http.StatusOK, dto.ToTokenBundleResponse(bundle))
}

// Logout invalidates the stored refresh token when a cookie is present and
// always clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	clearRefreshCookie(c, h.cfg)

	if refreshToken, err := c.Cookie(h.cfg.RefreshTokenCookieName); err == nil && refreshToken != "" {
		if err := h.session.Logout(c.Request.Context(), refreshToken); err != nil {
			respondWithError(c, err)
			return
		}
	}
	c.Status(http.StatusOK)
}

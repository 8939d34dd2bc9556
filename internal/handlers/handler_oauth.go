package handlers

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jobcrew/auth_backend/internal/apperrors"
	"github.com/jobcrew/auth_backend/internal/core/domain"
	portssvc "github.com/jobcrew/auth_backend/internal/core/ports/services"
	"github.com/jobcrew/auth_backend/internal/middleware"
	"github.com/jobcrew/auth_backend/internal/platform/config"
	"github.com/jobcrew/auth_backend/internal/utils"
)

// OAuthHandler runs the browser side of the OAuth2 authorization code flow.
type OAuthHandler struct {
	oauth     portssvc.OAuthClientSvc
	providers portssvc.ProviderRegistrySvc
	session   portssvc.SessionSvcFacade
	cfg       *config.Config
}

// NewOAuthHandler creates a new OAuthHandler.
func NewOAuthHandler(oauth portssvc.OAuthClientSvc, providers portssvc.ProviderRegistrySvc, session portssvc.SessionSvcFacade, cfg *config.Config) *OAuthHandler {
	return &OAuthHandler{oauth: oauth, providers: providers, session: session, cfg: cfg}
}

func registerOAuthRoutes(r *gin.Engine, h *OAuthHandler) {
	r.GET("/oauth2/authorization/:provider", h.Authorize)
	r.GET("/login/oauth2/code/:provider", h.Callback)
}

// resolveProvider maps the :provider path parameter to a registered and configured provider.
func (h *OAuthHandler) resolveProvider(tag string) (domain.Provider, error) {
	processor, err := h.providers.Lookup(tag)
	if err != nil {
		return "", err
	}
	provider := processor.Provider()
	if !h.oauth.Enabled(provider) {
		return "", apperrors.ErrUnsupportedProvider.WithDetail(fmt.Sprintf("provider %q is not configured", provider.Lower()))
	}
	return provider, nil
}

// Authorize stores a fresh state in a cookie and redirects to the provider.
func (h *OAuthHandler) Authorize(c *gin.Context) {
	provider, err := h.resolveProvider(c.Param("provider"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	state, err := utils.GenerateSecureRandomString(16)
	if err != nil {
		respondWithError(c, apperrors.ErrInternal.Wrap(err))
		return
	}
	authURL, err := h.oauth.AuthCodeURL(provider, state)
	if err != nil {
		respondWithError(c, err)
		return
	}

	setOAuthStateCookie(c, h.cfg, state)
	c.Redirect(http.StatusFound, authURL)
}

// Callback completes the flow: it checks the state, exchanges the code,
// logs the account in and redirects to the front end with the refresh
// cookie set. The access token is obtained afterwards from /auth/refresh.
func (h *OAuthHandler) Callback(c *gin.Context) {
	ctx := c.Request.Context()
	logger := middleware.GetLoggerFromCtx(ctx)
	tag := c.Param("provider")

	provider, err := h.resolveProvider(tag)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expected, cookieErr := c.Cookie(oauthStateCookie)
	state := c.Query("state")
	clearOAuthStateCookie(c, h.cfg)
	if cookieErr != nil || expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(state)) != 1 {
		logger.Warn("OAuth2 state mismatch", slog.String("provider", provider.Lower()))
		respondWithError(c, apperrors.ErrOAuthStateMismatch)
		return
	}

	if providerErr := c.Query("error"); providerErr != "" {
		respondWithError(c, apperrors.ErrOAuthResponseMalformed.WithDetail("provider returned "+providerErr))
		return
	}
	code := c.Query("code")
	if code == "" {
		respondWithError(c, apperrors.NewBadRequestError("authorization code is required"))
		return
	}

	attrs, err := h.oauth.FetchAttributes(ctx, provider, code)
	if err != nil {
		respondWithError(c, err)
		return
	}

	bundle, err := h.session.SocialLogin(ctx, tag, attrs, utils.LoginContextFrom(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	setRefreshCookie(c, h.cfg, bundle.RefreshToken)
	redirectURL := h.cfg.OAuthRedirectURL()
	logger.Info("OAuth2 login redirect", slog.String("provider", provider.Lower()), slog.String("redirect", redirectURL))
	c.Redirect(http.StatusFound, redirectURL)
}

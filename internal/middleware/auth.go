package middleware

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jobcrew/auth_backend/internal/apperrors"
	"github.com/jobcrew/auth_backend/internal/core/domain"
	portssvc "github.com/jobcrew/auth_backend/internal/core/ports/services"
)

// BearerToken returns the token of an "Authorization: Bearer <token>" header.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// AccessTokenAuth creates a Gin middleware handler that validates access tokens
// and stores the identity id they carry.
func AccessTokenAuth(tokens portssvc.TokenIssuerSvc) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := GetLoggerFromCtx(c.Request.Context())

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Warn("Authorization header missing")
			abortWithAppError(c, apperrors.ErrUnauthorized.WithDetail("authorization header required"))
			return
		}
		token, ok := BearerToken(authHeader)
		if !ok {
			logger.Warn("Authorization header format invalid")
			abortWithAppError(c, apperrors.ErrUnauthorized.WithDetail("authorization header format must be Bearer {token}"))
			return
		}

		identifier, err := tokens.ExtractIdentifier(token, domain.IdentifierAuthID)
		if err != nil {
			logger.Warn("Invalid access token", slog.String("error", err.Error()))
			if errors.Is(err, apperrors.ErrTokenExpired) {
				abortWithAppError(c, apperrors.ErrTokenExpired)
				return
			}
			abortWithAppError(c, apperrors.ErrTokenInvalid)
			return
		}

		identityID, err := strconv.ParseInt(identifier, 10, 64)
		if err != nil {
			logger.Error("Identity id in access token is not numeric", slog.String("identifier", identifier))
			abortWithAppError(c, apperrors.ErrTokenInvalid)
			return
		}

		setIdentityID(c, identityID)
		enriched := logger.With(slog.Int64("identity_id", identityID))
		c.Request = c.Request.WithContext(WithLogger(c.Request.Context(), enriched))

		c.Next()
	}
}

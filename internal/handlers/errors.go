package handlers

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jobcrew/auth_backend/internal/apperrors"
	"github.com/jobcrew/auth_backend/internal/dto"
	"github.com/jobcrew/auth_backend/internal/middleware"
)

// respondWithError renders err in the standard error body. Errors outside
// the catalogue are logged and reported as C500.
func respondWithError(c *gin.Context, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		middleware.GetLoggerFromCtx(c.Request.Context()).ErrorContext(c.Request.Context(),
			"Unhandled error", slog.String("error", err.Error()))
		appErr = apperrors.ErrInternal
	} else if appErr.Status >= 500 {
		middleware.GetLoggerFromCtx(c.Request.Context()).ErrorContext(c.Request.Context(),
			"Request failed", slog.String("error", err.Error()))
	}
	c.AbortWithStatusJSON(appErr.Status, dto.NewErrorResponse(appErr, time.Now()))
}

// bindingError converts a ShouldBind failure into an invalid-input error naming the offending field.
func bindingError(err error) *apperrors.AppError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperrors.NewBadRequestError(fe.Field() + " failed the " + fe.Tag() + " rule")
	}
	return apperrors.NewBadRequestError("malformed request body")
}

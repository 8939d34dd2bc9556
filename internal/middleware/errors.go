package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jobcrew/auth_backend/internal/apperrors"
	"github.com/jobcrew/auth_backend/internal/dto"
)

// abortWithAppError stops the chain and renders appErr in the standard error body.
func abortWithAppError(c *gin.Context, appErr *apperrors.AppError) {
	c.AbortWithStatusJSON(appErr.Status, dto.NewErrorResponse(appErr, time.Now()))
}

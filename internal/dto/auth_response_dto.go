package dto

import (
	"time"

	"github.com/jobcrew/auth_backend/internal/apperrors"
	"github.com/jobcrew/auth_backend/internal/core/domain"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenBundleResponse is returned by login and refresh.
type TokenBundleResponse struct {
	AccessToken      string `json:"accessToken"`
	RefreshToken     string `json:"refreshToken"`
	ProfileCompleted bool   `json:"profileCompleted"`
}

// ToTokenBundleResponse converts a domain.TokenBundle to its response DTO.
func ToTokenBundleResponse(b *domain.TokenBundle) TokenBundleResponse {
	return TokenBundleResponse{
		AccessToken:      b.AccessToken,
		RefreshToken:     b.RefreshToken,
		ProfileCompleted: b.ProfileCompleted,
	}
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Status    int       `json:"status"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewErrorResponse renders appErr at now.
func NewErrorResponse(appErr *apperrors.AppError, now time.Time) ErrorResponse {
	return ErrorResponse{
		Code:      appErr.Code,
		Message:   appErr.Message,
		Status:    appErr.Status,
		Detail:    appErr.Detail,
		Timestamp: now,
	}
}

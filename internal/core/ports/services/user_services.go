package services

import (
	"context"

	"github.com/jobcrew/auth_backend/internal/core/domain"
	"github.com/jobcrew/auth_backend/internal/dto"
)

// UserSignupSvc registers local accounts.
type UserSignupSvc interface {
	// Signup creates a principal, its profile and a LOCAL identity.
	// It fails with apperrors.ErrDuplicateEmail when the email is taken.
	Signup(ctx context.Context, req dto.SignupRequest) (*domain.Principal, error)
}

// DevSeederSvc provisions fixed accounts for local development.
type DevSeederSvc interface {
	SeedDevAccounts(ctx context.Context) error
}

// UserSvcFacade combines all user-related service interfaces.
type UserSvcFacade interface {
	UserSignupSvc
	DevSeederSvc
}

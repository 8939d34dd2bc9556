package repositories

import (
	"context"

	"github.com/jobcrew/auth_backend/internal/core/domain"
)

// PrincipalReader defines read operations for principals.
type PrincipalReader interface {
	// FindPrincipalByID retrieves a principal together with its profile.
	FindPrincipalByID(ctx context.Context, principalID int64) (*domain.Principal, error)

	// ExistsPrincipalByEmail reports whether a principal already uses email.
	ExistsPrincipalByEmail(ctx context.Context, email string) (bool, error)
}

// PrincipalWriter defines write operations for principals.
type PrincipalWriter interface {
	// CreatePrincipal persists a principal and its profile and returns the principal with both ids set.
	CreatePrincipal(ctx context.Context, principal domain.Principal, profile domain.Profile) (*domain.Principal, error)
}

// PrincipalRepositoryFacade combines all principal repository interfaces.
type PrincipalRepositoryFacade interface {
	PrincipalReader
	PrincipalWriter
}

package repositories

import (
	"context"
	"time"

	"github.com/jobcrew/auth_backend/internal/core/domain"
)

// IdentityReader defines the lookups of the credential store.
// Every lookup returns apperrors.ErrNotFound when no identity matches.
// Inside a transaction the returned row stays locked until commit.
type IdentityReader interface {
	// FindByCredentials finds the identity registered with email for provider.
	FindByCredentials(ctx context.Context, email string, provider domain.Provider) (*domain.Identity, error)

	// FindByProviderSubject finds the identity of an external provider account.
	FindByProviderSubject(ctx context.Context, provider domain.Provider, subjectID string) (*domain.Identity, error)

	// FindByRefreshToken finds the identity currently holding token.
	FindByRefreshToken(ctx context.Context, token string) (*domain.Identity, error)

	// FindByPrincipalID finds the identity linked to a principal.
	FindByPrincipalID(ctx context.Context, principalID int64) (*domain.Identity, error)

	// FindByID finds an identity by its id.
	FindByID(ctx context.Context, identityID int64) (*domain.Identity, error)
}

// IdentityWriter defines the mutations of the credential store.
type IdentityWriter interface {
	// CreateIdentity persists a new identity and returns it with its id.
	// A clash on (provider, subject) or (email, provider) returns apperrors.ErrDuplicate.
	CreateIdentity(ctx context.Context, identity domain.Identity) (*domain.Identity, error)

	// SetRefreshToken overwrites the stored refresh token and expiry and records loginAt.
	SetRefreshToken(ctx context.Context, identityID int64, token string, expiry time.Time, loginAt time.Time) error

	// InvalidateRefreshToken clears the stored refresh token and expiry.
	InvalidateRefreshToken(ctx context.Context, identityID int64) error
}

// IdentityRepositoryFacade combines all identity repository interfaces.
type IdentityRepositoryFacade interface {
	IdentityReader
	IdentityWriter
}

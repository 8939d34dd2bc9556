package services

import (
	"context"
	"time"

	"github.com/jobcrew/auth_backend/internal/core/domain"
	portsrepo "github.com/jobcrew/auth_backend/internal/core/ports/repositories"
)

// TokenIssuerSvc signs and verifies access and refresh tokens.
// Implementations hold no mutable state and are safe for concurrent use.
type TokenIssuerSvc interface {
	// IssueAccess signs a short-lived token whose identifier is the identity id.
	IssueAccess(identityID int64) (string, time.Time, error)
	// IssueRefresh signs a long-lived token whose identifier is the principal id.
	IssueRefresh(principalID int64) (string, time.Time, error)
	// Verify checks signature and expiry. It fails with apperrors.ErrTokenInvalid
	// or apperrors.ErrTokenExpired.
	Verify(token string) (*domain.Claims, error)
	// ExtractIdentifier verifies token and returns its identifier when the
	// identifier type matches expected.
	ExtractIdentifier(token string, expected domain.IdentifierType) (string, error)
	// ExtractIdentifierAllowExpired is ExtractIdentifier without the expiry check.
	ExtractIdentifierAllowExpired(token string, expected domain.IdentifierType) (string, error)
}

// SessionIssuerSvc issues a token pair for an identity and persists the refresh state.
type SessionIssuerSvc interface {
	IssueAndPersist(ctx context.Context, uow portsrepo.UnitOfWork, identity *domain.Identity) (*domain.TokenBundle, error)
}

// SessionSvcFacade exposes the login, refresh and logout use cases.
type SessionSvcFacade interface {
	Login(ctx context.Context, email, password string, lc domain.LoginContext) (*domain.TokenBundle, error)
	SocialLogin(ctx context.Context, providerTag string, attrs map[string]any, lc domain.LoginContext) (*domain.TokenBundle, error)
	// Refresh renews the access token using both the refresh token and the expired access token.
	Refresh(ctx context.Context, refreshToken, expiredAccessToken string) (*domain.TokenBundle, error)
	// RefreshLegacy renews the session from the refresh token alone.
	RefreshLegacy(ctx context.Context, refreshToken string) (*domain.TokenBundle, error)
	// Logout invalidates the stored refresh token. Unknown tokens are ignored.
	Logout(ctx context.Context, refreshToken string) error
	CurrentAccount(ctx context.Context, identityID int64) (*domain.Account, error)
}

// SocialLoginProcessor normalizes one provider's claims and logs the account in.
type SocialLoginProcessor interface {
	Provider() domain.Provider
	Normalize(attrs map[string]any) (domain.SocialProfile, error)
	Process(ctx context.Context, attrs map[string]any, lc domain.LoginContext) (*domain.TokenBundle, error)
}

// ProviderRegistrySvc resolves provider tags to their processors.
type ProviderRegistrySvc interface {
	// Lookup fails with apperrors.ErrUnsupportedProvider for unknown tags.
	Lookup(tag string) (SocialLoginProcessor, error)
	Providers() []domain.Provider
}

// OAuthClientSvc runs the OAuth2 authorization code flow against providers.
type OAuthClientSvc interface {
	AuthCodeURL(provider domain.Provider, state string) (string, error)
	// FetchAttributes exchanges code and returns the provider's raw user attributes.
	FetchAttributes(ctx context.Context, provider domain.Provider, code string) (map[string]any, error)
	Enabled(provider domain.Provider) bool
}

// EventTracker records product analytics events keyed by a distinct id.
type EventTracker interface {
	Enqueue(distinctID string, event string, properties map[string]any)
}

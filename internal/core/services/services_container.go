package services

import (
	"fmt"

	portsrepo "github.com/jobcrew/auth_backend/internal/core/ports/repositories"
	portssvc "github.com/jobcrew/auth_backend/internal/core/ports/services"
	"github.com/jobcrew/auth_backend/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, tracker portssvc.EventTracker) (*portssvc.ServiceContainer, error) {
	container := &portssvc.ServiceContainer{}

	container.TokenIssuer = NewTokenService(cfg)

	// The issue-and-persist step is shared by local and social logins.
	issuer := NewSessionIssuer(container.TokenIssuer, nil)

	providers, err := NewProviderRegistry(NewSocialLoginProcessors(repos, issuer)...)
	if err != nil {
		return nil, fmt.Errorf("build provider registry: %w", err)
	}
	container.Providers = providers

	var opts []SessionServiceOption
	if tracker != nil {
		opts = append(opts, WithEventTracker(tracker))
	}
	container.Session = NewSessionService(repos, container.TokenIssuer, issuer, providers, opts...)
	container.User = NewUserService(repos)
	container.OAuthClient = NewOAuthClientService(cfg)

	return container, nil
}

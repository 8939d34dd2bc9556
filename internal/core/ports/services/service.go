package services

// ServiceContainer holds instances of all the application services.
// It is built once in main and handed to the handlers.
type ServiceContainer struct {
	TokenIssuer TokenIssuerSvc
	Session     SessionSvcFacade
	User        UserSvcFacade
	OAuthClient OAuthClientSvc
	Providers   ProviderRegistrySvc
}

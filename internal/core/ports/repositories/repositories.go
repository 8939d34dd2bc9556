package repositories

// RepositoryProvider holds all repository interfaces needed by services.
type RepositoryProvider struct {
	IdentityRepo  IdentityRepositoryFacade
	PrincipalRepo PrincipalRepositoryFacade
	TxManager     TxManager
}

package repositories

import "context"

// UnitOfWork exposes repositories bound to one open transaction.
type UnitOfWork interface {
	Identities() IdentityRepositoryFacade
	Principals() PrincipalRepositoryFacade
}

// TxManager runs read-modify-write sequences atomically.
// fn's UnitOfWork is only valid until fn returns. A nil result commits,
// any error rolls back and is returned unchanged.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error
}

package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"
	portsrepo "github.com/jobcrew/auth_backend/internal/core/ports/repositories"
)

// NewRepositoryProvider wires the PostgreSQL credential store.
func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		IdentityRepo:  newPgxIdentityRepository(dbPool),
		PrincipalRepo: newPgxPrincipalRepository(dbPool),
		TxManager:     &BaseRepository{Pool: dbPool},
	}
}

package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jobcrew/auth_backend/internal/apperrors"
	"github.com/jobcrew/auth_backend/internal/core/domain"
	portsrepo "github.com/jobcrew/auth_backend/internal/core/ports/repositories"
	"github.com/jobcrew/auth_backend/internal/models"
	"github.com/jobcrew/auth_backend/internal/utils/mapping"
)

const (
	insertPrincipalQuery = `
		INSERT INTO principals (email, nickname, active, role)
		VALUES ($1, $2, $3, $4)
		RETURNING principal_id, created_at, updated_at`

	insertProfileQuery = `
		INSERT INTO profiles (principal_id, username, avatar_url, completed)
		VALUES ($1, $2, $3, $4)`

	findPrincipalByIDQuery = `
		SELECT p.principal_id, p.email, p.nickname, p.active, p.role, p.created_at, p.updated_at,
		       pr.principal_id, pr.username, pr.avatar_url, pr.completed
		FROM principals p
		LEFT JOIN profiles pr ON pr.principal_id = p.principal_id
		WHERE p.principal_id = $1`

	existsPrincipalByEmailQuery = `
		SELECT EXISTS (SELECT 1 FROM principals WHERE email = $1)`
)

// PgxPrincipalRepository stores principals and their profiles.
type PgxPrincipalRepository struct {
	db querier
}

func newPgxPrincipalRepository(db *pgxpool.Pool) portsrepo.PrincipalRepositoryFacade {
	return &PgxPrincipalRepository{db: db}
}

var _ portsrepo.PrincipalRepositoryFacade = (*PgxPrincipalRepository)(nil)

// CreatePrincipal inserts the principal and its profile. Call it through a
// unit of work so both rows commit together.
func (r *PgxPrincipalRepository) CreatePrincipal(ctx context.Context, principal domain.Principal, profile domain.Profile) (*domain.Principal, error) {
	m := mapping.ToModelPrincipal(principal)
	err := r.db.QueryRow(ctx, insertPrincipalQuery, m.Email, m.Nickname, m.Active, m.Role).
		Scan(&m.PrincipalID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, translateWriteError("create principal", err)
	}

	profile.PrincipalID = m.PrincipalID
	pm := mapping.ToModelProfile(profile)
	if _, err := r.db.Exec(ctx, insertProfileQuery, pm.PrincipalID, pm.Username, pm.AvatarURL, pm.Completed); err != nil {
		return nil, translateWriteError("create profile", err)
	}

	d := mapping.ToDomainPrincipal(m, &pm)
	return &d, nil
}

func (r *PgxPrincipalRepository) FindPrincipalByID(ctx context.Context, principalID int64) (*domain.Principal, error) {
	var (
		m            models.Principal
		profileOwner *int64
		username     *string
		avatarURL    *string
		completed    *bool
	)
	err := r.db.QueryRow(ctx, findPrincipalByIDQuery, principalID).Scan(
		&m.PrincipalID, &m.Email, &m.Nickname, &m.Active, &m.Role, &m.CreatedAt, &m.UpdatedAt,
		&profileOwner, &username, &avatarURL, &completed,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("find principal %d: %w", principalID, err)
	}

	d := mapping.ToDomainPrincipal(m, nil)
	if profileOwner != nil {
		d.Profile = &domain.Profile{
			PrincipalID: *profileOwner,
			Username:    username,
			AvatarURL:   avatarURL,
			Completed:   completed != nil && *completed,
		}
	}
	return &d, nil
}

func (r *PgxPrincipalRepository) ExistsPrincipalByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, existsPrincipalByEmailQuery, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("check principal email: %w", err)
	}
	return exists, nil
}

package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jobcrew/auth_backend/internal/apperrors"
	"github.com/jobcrew/auth_backend/internal/core/domain"
	portsrepo "github.com/jobcrew/auth_backend/internal/core/ports/repositories"
	"github.com/jobcrew/auth_backend/internal/models"
	"github.com/jobcrew/auth_backend/internal/utils/mapping"
)

const (
	identitiesTable = "identities"

	selectIdentityFields = `
		identity_id, principal_id, provider, email, password_hash, provider_subject_id,
		refresh_token, refresh_token_expiry, last_login_at, created_at, updated_at
	`

	findIdentityByCredentialsQuery = `
		SELECT ` + selectIdentityFields + `
		FROM ` + identitiesTable + `
		WHERE email = $1 AND provider = $2`

	findIdentityByProviderSubjectQuery = `
		SELECT ` + selectIdentityFields + `
		FROM ` + identitiesTable + `
		WHERE provider = $1 AND provider_subject_id = $2`

	findIdentityByRefreshTokenQuery = `
		SELECT ` + selectIdentityFields + `
		FROM ` + identitiesTable + `
		WHERE refresh_token = $1`

	findIdentityByPrincipalIDQuery = `
		SELECT ` + selectIdentityFields + `
		FROM ` + identitiesTable + `
		WHERE principal_id = $1`

	findIdentityByIDQuery = `
		SELECT ` + selectIdentityFields + `
		FROM ` + identitiesTable + `
		WHERE identity_id = $1`

	insertIdentityQuery = `
		INSERT INTO ` + identitiesTable + ` (
			principal_id, provider, email, password_hash, provider_subject_id, last_login_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + selectIdentityFields

	setRefreshTokenQuery = `
		UPDATE ` + identitiesTable + `
		SET refresh_token = $2, refresh_token_expiry = $3, last_login_at = $4, updated_at = NOW()
		WHERE identity_id = $1`

	invalidateRefreshTokenQuery = `
		UPDATE ` + identitiesTable + `
		SET refresh_token = NULL, refresh_token_expiry = NULL, updated_at = NOW()
		WHERE identity_id = $1`

	forUpdate = `
		FOR UPDATE`
)

// PgxIdentityRepository is the PostgreSQL credential store.
type PgxIdentityRepository struct {
	db querier
	// lockRows is set for repositories bound to a transaction.
	lockRows bool
}

func newPgxIdentityRepository(db *pgxpool.Pool) portsrepo.IdentityRepositoryFacade {
	return &PgxIdentityRepository{db: db}
}

var _ portsrepo.IdentityRepositoryFacade = (*PgxIdentityRepository)(nil)

func (r *PgxIdentityRepository) FindByCredentials(ctx context.Context, email string, provider domain.Provider) (*domain.Identity, error) {
	return r.findOne(ctx, "find identity by credentials", findIdentityByCredentialsQuery, email, string(provider))
}

func (r *PgxIdentityRepository) FindByProviderSubject(ctx context.Context, provider domain.Provider, subjectID string) (*domain.Identity, error) {
	return r.findOne(ctx, "find identity by provider subject", findIdentityByProviderSubjectQuery, string(provider), subjectID)
}

func (r *PgxIdentityRepository) FindByRefreshToken(ctx context.Context, token string) (*domain.Identity, error) {
	return r.findOne(ctx, "find identity by refresh token", findIdentityByRefreshTokenQuery, token)
}

func (r *PgxIdentityRepository) FindByPrincipalID(ctx context.Context, principalID int64) (*domain.Identity, error) {
	return r.findOne(ctx, "find identity by principal", findIdentityByPrincipalIDQuery, principalID)
}

func (r *PgxIdentityRepository) FindByID(ctx context.Context, identityID int64) (*domain.Identity, error) {
	return r.findOne(ctx, "find identity by id", findIdentityByIDQuery, identityID)
}

func (r *PgxIdentityRepository) CreateIdentity(ctx context.Context, identity domain.Identity) (*domain.Identity, error) {
	m := mapping.ToModelIdentity(identity)
	row := r.db.QueryRow(ctx, insertIdentityQuery,
		m.PrincipalID,
		m.Provider,
		m.Email,
		m.PasswordHash,
		m.ProviderSubjectID,
		m.LastLoginAt,
	)
	saved, err := scanIdentity(row)
	if err != nil {
		return nil, translateWriteError("create identity", err)
	}
	d := mapping.ToDomainIdentity(saved)
	return &d, nil
}

func (r *PgxIdentityRepository) SetRefreshToken(ctx context.Context, identityID int64, token string, expiry time.Time, loginAt time.Time) error {
	tag, err := r.db.Exec(ctx, setRefreshTokenQuery, identityID, token, expiry, loginAt)
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set refresh token for identity %d: %w", identityID, apperrors.ErrNotFound)
	}
	return nil
}

func (r *PgxIdentityRepository) InvalidateRefreshToken(ctx context.Context, identityID int64) error {
	tag, err := r.db.Exec(ctx, invalidateRefreshTokenQuery, identityID)
	if err != nil {
		return fmt.Errorf("invalidate refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("invalidate refresh token for identity %d: %w", identityID, apperrors.ErrNotFound)
	}
	return nil
}

func (r *PgxIdentityRepository) findOne(ctx context.Context, op, query string, args ...any) (*domain.Identity, error) {
	if r.lockRows {
		query += forUpdate
	}
	m, err := scanIdentity(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	d := mapping.ToDomainIdentity(m)
	return &d, nil
}

func scanIdentity(row pgx.Row) (models.Identity, error) {
	var m models.Identity
	err := row.Scan(
		&m.IdentityID,
		&m.PrincipalID,
		&m.Provider,
		&m.Email,
		&m.PasswordHash,
		&m.ProviderSubjectID,
		&m.RefreshToken,
		&m.RefreshTokenExpiry,
		&m.LastLoginAt,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	return m, err
}

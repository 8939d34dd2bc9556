package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jobcrew/auth_backend/internal/apperrors"
	"github.com/jobcrew/auth_backend/internal/core/domain"
	portsrepo "github.com/jobcrew/auth_backend/internal/core/ports/repositories"
	"github.com/jobcrew/auth_backend/internal/models"
	"github.com/jobcrew/auth_backend/internal/utils/mapping"
)

const selectIdentityFields = `
	identity_id, principal_id, provider, email, password_hash, provider_subject_id,
	refresh_token, refresh_token_expiry, last_login_at, created_at, updated_at`

// IdentityRepository is the SQLite credential store.
type IdentityRepository struct {
	db  dbtx
	now func() time.Time
}

var _ portsrepo.IdentityRepositoryFacade = (*IdentityRepository)(nil)

func (r *IdentityRepository) FindByCredentials(ctx context.Context, email string, provider domain.Provider) (*domain.Identity, error) {
	return r.findOne(ctx, "find identity by credentials",
		`SELECT `+selectIdentityFields+` FROM identities WHERE email = ? AND provider = ?`, email, string(provider))
}

func (r *IdentityRepository) FindByProviderSubject(ctx context.Context, provider domain.Provider, subjectID string) (*domain.Identity, error) {
	return r.findOne(ctx, "find identity by provider subject",
		`SELECT `+selectIdentityFields+` FROM identities WHERE provider = ? AND provider_subject_id = ?`, string(provider), subjectID)
}

func (r *IdentityRepository) FindByRefreshToken(ctx context.Context, token string) (*domain.Identity, error) {
	return r.findOne(ctx, "find identity by refresh token",
		`SELECT `+selectIdentityFields+` FROM identities WHERE refresh_token = ?`, token)
}

func (r *IdentityRepository) FindByPrincipalID(ctx context.Context, principalID int64) (*domain.Identity, error) {
	return r.findOne(ctx, "find identity by principal",
		`SELECT `+selectIdentityFields+` FROM identities WHERE principal_id = ?`, principalID)
}

func (r *IdentityRepository) FindByID(ctx context.Context, identityID int64) (*domain.Identity, error) {
	return r.findOne(ctx, "find identity by id",
		`SELECT `+selectIdentityFields+` FROM identities WHERE identity_id = ?`, identityID)
}

func (r *IdentityRepository) CreateIdentity(ctx context.Context, identity domain.Identity) (*domain.Identity, error) {
	m := mapping.ToModelIdentity(identity)
	now := toMillis(r.now())
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO identities (
			principal_id, provider, email, password_hash, provider_subject_id, last_login_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.PrincipalID, m.Provider, m.Email, m.PasswordHash, m.ProviderSubjectID, nullMillis(m.LastLoginAt), now, now,
	)
	if err != nil {
		return nil, translateWriteError("create identity", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create identity: %w", err)
	}
	return r.FindByID(ctx, id)
}

func (r *IdentityRepository) SetRefreshToken(ctx context.Context, identityID int64, token string, expiry time.Time, loginAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE identities
		SET refresh_token = ?, refresh_token_expiry = ?, last_login_at = ?, updated_at = ?
		WHERE identity_id = ?`,
		token, toMillis(expiry), toMillis(loginAt), toMillis(r.now()), identityID,
	)
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	return requireRow(res, "set refresh token", identityID)
}

func (r *IdentityRepository) InvalidateRefreshToken(ctx context.Context, identityID int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE identities
		SET refresh_token = NULL, refresh_token_expiry = NULL, updated_at = ?
		WHERE identity_id = ?`,
		toMillis(r.now()), identityID,
	)
	if err != nil {
		return fmt.Errorf("invalidate refresh token: %w", err)
	}
	return requireRow(res, "invalidate refresh token", identityID)
}

func (r *IdentityRepository) findOne(ctx context.Context, op, query string, args ...any) (*domain.Identity, error) {
	var (
		m                    models.Identity
		expiry, lastLogin    sql.NullInt64
		createdAt, updatedAt int64
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&m.IdentityID,
		&m.PrincipalID,
		&m.Provider,
		&m.Email,
		&m.PasswordHash,
		&m.ProviderSubjectID,
		&m.RefreshToken,
		&expiry,
		&lastLogin,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	m.RefreshTokenExpiry = fromNullMillis(expiry)
	m.LastLoginAt = fromNullMillis(lastLogin)
	m.CreatedAt = fromMillis(createdAt)
	m.UpdatedAt = fromMillis(updatedAt)

	d := mapping.ToDomainIdentity(m)
	return &d, nil
}

func requireRow(res sql.Result, op string, identityID int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s for identity %d: %w", op, identityID, apperrors.ErrNotFound)
	}
	return nil
}

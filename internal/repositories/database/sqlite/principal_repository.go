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

// PrincipalRepository stores principals and their profiles.
type PrincipalRepository struct {
	db  dbtx
	now func() time.Time
}

var _ portsrepo.PrincipalRepositoryFacade = (*PrincipalRepository)(nil)

func (r *PrincipalRepository) CreatePrincipal(ctx context.Context, principal domain.Principal, profile domain.Profile) (*domain.Principal, error) {
	m := mapping.ToModelPrincipal(principal)
	now := r.now()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO principals (email, nickname, active, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.Email, m.Nickname, m.Active, m.Role, toMillis(now), toMillis(now),
	)
	if err != nil {
		return nil, translateWriteError("create principal", err)
	}
	if m.PrincipalID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("create principal: %w", err)
	}
	m.CreatedAt = fromMillis(toMillis(now))
	m.UpdatedAt = m.CreatedAt

	profile.PrincipalID = m.PrincipalID
	pm := mapping.ToModelProfile(profile)
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (principal_id, username, avatar_url, completed)
		VALUES (?, ?, ?, ?)`,
		pm.PrincipalID, pm.Username, pm.AvatarURL, pm.Completed,
	); err != nil {
		return nil, translateWriteError("create profile", err)
	}

	d := mapping.ToDomainPrincipal(m, &pm)
	return &d, nil
}

func (r *PrincipalRepository) FindPrincipalByID(ctx context.Context, principalID int64) (*domain.Principal, error) {
	var (
		m                    models.Principal
		createdAt, updatedAt int64
		profileOwner         sql.NullInt64
		username, avatarURL  sql.NullString
		completed            sql.NullBool
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT p.principal_id, p.email, p.nickname, p.active, p.role, p.created_at, p.updated_at,
		       pr.principal_id, pr.username, pr.avatar_url, pr.completed
		FROM principals p
		LEFT JOIN profiles pr ON pr.principal_id = p.principal_id
		WHERE p.principal_id = ?`, principalID).Scan(
		&m.PrincipalID, &m.Email, &m.Nickname, &m.Active, &m.Role, &createdAt, &updatedAt,
		&profileOwner, &username, &avatarURL, &completed,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("find principal %d: %w", principalID, err)
	}
	m.CreatedAt = fromMillis(createdAt)
	m.UpdatedAt = fromMillis(updatedAt)

	var profile *models.Profile
	if profileOwner.Valid {
		profile = &models.Profile{
			PrincipalID: profileOwner.Int64,
			Username:    username,
			AvatarURL:   avatarURL,
			Completed:   completed.Valid && completed.Bool,
		}
	}
	d := mapping.ToDomainPrincipal(m, profile)
	return &d, nil
}

func (r *PrincipalRepository) ExistsPrincipalByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM principals WHERE email = ?)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check principal email: %w", err)
	}
	return exists, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jobcrew/auth_backend/internal/apperrors"
	"github.com/jobcrew/auth_backend/internal/core/domain"
	portsrepo "github.com/jobcrew/auth_backend/internal/core/ports/repositories"
	portssvc "github.com/jobcrew/auth_backend/internal/core/ports/services"
	"github.com/jobcrew/auth_backend/internal/dto"
	"github.com/jobcrew/auth_backend/internal/utils"
)

// devAccount is a LOCAL account provisioned for development.
type devAccount struct {
	email    string
	password string
	nickname string
}

var devAccounts = []devAccount{
	{email: "test@example.com", password: "password123!", nickname: "testuser"},
	{email: "admin@example.com", password: "admin123!", nickname: "admin"},
	{email: "user1@example.com", password: "user123!", nickname: "user1"},
}

type userService struct {
	BaseService
	repos portsrepo.RepositoryProvider
}

// NewUserService creates the signup and seeding service.
func NewUserService(repos portsrepo.RepositoryProvider) portssvc.UserSvcFacade {
	return &userService{repos: repos}
}

var _ portssvc.UserSvcFacade = (*userService)(nil)

func (s *userService) Signup(ctx context.Context, req dto.SignupRequest) (*domain.Principal, error) {
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.ErrInternal.Wrap(fmt.Errorf("hash password: %w", err))
	}

	var principal *domain.Principal
	err = s.repos.TxManager.WithinTx(ctx, func(ctx context.Context, uow portsrepo.UnitOfWork) error {
		created, err := s.createLocal(ctx, uow, req.Email, hash, req.Nickname)
		principal = created
		return err
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrDuplicateEmail) {
			s.LogError(ctx, err, "Signup failed", slog.String("email", req.Email))
		}
		return nil, err
	}

	s.LogInfo(ctx, "User signed up", slog.String("email", req.Email), slog.Int64("principal_id", principal.ID))
	return principal, nil
}

// SeedDevAccounts creates the development accounts that do not exist yet.
func (s *userService) SeedDevAccounts(ctx context.Context) error {
	for _, acc := range devAccounts {
		exists, err := s.repos.PrincipalRepo.ExistsPrincipalByEmail(ctx, acc.email)
		if err != nil {
			return fmt.Errorf("check dev account %s: %w", acc.email, err)
		}
		if exists {
			s.LogInfo(ctx, "Dev account already exists", slog.String("email", acc.email))
			continue
		}

		hash, err := utils.HashPassword(acc.password)
		if err != nil {
			return fmt.Errorf("hash dev account password: %w", err)
		}
		err = s.repos.TxManager.WithinTx(ctx, func(ctx context.Context, uow portsrepo.UnitOfWork) error {
			_, err := s.createLocal(ctx, uow, acc.email, hash, acc.nickname)
			return err
		})
		if err != nil {
			return fmt.Errorf("seed dev account %s: %w", acc.email, err)
		}
		s.LogInfo(ctx, "Dev account created", slog.String("email", acc.email))
	}
	return nil
}

// createLocal creates a principal with a profile named after nickname and its LOCAL identity.
func (s *userService) createLocal(ctx context.Context, uow portsrepo.UnitOfWork, email, passwordHash, nickname string) (*domain.Principal, error) {
	taken, err := uow.Principals().ExistsPrincipalByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.ErrDuplicateEmail
	}

	principal, profile := domain.NewPrincipal(email, nickname)
	profile.Username = &nickname
	saved, err := uow.Principals().CreatePrincipal(ctx, principal, profile)
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, apperrors.ErrDuplicateEmail
		}
		return nil, err
	}

	if _, err := uow.Identities().CreateIdentity(ctx, domain.NewLocalIdentity(saved.ID, email, passwordHash)); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, apperrors.ErrDuplicateEmail
		}
		return nil, err
	}
	return saved, nil
}

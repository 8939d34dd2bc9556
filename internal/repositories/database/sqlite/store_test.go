package sqlite_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jobcrew/auth_backend/internal/apperrors"
	"github.com/jobcrew/auth_backend/internal/core/domain"
	portsrepo "github.com/jobcrew/auth_backend/internal/core/ports/repositories"
	"github.com/jobcrew/auth_backend/internal/repositories/database/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type StoreTestSuite struct {
	suite.Suite
	store *sqlite.Store
	repos portsrepo.RepositoryProvider
	ctx   context.Context
}

func (s *StoreTestSuite) SetupTest() {
	store, err := sqlite.NewStore(":memory:")
	s.Require().NoError(err)
	s.store = store
	s.repos = store.RepositoryProvider()
	s.ctx = context.Background()
}

func (s *StoreTestSuite) TearDownTest() {
	s.Require().NoError(s.store.Close())
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (s *StoreTestSuite) createLocalAccount(email string) *domain.Identity {
	var identity *domain.Identity
	err := s.repos.TxManager.WithinTx(s.ctx, func(ctx context.Context, uow portsrepo.UnitOfWork) error {
		principal, profile := domain.NewPrincipal(email, "tester")
		saved, err := uow.Principals().CreatePrincipal(ctx, principal, profile)
		if err != nil {
			return err
		}
		identity, err = uow.Identities().CreateIdentity(ctx, domain.NewLocalIdentity(saved.ID, email, "hash"))
		return err
	})
	s.Require().NoError(err)
	return identity
}

func (s *StoreTestSuite) TestCreateAndFindAccount() {
	identity := s.createLocalAccount("a@example.com")

	s.NotZero(identity.ID)
	s.Equal(domain.ProviderLocal, identity.Provider)
	s.Require().NotNil(identity.PasswordHash)
	s.Equal("hash", *identity.PasswordHash)
	s.Nil(identity.RefreshToken)

	found, err := s.repos.IdentityRepo.FindByCredentials(s.ctx, "a@example.com", domain.ProviderLocal)
	s.Require().NoError(err)
	s.Equal(identity.ID, found.ID)

	principal, err := s.repos.PrincipalRepo.FindPrincipalByID(s.ctx, identity.PrincipalID)
	s.Require().NoError(err)
	s.Equal("a@example.com", principal.Email)
	s.Equal(domain.RoleUser, principal.Role)
	s.True(principal.Active)
	s.Require().NotNil(principal.Profile)
	s.False(principal.ProfileCompleted())

	exists, err := s.repos.PrincipalRepo.ExistsPrincipalByEmail(s.ctx, "a@example.com")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *StoreTestSuite) TestFindMissingReturnsNotFound() {
	_, err := s.repos.IdentityRepo.FindByRefreshToken(s.ctx, "nope")
	s.ErrorIs(err, apperrors.ErrNotFound)

	_, err = s.repos.PrincipalRepo.FindPrincipalByID(s.ctx, 42)
	s.ErrorIs(err, apperrors.ErrNotFound)

	err = s.repos.IdentityRepo.InvalidateRefreshToken(s.ctx, 42)
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *StoreTestSuite) TestDuplicateEmailRollsBack() {
	s.createLocalAccount("dup@example.com")

	err := s.repos.TxManager.WithinTx(s.ctx, func(ctx context.Context, uow portsrepo.UnitOfWork) error {
		principal, profile := domain.NewPrincipal("dup@example.com", "again")
		_, err := uow.Principals().CreatePrincipal(ctx, principal, profile)
		return err
	})
	s.ErrorIs(err, apperrors.ErrDuplicate)
}

func (s *StoreTestSuite) TestSocialSubjectIsUnique() {
	err := s.repos.TxManager.WithinTx(s.ctx, func(ctx context.Context, uow portsrepo.UnitOfWork) error {
		p1, prof1 := domain.NewPrincipal("k1@kakao.com", "one")
		saved1, err := uow.Principals().CreatePrincipal(ctx, p1, prof1)
		if err != nil {
			return err
		}
		if _, err := uow.Identities().CreateIdentity(ctx, domain.NewSocialIdentity(saved1.ID, domain.ProviderKakao, "k1@kakao.com", "123")); err != nil {
			return err
		}
		p2, prof2 := domain.NewPrincipal("k2@kakao.com", "two")
		saved2, err := uow.Principals().CreatePrincipal(ctx, p2, prof2)
		if err != nil {
			return err
		}
		_, err = uow.Identities().CreateIdentity(ctx, domain.NewSocialIdentity(saved2.ID, domain.ProviderKakao, "k2@kakao.com", "123"))
		return err
	})
	s.ErrorIs(err, apperrors.ErrDuplicate)

	exists, err := s.repos.PrincipalRepo.ExistsPrincipalByEmail(s.ctx, "k1@kakao.com")
	s.Require().NoError(err)
	s.False(exists, "failed transaction must leave no rows")
}

func (s *StoreTestSuite) TestSetAndInvalidateRefreshToken() {
	identity := s.createLocalAccount("r@example.com")
	expiry := time.Date(2030, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
	loginAt := time.Date(2029, 1, 2, 3, 4, 5, 0, time.UTC)

	s.Require().NoError(s.repos.IdentityRepo.SetRefreshToken(s.ctx, identity.ID, "rt-1", expiry, loginAt))

	found, err := s.repos.IdentityRepo.FindByRefreshToken(s.ctx, "rt-1")
	s.Require().NoError(err)
	s.Equal(identity.ID, found.ID)
	s.Require().NotNil(found.RefreshTokenExpiry)
	s.True(expiry.Equal(*found.RefreshTokenExpiry))
	s.Require().NotNil(found.LastLoginAt)
	s.True(loginAt.Equal(*found.LastLoginAt))

	s.Require().NoError(s.repos.IdentityRepo.InvalidateRefreshToken(s.ctx, identity.ID))

	_, err = s.repos.IdentityRepo.FindByRefreshToken(s.ctx, "rt-1")
	s.ErrorIs(err, apperrors.ErrNotFound)
	cleared, err := s.repos.IdentityRepo.FindByID(s.ctx, identity.ID)
	s.Require().NoError(err)
	s.Nil(cleared.RefreshToken)
	s.Nil(cleared.RefreshTokenExpiry)
}

// Two transactions redeeming the same token: only the first one sees it.
func (s *StoreTestSuite) TestConcurrentRedeemSeesTokenOnce() {
	identity := s.createLocalAccount("c@example.com")
	s.Require().NoError(s.repos.IdentityRepo.SetRefreshToken(s.ctx, identity.ID, "shared", time.Now().Add(time.Hour), time.Now()))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
		losers  int
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			err := s.repos.TxManager.WithinTx(s.ctx, func(ctx context.Context, uow portsrepo.UnitOfWork) error {
				found, err := uow.Identities().FindByRefreshToken(ctx, "shared")
				if err != nil {
					return err
				}
				return uow.Identities().SetRefreshToken(ctx, found.ID, "rotated", time.Now().Add(time.Hour), time.Now())
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners++
			case errors.Is(err, apperrors.ErrNotFound):
				losers++
			}
		}(i)
	}
	wg.Wait()

	s.Equal(1, winners)
	s.Equal(1, losers)
}

func TestNewStore_RequiresPath(t *testing.T) {
	_, err := sqlite.NewStore("  ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path is required")
}

package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jobcrew/auth_backend/internal/apperrors"
	"github.com/jobcrew/auth_backend/internal/core/domain"
	portsrepo "github.com/jobcrew/auth_backend/internal/core/ports/repositories"
	"github.com/jobcrew/auth_backend/internal/core/services"
	"github.com/jobcrew/auth_backend/internal/dto"
	"github.com/jobcrew/auth_backend/internal/repositories/database/sqlite"
	"github.com/jobcrew/auth_backend/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mock PrincipalRepository ---
type MockPrincipalRepository struct {
	mock.Mock
}

var _ portsrepo.PrincipalRepositoryFacade = (*MockPrincipalRepository)(nil)

func (m *MockPrincipalRepository) FindPrincipalByID(ctx context.Context, principalID int64) (*domain.Principal, error) {
	args := m.Called(ctx, principalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Principal), args.Error(1)
}

func (m *MockPrincipalRepository) ExistsPrincipalByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockPrincipalRepository) CreatePrincipal(ctx context.Context, principal domain.Principal, profile domain.Profile) (*domain.Principal, error) {
	args := m.Called(ctx, principal, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Principal), args.Error(1)
}

func newSQLiteRepos(t *testing.T) portsrepo.RepositoryProvider {
	t.Helper()
	store, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store.RepositoryProvider()
}

func TestSignup_CreatesLocalAccount(t *testing.T) {
	ctx := context.Background()
	repos := newSQLiteRepos(t)
	svc := services.NewUserService(repos)

	principal, err := svc.Signup(ctx, dto.SignupRequest{Email: "new@example.com", Password: "s3cret-pass!", Nickname: "newbie"})
	require.NoError(t, err)
	assert.NotZero(t, principal.ID)
	assert.Equal(t, domain.RoleUser, principal.Role)
	require.NotNil(t, principal.Profile)
	require.NotNil(t, principal.Profile.Username)
	assert.Equal(t, "newbie", *principal.Profile.Username)
	assert.False(t, principal.Profile.Completed)

	identity, err := repos.IdentityRepo.FindByCredentials(ctx, "new@example.com", domain.ProviderLocal)
	require.NoError(t, err)
	assert.Equal(t, principal.ID, identity.PrincipalID)
	require.NotNil(t, identity.PasswordHash)
	assert.True(t, utils.CheckPasswordHash("s3cret-pass!", *identity.PasswordHash))
}

func TestSignup_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := services.NewUserService(newSQLiteRepos(t))
	req := dto.SignupRequest{Email: "dup@example.com", Password: "s3cret-pass!", Nickname: "dup"}

	_, err := svc.Signup(ctx, req)
	require.NoError(t, err)

	_, err = svc.Signup(ctx, req)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateEmail)
}

func TestSeedDevAccounts_PropagatesLookupFailure(t *testing.T) {
	principals := new(MockPrincipalRepository)
	principals.On("ExistsPrincipalByEmail", mock.Anything, "test@example.com").Return(false, errors.New("connection reset"))

	svc := services.NewUserService(portsrepo.RepositoryProvider{PrincipalRepo: principals})
	err := svc.SeedDevAccounts(context.Background())

	assert.ErrorContains(t, err, "connection reset")
	principals.AssertExpectations(t)
}

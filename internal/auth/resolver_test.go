package auth

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-kit/helpdesk-service/internal/domain"
)

type stubUserRepo struct {
	users map[string]*domain.User
}

func (s *stubUserRepo) Create(ctx context.Context, user *domain.User) error { return nil }

func (s *stubUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func (s *stubUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *stubUserRepo) SetActive(ctx context.Context, id string, active bool) error { return nil }

func (s *stubUserRepo) UpdatePassword(ctx context.Context, id, hash string) error { return nil }

func (s *stubUserRepo) GrantRole(ctx context.Context, id string, role domain.RoleName) error {
	return nil
}

func (s *stubUserRepo) ListByTenants(ctx context.Context, tenantIDs []string) ([]domain.User, error) {
	return nil, nil
}

func newResolverFixture(t *testing.T) (*ContextResolver, *TokenManager, *stubUserRepo) {
	t.Helper()
	tm := NewTokenManager("test-secret", 60, 24)
	repo := &stubUserRepo{users: map[string]*domain.User{}}
	return NewContextResolver(tm, repo), tm, repo
}

func TestResolveValidSession(t *testing.T) {
	resolver, tm, repo := newResolverFixture(t)
	orgID := "org-1"
	repo.users["user-1"] = &domain.User{
		ID:             "user-1",
		Email:          "agent@example.com",
		IsActive:       true,
		OrganizationID: &orgID,
		Roles:          []domain.RoleName{domain.RoleAgent},
	}

	token, _, err := tm.GenerateSessionToken("user-1", "agent@example.com", []domain.RoleName{domain.RoleAgent})
	require.NoError(t, err)

	authCtx := resolver.Resolve(context.Background(), "Bearer "+token)
	require.NotNil(t, authCtx)
	require.Equal(t, "user-1", authCtx.UserID)
	require.Equal(t, "agent@example.com", authCtx.Email)
	require.Equal(t, []domain.RoleName{domain.RoleAgent}, authCtx.Roles)
	require.Equal(t, &orgID, authCtx.OrganizationID)
	require.False(t, authCtx.IsGlobalAdmin)
}

func TestResolveMissingOrMalformedHeader(t *testing.T) {
	resolver, tm, repo := newResolverFixture(t)
	repo.users["user-1"] = &domain.User{ID: "user-1", IsActive: true}

	token, _, err := tm.GenerateSessionToken("user-1", "u@example.com", nil)
	require.NoError(t, err)

	require.Nil(t, resolver.Resolve(context.Background(), ""))
	require.Nil(t, resolver.Resolve(context.Background(), token))
	require.Nil(t, resolver.Resolve(context.Background(), "Basic "+token))
}

func TestResolveInvalidToken(t *testing.T) {
	resolver, _, _ := newResolverFixture(t)
	require.Nil(t, resolver.Resolve(context.Background(), "Bearer not-a-token"))
}

func TestResolveUnknownUser(t *testing.T) {
	resolver, tm, _ := newResolverFixture(t)

	token, _, err := tm.GenerateSessionToken("ghost", "ghost@example.com", nil)
	require.NoError(t, err)

	require.Nil(t, resolver.Resolve(context.Background(), "Bearer "+token))
}

func TestResolveInactiveUserDominatesValidToken(t *testing.T) {
	resolver, tm, repo := newResolverFixture(t)
	repo.users["user-1"] = &domain.User{ID: "user-1", Email: "u@example.com", IsActive: false}

	token, _, err := tm.GenerateSessionToken("user-1", "u@example.com", nil)
	require.NoError(t, err)

	require.Nil(t, resolver.Resolve(context.Background(), "Bearer "+token))
}

func TestResolveRolesComeFromStorageNotToken(t *testing.T) {
	resolver, tm, repo := newResolverFixture(t)
	repo.users["user-1"] = &domain.User{
		ID:       "user-1",
		Email:    "u@example.com",
		IsActive: true,
		Roles:    []domain.RoleName{domain.RoleEndUser},
	}

	// Token still claims ADMIN but the grant was revoked after issuance.
	token, _, err := tm.GenerateSessionToken("user-1", "u@example.com", []domain.RoleName{domain.RoleAdmin})
	require.NoError(t, err)

	authCtx := resolver.Resolve(context.Background(), "Bearer "+token)
	require.NotNil(t, authCtx)
	require.Equal(t, []domain.RoleName{domain.RoleEndUser}, authCtx.Roles)
	require.False(t, authCtx.HasRole(domain.RoleAdmin))
}

package auth

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/helpdesk-kit/helpdesk-service/internal/domain"
	apperrors "github.com/helpdesk-kit/helpdesk-service/pkg/util"
)

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, status, domainErr.HTTPStatus)
}

func TestRequireAuthNilContextIsUnauthorized(t *testing.T) {
	requireStatus(t, RequireAuth(nil), http.StatusUnauthorized)
	require.NoError(t, RequireAuth(&AuthContext{UserID: "u1"}))
}

func TestRequireRoleMissingRoleIsForbidden(t *testing.T) {
	ctx := &AuthContext{UserID: "u1", Roles: []domain.RoleName{domain.RoleEndUser}}

	requireStatus(t, RequireRole(ctx, domain.RoleAdmin), http.StatusForbidden)
	require.NoError(t, RequireRole(ctx, domain.RoleEndUser))
}

func TestRequireRoleNilContextIsUnauthorizedNotForbidden(t *testing.T) {
	// Missing identity and insufficient identity are distinct failures.
	requireStatus(t, RequireRole(nil, domain.RoleAdmin), http.StatusUnauthorized)
}

func TestRequireAnyRoleIntersection(t *testing.T) {
	ctx := &AuthContext{UserID: "u1", Roles: []domain.RoleName{domain.RoleAgent, domain.RoleEndUser}}

	require.NoError(t, RequireAnyRole(ctx, domain.RoleITManager, domain.RoleAgent))
	requireStatus(t, RequireAnyRole(ctx, domain.RoleITManager, domain.RoleAdmin), http.StatusForbidden)
	requireStatus(t, RequireAnyRole(ctx), http.StatusForbidden)
}

func TestRequireOperationUsesPolicyTable(t *testing.T) {
	agent := &AuthContext{UserID: "a1", Roles: []domain.RoleName{domain.RoleAgent}}
	admin := &AuthContext{UserID: "a2", Roles: []domain.RoleName{domain.RoleAdmin}}
	endUser := &AuthContext{UserID: "u1", Roles: []domain.RoleName{domain.RoleEndUser}}

	require.NoError(t, RequireOperation(agent, OpWorkTickets))
	requireStatus(t, RequireOperation(agent, OpManageTenants), http.StatusForbidden)
	requireStatus(t, RequireOperation(agent, OpReadAuditLog), http.StatusForbidden)

	require.NoError(t, RequireOperation(admin, OpManageTenants))
	require.NoError(t, RequireOperation(admin, OpReadAuditLog))

	requireStatus(t, RequireOperation(endUser, OpWorkTickets), http.StatusForbidden)
	requireStatus(t, RequireOperation(nil, OpWorkTickets), http.StatusUnauthorized)
}

func TestRequireOperationUnknownOperation(t *testing.T) {
	admin := &AuthContext{UserID: "a1", Roles: []domain.RoleName{domain.RoleGlobalAdmin}}
	requireStatus(t, RequireOperation(admin, Operation("no_such_op")), http.StatusForbidden)
}

func TestGlobalAdminPassesEveryOperation(t *testing.T) {
	ga := &AuthContext{UserID: "g1", Roles: []domain.RoleName{domain.RoleGlobalAdmin}, IsGlobalAdmin: true}
	for op := range OperationRoles {
		require.NoError(t, RequireOperation(ga, op), "operation %s", op)
	}
}

package auth

import (
	"github.com/helpdesk-kit/helpdesk-service/internal/domain"
	apperrors "github.com/helpdesk-kit/helpdesk-service/pkg/util"
)

// Operation names a guarded administrative or ticket action. The policy table
// below is the single place mapping operations to accepted role sets, so
// endpoints cannot drift apart in which roles they accept.
type Operation string

const (
	OpManageTenants     Operation = "manage_tenants"
	OpManageAssignments Operation = "manage_assignments"
	OpManageAgents      Operation = "manage_agents"
	OpAssignTickets     Operation = "assign_tickets"
	OpWorkTickets       Operation = "work_tickets"
	OpReadAuditLog      Operation = "read_audit_log"
)

// OperationRoles is the central policy table: operation to accepted roles.
// GLOBAL_ADMIN is listed explicitly where it alone suffices; resource-scoped
// checks still apply on top of these role gates.
var OperationRoles = map[Operation][]domain.RoleName{
	OpManageTenants:     {domain.RoleAdmin, domain.RoleITManager, domain.RoleGlobalAdmin},
	OpManageAssignments: {domain.RoleAdmin, domain.RoleITManager, domain.RoleGlobalAdmin},
	OpManageAgents:      {domain.RoleAdmin, domain.RoleITManager, domain.RoleGlobalAdmin},
	OpAssignTickets:     {domain.RoleITManager, domain.RoleAdmin, domain.RoleGlobalAdmin},
	OpWorkTickets:       {domain.RoleAgent, domain.RoleITManager, domain.RoleAdmin, domain.RoleGlobalAdmin},
	OpReadAuditLog:      {domain.RoleAdmin, domain.RoleGlobalAdmin},
}

// RequireAuth fails with Unauthorized when no principal is present.
func RequireAuth(ctx *AuthContext) error {
	if ctx == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	return nil
}

// RequireRole ensures the principal holds the exact role.
func RequireRole(ctx *AuthContext, role domain.RoleName) error {
	if err := RequireAuth(ctx); err != nil {
		return err
	}
	if !ctx.HasRole(role) {
		return apperrors.NewForbidden("insufficient role")
	}
	return nil
}

// RequireAnyRole ensures the principal holds at least one of the roles.
func RequireAnyRole(ctx *AuthContext, roles ...domain.RoleName) error {
	if err := RequireAuth(ctx); err != nil {
		return err
	}
	if !ctx.HasAnyRole(roles...) {
		return apperrors.NewForbidden("insufficient role")
	}
	return nil
}

// RequireOperation gates an operation through the central policy table.
func RequireOperation(ctx *AuthContext, op Operation) error {
	roles, ok := OperationRoles[op]
	if !ok {
		return apperrors.NewForbidden("unknown operation")
	}
	return RequireAnyRole(ctx, roles...)
}

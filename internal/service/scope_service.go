package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/helpdesk-kit/helpdesk-service/internal/domain"
	"github.com/helpdesk-kit/helpdesk-service/internal/repository"
)

// ScopeService answers tenant and organization access questions. Its methods
// return booleans or sets rather than failing: "no access" is a legitimate
// business outcome, and callers map it to Forbidden or an empty result.
type ScopeService struct {
	users       repository.UserRepository
	tenants     repository.TenantRepository
	assignments repository.AssignmentRepository
}

// ScopeDependencies bundles repositories.
type ScopeDependencies struct {
	UserRepo       repository.UserRepository
	TenantRepo     repository.TenantRepository
	AssignmentRepo repository.AssignmentRepository
}

// NewScopeService creates the service.
func NewScopeService(deps ScopeDependencies) *ScopeService {
	return &ScopeService{
		users:       deps.UserRepo,
		tenants:     deps.TenantRepo,
		assignments: deps.AssignmentRepo,
	}
}

// CanManageTenant reports whether the user may administer the tenant:
// global-admin always; otherwise the user's organization must own the tenant
// and the user must hold ADMIN or IT_MANAGER.
func (s *ScopeService) CanManageTenant(ctx context.Context, userID, tenantID string) (bool, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false, ignoreNoRows(err)
	}
	if user.HasRole(domain.RoleGlobalAdmin) {
		return true, nil
	}
	if !user.HasAnyRole(domain.RoleAdmin, domain.RoleITManager) {
		return false, nil
	}
	if user.OrganizationID == nil {
		return false, nil
	}
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return false, ignoreNoRows(err)
	}
	return tenant.OrganizationID != nil && *tenant.OrganizationID == *user.OrganizationID, nil
}

// CanManageAgentInOrganization reports whether the manager may act on the
// agent account (password resets, enable/disable). Both principals must share
// an organization and the manager must hold IT_MANAGER or ADMIN; a
// global-admin passes regardless. Prevents cross-organization privilege
// leakage.
func (s *ScopeService) CanManageAgentInOrganization(ctx context.Context, managerID, agentID string) (bool, error) {
	manager, err := s.users.GetByID(ctx, managerID)
	if err != nil {
		return false, ignoreNoRows(err)
	}
	if manager.HasRole(domain.RoleGlobalAdmin) {
		return true, nil
	}
	if !manager.HasAnyRole(domain.RoleITManager, domain.RoleAdmin) {
		return false, nil
	}
	if manager.OrganizationID == nil {
		return false, nil
	}
	agent, err := s.users.GetByID(ctx, agentID)
	if err != nil {
		return false, ignoreNoRows(err)
	}
	return agent.OrganizationID != nil && *agent.OrganizationID == *manager.OrganizationID, nil
}

// AgentVisibleTenantIDs returns the tenants the agent is assigned to, across
// all categories. Agents must never observe identity data for users outside
// this set; the empty set is a valid answer.
func (s *ScopeService) AgentVisibleTenantIDs(ctx context.Context, agentID string) ([]string, error) {
	assignments, err := s.assignments.ListByUser(ctx, agentID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(assignments))
	ids := make([]string, 0, len(assignments))
	for _, assignment := range assignments {
		if _, ok := seen[assignment.TenantID]; ok {
			continue
		}
		seen[assignment.TenantID] = struct{}{}
		ids = append(ids, assignment.TenantID)
	}
	return ids, nil
}

// VisibleUsers lists users sharing at least one tenant with the agent.
func (s *ScopeService) VisibleUsers(ctx context.Context, agentID string) ([]domain.User, error) {
	tenantIDs, err := s.AgentVisibleTenantIDs(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if len(tenantIDs) == 0 {
		return []domain.User{}, nil
	}
	return s.users.ListByTenants(ctx, tenantIDs)
}

// ignoreNoRows collapses a missing row into "no access" instead of an error.
func ignoreNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	return err
}

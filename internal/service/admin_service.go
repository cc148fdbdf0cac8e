package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/helpdesk-kit/helpdesk-service/internal/auth"
	"github.com/helpdesk-kit/helpdesk-service/internal/domain"
	"github.com/helpdesk-kit/helpdesk-service/internal/repository"
	apperrors "github.com/helpdesk-kit/helpdesk-service/pkg/util"
)

// AdminService covers tenant, assignment and agent administration. Every
// mutation is gated by the policy table plus the scoping checks and recorded
// in the audit trail.
type AdminService struct {
	users       repository.UserRepository
	tenants     repository.TenantRepository
	assignments repository.AssignmentRepository
	scope       *ScopeService
	audit       *AuditService
	bcryptCost  int
}

// AdminDependencies bundles collaborators for the admin service.
type AdminDependencies struct {
	UserRepo       repository.UserRepository
	TenantRepo     repository.TenantRepository
	AssignmentRepo repository.AssignmentRepository
	Scope          *ScopeService
	Audit          *AuditService
	BcryptCost     int
}

// TenantInput describes tenant creation/update payload.
type TenantInput struct {
	Name          string
	IsActive      bool
	RequiresLogin bool
	Categories    []string
}

// NewAdminService creates the service.
func NewAdminService(deps AdminDependencies) *AdminService {
	return &AdminService{
		users:       deps.UserRepo,
		tenants:     deps.TenantRepo,
		assignments: deps.AssignmentRepo,
		scope:       deps.Scope,
		audit:       deps.Audit,
		bcryptCost:  deps.BcryptCost,
	}
}

// CreateTenant creates a tenant under the actor's organization. Global-admins
// may create tenants for any organization by passing it explicitly.
func (s *AdminService) CreateTenant(ctx context.Context, actor *auth.AuthContext, organizationID *string, input TenantInput) (*domain.Tenant, error) {
	if err := auth.RequireOperation(actor, auth.OpManageTenants); err != nil {
		return nil, err
	}
	if organizationID == nil {
		organizationID = actor.OrganizationID
	}
	if !actor.IsGlobalAdmin {
		if actor.OrganizationID == nil || organizationID == nil || *organizationID != *actor.OrganizationID {
			return nil, apperrors.NewForbidden("tenant outside organization scope")
		}
	}
	if input.Name == "" {
		return nil, apperrors.NewValidationError("tenant name is required", nil)
	}

	tenant := &domain.Tenant{
		OrganizationID: organizationID,
		Name:           input.Name,
		IsActive:       input.IsActive,
		RequiresLogin:  input.RequiresLogin,
		Categories:     input.Categories,
	}
	if err := s.tenants.Create(ctx, tenant); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.recordAdmin(ctx, actor, domain.AuditEventTenantCreated, "tenant", tenant.ID, "tenant created", map[string]any{"name": tenant.Name})
	return tenant, nil
}

// UpdateTenant updates a tenant the actor may manage.
func (s *AdminService) UpdateTenant(ctx context.Context, actor *auth.AuthContext, tenantID string, input TenantInput) (*domain.Tenant, error) {
	if err := auth.RequireOperation(actor, auth.OpManageTenants); err != nil {
		return nil, err
	}
	allowed, err := s.scope.CanManageTenant(ctx, actor.UserID, tenantID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !allowed {
		return nil, apperrors.NewForbidden("tenant outside organization scope")
	}

	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("tenant", map[string]any{"tenant_id": tenantID})
		}
		return nil, apperrors.MapError(err)
	}

	tenant.Name = input.Name
	tenant.IsActive = input.IsActive
	tenant.RequiresLogin = input.RequiresLogin
	tenant.Categories = input.Categories
	if err := s.tenants.Update(ctx, tenant); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.recordAdmin(ctx, actor, domain.AuditEventTenantUpdated, "tenant", tenant.ID, "tenant updated", map[string]any{"name": tenant.Name})
	return tenant, nil
}

// AddAssignment links a staff user to a tenant, optionally per category.
func (s *AdminService) AddAssignment(ctx context.Context, actor *auth.AuthContext, userID, tenantID string, category *string) (*domain.TenantAssignment, error) {
	if err := auth.RequireOperation(actor, auth.OpManageAssignments); err != nil {
		return nil, err
	}
	allowed, err := s.scope.CanManageTenant(ctx, actor.UserID, tenantID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !allowed {
		return nil, apperrors.NewForbidden("tenant outside organization scope")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	if !user.HasAnyRole(domain.StaffRoles()...) {
		return nil, apperrors.NewConflict("user is not assignable staff", map[string]any{"user_id": userID})
	}

	assignment := &domain.TenantAssignment{
		UserID:   userID,
		TenantID: tenantID,
		Category: category,
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.recordAdmin(ctx, actor, domain.AuditEventAssignmentAdded, "tenant_assignment", assignment.ID, "tenant assignment added", map[string]any{
		"user_id":   userID,
		"tenant_id": tenantID,
		"category":  category,
	})
	return assignment, nil
}

// RemoveAssignment deletes an assignment after checking tenant scope.
func (s *AdminService) RemoveAssignment(ctx context.Context, actor *auth.AuthContext, assignmentID, tenantID string) error {
	if err := auth.RequireOperation(actor, auth.OpManageAssignments); err != nil {
		return err
	}
	allowed, err := s.scope.CanManageTenant(ctx, actor.UserID, tenantID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !allowed {
		return apperrors.NewForbidden("tenant outside organization scope")
	}
	if err := s.assignments.Delete(ctx, assignmentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("assignment", map[string]any{"assignment_id": assignmentID})
		}
		return apperrors.MapError(err)
	}
	s.recordAdmin(ctx, actor, domain.AuditEventAssignmentRemoved, "tenant_assignment", assignmentID, "tenant assignment removed", map[string]any{
		"tenant_id": tenantID,
	})
	return nil
}

// SetAgentActive enables or disables an agent account within the actor's
// organization.
func (s *AdminService) SetAgentActive(ctx context.Context, actor *auth.AuthContext, agentID string, active bool) error {
	if err := auth.RequireOperation(actor, auth.OpManageAgents); err != nil {
		return err
	}
	allowed, err := s.scope.CanManageAgentInOrganization(ctx, actor.UserID, agentID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !allowed {
		return apperrors.NewForbidden("agent outside organization scope")
	}
	if err := s.users.SetActive(ctx, agentID, active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("agent", map[string]any{"agent_id": agentID})
		}
		return apperrors.MapError(err)
	}
	event := domain.AuditEventAgentDisabled
	if active {
		event = domain.AuditEventAgentEnabled
	}
	s.recordAdmin(ctx, actor, event, "user", agentID, "agent active flag changed", map[string]any{"active": active})
	return nil
}

// ResetAgentPassword sets a new password for an agent in the actor's
// organization.
func (s *AdminService) ResetAgentPassword(ctx context.Context, actor *auth.AuthContext, agentID, newPassword string) error {
	if err := auth.RequireOperation(actor, auth.OpManageAgents); err != nil {
		return err
	}
	allowed, err := s.scope.CanManageAgentInOrganization(ctx, actor.UserID, agentID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !allowed {
		return apperrors.NewForbidden("agent outside organization scope")
	}
	if len(newPassword) < 8 {
		return apperrors.NewValidationError("password too short", nil)
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.MapError(err)
	}
	if err := s.users.UpdatePassword(ctx, agentID, hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("agent", map[string]any{"agent_id": agentID})
		}
		return apperrors.MapError(err)
	}
	s.recordAdmin(ctx, actor, domain.AuditEventPasswordReset, "user", agentID, "agent password reset", nil)
	return nil
}

func (s *AdminService) recordAdmin(ctx context.Context, actor *auth.AuthContext, eventType, entityType, entityID, description string, metadata map[string]any) {
	s.audit.Record(ctx, AuditEntry{
		EventType:      eventType,
		EntityType:     entityType,
		EntityID:       &entityID,
		UserID:         &actor.UserID,
		UserEmail:      actor.Email,
		OrganizationID: actor.OrganizationID,
		Description:    description,
		Metadata:       metadata,
	})
}

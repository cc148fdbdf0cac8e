package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/helpdesk-kit/helpdesk-service/internal/auth"
	"github.com/helpdesk-kit/helpdesk-service/internal/domain"
	"github.com/helpdesk-kit/helpdesk-service/internal/events"
	"github.com/helpdesk-kit/helpdesk-service/internal/repository"
	apperrors "github.com/helpdesk-kit/helpdesk-service/pkg/util"
)

// RoutingService selects assignees for tickets and commits assignments.
type RoutingService struct {
	tickets     repository.TicketRepository
	users       repository.UserRepository
	assignments repository.AssignmentRepository
	dispatcher  events.Dispatcher
	audit       *AuditService
}

// RoutingDependencies bundles repositories.
type RoutingDependencies struct {
	TicketRepo     repository.TicketRepository
	UserRepo       repository.UserRepository
	AssignmentRepo repository.AssignmentRepository
	Dispatcher     events.Dispatcher
	Audit          *AuditService
}

// NewRoutingService creates the service.
func NewRoutingService(deps RoutingDependencies) *RoutingService {
	return &RoutingService{
		tickets:     deps.TicketRepo,
		users:       deps.UserRepo,
		assignments: deps.AssignmentRepo,
		dispatcher:  deps.Dispatcher,
		audit:       deps.Audit,
	}
}

// RouteTicket picks the least-loaded eligible assignee for a tenant/category
// pair. Eligible means: assigned to the tenant for the given category or
// tenant-wide, active, and holding AGENT or IT_MANAGER. Load is the count of
// NEW/IN_PROGRESS tickets already assigned. Ties go to the first candidate in
// assignment order. An empty pool yields "" and no error.
func (s *RoutingService) RouteTicket(ctx context.Context, tenantID, category string) (string, error) {
	assignments, err := s.assignments.ListEligible(ctx, tenantID, category)
	if err != nil {
		return "", err
	}

	var bestID string
	bestLoad := -1
	seen := make(map[string]struct{}, len(assignments))
	for _, assignment := range assignments {
		if _, ok := seen[assignment.UserID]; ok {
			continue
		}
		seen[assignment.UserID] = struct{}{}

		candidate, err := s.users.GetByID(ctx, assignment.UserID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return "", err
		}
		if !candidate.IsActive || !candidate.HasAnyRole(domain.StaffRoles()...) {
			continue
		}

		load, err := s.tickets.CountOpenByAssignee(ctx, candidate.ID)
		if err != nil {
			return "", err
		}
		// strict less-than keeps the first minimum in enumeration order
		if bestLoad < 0 || load < bestLoad {
			bestID = candidate.ID
			bestLoad = load
		}
	}
	return bestID, nil
}

// AutoRoute routes a freshly created ticket. No eligible assignee leaves the
// ticket unassigned; that is a valid outcome, not an error.
func (s *RoutingService) AutoRoute(ctx context.Context, ticket *domain.Ticket) error {
	if ticket.TenantID == nil {
		return nil
	}
	category := ""
	if ticket.Category != nil {
		category = *ticket.Category
	}
	assigneeID, err := s.RouteTicket(ctx, *ticket.TenantID, category)
	if err != nil {
		return err
	}
	if assigneeID == "" {
		return nil
	}
	if err := s.tickets.UpdateAssignee(ctx, ticket.ID, &assigneeID); err != nil {
		return err
	}
	ticket.AssigneeID = &assigneeID
	s.publishAssigned(ctx, events.Actor{System: true}, ticket)
	return nil
}

// AssignTicketToAgent assigns a ticket to a specific agent on behalf of the
// acting manager. The actor needs assignment privileges; the agent must be
// active and eligible for the ticket's tenant unless the actor is
// global-admin.
func (s *RoutingService) AssignTicketToAgent(ctx context.Context, actor *auth.AuthContext, ticketID, agentID string) (*domain.Ticket, error) {
	if err := auth.RequireOperation(actor, auth.OpAssignTickets); err != nil {
		return nil, err
	}

	agent, err := s.users.GetByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("agent", map[string]any{"agent_id": agentID})
		}
		return nil, apperrors.MapError(err)
	}
	if !agent.IsActive {
		return nil, apperrors.NewConflict("agent inactive", map[string]any{"agent_id": agentID})
	}
	if !agent.HasAnyRole(domain.StaffRoles()...) {
		return nil, apperrors.NewConflict("assignee is not an agent", map[string]any{"agent_id": agentID})
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	if ticket.TenantID != nil && !actor.IsGlobalAdmin {
		eligible, err := s.agentEligibleForTenant(ctx, agent.ID, *ticket.TenantID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if !eligible {
			return nil, apperrors.NewForbidden("assignee outside tenant scope")
		}
	}

	if err := s.tickets.UpdateAssignee(ctx, ticket.ID, &agent.ID); err != nil {
		return nil, apperrors.MapError(err)
	}
	ticket.AssigneeID = &agent.ID

	s.publishAssigned(ctx, events.Actor{UserID: &actor.UserID}, ticket)
	s.audit.Record(ctx, AuditEntry{
		EventType:   domain.AuditEventTicketAssigned,
		EntityType:  "ticket",
		EntityID:    &ticket.ID,
		UserID:      &actor.UserID,
		UserEmail:   actor.Email,
		Description: "ticket assigned to agent",
		Metadata:    map[string]any{"ticket_number": ticket.TicketNumber, "assignee_id": agent.ID},
	})
	return ticket, nil
}

func (s *RoutingService) agentEligibleForTenant(ctx context.Context, agentID, tenantID string) (bool, error) {
	assignments, err := s.assignments.ListByUser(ctx, agentID)
	if err != nil {
		return false, err
	}
	for _, assignment := range assignments {
		if assignment.TenantID == tenantID {
			return true, nil
		}
	}
	return false, nil
}

// publishAssigned emits the assignment event. Notification and broadcast
// consumers hang off the dispatcher; their failures never reach the caller.
func (s *RoutingService) publishAssigned(ctx context.Context, actor events.Actor, ticket *domain.Ticket) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketAssigned,
		TicketID:  ticket.ID,
		Actor:     actor,
		Timestamp: time.Now(),
		Payload: events.TicketAssignedPayload{
			AssigneeID: ticket.AssigneeID,
			TenantID:   ticket.TenantID,
		},
	})
}

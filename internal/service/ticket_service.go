package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/helpdesk-kit/helpdesk-service/internal/auth"
	"github.com/helpdesk-kit/helpdesk-service/internal/domain"
	"github.com/helpdesk-kit/helpdesk-service/internal/events"
	"github.com/helpdesk-kit/helpdesk-service/internal/repository"
	apperrors "github.com/helpdesk-kit/helpdesk-service/pkg/util"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	tenants    repository.TenantRepository
	scope      *ScopeService
	routing    *RoutingService
	audit      *AuditService
	dispatcher events.Dispatcher
	logger     *zap.Logger
	autoRoute  bool
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	TenantRepo repository.TenantRepository
	Scope      *ScopeService
	Routing    *RoutingService
	Audit      *AuditService
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	AutoRoute  bool
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	TenantID    *string
	Category    *string
	Subject     string
	Description string
	Priority    domain.TicketPriority
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		tenants:    deps.TenantRepo,
		scope:      deps.Scope,
		routing:    deps.Routing,
		audit:      deps.Audit,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		autoRoute:  deps.AutoRoute,
	}
}

// CreateTicket creates a ticket for an authenticated requester.
func (s *TicketService) CreateTicket(ctx context.Context, requesterID string, input TicketCreateInput) (*domain.Ticket, error) {
	return s.create(ctx, &requesterID, nil, input)
}

// CreatePublicTicket creates a ticket owned by an anonymous public id. The
// tenant must allow submissions without login.
func (s *TicketService) CreatePublicTicket(ctx context.Context, publicID string, input TicketCreateInput) (*domain.Ticket, error) {
	if input.TenantID != nil {
		tenant, err := s.tenants.GetByID(ctx, *input.TenantID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("tenant", map[string]any{"tenant_id": *input.TenantID})
			}
			return nil, apperrors.MapError(err)
		}
		if tenant.RequiresLogin {
			return nil, apperrors.NewForbidden("tenant requires login")
		}
	}
	return s.create(ctx, nil, &publicID, input)
}

func (s *TicketService) create(ctx context.Context, requesterID, publicID *string, input TicketCreateInput) (*domain.Ticket, error) {
	if strings.TrimSpace(input.Subject) == "" {
		return nil, apperrors.NewValidationError("subject is required", nil)
	}
	if input.TenantID != nil {
		tenant, err := s.tenants.GetByID(ctx, *input.TenantID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("tenant", map[string]any{"tenant_id": *input.TenantID})
			}
			return nil, apperrors.MapError(err)
		}
		if !tenant.IsActive {
			return nil, apperrors.NewConflict("tenant inactive", map[string]any{"tenant_id": tenant.ID})
		}
	}

	number, err := s.nextTicketNumber(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	ticket := &domain.Ticket{
		TicketNumber: number,
		RequesterID:  requesterID,
		PublicID:     publicID,
		TenantID:     input.TenantID,
		Category:     input.Category,
		Subject:      strings.TrimSpace(input.Subject),
		Description:  strings.TrimSpace(input.Description),
		Status:       domain.TicketStatusNew,
		Priority:     input.Priority,
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityMedium
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.Actor{UserID: requesterID, PublicID: publicID},
		Payload: events.TicketCreatedPayload{
			TicketNumber: ticket.TicketNumber,
			TenantID:     ticket.TenantID,
			Category:     ticket.Category,
			Priority:     ticket.Priority,
			Subject:      ticket.Subject,
		},
	})

	if s.autoRoute && s.routing != nil && ticket.TenantID != nil {
		// routing failures leave the ticket unassigned rather than failing
		// the creation
		if err := s.routing.AutoRoute(ctx, ticket); err != nil {
			s.logger.Warn("auto-route failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
		}
	}
	return ticket, nil
}

// ListUserTickets returns tickets requested by the user.
func (s *TicketService) ListUserTickets(ctx context.Context, userID string, limit, offset int) ([]domain.Ticket, error) {
	return s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		RequesterID: &userID,
		Limit:       limit,
		Offset:      offset,
	})
}

// ListPublicTickets returns tickets owned by an anonymous public id.
func (s *TicketService) ListPublicTickets(ctx context.Context, publicID string, limit, offset int) ([]domain.Ticket, error) {
	return s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		PublicID: &publicID,
		Limit:    limit,
		Offset:   offset,
	})
}

// ListAgentTickets returns tickets within the agent's visible tenants. Admins
// and global-admins see everything.
func (s *TicketService) ListAgentTickets(ctx context.Context, actor *auth.AuthContext, filter repository.TicketFilter) ([]domain.Ticket, error) {
	if err := auth.RequireOperation(actor, auth.OpWorkTickets); err != nil {
		return nil, err
	}
	if !actor.IsGlobalAdmin && !actor.HasRole(domain.RoleAdmin) {
		tenantIDs, err := s.scope.AgentVisibleTenantIDs(ctx, actor.UserID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if len(tenantIDs) == 0 {
			return []domain.Ticket{}, nil
		}
		filter.TenantIDs = tenantIDs
		filter.TenantID = nil
	}
	return s.tickets.ListWithFilter(ctx, filter)
}

// GetTicketForUser fetches a ticket ensuring requester ownership.
func (s *TicketService) GetTicketForUser(ctx context.Context, userID, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.RequesterID == nil || *ticket.RequesterID != userID {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}

// GetTicketForAgent fetches a ticket ensuring tenant visibility.
func (s *TicketService) GetTicketForAgent(ctx context.Context, actor *auth.AuthContext, ticketID string) (*domain.Ticket, error) {
	if err := auth.RequireOperation(actor, auth.OpWorkTickets); err != nil {
		return nil, err
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.requireTicketVisible(ctx, actor, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// UpdateStatus transitions a ticket's status on behalf of an agent. ClosedAt
// is set exactly when the ticket transitions to CLOSED and cleared on reopen.
func (s *TicketService) UpdateStatus(ctx context.Context, actor *auth.AuthContext, ticketID string, newStatus domain.TicketStatus, comment string) (*domain.Ticket, error) {
	if err := auth.RequireOperation(actor, auth.OpWorkTickets); err != nil {
		return nil, err
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.requireTicketVisible(ctx, actor, ticket); err != nil {
		return nil, err
	}
	if !isValidTransition(ticket.Status, newStatus) {
		return nil, apperrors.NewConflict("invalid status transition", map[string]any{
			"from": ticket.Status,
			"to":   newStatus,
		})
	}

	oldStatus := ticket.Status
	if newStatus == domain.TicketStatusClosed {
		now := time.Now()
		ticket.ClosedAt = &now
	} else if ticket.ClosedAt != nil {
		ticket.ClosedAt = nil
	}
	ticket.Status = newStatus
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    events.Actor{UserID: &actor.UserID},
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
			Comment:   comment,
		},
	})
	s.audit.Record(ctx, AuditEntry{
		EventType:      domain.AuditEventTicketStatus,
		EntityType:     "ticket",
		EntityID:       &ticket.ID,
		UserID:         &actor.UserID,
		UserEmail:      actor.Email,
		OrganizationID: actor.OrganizationID,
		Description:    "ticket status changed",
		Metadata: map[string]any{
			"ticket_number": ticket.TicketNumber,
			"old_status":    oldStatus,
			"new_status":    newStatus,
		},
	})
	return ticket, nil
}

// CloseTicketAsUser lets the requester close a resolved or waiting ticket.
func (s *TicketService) CloseTicketAsUser(ctx context.Context, userID, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.GetTicketForUser(ctx, userID, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != domain.TicketStatusResolved && ticket.Status != domain.TicketStatusPendingUser {
		return nil, apperrors.NewConflict("ticket cannot be closed in current status", map[string]any{
			"status": ticket.Status,
		})
	}
	now := time.Now()
	oldStatus := ticket.Status
	ticket.Status = domain.TicketStatusClosed
	ticket.ClosedAt = &now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    events.Actor{UserID: &userID},
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: ticket.Status,
			Comment:   "closed by requester",
		},
	})
	return ticket, nil
}

// UpdatePriority changes ticket priority on behalf of an agent.
func (s *TicketService) UpdatePriority(ctx context.Context, actor *auth.AuthContext, ticketID string, newPriority domain.TicketPriority) (*domain.Ticket, error) {
	if err := auth.RequireOperation(actor, auth.OpWorkTickets); err != nil {
		return nil, err
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.requireTicketVisible(ctx, actor, ticket); err != nil {
		return nil, err
	}
	ticket.Priority = newPriority
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) getTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) requireTicketVisible(ctx context.Context, actor *auth.AuthContext, ticket *domain.Ticket) error {
	if actor.IsGlobalAdmin || actor.HasRole(domain.RoleAdmin) {
		return nil
	}
	if ticket.TenantID == nil {
		// unscoped tickets are only visible to their current assignee
		if ticket.AssigneeID != nil && *ticket.AssigneeID == actor.UserID {
			return nil
		}
		return apperrors.NewForbidden("access denied")
	}
	tenantIDs, err := s.scope.AgentVisibleTenantIDs(ctx, actor.UserID)
	if err != nil {
		return apperrors.MapError(err)
	}
	for _, id := range tenantIDs {
		if id == *ticket.TenantID {
			return nil
		}
	}
	return apperrors.NewForbidden("access denied")
}

// nextTicketNumber generates a human-readable number of the form
// TKT-<year>-<4 digits>. The random suffix can collide, so each candidate is
// checked against the store; after maxNumberAttempts the suffix widens to an
// 8-char unique fragment.
func (s *TicketService) nextTicketNumber(ctx context.Context) (string, error) {
	const maxNumberAttempts = 5
	year := time.Now().Year()
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		candidate := fmt.Sprintf("TKT-%d-%04d", year, rand.Intn(10000))
		_, err := s.tickets.GetByNumber(ctx, candidate)
		if errors.Is(err, pgx.ErrNoRows) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
	}
	wide := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("TKT-%d-%s", year, wide), nil
}

var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusNew:         {domain.TicketStatusInProgress, domain.TicketStatusCancelled},
	domain.TicketStatusInProgress:  {domain.TicketStatusPendingUser, domain.TicketStatusResolved, domain.TicketStatusCancelled},
	domain.TicketStatusPendingUser: {domain.TicketStatusInProgress, domain.TicketStatusResolved, domain.TicketStatusCancelled},
	domain.TicketStatusResolved:    {domain.TicketStatusClosed, domain.TicketStatusInProgress},
	domain.TicketStatusClosed:      {},
	domain.TicketStatusCancelled:   {},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

package service

import (
	"context"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/helpdesk-kit/helpdesk-service/internal/auth"
	"github.com/helpdesk-kit/helpdesk-service/internal/domain"
	"github.com/helpdesk-kit/helpdesk-service/internal/repository"
)

type ticketFixture struct {
	svc         *TicketService
	tickets     *fakeTicketRepo
	tenants     *fakeTenantRepo
	users       *fakeUserRepo
	assignments *fakeAssignmentRepo
	audit       *fakeAuditRepo
}

func newTicketFixture(t *testing.T, autoRoute bool) *ticketFixture {
	t.Helper()
	tickets := &fakeTicketRepo{}
	tenants := &fakeTenantRepo{}
	users := &fakeUserRepo{}
	assignments := &fakeAssignmentRepo{}
	auditRepo := &fakeAuditRepo{}
	auditSvc := NewAuditService(auditRepo, zap.NewNop())

	scope := NewScopeService(ScopeDependencies{
		UserRepo:       users,
		TenantRepo:     tenants,
		AssignmentRepo: assignments,
	})
	routing := NewRoutingService(RoutingDependencies{
		TicketRepo:     tickets,
		UserRepo:       users,
		AssignmentRepo: assignments,
		Audit:          auditSvc,
	})
	svc := NewTicketService(TicketDependencies{
		TicketRepo: tickets,
		TenantRepo: tenants,
		Scope:      scope,
		Routing:    routing,
		Audit:      auditSvc,
		Logger:     zap.NewNop(),
		AutoRoute:  autoRoute,
	})
	return &ticketFixture{
		svc:         svc,
		tickets:     tickets,
		tenants:     tenants,
		users:       users,
		assignments: assignments,
		audit:       auditRepo,
	}
}

var ticketNumberPattern = regexp.MustCompile(`^TKT-\d{4}-[0-9A-F]{4,8}$`)

func TestCreateTicketAssignsNumberAndDefaults(t *testing.T) {
	f := newTicketFixture(t, false)

	ticket, err := f.svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{Subject: "  printer on fire  "})
	require.NoError(t, err)
	require.Regexp(t, ticketNumberPattern, ticket.TicketNumber)
	require.Equal(t, "printer on fire", ticket.Subject)
	require.Equal(t, domain.TicketStatusNew, ticket.Status)
	require.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
	require.NotNil(t, ticket.RequesterID)
	require.Equal(t, "user-1", *ticket.RequesterID)
	require.Nil(t, ticket.PublicID)
}

func TestCreateTicketRejectsBlankSubject(t *testing.T) {
	f := newTicketFixture(t, false)

	_, err := f.svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{Subject: "   "})
	requireDomainStatus(t, err, http.StatusBadRequest)
}

func TestCreateTicketRejectsInactiveTenant(t *testing.T) {
	f := newTicketFixture(t, false)
	f.tenants.add(&domain.Tenant{ID: "tenant-1", IsActive: false})

	_, err := f.svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{
		Subject:  "help",
		TenantID: ptr("tenant-1"),
	})
	requireDomainStatus(t, err, http.StatusConflict)
}

func TestCreateTicketUnknownTenant(t *testing.T) {
	f := newTicketFixture(t, false)

	_, err := f.svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{
		Subject:  "help",
		TenantID: ptr("missing"),
	})
	requireDomainStatus(t, err, http.StatusNotFound)
}

func TestCreateTicketAutoRoutesToIdleAgent(t *testing.T) {
	f := newTicketFixture(t, true)
	f.tenants.add(&domain.Tenant{ID: "tenant-1", IsActive: true})
	f.users.add(&domain.User{ID: "agent-x", IsActive: true, Roles: []domain.RoleName{domain.RoleAgent}})
	f.users.add(&domain.User{ID: "agent-y", IsActive: true, Roles: []domain.RoleName{domain.RoleAgent}})
	f.assignments.add("agent-x", "tenant-1", nil)
	f.assignments.add("agent-y", "tenant-1", nil)
	for i := 0; i < 2; i++ {
		busy := &domain.Ticket{TicketNumber: "TKT-B", Subject: "busy", Status: domain.TicketStatusInProgress, AssigneeID: ptr("agent-y")}
		require.NoError(t, f.tickets.Create(context.Background(), busy))
	}

	ticket, err := f.svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{
		Subject:  "vpn broken",
		TenantID: ptr("tenant-1"),
	})
	require.NoError(t, err)
	require.NotNil(t, ticket.AssigneeID)
	require.Equal(t, "agent-x", *ticket.AssigneeID)
}

func TestCreatePublicTicketHonorsRequiresLogin(t *testing.T) {
	f := newTicketFixture(t, false)
	f.tenants.add(&domain.Tenant{ID: "tenant-open", IsActive: true, RequiresLogin: false})
	f.tenants.add(&domain.Tenant{ID: "tenant-locked", IsActive: true, RequiresLogin: true})

	ticket, err := f.svc.CreatePublicTicket(context.Background(), "pub-1", TicketCreateInput{
		Subject:  "anonymous request",
		TenantID: ptr("tenant-open"),
	})
	require.NoError(t, err)
	require.Nil(t, ticket.RequesterID)
	require.NotNil(t, ticket.PublicID)
	require.Equal(t, "pub-1", *ticket.PublicID)

	_, err = f.svc.CreatePublicTicket(context.Background(), "pub-1", TicketCreateInput{
		Subject:  "anonymous request",
		TenantID: ptr("tenant-locked"),
	})
	requireDomainStatus(t, err, http.StatusForbidden)
}

func TestListTicketsScopedByOwnership(t *testing.T) {
	f := newTicketFixture(t, false)
	_, err := f.svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{Subject: "mine"})
	require.NoError(t, err)
	_, err = f.svc.CreateTicket(context.Background(), "user-2", TicketCreateInput{Subject: "theirs"})
	require.NoError(t, err)
	_, err = f.svc.CreatePublicTicket(context.Background(), "pub-1", TicketCreateInput{Subject: "anon"})
	require.NoError(t, err)

	mine, err := f.svc.ListUserTickets(context.Background(), "user-1", 50, 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, "mine", mine[0].Subject)

	anon, err := f.svc.ListPublicTickets(context.Background(), "pub-1", 50, 0)
	require.NoError(t, err)
	require.Len(t, anon, 1)
	require.Equal(t, "anon", anon[0].Subject)
}

func TestListAgentTicketsScopedToVisibleTenants(t *testing.T) {
	f := newTicketFixture(t, false)
	f.tenants.add(&domain.Tenant{ID: "tenant-1", IsActive: true})
	f.tenants.add(&domain.Tenant{ID: "tenant-2", IsActive: true})
	f.assignments.add("agent-1", "tenant-1", nil)

	for _, tenantID := range []string{"tenant-1", "tenant-2"} {
		_, err := f.svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{
			Subject:  "in " + tenantID,
			TenantID: ptr(tenantID),
		})
		require.NoError(t, err)
	}

	agent := &auth.AuthContext{UserID: "agent-1", Roles: []domain.RoleName{domain.RoleAgent}}
	visible, err := f.svc.ListAgentTickets(context.Background(), agent, repository.TicketFilter{})
	require.NoError(t, err)
	require.Len(t, visible, 1)
	require.Equal(t, "in tenant-1", visible[0].Subject)

	admin := &auth.AuthContext{UserID: "admin-1", Roles: []domain.RoleName{domain.RoleAdmin}}
	all, err := f.svc.ListAgentTickets(context.Background(), admin, repository.TicketFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestListAgentTicketsNoAssignmentsYieldsEmpty(t *testing.T) {
	f := newTicketFixture(t, false)
	_, err := f.svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{Subject: "x"})
	require.NoError(t, err)

	agent := &auth.AuthContext{UserID: "agent-alone", Roles: []domain.RoleName{domain.RoleAgent}}
	visible, err := f.svc.ListAgentTickets(context.Background(), agent, repository.TicketFilter{})
	require.NoError(t, err)
	require.Empty(t, visible)
}

func TestGetTicketForUserEnforcesOwnership(t *testing.T) {
	f := newTicketFixture(t, false)
	ticket, err := f.svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{Subject: "mine"})
	require.NoError(t, err)

	got, err := f.svc.GetTicketForUser(context.Background(), "user-1", ticket.ID)
	require.NoError(t, err)
	require.Equal(t, ticket.ID, got.ID)

	_, err = f.svc.GetTicketForUser(context.Background(), "user-2", ticket.ID)
	requireDomainStatus(t, err, http.StatusForbidden)
}

func TestUpdateStatusTransitions(t *testing.T) {
	f := newTicketFixture(t, false)
	f.tenants.add(&domain.Tenant{ID: "tenant-1", IsActive: true})
	f.assignments.add("agent-1", "tenant-1", nil)
	agent := &auth.AuthContext{UserID: "agent-1", Email: "a@example.com", Roles: []domain.RoleName{domain.RoleAgent}}

	ticket, err := f.svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{
		Subject:  "x",
		TenantID: ptr("tenant-1"),
	})
	require.NoError(t, err)

	updated, err := f.svc.UpdateStatus(context.Background(), agent, ticket.ID, domain.TicketStatusInProgress, "picked up")
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusInProgress, updated.Status)
	require.Nil(t, updated.ClosedAt)

	// moving back to NEW is not a legal transition
	_, err = f.svc.UpdateStatus(context.Background(), agent, ticket.ID, domain.TicketStatusNew, "")
	requireDomainStatus(t, err, http.StatusConflict)

	updated, err = f.svc.UpdateStatus(context.Background(), agent, ticket.ID, domain.TicketStatusResolved, "done")
	require.NoError(t, err)
	updated, err = f.svc.UpdateStatus(context.Background(), agent, ticket.ID, domain.TicketStatusClosed, "")
	require.NoError(t, err)
	require.NotNil(t, updated.ClosedAt)

	// closed is terminal
	_, err = f.svc.UpdateStatus(context.Background(), agent, ticket.ID, domain.TicketStatusInProgress, "")
	requireDomainStatus(t, err, http.StatusConflict)

	require.NotEmpty(t, f.audit.entries)
}

func TestUpdateStatusReopenClearsClosedAt(t *testing.T) {
	f := newTicketFixture(t, false)
	f.tenants.add(&domain.Tenant{ID: "tenant-1", IsActive: true})
	f.assignments.add("agent-1", "tenant-1", nil)
	agent := &auth.AuthContext{UserID: "agent-1", Roles: []domain.RoleName{domain.RoleAgent}}

	ticket, err := f.svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{
		Subject:  "x",
		TenantID: ptr("tenant-1"),
	})
	require.NoError(t, err)

	// a resolved ticket carrying a stale close timestamp
	stored, err := f.tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	now := time.Now()
	stored.Status = domain.TicketStatusResolved
	stored.ClosedAt = &now
	require.NoError(t, f.tickets.Update(context.Background(), stored))

	reopened, err := f.svc.UpdateStatus(context.Background(), agent, ticket.ID, domain.TicketStatusInProgress, "reopened")
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusInProgress, reopened.Status)
	require.Nil(t, reopened.ClosedAt)
}

func TestCloseTicketAsUserSetsClosedAt(t *testing.T) {
	f := newTicketFixture(t, false)
	f.tenants.add(&domain.Tenant{ID: "tenant-1", IsActive: true})
	f.assignments.add("agent-1", "tenant-1", nil)
	agent := &auth.AuthContext{UserID: "agent-1", Roles: []domain.RoleName{domain.RoleAgent}}

	ticket, err := f.svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{
		Subject:  "x",
		TenantID: ptr("tenant-1"),
	})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), agent, ticket.ID, domain.TicketStatusInProgress, "")
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(context.Background(), agent, ticket.ID, domain.TicketStatusResolved, "")
	require.NoError(t, err)

	closed, err := f.svc.CloseTicketAsUser(context.Background(), "user-1", ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, closed.ClosedAt)
	require.Equal(t, domain.TicketStatusClosed, closed.Status)
}

func TestUpdateStatusInvisibleTenantIsForbidden(t *testing.T) {
	f := newTicketFixture(t, false)
	f.tenants.add(&domain.Tenant{ID: "tenant-1", IsActive: true})
	agent := &auth.AuthContext{UserID: "agent-outside", Roles: []domain.RoleName{domain.RoleAgent}}

	ticket, err := f.svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{
		Subject:  "x",
		TenantID: ptr("tenant-1"),
	})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), agent, ticket.ID, domain.TicketStatusInProgress, "")
	requireDomainStatus(t, err, http.StatusForbidden)
}

func TestUnscopedTicketVisibleOnlyToAssignee(t *testing.T) {
	f := newTicketFixture(t, false)
	ticket, err := f.svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{Subject: "no tenant"})
	require.NoError(t, err)
	require.NoError(t, f.tickets.UpdateAssignee(context.Background(), ticket.ID, ptr("agent-1")))

	assignee := &auth.AuthContext{UserID: "agent-1", Roles: []domain.RoleName{domain.RoleAgent}}
	got, err := f.svc.GetTicketForAgent(context.Background(), assignee, ticket.ID)
	require.NoError(t, err)
	require.Equal(t, ticket.ID, got.ID)

	other := &auth.AuthContext{UserID: "agent-2", Roles: []domain.RoleName{domain.RoleAgent}}
	_, err = f.svc.GetTicketForAgent(context.Background(), other, ticket.ID)
	requireDomainStatus(t, err, http.StatusForbidden)
}

func TestCloseTicketAsUserOnlyFromResolvedOrPending(t *testing.T) {
	f := newTicketFixture(t, false)
	ticket, err := f.svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{Subject: "x"})
	require.NoError(t, err)

	_, err = f.svc.CloseTicketAsUser(context.Background(), "user-1", ticket.ID)
	requireDomainStatus(t, err, http.StatusConflict)
}

func TestUpdatePriority(t *testing.T) {
	f := newTicketFixture(t, false)
	admin := &auth.AuthContext{UserID: "admin-1", Roles: []domain.RoleName{domain.RoleAdmin}}
	ticket, err := f.svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{Subject: "x"})
	require.NoError(t, err)

	updated, err := f.svc.UpdatePriority(context.Background(), admin, ticket.ID, domain.TicketPriorityCritical)
	require.NoError(t, err)
	require.Equal(t, domain.TicketPriorityCritical, updated.Priority)
}

func TestTicketNumbersAreUniquePerCreate(t *testing.T) {
	f := newTicketFixture(t, false)
	seen := map[string]struct{}{}
	for i := 0; i < 30; i++ {
		ticket, err := f.svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{Subject: "n"})
		require.NoError(t, err)
		_, dup := seen[ticket.TicketNumber]
		require.False(t, dup, "duplicate ticket number %s", ticket.TicketNumber)
		seen[ticket.TicketNumber] = struct{}{}
	}
}

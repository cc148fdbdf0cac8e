package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/helpdesk-kit/helpdesk-service/internal/domain"
	"github.com/helpdesk-kit/helpdesk-service/internal/repository"
)

// In-memory repositories backing the service tests. Slices keep insertion
// order so routing tie-breaks stay deterministic.

type fakeUserRepo struct {
	users  []*domain.User
	nextID int
}

func (f *fakeUserRepo) add(user *domain.User) *domain.User {
	if user.ID == "" {
		f.nextID++
		user.ID = fmt.Sprintf("user-%d", f.nextID)
	}
	f.users = append(f.users, user)
	return user
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	f.add(user)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) SetActive(ctx context.Context, id string, active bool) error {
	u, err := f.GetByID(ctx, id)
	if err != nil {
		return err
	}
	u.IsActive = active
	return nil
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	u, err := f.GetByID(ctx, id)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeUserRepo) GrantRole(ctx context.Context, id string, role domain.RoleName) error {
	u, err := f.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !u.HasRole(role) {
		u.Roles = append(u.Roles, role)
	}
	return nil
}

func (f *fakeUserRepo) ListByTenants(ctx context.Context, tenantIDs []string) ([]domain.User, error) {
	out := []domain.User{}
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

type fakeTicketRepo struct {
	tickets  []*domain.Ticket
	nextID   int
	failNext error
}

func (f *fakeTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	f.nextID++
	ticket.ID = fmt.Sprintf("ticket-%d", f.nextID)
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	copied := *ticket
	f.tickets = append(f.tickets, &copied)
	return nil
}

func (f *fakeTicketRepo) Update(ctx context.Context, ticket *domain.Ticket) error {
	for i, t := range f.tickets {
		if t.ID == ticket.ID {
			copied := *ticket
			f.tickets[i] = &copied
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	for _, t := range f.tickets {
		if t.ID == id {
			copied := *t
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTicketRepo) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	for _, t := range f.tickets {
		if t.TicketNumber == number {
			copied := *t
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTicketRepo) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	out := []domain.Ticket{}
	for _, t := range f.tickets {
		if filter.RequesterID != nil && (t.RequesterID == nil || *t.RequesterID != *filter.RequesterID) {
			continue
		}
		if filter.PublicID != nil && (t.PublicID == nil || *t.PublicID != *filter.PublicID) {
			continue
		}
		if filter.TenantID != nil && (t.TenantID == nil || *t.TenantID != *filter.TenantID) {
			continue
		}
		if len(filter.TenantIDs) > 0 {
			if t.TenantID == nil || !containsString(filter.TenantIDs, *t.TenantID) {
				continue
			}
		}
		if filter.AssigneeID != nil && (t.AssigneeID == nil || *t.AssigneeID != *filter.AssigneeID) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, t.Status) {
			continue
		}
		if filter.SearchTerm != nil && !strings.Contains(strings.ToLower(t.Subject), strings.ToLower(*filter.SearchTerm)) {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeTicketRepo) CountOpenByAssignee(ctx context.Context, assigneeID string) (int, error) {
	count := 0
	for _, t := range f.tickets {
		if t.AssigneeID != nil && *t.AssigneeID == assigneeID && t.IsOpen() {
			count++
		}
	}
	return count, nil
}

func (f *fakeTicketRepo) UpdateAssignee(ctx context.Context, id string, assigneeID *string) error {
	for _, t := range f.tickets {
		if t.ID == id {
			t.AssigneeID = assigneeID
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeTicketRepo) ReassignPublicTickets(ctx context.Context, publicID, userID string) (int, error) {
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return 0, err
	}
	count := 0
	for _, t := range f.tickets {
		if t.PublicID != nil && *t.PublicID == publicID && t.RequesterID == nil {
			uid := userID
			t.RequesterID = &uid
			t.PublicID = nil
			count++
		}
	}
	return count, nil
}

type fakeAssignmentRepo struct {
	assignments []domain.TenantAssignment
	nextID      int
}

func (f *fakeAssignmentRepo) add(userID, tenantID string, category *string) {
	f.nextID++
	f.assignments = append(f.assignments, domain.TenantAssignment{
		ID:        fmt.Sprintf("assign-%d", f.nextID),
		UserID:    userID,
		TenantID:  tenantID,
		Category:  category,
		CreatedAt: time.Now(),
	})
}

func (f *fakeAssignmentRepo) Create(ctx context.Context, assignment *domain.TenantAssignment) error {
	f.nextID++
	assignment.ID = fmt.Sprintf("assign-%d", f.nextID)
	assignment.CreatedAt = time.Now()
	f.assignments = append(f.assignments, *assignment)
	return nil
}

func (f *fakeAssignmentRepo) Delete(ctx context.Context, id string) error {
	for i, a := range f.assignments {
		if a.ID == id {
			f.assignments = append(f.assignments[:i], f.assignments[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeAssignmentRepo) ListEligible(ctx context.Context, tenantID, category string) ([]domain.TenantAssignment, error) {
	out := []domain.TenantAssignment{}
	for _, a := range f.assignments {
		if a.TenantID == tenantID && a.Matches(category) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAssignmentRepo) ListByUser(ctx context.Context, userID string) ([]domain.TenantAssignment, error) {
	out := []domain.TenantAssignment{}
	for _, a := range f.assignments {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAssignmentRepo) ListByTenant(ctx context.Context, tenantID string) ([]domain.TenantAssignment, error) {
	out := []domain.TenantAssignment{}
	for _, a := range f.assignments {
		if a.TenantID == tenantID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeTenantRepo struct {
	tenants []*domain.Tenant
	nextID  int
}

func (f *fakeTenantRepo) add(tenant *domain.Tenant) *domain.Tenant {
	if tenant.ID == "" {
		f.nextID++
		tenant.ID = fmt.Sprintf("tenant-%d", f.nextID)
	}
	f.tenants = append(f.tenants, tenant)
	return tenant
}

func (f *fakeTenantRepo) Create(ctx context.Context, tenant *domain.Tenant) error {
	f.add(tenant)
	tenant.CreatedAt = time.Now()
	tenant.UpdatedAt = tenant.CreatedAt
	return nil
}

func (f *fakeTenantRepo) Update(ctx context.Context, tenant *domain.Tenant) error {
	for i, t := range f.tenants {
		if t.ID == tenant.ID {
			f.tenants[i] = tenant
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeTenantRepo) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	for _, t := range f.tenants {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTenantRepo) ListByOrganization(ctx context.Context, organizationID string) ([]domain.Tenant, error) {
	out := []domain.Tenant{}
	for _, t := range f.tenants {
		if t.OrganizationID != nil && *t.OrganizationID == organizationID {
			out = append(out, *t)
		}
	}
	return out, nil
}

type fakeAuditRepo struct {
	entries []domain.AuditLog
	failErr error
}

func (f *fakeAuditRepo) Append(ctx context.Context, entry *domain.AuditLog) error {
	if f.failErr != nil {
		return f.failErr
	}
	entry.ID = fmt.Sprintf("audit-%d", len(f.entries)+1)
	entry.CreatedAt = time.Now()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) ListByOrganization(ctx context.Context, organizationID string, limit, offset int) ([]domain.AuditLog, error) {
	out := []domain.AuditLog{}
	for _, e := range f.entries {
		if e.OrganizationID != nil && *e.OrganizationID == organizationID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeAuditRepo) DeleteOlderThan(ctx context.Context, organizationID string, cutoff time.Time) (int, error) {
	kept := f.entries[:0]
	removed := 0
	for _, e := range f.entries {
		if e.OrganizationID != nil && *e.OrganizationID == organizationID && e.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	f.entries = kept
	return removed, nil
}

func containsString(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

func containsStatus(list []domain.TicketStatus, value domain.TicketStatus) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

func ptr[T any](v T) *T { return &v }

package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/helpdesk-kit/helpdesk-service/internal/domain"
)

// AssignmentRepository encapsulates tenant-assignment persistence.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *domain.TenantAssignment) error
	Delete(ctx context.Context, id string) error
	// ListEligible returns assignments for the tenant whose category equals
	// the given one or is tenant-wide (NULL). The order is stable
	// (created_at, then id) so routing tie-breaks are deterministic.
	ListEligible(ctx context.Context, tenantID, category string) ([]domain.TenantAssignment, error)
	ListByUser(ctx context.Context, userID string) ([]domain.TenantAssignment, error)
	ListByTenant(ctx context.Context, tenantID string) ([]domain.TenantAssignment, error)
}

type assignmentRepository struct {
	pool PgxPool
}

// NewAssignmentRepository instantiates the repository.
func NewAssignmentRepository(pool PgxPool) AssignmentRepository {
	return &assignmentRepository{pool: pool}
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *domain.TenantAssignment) error {
	const query = `
        INSERT INTO tenant_assignments (user_id, tenant_id, category)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		assignment.UserID,
		assignment.TenantID,
		assignment.Category,
	).Scan(&assignment.ID, &assignment.CreatedAt)
}

func (r *assignmentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM tenant_assignments WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *assignmentRepository) ListEligible(ctx context.Context, tenantID, category string) ([]domain.TenantAssignment, error) {
	const query = `
        SELECT id, user_id, tenant_id, category, created_at
        FROM tenant_assignments
        WHERE tenant_id=$1 AND (category=$2 OR category IS NULL)
        ORDER BY created_at, id`
	return r.list(ctx, query, tenantID, category)
}

func (r *assignmentRepository) ListByUser(ctx context.Context, userID string) ([]domain.TenantAssignment, error) {
	const query = `
        SELECT id, user_id, tenant_id, category, created_at
        FROM tenant_assignments
        WHERE user_id=$1
        ORDER BY created_at, id`
	return r.list(ctx, query, userID)
}

func (r *assignmentRepository) ListByTenant(ctx context.Context, tenantID string) ([]domain.TenantAssignment, error) {
	const query = `
        SELECT id, user_id, tenant_id, category, created_at
        FROM tenant_assignments
        WHERE tenant_id=$1
        ORDER BY created_at, id`
	return r.list(ctx, query, tenantID)
}

func (r *assignmentRepository) list(ctx context.Context, query string, args ...any) ([]domain.TenantAssignment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TenantAssignment
	for rows.Next() {
		var assignment domain.TenantAssignment
		if err := rows.Scan(
			&assignment.ID,
			&assignment.UserID,
			&assignment.TenantID,
			&assignment.Category,
			&assignment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, assignment)
	}
	return result, rows.Err()
}

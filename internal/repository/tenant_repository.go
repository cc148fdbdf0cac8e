package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/helpdesk-kit/helpdesk-service/internal/domain"
)

// OrganizationRepository encapsulates organization persistence.
type OrganizationRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Organization, error)
	List(ctx context.Context) ([]domain.Organization, error)
}

type organizationRepository struct {
	pool PgxPool
}

// NewOrganizationRepository instantiates the repository.
func NewOrganizationRepository(pool PgxPool) OrganizationRepository {
	return &organizationRepository{pool: pool}
}

func (r *organizationRepository) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	const query = `
        SELECT id, name, audit_retention_days, created_at, updated_at
        FROM organizations WHERE id=$1`
	var org domain.Organization
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&org.ID,
		&org.Name,
		&org.AuditRetentionDays,
		&org.CreatedAt,
		&org.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *organizationRepository) List(ctx context.Context) ([]domain.Organization, error) {
	const query = `
        SELECT id, name, audit_retention_days, created_at, updated_at
        FROM organizations ORDER BY id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Organization
	for rows.Next() {
		var org domain.Organization
		if err := rows.Scan(
			&org.ID,
			&org.Name,
			&org.AuditRetentionDays,
			&org.CreatedAt,
			&org.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, org)
	}
	return result, rows.Err()
}

// TenantRepository encapsulates tenant persistence.
type TenantRepository interface {
	Create(ctx context.Context, tenant *domain.Tenant) error
	Update(ctx context.Context, tenant *domain.Tenant) error
	GetByID(ctx context.Context, id string) (*domain.Tenant, error)
	ListByOrganization(ctx context.Context, organizationID string) ([]domain.Tenant, error)
}

type tenantRepository struct {
	pool PgxPool
}

// NewTenantRepository instantiates the repository.
func NewTenantRepository(pool PgxPool) TenantRepository {
	return &tenantRepository{pool: pool}
}

func (r *tenantRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	const query = `
        INSERT INTO tenants (organization_id, name, is_active, requires_login, categories)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		tenant.OrganizationID,
		tenant.Name,
		tenant.IsActive,
		tenant.RequiresLogin,
		tenant.Categories,
	).Scan(&tenant.ID, &tenant.CreatedAt, &tenant.UpdatedAt)
}

func (r *tenantRepository) Update(ctx context.Context, tenant *domain.Tenant) error {
	const query = `
        UPDATE tenants SET name=$1, is_active=$2, requires_login=$3, categories=$4, updated_at=NOW()
        WHERE id=$5`
	cmd, err := r.pool.Exec(ctx, query,
		tenant.Name,
		tenant.IsActive,
		tenant.RequiresLogin,
		tenant.Categories,
		tenant.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *tenantRepository) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	const query = `
        SELECT id, organization_id, name, is_active, requires_login, categories, created_at, updated_at
        FROM tenants WHERE id=$1`
	var tenant domain.Tenant
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&tenant.ID,
		&tenant.OrganizationID,
		&tenant.Name,
		&tenant.IsActive,
		&tenant.RequiresLogin,
		&tenant.Categories,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *tenantRepository) ListByOrganization(ctx context.Context, organizationID string) ([]domain.Tenant, error) {
	const query = `
        SELECT id, organization_id, name, is_active, requires_login, categories, created_at, updated_at
        FROM tenants WHERE organization_id=$1 ORDER BY created_at, id`
	rows, err := r.pool.Query(ctx, query, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Tenant
	for rows.Next() {
		var tenant domain.Tenant
		if err := rows.Scan(
			&tenant.ID,
			&tenant.OrganizationID,
			&tenant.Name,
			&tenant.IsActive,
			&tenant.RequiresLogin,
			&tenant.Categories,
			&tenant.CreatedAt,
			&tenant.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, tenant)
	}
	return result, rows.Err()
}

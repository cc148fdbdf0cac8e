package repository

import (
	"context"
	"time"

	"github.com/helpdesk-kit/helpdesk-service/internal/domain"
)

// AuditRepository appends and queries immutable audit entries. There is no
// update: entries are write-once.
type AuditRepository interface {
	Append(ctx context.Context, entry *domain.AuditLog) error
	ListByOrganization(ctx context.Context, organizationID string, limit, offset int) ([]domain.AuditLog, error)
	DeleteOlderThan(ctx context.Context, organizationID string, cutoff time.Time) (int, error)
}

type auditRepository struct {
	pool PgxPool
}

// NewAuditRepository instantiates the repository.
func NewAuditRepository(pool PgxPool) AuditRepository {
	return &auditRepository{pool: pool}
}

func (r *auditRepository) Append(ctx context.Context, entry *domain.AuditLog) error {
	const query = `
        INSERT INTO audit_logs (event_type, entity_type, entity_id, user_id, user_email, description, metadata, ip_address, user_agent, organization_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.EventType,
		entry.EntityType,
		entry.EntityID,
		entry.UserID,
		entry.UserEmail,
		entry.Description,
		entry.Metadata,
		entry.IPAddress,
		entry.UserAgent,
		entry.OrganizationID,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *auditRepository) ListByOrganization(ctx context.Context, organizationID string, limit, offset int) ([]domain.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, event_type, entity_type, entity_id, user_id, user_email, description, metadata, ip_address, user_agent, organization_id, created_at
        FROM audit_logs
        WHERE organization_id=$1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, organizationID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AuditLog
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(
			&entry.ID,
			&entry.EventType,
			&entry.EntityType,
			&entry.EntityID,
			&entry.UserID,
			&entry.UserEmail,
			&entry.Description,
			&entry.Metadata,
			&entry.IPAddress,
			&entry.UserAgent,
			&entry.OrganizationID,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *auditRepository) DeleteOlderThan(ctx context.Context, organizationID string, cutoff time.Time) (int, error) {
	const query = `DELETE FROM audit_logs WHERE organization_id=$1 AND created_at < $2`
	cmd, err := r.pool.Exec(ctx, query, organizationID, cutoff)
	if err != nil {
		return 0, err
	}
	return int(cmd.RowsAffected()), nil
}

package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/helpdesk-kit/helpdesk-service/internal/domain"
	"github.com/helpdesk-kit/helpdesk-service/internal/repository"
)

// RequestMeta carries wire-level metadata for audit entries.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// AuditEntry is the recorder's input. EntityID, UserID and OrganizationID are
// optional; absent request metadata defaults to "unknown".
type AuditEntry struct {
	EventType      string
	EntityType     string
	EntityID       *string
	UserID         *string
	UserEmail      string
	Description    string
	Metadata       map[string]any
	OrganizationID *string
	RequestMeta    *RequestMeta
}

// AuditService records security and administrative events. Recording is
// best-effort: a compliance-logging outage must never degrade availability,
// so every failure is swallowed and logged operationally.
type AuditService struct {
	repo   repository.AuditRepository
	logger *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(repo repository.AuditRepository, logger *zap.Logger) *AuditService {
	return &AuditService{repo: repo, logger: logger}
}

// Record appends an audit entry. It never returns or raises an error and must
// not hold any lock or transaction the triggering operation depends on.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) {
	if s == nil || s.repo == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("audit record panicked", zap.Any("panic", r), zap.String("event_type", entry.EventType))
		}
	}()

	ip, agent := "unknown", "unknown"
	if entry.RequestMeta != nil {
		if entry.RequestMeta.IPAddress != "" {
			ip = entry.RequestMeta.IPAddress
		}
		if entry.RequestMeta.UserAgent != "" {
			agent = entry.RequestMeta.UserAgent
		}
	}

	record := &domain.AuditLog{
		EventType:      entry.EventType,
		EntityType:     entry.EntityType,
		EntityID:       entry.EntityID,
		UserID:         entry.UserID,
		UserEmail:      entry.UserEmail,
		Description:    entry.Description,
		Metadata:       entry.Metadata,
		IPAddress:      ip,
		UserAgent:      agent,
		OrganizationID: entry.OrganizationID,
	}
	if err := s.repo.Append(ctx, record); err != nil {
		s.logger.Error("audit append failed",
			zap.String("event_type", entry.EventType),
			zap.String("entity_type", entry.EntityType),
			zap.Error(err))
	}
}

// List returns an organization's audit trail, newest first.
func (s *AuditService) List(ctx context.Context, organizationID string, limit, offset int) ([]domain.AuditLog, error) {
	return s.repo.ListByOrganization(ctx, organizationID, limit, offset)
}

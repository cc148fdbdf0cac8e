package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/helpdesk-kit/helpdesk-service/internal/auth"
	"github.com/helpdesk-kit/helpdesk-service/internal/config"
	"github.com/helpdesk-kit/helpdesk-service/internal/domain"
	"github.com/helpdesk-kit/helpdesk-service/internal/repository"
	apperrors "github.com/helpdesk-kit/helpdesk-service/pkg/util"
)

// AuthService coordinates registration, login and public-session flows.
type AuthService struct {
	users      repository.UserRepository
	tickets    repository.TicketRepository
	tokenMgr   *auth.TokenManager
	audit      *AuditService
	logger     *zap.Logger
	bcryptCost int
}

// AuthDependencies bundles collaborators for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	TicketRepo repository.TicketRepository
	Audit      *AuditService
	Logger     *zap.Logger
}

// LoginResult carries the authenticated user and issued session token.
type LoginResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
	// MergedTickets counts public tickets re-owned to the user on this login.
	MergedTickets int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		tickets:    deps.TicketRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTLMinutes, cfg.Auth.PublicTokenTTLHours),
		audit:      deps.Audit,
		logger:     deps.Logger,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// TokenManager exposes the codec for middleware construction.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// RegisterUser creates a new end-user account and logs it in. A valid public
// token passed alongside re-owns that public id's tickets to the new account.
func (s *AuthService) RegisterUser(ctx context.Context, name, email, password, publicToken string, meta *RequestMeta) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password are required", nil)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	user := &domain.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		Roles:        []domain.RoleName{domain.RoleEndUser},
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.audit.Record(ctx, AuditEntry{
		EventType:   domain.AuditEventRegister,
		EntityType:  "user",
		EntityID:    &user.ID,
		UserID:      &user.ID,
		UserEmail:   user.Email,
		Description: "user registered",
		RequestMeta: meta,
	})
	return s.issueSession(ctx, user, publicToken, meta)
}

// Login verifies credentials and issues a session token. Inactive users are
// rejected with the same error as bad credentials.
func (s *AuthService) Login(ctx context.Context, email, password, publicToken string, meta *RequestMeta) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if !user.IsActive {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	s.audit.Record(ctx, AuditEntry{
		EventType:      domain.AuditEventLogin,
		EntityType:     "user",
		EntityID:       &user.ID,
		UserID:         &user.ID,
		UserEmail:      user.Email,
		OrganizationID: user.OrganizationID,
		Description:    "user logged in",
		RequestMeta:    meta,
	})
	return s.issueSession(ctx, user, publicToken, meta)
}

// IssuePublicToken mints a fresh anonymous-session token.
func (s *AuthService) IssuePublicToken() (token, publicID string, err error) {
	return s.tokenMgr.GeneratePublicToken("")
}

func (s *AuthService) issueSession(ctx context.Context, user *domain.User, publicToken string, meta *RequestMeta) (*LoginResult, error) {
	token, expiresAt, err := s.tokenMgr.GenerateSessionToken(user.ID, user.Email, user.Roles)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	result := &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}

	if publicToken != "" {
		result.MergedTickets = s.mergePublicTickets(ctx, user, publicToken, meta)
	}
	return result, nil
}

// mergePublicTickets re-owns tickets created under an anonymous public token.
// The merge is best-effort: an invalid token or a store failure must not fail
// the login that triggered it.
func (s *AuthService) mergePublicTickets(ctx context.Context, user *domain.User, publicToken string, meta *RequestMeta) int {
	publicID, err := s.tokenMgr.ParsePublicToken(publicToken)
	if err != nil {
		s.logger.Debug("ignoring invalid public token on login", zap.String("user_id", user.ID))
		return 0
	}
	merged, err := s.tickets.ReassignPublicTickets(ctx, publicID, user.ID)
	if err != nil {
		s.logger.Warn("public ticket merge failed", zap.String("user_id", user.ID), zap.Error(err))
		return 0
	}
	if merged > 0 {
		s.audit.Record(ctx, AuditEntry{
			EventType:   domain.AuditEventTicketsMerged,
			EntityType:  "user",
			EntityID:    &user.ID,
			UserID:      &user.ID,
			UserEmail:   user.Email,
			Description: "anonymous tickets merged on login",
			Metadata:    map[string]any{"public_id": publicID, "count": merged},
			RequestMeta: meta,
		})
	}
	return merged
}

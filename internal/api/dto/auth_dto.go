package dto

import (
	"time"

	"github.com/helpdesk-kit/helpdesk-service/internal/domain"
)

// RegisterRequest payload.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserSummary response.
type UserSummary struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Email          string            `json:"email"`
	Roles          []domain.RoleName `json:"roles"`
	OrganizationID *string           `json:"organization_id,omitempty"`
}

// AuthResponse response.
type AuthResponse struct {
	Token         string      `json:"token"`
	ExpiresAt     time.Time   `json:"expires_at"`
	User          UserSummary `json:"user"`
	MergedTickets int         `json:"merged_tickets,omitempty"`
}

// PublicTokenResponse response.
type PublicTokenResponse struct {
	Token    string `json:"token"`
	PublicID string `json:"public_id"`
}

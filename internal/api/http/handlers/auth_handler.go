package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-kit/helpdesk-service/internal/api/dto"
	"github.com/helpdesk-kit/helpdesk-service/internal/service"
	apperrors "github.com/helpdesk-kit/helpdesk-service/pkg/util"
)

// publicTokenHeader carries the anonymous-session token an end-user held
// before logging in; tickets created under it are merged on auth.
const publicTokenHeader = "X-Public-Token"

// AuthHandler manages registration, login and public sessions.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Register POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.service.RegisterUser(c.UserContext(), req.Name, req.Email, req.Password, c.Get(publicTokenHeader), requestMeta(c))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": authResponse(result)})
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.service.Login(c.UserContext(), req.Email, req.Password, c.Get(publicTokenHeader), requestMeta(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": authResponse(result)})
}

// PublicToken POST /auth/public-token issues an anonymous session.
func (h *AuthHandler) PublicToken(c *fiber.Ctx) error {
	token, publicID, err := h.service.IssuePublicToken()
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.PublicTokenResponse{
		Token:    token,
		PublicID: publicID,
	}})
}

func authResponse(result *service.LoginResult) dto.AuthResponse {
	return dto.AuthResponse{
		Token:         result.Token,
		ExpiresAt:     result.ExpiresAt,
		MergedTickets: result.MergedTickets,
		User: dto.UserSummary{
			ID:             result.User.ID,
			Name:           result.User.Name,
			Email:          result.User.Email,
			Roles:          result.User.Roles,
			OrganizationID: result.User.OrganizationID,
		},
	}
}

func requestMeta(c *fiber.Ctx) *service.RequestMeta {
	return &service.RequestMeta{
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}
}

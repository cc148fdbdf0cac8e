package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/helpdesk-kit/helpdesk-service/pkg/util"
)

const contextKey = "auth_context"

// Middleware resolves bearer tokens into an AuthContext for each request.
type Middleware struct {
	resolver *ContextResolver
}

// NewMiddleware constructs middleware around a resolver.
func NewMiddleware(resolver *ContextResolver) *Middleware {
	return &Middleware{resolver: resolver}
}

// Handle resolves the principal and stores it in request locals. It does not
// reject the request: unauthenticated callers simply carry no context, and
// the guards decide per operation.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	if ctx := m.resolver.Resolve(c.UserContext(), c.Get(fiber.HeaderAuthorization)); ctx != nil {
		c.Locals(contextKey, ctx)
	}
	return c.Next()
}

// Require rejects requests that resolved no principal.
func (m *Middleware) Require(c *fiber.Ctx) error {
	if _, ok := FromFiber(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.Next()
}

// FromFiber retrieves the resolved principal from request locals.
func FromFiber(c *fiber.Ctx) (*AuthContext, bool) {
	val := c.Locals(contextKey)
	if val == nil {
		return nil, false
	}
	ctx, ok := val.(*AuthContext)
	return ctx, ok
}

package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/corpdesk/employee-portal/internal/domain"
	apperrors "github.com/corpdesk/employee-portal/pkg/util/errorutil"
)

const sessionLocalsKey = "auth_session"

// SessionResumer turns a bearer token back into a live session.
type SessionResumer interface {
	Resume(ctx context.Context, token string) (*domain.Session, error)
}

// AuthMiddleware validates bearer tokens and loads sessions.
type AuthMiddleware struct {
	resumer SessionResumer
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(resumer SessionResumer) *AuthMiddleware {
	return &AuthMiddleware{resumer: resumer}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewNotAuthenticated()
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	sess, err := m.resumer.Resume(c.UserContext(), strings.TrimSpace(parts[1]))
	if err != nil {
		if errors.Is(err, ErrSessionInvalid) {
			return apperrors.NewNotAuthenticated()
		}
		return apperrors.NewProviderError(err)
	}

	c.Locals(sessionLocalsKey, sess)
	return c.Next()
}

// SessionFromContext retrieves the authenticated session.
func SessionFromContext(c *fiber.Ctx) (*domain.Session, bool) {
	val := c.Locals(sessionLocalsKey)
	if val == nil {
		return nil, false
	}
	sess, ok := val.(*domain.Session)
	return sess, ok
}

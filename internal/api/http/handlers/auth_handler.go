package handlers

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"

	"github.com/corpdesk/employee-portal/internal/api/dto"
	"github.com/corpdesk/employee-portal/internal/auth"
	"github.com/corpdesk/employee-portal/internal/service"
	apperrors "github.com/corpdesk/employee-portal/pkg/util/errorutil"
)

// AuthHandler exposes registration, login and logout.
type AuthHandler struct {
	identity          *service.IdentitySync
	minPasswordLength int
}

// NewAuthHandler constructs handler.
func NewAuthHandler(identity *service.IdentitySync, minPasswordLength int) *AuthHandler {
	return &AuthHandler{identity: identity, minPasswordLength: minPasswordLength}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	var missing []string
	for _, field := range []struct{ name, value string }{
		{"name", req.Name}, {"email", req.Email}, {"password", req.Password}, {"empID", req.EmpID},
	} {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return apperrors.NewValidationError("name, email, password and empID are required",
			map[string]any{"missing": missing})
	}
	if utf8.RuneCountInString(req.Password) < h.minPasswordLength {
		return apperrors.NewValidationError("password is too short",
			map[string]any{"min_length": h.minPasswordLength})
	}

	result, err := h.identity.Register(c.UserContext(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		EmpID:    req.EmpID,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"principal": dto.NewPrincipalResponse(result.Principal),
			"employee":  dto.NewEmployeeResponse(result.Employee),
			"auth":      dto.NewAuthResponse(result.Session),
		},
	})
}

// Login handles POST /auth/login. A principal without an employee record still receives its
// token next to the error so the client can sign out or recover.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	result, err := h.identity.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if result == nil || result.Session == nil {
			return err
		}
		de := apperrors.ToDomainError(err)
		return c.Status(de.HTTPStatus).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    de.Code,
				"message": de.Message,
				"details": de.Details,
			},
			"data": fiber.Map{
				"principal": dto.NewPrincipalResponse(result.Principal),
				"auth":      dto.NewAuthResponse(result.Session),
			},
		})
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"principal": dto.NewPrincipalResponse(result.Principal),
			"employee":  dto.NewEmployeeResponse(result.Employee),
			"auth":      dto.NewAuthResponse(result.Session),
		},
	})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sess, ok := auth.SessionFromContext(c)
	if !ok {
		return apperrors.NewNotAuthenticated()
	}
	if err := h.identity.Logout(c.UserContext(), sess); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

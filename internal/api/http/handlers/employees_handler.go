package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/corpdesk/employee-portal/internal/api/dto"
	"github.com/corpdesk/employee-portal/internal/auth"
	"github.com/corpdesk/employee-portal/internal/service"
	apperrors "github.com/corpdesk/employee-portal/pkg/util/errorutil"
)

// EmployeesHandler exposes the employee profile endpoints.
type EmployeesHandler struct {
	identity *service.IdentitySync
}

// NewEmployeesHandler constructs handler.
func NewEmployeesHandler(identity *service.IdentitySync) *EmployeesHandler {
	return &EmployeesHandler{identity: identity}
}

// CheckEmpID handles GET /employees/emp-ids/:empID.
func (h *EmployeesHandler) CheckEmpID(c *fiber.Ctx) error {
	empID := strings.TrimSpace(c.Params("empID"))
	if empID == "" {
		return apperrors.NewValidationError("empID is required", nil)
	}

	status := h.identity.CheckEmpID(c.UserContext(), empID)
	resp := dto.EmpIDCheckResponse{EmpID: empID, Status: string(status)}
	switch status {
	case service.LookupFound:
		exists := true
		resp.Exists = &exists
	case service.LookupNotFound:
		exists := false
		resp.Exists = &exists
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Me handles GET /employees/me.
func (h *EmployeesHandler) Me(c *fiber.Ctx) error {
	sess, _ := auth.SessionFromContext(c)

	lookup := h.identity.GetCurrentEmployee(c.UserContext(), sess)
	switch lookup.Status {
	case service.LookupFound:
		return c.JSON(fiber.Map{"data": dto.NewEmployeeResponse(lookup.Employee)})
	case service.LookupNotFound:
		return apperrors.NewEmployeeRecordMissing(sess.Principal.UID)
	case service.LookupUnavailable:
		return apperrors.NewProviderError(nil)
	default:
		return apperrors.NewNotAuthenticated()
	}
}

// Update handles PATCH /employees/:uid.
func (h *EmployeesHandler) Update(c *fiber.Ctx) error {
	sess, _ := auth.SessionFromContext(c)

	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	employee, err := h.identity.UpdateProfile(c.UserContext(), sess, c.Params("uid"), service.ProfileUpdate{
		Name:  req.Name,
		Email: req.Email,
		EmpID: req.EmpID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewEmployeeResponse(employee)})
}

// Delete handles DELETE /employees/me.
func (h *EmployeesHandler) Delete(c *fiber.Ctx) error {
	sess, _ := auth.SessionFromContext(c)

	var req dto.DeleteAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Password == "" {
		return apperrors.NewValidationError("password is required", nil)
	}

	if err := h.identity.DeleteAccount(c.UserContext(), sess, req.Password); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// List handles GET /employees.
func (h *EmployeesHandler) List(c *fiber.Ctx) error {
	employees, err := h.identity.ListAllEmployees(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": dto.NewEmployeeList(employees),
		"meta": fiber.Map{"total": len(employees)},
	})
}

package dto

import (
	"time"

	"github.com/corpdesk/employee-portal/internal/domain"
)

// RegisterRequest payload for new employees.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	EmpID    string `json:"empID"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest carries the fields to change; omitted fields stay as they are.
type UpdateProfileRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	EmpID *string `json:"empID,omitempty"`
}

// DeleteAccountRequest confirms account deletion with the current password.
type DeleteAccountRequest struct {
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PrincipalResponse is the public view of a signed-in identity.
type PrincipalResponse struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// EmployeeResponse is the public view of an employee record.
type EmployeeResponse struct {
	UID       string    `json:"uid"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	EmpID     string    `json:"empID"`
	CreatedAt time.Time `json:"createdAt"`
}

// EmpIDCheckResponse reports whether an employee ID is taken. Exists is null when the
// lookup could not be performed.
type EmpIDCheckResponse struct {
	EmpID  string `json:"empID"`
	Status string `json:"status"`
	Exists *bool  `json:"exists"`
}

// NewEmployeeResponse maps a domain employee.
func NewEmployeeResponse(e *domain.Employee) EmployeeResponse {
	return EmployeeResponse{
		UID:       e.UID,
		Name:      e.Name,
		Email:     e.Email,
		EmpID:     e.EmpID,
		CreatedAt: e.CreatedAt,
	}
}

// NewEmployeeList maps a slice of employees.
func NewEmployeeList(employees []domain.Employee) []EmployeeResponse {
	out := make([]EmployeeResponse, 0, len(employees))
	for i := range employees {
		out = append(out, NewEmployeeResponse(&employees[i]))
	}
	return out
}

// NewPrincipalResponse maps a principal.
func NewPrincipalResponse(p *domain.Principal) PrincipalResponse {
	return PrincipalResponse{UID: p.UID, Email: p.Email, DisplayName: p.DisplayName}
}

// NewAuthResponse maps the token side of a session.
func NewAuthResponse(s *domain.Session) AuthResponse {
	return AuthResponse{Token: s.Token, ExpiresAt: s.ExpiresAt}
}

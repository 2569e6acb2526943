package domain

import "time"

// EmployeesCollection is the document collection holding employee profiles.
const EmployeesCollection = "employees"

// Employee is the profile document kept one-to-one with an authenticated principal.
type Employee struct {
	UID       string    `json:"uid"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	EmpID     string    `json:"empID"`
	CreatedAt time.Time `json:"createdAt"`
}

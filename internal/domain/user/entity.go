package user

import "time"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// User is an authenticated account. Employees carry an EmployeeID linking
// them to the directory record their attendance is tracked against.
type User struct {
	ID           string
	TenantID     string
	EmployeeID   *string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

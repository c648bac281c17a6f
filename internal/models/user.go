package models

import "time"

// UserRole represents the available account roles.
type UserRole string

const (
	RoleAdmin        UserRole = "ADMIN"
	RolePrincipal    UserRole = "PRINCIPAL"
	RoleTeacher      UserRole = "TEACHER"
	RoleStudent      UserRole = "STUDENT"
	RoleAdminStaff   UserRole = "ADMIN_STAFF"
	RoleSupportStaff UserRole = "SUPPORT_STAFF"
)

// User represents an account stored in the users table. Profiles (student,
// teacher, staff) reference exactly one account.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	Role         UserRole  `db:"role" json:"role"`
	Approved     bool      `db:"approved" json:"approved"`
	Active       bool      `db:"active" json:"active"`
	CreatedBy    *string   `db:"created_by" json:"created_by,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

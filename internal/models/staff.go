package models

import (
	"time"

	"github.com/lib/pq"
)

// StaffType discriminates administrative from support staff profiles.
type StaffType string

const (
	StaffTypeAdmin   StaffType = "ADMIN"
	StaffTypeSupport StaffType = "SUPPORT"
)

// Staff represents an administrative or support staff profile.
type Staff struct {
	ID               string         `db:"id" json:"id"`
	UserID           string         `db:"user_id" json:"user_id"`
	Type             StaffType      `db:"type" json:"type"`
	EmployeeID       string         `db:"employee_id" json:"employee_id"`
	Department       string         `db:"department" json:"department,omitempty"`
	Designation      string         `db:"designation" json:"designation,omitempty"`
	Responsibilities pq.StringArray `db:"responsibilities" json:"responsibilities,omitempty"`
	DaysOfWeek       pq.StringArray `db:"days_of_week" json:"days_of_week,omitempty"`
	Salary           float64        `db:"salary" json:"salary"`
	ContactNumber    string         `db:"contact_number" json:"contact_number"`
	Active           bool           `db:"active" json:"active"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// StaffDetail joins the profile with its owning account.
type StaffDetail struct {
	Staff
	Email     string `db:"email" json:"email"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
}

// StaffFilter captures filtering options for listing staff.
type StaffFilter struct {
	Type      StaffType
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

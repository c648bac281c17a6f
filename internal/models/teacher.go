package models

import (
	"time"

	"github.com/lib/pq"
)

// Teacher represents an instructor profile owned by a user account.
type Teacher struct {
	ID              string         `db:"id" json:"id"`
	UserID          string         `db:"user_id" json:"user_id"`
	EmployeeID      string         `db:"employee_id" json:"employee_id"`
	Subjects        pq.StringArray `db:"subjects" json:"subjects"`
	Classes         pq.StringArray `db:"classes" json:"classes"`
	Qualification   string         `db:"qualification" json:"qualification"`
	ExperienceYears int            `db:"experience_years" json:"experience_years"`
	Salary          float64        `db:"salary" json:"salary"`
	ContactNumber   string         `db:"contact_number" json:"contact_number"`
	Active          bool           `db:"active" json:"active"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// TeacherDetail joins the profile with its owning account.
type TeacherDetail struct {
	Teacher
	Email     string `db:"email" json:"email"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Subject   string
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

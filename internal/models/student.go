package models

import "time"

// Student represents a student profile owned by a user account.
type Student struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	RollNumber    string    `db:"roll_number" json:"roll_number"`
	Class         string    `db:"class" json:"class"`
	Section       string    `db:"section" json:"section"`
	Gender        string    `db:"gender" json:"gender"`
	MonthlyFee    float64   `db:"monthly_fee" json:"monthly_fee"`
	FatherName    string    `db:"father_name" json:"father_name"`
	MotherName    string    `db:"mother_name" json:"mother_name"`
	ContactNumber string    `db:"contact_number" json:"contact_number"`
	Address       string    `db:"address" json:"address"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// StudentDetail joins the profile with its owning account.
type StudentDetail struct {
	Student
	Email     string `db:"email" json:"email"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
}

// StudentFilter captures filtering criteria for listing students.
type StudentFilter struct {
	Class     string
	Section   string
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

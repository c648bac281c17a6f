package models

import "time"

// FeeStatus is the derived payment state of a fee record.
type FeeStatus string

const (
	FeeStatusUnpaid  FeeStatus = "unpaid"
	FeeStatusPartial FeeStatus = "partial"
	FeeStatusPaid    FeeStatus = "paid"
	FeeStatusOverdue FeeStatus = "overdue"
)

// Fee represents one fee record per (student, feeType, due month). Status is
// derived from the amounts by the fee lifecycle engine before every persist;
// the only external transition is the explicit paid override.
type Fee struct {
	ID              string     `db:"id" json:"id"`
	StudentID       string     `db:"student_id" json:"student_id"`
	FeeType         string     `db:"fee_type" json:"fee_type"`
	DueMonth        string     `db:"due_month" json:"due_month"`
	Amount          float64    `db:"amount" json:"amount"`
	PaidAmount      float64    `db:"paid_amount" json:"paid_amount"`
	RemainingAmount float64    `db:"remaining_amount" json:"remaining_amount"`
	Arrears         float64    `db:"arrears" json:"arrears"`
	DueDate         time.Time  `db:"due_date" json:"due_date"`
	Status          FeeStatus  `db:"status" json:"status"`
	PaymentDate     *time.Time `db:"payment_date" json:"payment_date,omitempty"`
	RecordedBy      string     `db:"recorded_by" json:"recorded_by"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// FeeFilter captures filtering options for listing fee records.
type FeeFilter struct {
	StudentID string
	FeeType   string
	Status    FeeStatus
	DueMonth  string
	Page      int
	PageSize  int
}

// DueMonthLayout formats a due month key, e.g. "2026-08".
const DueMonthLayout = "2006-01"

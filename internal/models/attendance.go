package models

import "time"

// AttendanceStatus is the recorded state for one student on one day.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceExcused AttendanceStatus = "excused"
)

// Attendance is one daily attendance record.
type Attendance struct {
	ID        string           `db:"id" json:"id"`
	StudentID string           `db:"student_id" json:"student_id"`
	Date      time.Time        `db:"date" json:"date"`
	Status    AttendanceStatus `db:"status" json:"status"`
	MarkedBy  string           `db:"marked_by" json:"marked_by"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// AttendanceFilter captures filtering options for listing attendance.
type AttendanceFilter struct {
	StudentID string
	Class     string
	DateFrom  *time.Time
	DateTo    *time.Time
	Status    AttendanceStatus
	Page      int
	PageSize  int
}

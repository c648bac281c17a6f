package models

import "time"

// DashboardSummary aggregates headline counts for the admin dashboard.
type DashboardSummary struct {
	TotalStudents    int       `db:"total_students" json:"total_students"`
	TotalTeachers    int       `db:"total_teachers" json:"total_teachers"`
	TotalStaff       int       `db:"total_staff" json:"total_staff"`
	FeesCollected    float64   `db:"fees_collected" json:"fees_collected"`
	FeesOutstanding  float64   `db:"fees_outstanding" json:"fees_outstanding"`
	AbsenteesToday   int       `db:"absentees_today" json:"absentees_today"`
	NoticesThisWeek  int       `db:"notices_this_week" json:"notices_this_week"`
	UpcomingMeetings int       `db:"upcoming_meetings" json:"upcoming_meetings"`
	GeneratedAt      time.Time `json:"generated_at"`
}

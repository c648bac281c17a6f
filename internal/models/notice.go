package models

import "time"

// NoticeAudience defines who can see a notice.
type NoticeAudience string

const (
	NoticeAudienceAll      NoticeAudience = "ALL"
	NoticeAudienceStudents NoticeAudience = "STUDENTS"
	NoticeAudienceTeachers NoticeAudience = "TEACHERS"
	NoticeAudienceStaff    NoticeAudience = "STAFF"
)

// Notice is a published announcement.
type Notice struct {
	ID          string         `db:"id" json:"id"`
	Title       string         `db:"title" json:"title"`
	Body        string         `db:"body" json:"body"`
	Audience    NoticeAudience `db:"audience" json:"audience"`
	PublishedBy string         `db:"published_by" json:"published_by"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// NoticeFilter captures filtering options for listing notices.
type NoticeFilter struct {
	Audience NoticeAudience
	Search   string
	Page     int
	PageSize int
}

package models

import (
	"time"

	"github.com/lib/pq"
)

// Meeting is a scheduled staff or parent meeting.
type Meeting struct {
	ID           string         `db:"id" json:"id"`
	Title        string         `db:"title" json:"title"`
	Agenda       string         `db:"agenda" json:"agenda"`
	ScheduledAt  time.Time      `db:"scheduled_at" json:"scheduled_at"`
	Location     string         `db:"location" json:"location"`
	Organizer    string         `db:"organizer" json:"organizer"`
	Participants pq.StringArray `db:"participants" json:"participants"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// MeetingFilter captures filtering options for listing meetings.
type MeetingFilter struct {
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

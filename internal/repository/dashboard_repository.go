package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nexlearn/campus-api/internal/models"
)

// DashboardRepository aggregates headline counts for the admin dashboard.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs a DashboardRepository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Summary computes the dashboard aggregates in one round trip per concern.
func (r *DashboardRepository) Summary(ctx context.Context, now time.Time) (*models.DashboardSummary, error) {
	summary := &models.DashboardSummary{GeneratedAt: now}

	const countsQuery = `SELECT
        (SELECT COUNT(*) FROM students WHERE active = true) AS total_students,
        (SELECT COUNT(*) FROM teachers WHERE active = true) AS total_teachers,
        (SELECT COUNT(*) FROM staff WHERE active = true) AS total_staff`
	if err := r.db.GetContext(ctx, summary, countsQuery); err != nil {
		return nil, fmt.Errorf("dashboard counts: %w", err)
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	const feesQuery = `SELECT
        COALESCE(SUM(paid_amount) FILTER (WHERE payment_date >= $1), 0) AS fees_collected,
        COALESCE(SUM(remaining_amount) FILTER (WHERE status <> 'paid'), 0) AS fees_outstanding
        FROM fees`
	var fees struct {
		Collected   float64 `db:"fees_collected"`
		Outstanding float64 `db:"fees_outstanding"`
	}
	if err := r.db.GetContext(ctx, &fees, feesQuery, monthStart); err != nil {
		return nil, fmt.Errorf("dashboard fees: %w", err)
	}
	summary.FeesCollected = fees.Collected
	summary.FeesOutstanding = fees.Outstanding

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	const activityQuery = `SELECT
        (SELECT COUNT(*) FROM attendance WHERE date = $1 AND status = 'absent') AS absentees_today,
        (SELECT COUNT(*) FROM notices WHERE created_at >= $2) AS notices_this_week,
        (SELECT COUNT(*) FROM meetings WHERE scheduled_at >= $3) AS upcoming_meetings`
	var activity struct {
		Absentees int `db:"absentees_today"`
		Notices   int `db:"notices_this_week"`
		Meetings  int `db:"upcoming_meetings"`
	}
	if err := r.db.GetContext(ctx, &activity, activityQuery, today, now.AddDate(0, 0, -7), now); err != nil {
		return nil, fmt.Errorf("dashboard activity: %w", err)
	}
	summary.AbsenteesToday = activity.Absentees
	summary.NoticesThisWeek = activity.Notices
	summary.UpcomingMeetings = activity.Meetings

	return summary, nil
}

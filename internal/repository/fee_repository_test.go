package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexlearn/campus-api/internal/models"
)

func newFeeMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func feeRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "student_id", "fee_type", "due_month", "amount", "paid_amount", "remaining_amount", "arrears", "due_date", "status", "payment_date", "recorded_by", "created_at", "updated_at"})
}

func TestFeeRepositoryFindForPeriod(t *testing.T) {
	db, mock, cleanup := newFeeMock(t)
	defer cleanup()
	repo := NewFeeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM fees WHERE student_id = $1 AND fee_type = $2 AND due_month = $3 LIMIT 1")).
		WithArgs("s1", "tuition", "2026-08").
		WillReturnRows(feeRows().AddRow("f1", "s1", "tuition", "2026-08", 1500.0, 0.0, 1500.0, 0.0, time.Now(), "unpaid", nil, "admin", time.Now(), time.Now()))

	fee, err := repo.FindForPeriod(context.Background(), "s1", "tuition", "2026-08")
	require.NoError(t, err)
	assert.Equal(t, "f1", fee.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeRepositoryFindForPeriodMissing(t *testing.T) {
	db, mock, cleanup := newFeeMock(t)
	defer cleanup()
	repo := NewFeeRepository(db)

	mock.ExpectQuery("SELECT \\* FROM fees WHERE student_id").
		WithArgs("s1", "tuition", "2026-08").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindForPeriod(context.Background(), "s1", "tuition", "2026-08")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestFeeRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newFeeMock(t)
	defer cleanup()
	repo := NewFeeRepository(db)

	mock.ExpectExec("INSERT INTO fees").
		WillReturnResult(sqlmock.NewResult(1, 1))

	fee := &models.Fee{StudentID: "s1", FeeType: "tuition", DueMonth: "2026-08", Amount: 1500, RemainingAmount: 1500, Status: models.FeeStatusUnpaid, DueDate: time.Now(), RecordedBy: "admin"}
	err := repo.Create(context.Background(), fee)
	require.NoError(t, err)
	assert.NotEmpty(t, fee.ID)
	assert.False(t, fee.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeRepositoryListOutstandingBefore(t *testing.T) {
	db, mock, cleanup := newFeeMock(t)
	defer cleanup()
	repo := NewFeeRepository(db)

	cutoff := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT \\* FROM fees\\s+WHERE student_id = \\$1 AND due_date < \\$2 AND status IN").
		WithArgs("s1", cutoff, models.FeeStatusUnpaid, models.FeeStatusPartial, models.FeeStatusOverdue).
		WillReturnRows(feeRows().
			AddRow("f1", "s1", "tuition", "2026-07", 1500.0, 0.0, 1500.0, 0.0, time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC), "unpaid", nil, "admin", time.Now(), time.Now()).
			AddRow("f2", "s1", "tuition", "2026-06", 1500.0, 500.0, 1000.0, 0.0, time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC), "partial", nil, "admin", time.Now(), time.Now()))

	fees, err := repo.ListOutstandingBefore(context.Background(), "s1", cutoff)
	require.NoError(t, err)
	assert.Len(t, fees, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeRepositoryDeleteOrphans(t *testing.T) {
	db, mock, cleanup := newFeeMock(t)
	defer cleanup()
	repo := NewFeeRepository(db)

	mock.ExpectExec("DELETE FROM fees WHERE student_id NOT IN").
		WillReturnResult(sqlmock.NewResult(0, 3))

	removed, err := repo.DeleteOrphans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

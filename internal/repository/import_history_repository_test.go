package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexlearn/campus-api/internal/models"
)

func newHistoryMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestImportHistoryRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newHistoryMock(t)
	defer cleanup()
	repo := NewImportHistoryRepository(db)

	mock.ExpectExec("INSERT INTO import_history").
		WillReturnResult(sqlmock.NewResult(1, 1))

	history := &models.ImportHistory{
		UserType:         models.ImportUserTypeStudent,
		Filename:         "student-abc.csv",
		OriginalFilename: "students.csv",
		UploadedBy:       "admin-1",
		Status:           models.ImportStatusPartial,
		TotalRecords:     3,
		SuccessCount:     2,
		ErrorCount:       1,
		Errors:           models.ImportRowErrors{{Row: 3, Message: "missing required fields: rollNumber"}},
	}
	err := repo.Create(context.Background(), history)
	require.NoError(t, err)
	assert.NotEmpty(t, history.ID)
	assert.False(t, history.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportHistoryRepositoryList(t *testing.T) {
	db, mock, cleanup := newHistoryMock(t)
	defer cleanup()
	repo := NewImportHistoryRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_type", "filename", "original_filename", "uploaded_by", "status", "total_records", "success_count", "error_count", "errors", "created_at"}).
		AddRow("h1", "student", "f.csv", "orig.csv", "admin-1", "partial", 3, 2, 1, `[{"row":3,"message":"bad row"}]`, time.Now())
	mock.ExpectQuery("SELECT \\* FROM import_history WHERE 1=1 AND user_type = \\$1 ORDER BY created_at DESC").
		WithArgs(models.ImportUserTypeStudent).
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM import_history WHERE 1=1 AND user_type = \\$1").
		WithArgs(models.ImportUserTypeStudent).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	records, total, err := repo.List(context.Background(), models.ImportHistoryFilter{UserType: models.ImportUserTypeStudent})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, total)
	require.Len(t, records[0].Errors, 1)
	assert.Equal(t, 3, records[0].Errors[0].Row)
	assert.NoError(t, mock.ExpectationsWereMet())
}

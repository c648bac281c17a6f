package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexlearn/campus-api/internal/middleware"
	"github.com/nexlearn/campus-api/internal/models"
	"github.com/nexlearn/campus-api/internal/service"
	"github.com/nexlearn/campus-api/pkg/storage"
)

type stubUsers struct{}

func (stubUsers) ExistsByEmail(context.Context, string) (bool, error) { return false, nil }

type stubStudents struct {
	created int
}

func (s *stubStudents) ExistsByRoll(context.Context, string, string) (bool, error) {
	return false, nil
}

func (s *stubStudents) CreateWithUser(_ context.Context, user *models.User, student *models.Student) error {
	s.created++
	user.ID = fmt.Sprintf("user-%d", s.created)
	student.ID = fmt.Sprintf("student-%d", s.created)
	return nil
}

type stubTeachers struct{}

func (stubTeachers) ExistsByEmployeeID(context.Context, string, string) (bool, error) {
	return false, nil
}
func (stubTeachers) Count(context.Context) (int, error) { return 0, nil }
func (stubTeachers) CreateWithUser(context.Context, *models.User, *models.Teacher) error {
	return nil
}

type stubStaff struct{}

func (stubStaff) ExistsByEmployeeID(context.Context, models.StaffType, string, string) (bool, error) {
	return false, nil
}
func (stubStaff) CreateWithUser(context.Context, *models.User, *models.Staff) error { return nil }

type stubHistory struct {
	records []models.ImportHistory
}

func (s *stubHistory) Create(_ context.Context, history *models.ImportHistory) error {
	s.records = append(s.records, *history)
	return nil
}

func (s *stubHistory) List(context.Context, models.ImportHistoryFilter) ([]models.ImportHistory, int, error) {
	return s.records, len(s.records), nil
}

func multipartUpload(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func newImportTestContext(t *testing.T, body *bytes.Buffer, contentType string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	req := httptest.NewRequest(http.MethodPost, "/imports/students", body)
	req.Header.Set("Content-Type", contentType)
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1"})
	return c, rec
}

func TestImportHandlerStudentsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	uploads, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)

	students := &stubStudents{}
	history := &stubHistory{}
	imports := service.NewImportService(stubUsers{}, students, stubTeachers{}, stubStaff{}, history, nil, "campus.edu", nil)
	handler := NewImportHandler(imports, nil, uploads, 0, time.Hour, nil)

	stale := filepath.Join(dir, "student-leftover.csv")
	require.NoError(t, os.WriteFile(stale, []byte("abandoned"), 0o644))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	csv := "firstName,lastName,rollNumber,class,section,gender,monthlyFee,fatherName,motherName,contactNumber\n" +
		"John,Doe,R-1,10,A,male,1500,Mark,Jane,555-0100\n" +
		"Amy,,,,,,,,,\n"
	body, contentType := multipartUpload(t, "students.csv", csv)
	c, rec := newImportTestContext(t, body, contentType)

	handler.Students(c)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var envelope struct {
		Data models.ImportResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 2, envelope.Data.TotalRecords)
	assert.Equal(t, 1, envelope.Data.SuccessCount)
	assert.Equal(t, 1, envelope.Data.ErrorCount)
	require.Len(t, envelope.Data.Errors, 1)
	assert.Equal(t, 3, envelope.Data.Errors[0].Row)

	assert.Equal(t, 1, students.created)
	require.Len(t, history.records, 1)
	assert.Equal(t, models.ImportStatusPartial, history.records[0].Status)
	assert.Equal(t, "students.csv", history.records[0].OriginalFilename)
	assert.Equal(t, "admin-1", history.records[0].UploadedBy)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "staged upload and stale leftovers must be removed after the run")
}

func TestImportHandlerRejectsMissingFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	uploads, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	handler := NewImportHandler(nil, nil, uploads, 0, 0, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/imports/students", nil)

	handler.Students(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportHandlerRejectsUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	uploads, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	handler := NewImportHandler(nil, nil, uploads, 0, 0, nil)

	body, contentType := multipartUpload(t, "students.pdf", "not a roster")
	c, rec := newImportTestContext(t, body, contentType)

	handler.Students(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportHandlerRejectsOversizedFile(t *testing.T) {
	dir := t.TempDir()
	uploads, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	handler := NewImportHandler(nil, nil, uploads, 16, 0, nil)

	body, contentType := multipartUpload(t, "students.csv", "firstName,lastName\nJohn,Doe\n")
	c, rec := newImportTestContext(t, body, contentType)

	handler.Students(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

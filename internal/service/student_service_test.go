package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexlearn/campus-api/internal/models"
	appErrors "github.com/nexlearn/campus-api/pkg/errors"
)

type mockStudentRepo struct {
	users       *fakeUsers
	rolls       map[string]bool
	byID        map[string]*models.StudentDetail
	created     []createdStudent
	updated     []models.Student
	deactivated []string
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	out := make([]models.StudentDetail, 0, len(m.byID))
	for _, detail := range m.byID {
		out = append(out, *detail)
	}
	return out, len(out), nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	detail, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *detail
	return &copied, nil
}

func (m *mockStudentRepo) ExistsByRoll(ctx context.Context, roll, excludeID string) (bool, error) {
	return m.rolls[roll], nil
}

func (m *mockStudentRepo) CreateWithUser(ctx context.Context, user *models.User, student *models.Student) error {
	user.ID = fmt.Sprintf("user-%d", len(m.created)+1)
	student.ID = fmt.Sprintf("student-%d", len(m.created)+1)
	student.UserID = user.ID
	m.rolls[student.RollNumber] = true
	m.users.add(user.Email)
	m.created = append(m.created, createdStudent{user: *user, student: *student})
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	m.updated = append(m.updated, *student)
	return nil
}

func (m *mockStudentRepo) Deactivate(ctx context.Context, id string) error {
	m.deactivated = append(m.deactivated, id)
	return nil
}

func newTestStudentService() (*StudentService, *mockStudentRepo, *fakeUsers, *fakeFees) {
	users := &fakeUsers{emails: make(map[string]bool)}
	repo := &mockStudentRepo{users: users, rolls: make(map[string]bool), byID: make(map[string]*models.StudentDetail)}
	fees := &fakeFees{}
	svc := NewStudentService(repo, users, fees, nil, nil, "campus.edu")
	return svc, repo, users, fees
}

func validStudentRequest() CreateStudentRequest {
	return CreateStudentRequest{
		FirstName:     "John",
		LastName:      "Doe",
		RollNumber:    "R-1",
		Class:         "5",
		Section:       "A",
		Gender:        "male",
		MonthlyFee:    1500,
		FatherName:    "Mark",
		MotherName:    "Jane",
		ContactNumber: "0300",
	}
}

func TestStudentCreateGeneratesEmailAndSeedsFee(t *testing.T) {
	svc, repo, _, fees := newTestStudentService()

	detail, err := svc.Create(context.Background(), validStudentRequest(), "admin-1")
	require.NoError(t, err)

	assert.Equal(t, "stdjohndoe@campus.edu", detail.Email)
	assert.True(t, detail.Active)
	require.Len(t, repo.created, 1)
	assert.Equal(t, models.RoleStudent, repo.created[0].user.Role)
	assert.True(t, repo.created[0].user.Approved)

	require.Len(t, fees.calls, 1)
	assert.Equal(t, "student-1", fees.calls[0].studentID)
	assert.Equal(t, "admin-1", fees.calls[0].recordedBy)
	assert.Equal(t, 1500.0, fees.calls[0].amount)
}

func TestStudentCreateRejectsDuplicateRoll(t *testing.T) {
	svc, repo, _, _ := newTestStudentService()
	repo.rolls["R-1"] = true

	_, err := svc.Create(context.Background(), validStudentRequest(), "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestStudentCreateRejectsTakenEmail(t *testing.T) {
	svc, _, users, _ := newTestStudentService()
	users.add("custom@campus.edu")

	req := validStudentRequest()
	req.Email = "custom@campus.edu"
	_, err := svc.Create(context.Background(), req, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestStudentCreateSkipsFeeSeedWhenNoMonthlyFee(t *testing.T) {
	svc, _, _, fees := newTestStudentService()

	req := validStudentRequest()
	req.MonthlyFee = 0
	_, err := svc.Create(context.Background(), req, "admin-1")
	require.NoError(t, err)
	assert.Empty(t, fees.calls)
}

func TestStudentUpdateAppliesPartialFields(t *testing.T) {
	svc, repo, _, _ := newTestStudentService()
	repo.byID["student-1"] = &models.StudentDetail{
		Student: models.Student{ID: "student-1", Class: "5", Section: "A", MonthlyFee: 1500, ContactNumber: "0300"},
		Email:   "stdjohndoe@campus.edu",
	}

	newClass := "6"
	newFee := 1800.0
	detail, err := svc.Update(context.Background(), "student-1", UpdateStudentRequest{Class: &newClass, MonthlyFee: &newFee})
	require.NoError(t, err)

	assert.Equal(t, "6", detail.Class)
	assert.Equal(t, 1800.0, detail.MonthlyFee)
	assert.Equal(t, "A", detail.Section)
	assert.Equal(t, "0300", detail.ContactNumber)
	require.Len(t, repo.updated, 1)
}

func TestStudentGetNotFound(t *testing.T) {
	svc, _, _, _ := newTestStudentService()

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentDeactivate(t *testing.T) {
	svc, repo, _, _ := newTestStudentService()
	repo.byID["student-1"] = &models.StudentDetail{Student: models.Student{ID: "student-1"}}

	require.NoError(t, svc.Deactivate(context.Background(), "student-1"))
	assert.Equal(t, []string{"student-1"}, repo.deactivated)
}

func TestStudentOwnerUserID(t *testing.T) {
	svc, repo, _, _ := newTestStudentService()
	repo.byID["student-1"] = &models.StudentDetail{Student: models.Student{ID: "student-1", UserID: "user-1"}}

	ownerID, err := svc.OwnerUserID(context.Background(), "student-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", ownerID)

	_, err = svc.OwnerUserID(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentRosterWritesInvalidateSummaryCache(t *testing.T) {
	svc, repo, _, _ := newTestStudentService()
	cache := &fakeInvalidator{}
	svc.SetSummaryCache(cache)

	_, err := svc.Create(context.Background(), validStudentRequest(), "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.calls)

	repo.byID["student-1"] = &models.StudentDetail{Student: models.Student{ID: "student-1"}}
	require.NoError(t, svc.Deactivate(context.Background(), "student-1"))
	assert.Equal(t, 2, cache.calls)
}

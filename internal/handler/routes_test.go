package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexlearn/campus-api/internal/models"
	"github.com/nexlearn/campus-api/internal/service"
)

const routesTestSecret = "routes-test-secret"

type routeStudentRepo struct {
	detail models.StudentDetail
}

func (r *routeStudentRepo) List(context.Context, models.StudentFilter) ([]models.StudentDetail, int, error) {
	return []models.StudentDetail{r.detail}, 1, nil
}

func (r *routeStudentRepo) FindByID(_ context.Context, id string) (*models.StudentDetail, error) {
	if id != r.detail.ID {
		return nil, sql.ErrNoRows
	}
	detail := r.detail
	return &detail, nil
}

func (r *routeStudentRepo) ExistsByRoll(context.Context, string, string) (bool, error) {
	return false, nil
}

func (r *routeStudentRepo) CreateWithUser(context.Context, *models.User, *models.Student) error {
	return nil
}

func (r *routeStudentRepo) Update(context.Context, *models.Student) error { return nil }

func (r *routeStudentRepo) Deactivate(context.Context, string) error { return nil }

type routeFeeRepo struct{}

func (routeFeeRepo) List(context.Context, models.FeeFilter) ([]models.Fee, int, error) {
	return []models.Fee{}, 0, nil
}
func (routeFeeRepo) FindByID(context.Context, string) (*models.Fee, error) {
	return nil, sql.ErrNoRows
}
func (routeFeeRepo) FindForPeriod(context.Context, string, string, string) (*models.Fee, error) {
	return nil, sql.ErrNoRows
}
func (routeFeeRepo) ListOutstandingBefore(context.Context, string, time.Time) ([]models.Fee, error) {
	return nil, nil
}
func (routeFeeRepo) Create(context.Context, *models.Fee) error    { return nil }
func (routeFeeRepo) Update(context.Context, *models.Fee) error    { return nil }
func (routeFeeRepo) Delete(context.Context, string) error         { return nil }
func (routeFeeRepo) DeleteOrphans(context.Context) (int64, error) { return 0, nil }

type routeFeeStudents struct{}

func (routeFeeStudents) FindByID(context.Context, string) (*models.StudentDetail, error) {
	return nil, sql.ErrNoRows
}
func (routeFeeStudents) ListActiveWithFee(context.Context) ([]models.Student, error) {
	return nil, nil
}

func newRoutesTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := &routeStudentRepo{detail: models.StudentDetail{
		Student: models.Student{ID: "student-1", UserID: "user-1", RollNumber: "R-1", Active: true},
	}}
	studentService := service.NewStudentService(repo, stubUsers{}, nil, nil, nil, "campus.edu")
	feeService := service.NewFeeService(routeFeeRepo{}, routeFeeStudents{}, nil, nil, service.FeeServiceConfig{})

	r := gin.New()
	api := r.Group("/api/v1")
	RegisterRoutes(api, Handlers{
		Fees:          NewFeeHandler(feeService, studentService, nil),
		Students:      NewStudentHandler(studentService),
		StudentOwners: studentService,
	}, routesTestSecret)
	return r
}

func mintToken(t *testing.T, userID string, role models.UserRole) string {
	t.Helper()
	claims := &models.JWTClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(routesTestSecret))
	require.NoError(t, err)
	return signed
}

func doRoutesRequest(t *testing.T, r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// A student token carries the account id, while profile routes are addressed
// by the profile id. The self-access grant must resolve one to the other.
func TestStudentSelfAccessOwnRecords(t *testing.T) {
	r := newRoutesTestRouter(t)
	owner := mintToken(t, "user-1", models.RoleStudent)

	for _, path := range []string{
		"/api/v1/students/student-1",
		"/api/v1/students/student-1/fees",
		"/api/v1/students/student-1/arrears",
	} {
		rec := doRoutesRequest(t, r, path, owner)
		assert.Equal(t, http.StatusOK, rec.Code, "%s: %s", path, rec.Body.String())
	}
}

func TestStudentSelfAccessDeniedForOtherStudent(t *testing.T) {
	r := newRoutesTestRouter(t)
	other := mintToken(t, "user-2", models.RoleStudent)

	for _, path := range []string{
		"/api/v1/students/student-1",
		"/api/v1/students/student-1/fees",
		"/api/v1/students/student-1/arrears",
	} {
		rec := doRoutesRequest(t, r, path, other)
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
	}
}

func TestStudentRoutesAdminAccess(t *testing.T) {
	r := newRoutesTestRouter(t)
	admin := mintToken(t, "admin-user", models.RoleAdmin)

	rec := doRoutesRequest(t, r, "/api/v1/students/student-1/fees", admin)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestStudentRoutesRequireToken(t *testing.T) {
	r := newRoutesTestRouter(t)

	rec := doRoutesRequest(t, r, "/api/v1/students/student-1/fees", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

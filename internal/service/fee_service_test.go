package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nexlearn/campus-api/internal/models"
	"github.com/nexlearn/campus-api/pkg/jobs"
)

type memFeeRepo struct {
	fees        map[string]*models.Fee
	outstanding []models.Fee
	created     int
	updated     int
	orphans     int64
}

func newMemFeeRepo() *memFeeRepo {
	return &memFeeRepo{fees: make(map[string]*models.Fee)}
}

func (m *memFeeRepo) List(ctx context.Context, filter models.FeeFilter) ([]models.Fee, int, error) {
	out := make([]models.Fee, 0, len(m.fees))
	for _, f := range m.fees {
		out = append(out, *f)
	}
	return out, len(out), nil
}

func (m *memFeeRepo) FindByID(ctx context.Context, id string) (*models.Fee, error) {
	if f, ok := m.fees[id]; ok {
		cp := *f
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memFeeRepo) FindForPeriod(ctx context.Context, studentID, feeType, dueMonth string) (*models.Fee, error) {
	for _, f := range m.fees {
		if f.StudentID == studentID && f.FeeType == feeType && f.DueMonth == dueMonth {
			cp := *f
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memFeeRepo) ListOutstandingBefore(ctx context.Context, studentID string, cutoff time.Time) ([]models.Fee, error) {
	out := make([]models.Fee, 0)
	for _, f := range m.outstanding {
		if f.StudentID == studentID && f.DueDate.Before(cutoff) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memFeeRepo) Create(ctx context.Context, fee *models.Fee) error {
	if fee.ID == "" {
		fee.ID = fmt.Sprintf("fee-%d", len(m.fees)+1)
	}
	cp := *fee
	m.fees[fee.ID] = &cp
	m.created++
	return nil
}

func (m *memFeeRepo) Update(ctx context.Context, fee *models.Fee) error {
	cp := *fee
	m.fees[fee.ID] = &cp
	m.updated++
	return nil
}

func (m *memFeeRepo) Delete(ctx context.Context, id string) error {
	delete(m.fees, id)
	return nil
}

func (m *memFeeRepo) DeleteOrphans(ctx context.Context) (int64, error) {
	return m.orphans, nil
}

type memFeeStudents struct {
	students map[string]models.StudentDetail
	active   []models.Student
}

func (m *memFeeStudents) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memFeeStudents) ListActiveWithFee(ctx context.Context) ([]models.Student, error) {
	return m.active, nil
}

func newTestFeeService(repo *memFeeRepo, cfg FeeServiceConfig, now time.Time) *FeeService {
	svc := NewFeeService(repo, &memFeeStudents{students: map[string]models.StudentDetail{}}, validator.New(), zap.NewNop(), cfg)
	svc.now = func() time.Time { return now }
	return svc
}

func ptrFloat(v float64) *float64 { return &v }
func ptrString(v string) *string  { return &v }

type fakeInvalidator struct {
	calls int
}

func (f *fakeInvalidator) Invalidate(context.Context) { f.calls++ }

type fakeGenerationObserver struct {
	generated int
}

func (f *fakeGenerationObserver) ObserveFeeGenerated() { f.generated++ }

func TestFeeUpdatePartialPayment(t *testing.T) {
	now := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	repo := newMemFeeRepo()
	repo.fees["f1"] = &models.Fee{ID: "f1", StudentID: "s1", Amount: 2000, RemainingAmount: 2000, Status: models.FeeStatusUnpaid, DueDate: now.AddDate(0, 0, 10)}
	svc := newTestFeeService(repo, FeeServiceConfig{}, now)

	fee, err := svc.Update(context.Background(), "f1", UpdateFeeRequest{PaidAmount: ptrFloat(500)})
	require.NoError(t, err)
	assert.Equal(t, models.FeeStatusPartial, fee.Status)
	assert.Equal(t, 1500.0, fee.RemainingAmount)
	assert.Nil(t, fee.PaymentDate)
}

func TestFeeUpdateFullPaymentDerivesPaid(t *testing.T) {
	now := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	repo := newMemFeeRepo()
	repo.fees["f1"] = &models.Fee{ID: "f1", StudentID: "s1", Amount: 2000, RemainingAmount: 1500, PaidAmount: 500, Status: models.FeeStatusPartial, DueDate: now.AddDate(0, 0, 10)}
	svc := newTestFeeService(repo, FeeServiceConfig{}, now)

	fee, err := svc.Update(context.Background(), "f1", UpdateFeeRequest{PaidAmount: ptrFloat(2000)})
	require.NoError(t, err)
	assert.Equal(t, models.FeeStatusPaid, fee.Status)
	assert.Equal(t, 0.0, fee.RemainingAmount)
	require.NotNil(t, fee.PaymentDate)
	assert.Equal(t, now, *fee.PaymentDate)
}

func TestFeeExplicitPaidOverride(t *testing.T) {
	now := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	repo := newMemFeeRepo()
	// Past due and nothing paid: the explicit override still wins.
	repo.fees["f1"] = &models.Fee{ID: "f1", StudentID: "s1", Amount: 2000, RemainingAmount: 2000, Status: models.FeeStatusOverdue, DueDate: now.AddDate(0, -1, 0)}
	svc := newTestFeeService(repo, FeeServiceConfig{}, now)

	fee, err := svc.Update(context.Background(), "f1", UpdateFeeRequest{Status: ptrString("paid")})
	require.NoError(t, err)
	assert.Equal(t, models.FeeStatusPaid, fee.Status)
	assert.Equal(t, 2000.0, fee.PaidAmount)
	assert.Equal(t, 0.0, fee.RemainingAmount)
	require.NotNil(t, fee.PaymentDate)
}

func TestFeePartialPaymentPastDueBecomesOverdue(t *testing.T) {
	now := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	repo := newMemFeeRepo()
	repo.fees["f1"] = &models.Fee{ID: "f1", StudentID: "s1", Amount: 2000, RemainingAmount: 2000, Status: models.FeeStatusUnpaid, DueDate: now.AddDate(0, 0, -5)}
	svc := newTestFeeService(repo, FeeServiceConfig{}, now)

	fee, err := svc.Update(context.Background(), "f1", UpdateFeeRequest{PaidAmount: ptrFloat(500)})
	require.NoError(t, err)
	assert.Equal(t, models.FeeStatusOverdue, fee.Status)
	assert.Equal(t, 1500.0, fee.RemainingAmount)
}

func TestCalculateArrears(t *testing.T) {
	now := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	repo := newMemFeeRepo()
	repo.outstanding = []models.Fee{
		{StudentID: "s1", Status: models.FeeStatusPartial, Amount: 2000, RemainingAmount: 300, DueDate: time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)},
		{StudentID: "s1", Status: models.FeeStatusUnpaid, Amount: 1000, DueDate: time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)},
		{StudentID: "s1", Status: models.FeeStatusOverdue, Amount: 1000, DueDate: time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC)},
	}
	svc := newTestFeeService(repo, FeeServiceConfig{}, now)

	arrears, err := svc.CalculateArrears(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 2300.0, arrears)
}

func TestCalculateArrearsHonoursTrackingStart(t *testing.T) {
	now := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	repo := newMemFeeRepo()
	repo.outstanding = []models.Fee{
		{StudentID: "s1", Status: models.FeeStatusUnpaid, Amount: 1000, DueDate: time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC)},
		{StudentID: "s1", Status: models.FeeStatusUnpaid, Amount: 1000, DueDate: time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)},
	}
	cfg := FeeServiceConfig{TrackingStart: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)}
	svc := newTestFeeService(repo, cfg, now)

	arrears, err := svc.CalculateArrears(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, arrears)
}

func TestCreateInitialFeeRecordIsIdempotent(t *testing.T) {
	now := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	repo := newMemFeeRepo()
	svc := newTestFeeService(repo, FeeServiceConfig{}, now)

	first, err := svc.CreateInitialFeeRecord(context.Background(), "s1", "admin-1", 1500)
	require.NoError(t, err)
	assert.Equal(t, "2026-08", first.DueMonth)
	assert.Equal(t, "tuition", first.FeeType)
	assert.Equal(t, models.FeeStatusUnpaid, first.Status)
	assert.Equal(t, 1500.0, first.RemainingAmount)
	assert.Equal(t, time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC), first.DueDate)

	second, err := svc.CreateInitialFeeRecord(context.Background(), "s1", "admin-1", 1800)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1800.0, second.Amount)
	assert.Equal(t, 1, repo.created)
	assert.Equal(t, 1, repo.updated)
}

func TestCreateInitialFeeRecordRequiresIdentifiers(t *testing.T) {
	repo := newMemFeeRepo()
	svc := newTestFeeService(repo, FeeServiceConfig{}, time.Now().UTC())

	_, err := svc.CreateInitialFeeRecord(context.Background(), "", "admin-1", 1500)
	require.Error(t, err)
	_, err = svc.CreateInitialFeeRecord(context.Background(), "s1", "", 1500)
	require.Error(t, err)
	assert.Equal(t, 0, repo.created)
}

func TestCreateInitialFeeRecordCarriesArrears(t *testing.T) {
	now := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	repo := newMemFeeRepo()
	repo.outstanding = []models.Fee{
		{StudentID: "s1", Status: models.FeeStatusUnpaid, Amount: 1500, DueDate: time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)},
	}
	svc := newTestFeeService(repo, FeeServiceConfig{}, now)

	fee, err := svc.CreateInitialFeeRecord(context.Background(), "s1", "admin-1", 1500)
	require.NoError(t, err)
	assert.Equal(t, 1500.0, fee.Arrears)
}

func TestEnqueueMonthlyGeneration(t *testing.T) {
	now := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	repo := newMemFeeRepo()
	students := &memFeeStudents{active: []models.Student{
		{ID: "s1", MonthlyFee: 1500},
		{ID: "s2", MonthlyFee: 2000},
	}}
	svc := NewFeeService(repo, students, validator.New(), zap.NewNop(), FeeServiceConfig{})
	svc.now = func() time.Time { return now }

	done := make(chan jobs.Job, 2)
	queue := jobs.NewQueue("fee-generation-test", func(ctx context.Context, job jobs.Job) error {
		done <- job
		return nil
	}, jobs.QueueConfig{Workers: 1})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	queue.Start(ctx)
	defer queue.Stop()
	svc.SetQueue(queue)

	queued, err := svc.EnqueueMonthlyGeneration(context.Background(), "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 2, queued)

	for i := 0; i < 2; i++ {
		select {
		case job := <-done:
			payload, ok := job.Payload.(FeeGenerationPayload)
			require.True(t, ok)
			assert.Equal(t, "admin-1", payload.RecordedBy)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for queued jobs")
		}
	}
}

func TestHandleGenerationJobCreatesFee(t *testing.T) {
	now := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	repo := newMemFeeRepo()
	svc := newTestFeeService(repo, FeeServiceConfig{}, now)

	err := svc.HandleGenerationJob(context.Background(), jobs.Job{
		Type:    "fee.generate",
		Payload: FeeGenerationPayload{StudentID: "s1", RecordedBy: "admin-1", Amount: 1500},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.created)
}

func TestHandleGenerationJobCountsGeneratedFees(t *testing.T) {
	now := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	repo := newMemFeeRepo()
	svc := newTestFeeService(repo, FeeServiceConfig{}, now)
	observer := &fakeGenerationObserver{}
	svc.SetMetrics(observer)

	for _, studentID := range []string{"s1", "s2"} {
		err := svc.HandleGenerationJob(context.Background(), jobs.Job{
			Type:    "fee.generate",
			Payload: FeeGenerationPayload{StudentID: studentID, RecordedBy: "admin-1", Amount: 1500},
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, observer.generated)
}

func TestFeeWritesInvalidateSummaryCache(t *testing.T) {
	now := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	repo := newMemFeeRepo()
	repo.fees["f1"] = &models.Fee{ID: "f1", StudentID: "s1", Amount: 2000, RemainingAmount: 2000, Status: models.FeeStatusUnpaid, DueDate: now.AddDate(0, 0, 10)}
	svc := newTestFeeService(repo, FeeServiceConfig{}, now)
	cache := &fakeInvalidator{}
	svc.SetSummaryCache(cache)

	_, err := svc.Update(context.Background(), "f1", UpdateFeeRequest{PaidAmount: ptrFloat(500)})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.calls)

	_, err = svc.CreateInitialFeeRecord(context.Background(), "s2", "admin-1", 1500)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.calls)

	require.NoError(t, svc.Delete(context.Background(), "f1"))
	assert.Equal(t, 3, cache.calls)
}

func TestCleanupOrphansInvalidatesOnlyWhenRowsRemoved(t *testing.T) {
	repo := newMemFeeRepo()
	svc := newTestFeeService(repo, FeeServiceConfig{}, time.Now().UTC())
	cache := &fakeInvalidator{}
	svc.SetSummaryCache(cache)

	removed, err := svc.CleanupOrphans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), removed)
	assert.Equal(t, 0, cache.calls)

	repo.orphans = 3
	removed, err = svc.CleanupOrphans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
	assert.Equal(t, 1, cache.calls)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nexlearn/campus-api/internal/models"
	"github.com/nexlearn/campus-api/pkg/spreadsheet"
)

type fakeUsers struct {
	emails map[string]bool
}

func (f *fakeUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return f.emails[strings.ToLower(email)], nil
}

func (f *fakeUsers) add(email string) {
	if f.emails == nil {
		f.emails = make(map[string]bool)
	}
	f.emails[strings.ToLower(email)] = true
}

type createdStudent struct {
	user    models.User
	student models.Student
}

type fakeStudents struct {
	users   *fakeUsers
	rolls   map[string]bool
	created []createdStudent
}

func (f *fakeStudents) ExistsByRoll(ctx context.Context, roll, excludeID string) (bool, error) {
	return f.rolls[roll], nil
}

func (f *fakeStudents) CreateWithUser(ctx context.Context, user *models.User, student *models.Student) error {
	user.ID = fmt.Sprintf("user-%d", len(f.created)+1)
	student.ID = fmt.Sprintf("student-%d", len(f.created)+1)
	student.UserID = user.ID
	if f.rolls == nil {
		f.rolls = make(map[string]bool)
	}
	f.rolls[student.RollNumber] = true
	f.users.add(user.Email)
	f.created = append(f.created, createdStudent{user: *user, student: *student})
	return nil
}

type createdTeacher struct {
	user    models.User
	teacher models.Teacher
}

type fakeTeachers struct {
	users     *fakeUsers
	employees map[string]bool
	count     int
	created   []createdTeacher
}

func (f *fakeTeachers) ExistsByEmployeeID(ctx context.Context, employeeID, excludeID string) (bool, error) {
	return f.employees[employeeID], nil
}

func (f *fakeTeachers) Count(ctx context.Context) (int, error) {
	return f.count, nil
}

func (f *fakeTeachers) CreateWithUser(ctx context.Context, user *models.User, teacher *models.Teacher) error {
	user.ID = fmt.Sprintf("user-t%d", len(f.created)+1)
	teacher.ID = fmt.Sprintf("teacher-%d", len(f.created)+1)
	if f.employees == nil {
		f.employees = make(map[string]bool)
	}
	f.employees[teacher.EmployeeID] = true
	f.users.add(user.Email)
	f.created = append(f.created, createdTeacher{user: *user, teacher: *teacher})
	return nil
}

type fakeStaff struct {
	users     *fakeUsers
	employees map[string]bool
	created   []models.Staff
}

func (f *fakeStaff) ExistsByEmployeeID(ctx context.Context, staffType models.StaffType, employeeID, excludeID string) (bool, error) {
	return f.employees[string(staffType)+":"+employeeID], nil
}

func (f *fakeStaff) CreateWithUser(ctx context.Context, user *models.User, staff *models.Staff) error {
	user.ID = fmt.Sprintf("user-s%d", len(f.created)+1)
	staff.ID = fmt.Sprintf("staff-%d", len(f.created)+1)
	if f.employees == nil {
		f.employees = make(map[string]bool)
	}
	f.employees[string(staff.Type)+":"+staff.EmployeeID] = true
	f.users.add(user.Email)
	f.created = append(f.created, *staff)
	return nil
}

type fakeHistory struct {
	records []models.ImportHistory
}

func (f *fakeHistory) Create(ctx context.Context, history *models.ImportHistory) error {
	f.records = append(f.records, *history)
	return nil
}

func (f *fakeHistory) List(ctx context.Context, filter models.ImportHistoryFilter) ([]models.ImportHistory, int, error) {
	return f.records, len(f.records), nil
}

type feeSeedCall struct {
	studentID  string
	recordedBy string
	amount     float64
}

type fakeFees struct {
	calls []feeSeedCall
	err   error
}

func (f *fakeFees) CreateInitialFeeRecord(ctx context.Context, studentID, recordedBy string, amount float64) (*models.Fee, error) {
	f.calls = append(f.calls, feeSeedCall{studentID: studentID, recordedBy: recordedBy, amount: amount})
	if f.err != nil {
		return nil, f.err
	}
	return &models.Fee{StudentID: studentID, Amount: amount}, nil
}

func newTestImportService(rows []spreadsheet.Row, parseErr error) (*ImportService, *fakeUsers, *fakeStudents, *fakeTeachers, *fakeStaff, *fakeHistory, *fakeFees, *[]string) {
	users := &fakeUsers{emails: make(map[string]bool)}
	students := &fakeStudents{users: users, rolls: make(map[string]bool)}
	teachers := &fakeTeachers{users: users, employees: make(map[string]bool)}
	staff := &fakeStaff{users: users, employees: make(map[string]bool)}
	history := &fakeHistory{}
	fees := &fakeFees{}

	svc := NewImportService(users, students, teachers, staff, history, fees, "campus.edu", zap.NewNop())
	svc.parse = func(path string) ([]spreadsheet.Row, error) {
		if parseErr != nil {
			return nil, parseErr
		}
		return rows, nil
	}
	removed := []string{}
	svc.removeFile = func(path string) error {
		removed = append(removed, path)
		return nil
	}
	return svc, users, students, teachers, staff, history, fees, &removed
}

func studentRow(first, last, roll string) spreadsheet.Row {
	return spreadsheet.Row{
		"firstName": first, "lastName": last, "rollNumber": roll,
		"class": "5", "section": "A", "gender": "male", "monthlyFee": "1500",
		"fatherName": "Father", "motherName": "Mother", "contactNumber": "0300",
	}
}

func TestImportStudentsPartialRun(t *testing.T) {
	missing := studentRow("Jane", "Roe", "")
	delete(missing, "contactNumber")
	rows := []spreadsheet.Row{
		studentRow("John", "Doe", "R-1"),
		missing,
		studentRow("Dup", "Licate", "R-1"),
	}
	svc, _, students, _, _, history, fees, removed := newTestImportService(rows, nil)
	students.rolls["R-1"] = false

	result, err := svc.ImportStudents(context.Background(), ImportUpload{Path: "/tmp/students.csv", OriginalFilename: "students.csv", UploadedBy: "admin-1"})
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalRecords)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 2, result.ErrorCount)
	assert.Equal(t, result.TotalRecords, result.SuccessCount+result.ErrorCount)

	require.Len(t, result.Errors, 2)
	assert.Equal(t, 3, result.Errors[0].Row)
	assert.Contains(t, result.Errors[0].Message, "missing required fields")
	assert.Contains(t, result.Errors[0].Message, "rollNumber")
	assert.Contains(t, result.Errors[0].Message, "contactNumber")
	assert.Equal(t, 4, result.Errors[1].Row)
	assert.Contains(t, result.Errors[1].Message, "R-1")

	require.Len(t, history.records, 1)
	assert.Equal(t, models.ImportStatusPartial, history.records[0].Status)
	assert.Equal(t, "students.csv", history.records[0].OriginalFilename)
	assert.Equal(t, "admin-1", history.records[0].UploadedBy)

	require.Len(t, fees.calls, 1)
	assert.Equal(t, "student-1", fees.calls[0].studentID)
	assert.Equal(t, "admin-1", fees.calls[0].recordedBy)
	assert.Equal(t, 1500.0, fees.calls[0].amount)

	assert.Equal(t, []string{"/tmp/students.csv"}, *removed)
}

func TestImportStudentsEmailGeneration(t *testing.T) {
	second := studentRow("John", "Doe", "R-2")
	third := studentRow("Amy", "Lee", "R-3")
	third["email"] = "custom@gmail.com"
	rows := []spreadsheet.Row{
		studentRow("John", "Doe", "R-1"),
		second,
		third,
		studentRow("O'Brien", "Smith", "R-4"),
	}
	svc, _, students, _, _, _, _, _ := newTestImportService(rows, nil)

	result, err := svc.ImportStudents(context.Background(), ImportUpload{Path: "/tmp/f.csv", UploadedBy: "u"})
	require.NoError(t, err)
	require.Equal(t, 4, result.SuccessCount)

	require.Len(t, students.created, 4)
	assert.Equal(t, "stdjohndoe@campus.edu", students.created[0].user.Email)
	assert.Equal(t, "stdjohndoe1@campus.edu", students.created[1].user.Email)
	// Supplied email not matching the synthetic pattern is replaced.
	assert.Equal(t, "stdamylee@campus.edu", students.created[2].user.Email)
	// Non-alphanumeric characters are stripped from name parts.
	assert.Equal(t, "stdobriensmith@campus.edu", students.created[3].user.Email)
}

func TestImportStudentsSuppliedMatchingEmailKept(t *testing.T) {
	row := studentRow("Jane", "Doe", "R-9")
	row["email"] = "stdjanedoe@campus.edu"
	svc, _, students, _, _, _, _, _ := newTestImportService([]spreadsheet.Row{row}, nil)

	result, err := svc.ImportStudents(context.Background(), ImportUpload{Path: "/tmp/f.csv", UploadedBy: "u"})
	require.NoError(t, err)
	require.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, "stdjanedoe@campus.edu", students.created[0].user.Email)
}

func TestImportInvalidatesSummaryCacheOnSuccess(t *testing.T) {
	svc, _, _, _, _, _, _, _ := newTestImportService([]spreadsheet.Row{studentRow("John", "Doe", "R-1")}, nil)
	cache := &fakeInvalidator{}
	svc.SetSummaryCache(cache)

	_, err := svc.ImportStudents(context.Background(), ImportUpload{Path: "/tmp/f.csv", UploadedBy: "u"})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.calls)
}

func TestImportKeepsSummaryCacheWhenNothingImported(t *testing.T) {
	row := studentRow("Jane", "Roe", "")
	delete(row, "contactNumber")
	svc, _, _, _, _, _, _, _ := newTestImportService([]spreadsheet.Row{row}, nil)
	cache := &fakeInvalidator{}
	svc.SetSummaryCache(cache)

	result, err := svc.ImportStudents(context.Background(), ImportUpload{Path: "/tmp/f.csv", UploadedBy: "u"})
	require.NoError(t, err)
	assert.Equal(t, 0, result.SuccessCount)
	assert.Equal(t, 0, cache.calls)
}

func TestImportStudentsFeeSeedFailureDoesNotFailRow(t *testing.T) {
	svc, _, _, _, _, history, fees, _ := newTestImportService([]spreadsheet.Row{studentRow("John", "Doe", "R-1")}, nil)
	fees.err = errors.New("fee store down")

	result, err := svc.ImportStudents(context.Background(), ImportUpload{Path: "/tmp/f.csv", UploadedBy: "u"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 0, result.ErrorCount)
	require.Len(t, history.records, 1)
	assert.Equal(t, models.ImportStatusSuccess, history.records[0].Status)
	assert.Len(t, fees.calls, 1)
}

func teacherRow(first, last string) spreadsheet.Row {
	return spreadsheet.Row{
		"firstName": first, "lastName": last, "subjects": "Math, Physics",
		"qualification": "MSc", "contactNumber": "0301", "experienceYears": "4",
		"salary": "50000", "classes": "5, 6",
	}
}

func TestImportTeachersGeneratedIdentity(t *testing.T) {
	year := time.Now().UTC().Year() % 100
	rows := []spreadsheet.Row{teacherRow("Ali", "Khan"), teacherRow("Sara", "Shah")}
	svc, _, _, teachers, _, _, _, _ := newTestImportService(rows, nil)
	teachers.count = 2
	teachers.employees[fmt.Sprintf("TCH%02d003", year)] = true

	result, err := svc.ImportTeachers(context.Background(), ImportUpload{Path: "/tmp/t.csv", UploadedBy: "u"})
	require.NoError(t, err)
	require.Equal(t, 2, result.SuccessCount)

	require.Len(t, teachers.created, 2)
	// Sequence starts after the existing count and skips taken identifiers.
	assert.Equal(t, fmt.Sprintf("TCH%02d004", year), teachers.created[0].teacher.EmployeeID)
	assert.Equal(t, fmt.Sprintf("TCH%02d005", year), teachers.created[1].teacher.EmployeeID)
	assert.Equal(t, "tchalikhan@campus.edu", teachers.created[0].user.Email)
	assert.Equal(t, []string{"Math", "Physics"}, []string(teachers.created[0].teacher.Subjects))
	assert.Equal(t, 4, teachers.created[0].teacher.ExperienceYears)
}

func staffRow(first, last, email, empID string) spreadsheet.Row {
	return spreadsheet.Row{
		"firstName": first, "lastName": last, "email": email, "employeeId": empID,
		"department": "Accounts", "designation": "Clerk", "contactNumber": "0302",
		"salary": "30000",
	}
}

func TestImportAdminStaffValidatesSuppliedIdentity(t *testing.T) {
	rows := []spreadsheet.Row{
		staffRow("Bad", "Email", "not-an-email", "EMP-1"),
		staffRow("Good", "Staff", "good.staff@campus.edu", "EMP-2"),
		staffRow("Dup", "Employee", "dup@campus.edu", "EMP-2"),
	}
	svc, _, _, _, staff, history, _, _ := newTestImportService(rows, nil)

	result, err := svc.ImportAdminStaff(context.Background(), ImportUpload{Path: "/tmp/s.csv", UploadedBy: "u"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 2, result.ErrorCount)
	assert.Contains(t, result.Errors[0].Message, "invalid email format")
	assert.Contains(t, result.Errors[1].Message, "EMP-2")

	require.Len(t, staff.created, 1)
	assert.Equal(t, models.StaffTypeAdmin, staff.created[0].Type)
	require.Len(t, history.records, 1)
	assert.Equal(t, models.ImportUserTypeAdminStaff, history.records[0].UserType)
}

func TestImportParseFailureSkipsHistoryButCleansUp(t *testing.T) {
	svc, _, _, _, _, history, _, removed := newTestImportService(nil, errors.New("file has no data rows"))

	_, err := svc.ImportStudents(context.Background(), ImportUpload{Path: "/tmp/bad.csv", UploadedBy: "u"})
	require.Error(t, err)
	assert.Empty(t, history.records)
	assert.Equal(t, []string{"/tmp/bad.csv"}, *removed)
}

func TestImportAllRowsFailingIsRecordedAsFailed(t *testing.T) {
	rows := []spreadsheet.Row{
		{"firstName": "Only", "lastName": "Name"},
		{"firstName": "Another", "lastName": "One"},
	}
	svc, _, _, _, _, history, _, _ := newTestImportService(rows, nil)

	result, err := svc.ImportStudents(context.Background(), ImportUpload{Path: "/tmp/f.csv", UploadedBy: "u"})
	require.NoError(t, err)
	assert.Equal(t, 0, result.SuccessCount)
	assert.Equal(t, 2, result.ErrorCount)
	require.Len(t, history.records, 1)
	assert.Equal(t, models.ImportStatusFailed, history.records[0].Status)
}

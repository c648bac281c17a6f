package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/nexlearn/campus-api/internal/models"
	appErrors "github.com/nexlearn/campus-api/pkg/errors"
	"github.com/nexlearn/campus-api/pkg/spreadsheet"
)

type importUserRepository interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

type importStudentRepository interface {
	ExistsByRoll(ctx context.Context, rollNumber string, excludeID string) (bool, error)
	CreateWithUser(ctx context.Context, user *models.User, student *models.Student) error
}

type importTeacherRepository interface {
	ExistsByEmployeeID(ctx context.Context, employeeID string, excludeID string) (bool, error)
	Count(ctx context.Context) (int, error)
	CreateWithUser(ctx context.Context, user *models.User, teacher *models.Teacher) error
}

type importStaffRepository interface {
	ExistsByEmployeeID(ctx context.Context, staffType models.StaffType, employeeID string, excludeID string) (bool, error)
	CreateWithUser(ctx context.Context, user *models.User, staff *models.Staff) error
}

type importHistoryRepository interface {
	Create(ctx context.Context, history *models.ImportHistory) error
	List(ctx context.Context, filter models.ImportHistoryFilter) ([]models.ImportHistory, int, error)
}

type feeSeeder interface {
	CreateInitialFeeRecord(ctx context.Context, studentID, recordedBy string, amount float64) (*models.Fee, error)
}

// ImportUpload describes a roster file already staged on local disk.
type ImportUpload struct {
	Path             string
	OriginalFilename string
	UploadedBy       string
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ImportService runs the bulk roster import pipeline: parse the uploaded
// spreadsheet, process rows independently, and persist an audit record for
// the run. The staged upload file is removed when the run finishes, whatever
// the outcome.
type ImportService struct {
	users        importUserRepository
	students     importStudentRepository
	teachers     importTeacherRepository
	staff        importStaffRepository
	history      importHistoryRepository
	fees         feeSeeder
	summaryCache summaryInvalidator
	logger       *zap.Logger

	emailDomain string
	parse       func(path string) ([]spreadsheet.Row, error)
	removeFile  func(path string) error
}

// NewImportService constructs the import service.
func NewImportService(
	users importUserRepository,
	students importStudentRepository,
	teachers importTeacherRepository,
	staff importStaffRepository,
	history importHistoryRepository,
	fees feeSeeder,
	emailDomain string,
	logger *zap.Logger,
) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if emailDomain == "" {
		emailDomain = "campus.edu"
	}
	return &ImportService{
		users:       users,
		students:    students,
		teachers:    teachers,
		staff:       staff,
		history:     history,
		fees:        fees,
		logger:      logger,
		emailDomain: emailDomain,
		parse:       spreadsheet.Parse,
		removeFile:  os.Remove,
	}
}

// SetSummaryCache attaches the dashboard summary cache, invalidated after
// any run that created accounts.
func (s *ImportService) SetSummaryCache(cache summaryInvalidator) {
	s.summaryCache = cache
}

// History lists past import runs, newest first.
func (s *ImportService) History(ctx context.Context, filter models.ImportHistoryFilter) ([]models.ImportHistory, *models.Pagination, error) {
	runs, total, err := s.history.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list import history")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return runs, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// ImportStudents processes a student roster file.
func (s *ImportService) ImportStudents(ctx context.Context, upload ImportUpload) (*models.ImportResult, error) {
	return s.run(ctx, upload, roleSpec{
		userType: models.ImportUserTypeStudent,
		required: []string{"firstName", "lastName", "rollNumber", "class", "section", "gender", "monthlyFee", "fatherName", "motherName", "contactNumber"},
		process:  s.createStudent,
	})
}

// ImportTeachers processes a teacher roster file.
func (s *ImportService) ImportTeachers(ctx context.Context, upload ImportUpload) (*models.ImportResult, error) {
	seq, err := s.teachers.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed employee id sequence")
	}
	counter := seq
	return s.run(ctx, upload, roleSpec{
		userType: models.ImportUserTypeTeacher,
		required: []string{"firstName", "lastName", "subjects", "qualification", "contactNumber"},
		process: func(ctx context.Context, row spreadsheet.Row, uploadedBy string) error {
			return s.createTeacher(ctx, row, uploadedBy, &counter)
		},
	})
}

// ImportAdminStaff processes an administrative staff roster file.
func (s *ImportService) ImportAdminStaff(ctx context.Context, upload ImportUpload) (*models.ImportResult, error) {
	return s.run(ctx, upload, roleSpec{
		userType: models.ImportUserTypeAdminStaff,
		required: []string{"firstName", "lastName", "email", "employeeId", "department", "designation", "contactNumber"},
		process: func(ctx context.Context, row spreadsheet.Row, uploadedBy string) error {
			return s.createStaff(ctx, row, uploadedBy, models.StaffTypeAdmin)
		},
	})
}

// ImportSupportStaff processes a support staff roster file.
func (s *ImportService) ImportSupportStaff(ctx context.Context, upload ImportUpload) (*models.ImportResult, error) {
	return s.run(ctx, upload, roleSpec{
		userType: models.ImportUserTypeSupportStaff,
		required: []string{"firstName", "lastName", "email", "employeeId", "responsibilities", "contactNumber"},
		process: func(ctx context.Context, row spreadsheet.Row, uploadedBy string) error {
			return s.createStaff(ctx, row, uploadedBy, models.StaffTypeSupport)
		},
	})
}

type roleSpec struct {
	userType models.ImportUserType
	required []string
	process  func(ctx context.Context, row spreadsheet.Row, uploadedBy string) error
}

// run executes the shared pipeline. Row failures never abort the batch; each
// failed row is recorded with its spreadsheet row number (data rows start at
// row 2, after the header).
func (s *ImportService) run(ctx context.Context, upload ImportUpload, spec roleSpec) (*models.ImportResult, error) {
	defer func() {
		if upload.Path == "" {
			return
		}
		if err := s.removeFile(upload.Path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove uploaded file", zap.String("path", upload.Path), zap.Error(err))
		}
	}()

	rows, err := s.parse(upload.Path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to parse uploaded file")
	}

	result := &models.ImportResult{TotalRecords: len(rows), Errors: models.ImportRowErrors{}}
	for i, row := range rows {
		rowNumber := i + 2
		if missing := missingFields(row, spec.required); len(missing) > 0 {
			result.ErrorCount++
			result.Errors = append(result.Errors, models.ImportRowError{
				Row:     rowNumber,
				Message: "missing required fields: " + strings.Join(missing, ", "),
			})
			continue
		}
		if err := spec.process(ctx, row, upload.UploadedBy); err != nil {
			result.ErrorCount++
			result.Errors = append(result.Errors, models.ImportRowError{Row: rowNumber, Message: err.Error()})
			continue
		}
		result.SuccessCount++
	}

	history := &models.ImportHistory{
		UserType:         spec.userType,
		Filename:         filenameOf(upload.Path),
		OriginalFilename: upload.OriginalFilename,
		UploadedBy:       upload.UploadedBy,
		Status:           result.Status(),
		TotalRecords:     result.TotalRecords,
		SuccessCount:     result.SuccessCount,
		ErrorCount:       result.ErrorCount,
		Errors:           result.Errors,
	}
	if err := s.history.Create(ctx, history); err != nil {
		s.logger.Error("failed to persist import history",
			zap.String("user_type", string(spec.userType)),
			zap.Error(err))
	}

	if result.SuccessCount > 0 && s.summaryCache != nil {
		s.summaryCache.Invalidate(ctx)
	}
	return result, nil
}

func (s *ImportService) createStudent(ctx context.Context, row spreadsheet.Row, uploadedBy string) error {
	first := row["firstName"]
	last := row["lastName"]

	exists, err := s.students.ExistsByRoll(ctx, row["rollNumber"], "")
	if err != nil {
		return fmt.Errorf("failed to check roll number: %w", err)
	}
	if exists {
		return fmt.Errorf("roll number %s already exists", row["rollNumber"])
	}

	// A supplied email is honoured only when it already follows the
	// synthetic student pattern; anything else is replaced.
	email := strings.ToLower(strings.TrimSpace(row["email"]))
	expected := "std" + cleanNamePart(first) + cleanNamePart(last) + "@" + s.emailDomain
	if email != expected {
		email = ""
	}
	if email == "" {
		email, err = generateUniqueEmail(ctx, s.users, s.emailDomain, "std", first, last)
		if err != nil {
			return err
		}
	} else if taken, err := s.users.ExistsByEmail(ctx, email); err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	} else if taken {
		email, err = generateUniqueEmail(ctx, s.users, s.emailDomain, "std", first, last)
		if err != nil {
			return err
		}
	}

	user, err := newAccount(email, first, last, models.RoleStudent, uploadedBy)
	if err != nil {
		return err
	}
	student := &models.Student{
		RollNumber:    strings.TrimSpace(row["rollNumber"]),
		Class:         strings.TrimSpace(row["class"]),
		Section:       strings.TrimSpace(row["section"]),
		Gender:        strings.TrimSpace(row["gender"]),
		MonthlyFee:    parseFloat(row["monthlyFee"]),
		FatherName:    strings.TrimSpace(row["fatherName"]),
		MotherName:    strings.TrimSpace(row["motherName"]),
		ContactNumber: strings.TrimSpace(row["contactNumber"]),
		Address:       strings.TrimSpace(row["address"]),
		Active:        true,
	}
	if err := s.students.CreateWithUser(ctx, user, student); err != nil {
		return fmt.Errorf("failed to create student: %w", err)
	}

	if student.MonthlyFee > 0 && s.fees != nil {
		if _, err := s.fees.CreateInitialFeeRecord(ctx, student.ID, uploadedBy, student.MonthlyFee); err != nil {
			s.logger.Warn("failed to seed initial fee record",
				zap.String("student_id", student.ID),
				zap.Error(err))
		}
	}
	return nil
}

func (s *ImportService) createTeacher(ctx context.Context, row spreadsheet.Row, uploadedBy string, counter *int) error {
	first := row["firstName"]
	last := row["lastName"]

	// Teacher emails are never user-supplied.
	email, err := generateUniqueEmail(ctx, s.users, s.emailDomain, "tch", first, last)
	if err != nil {
		return err
	}

	employeeID, err := nextEmployeeID(ctx, s.teachers, counter)
	if err != nil {
		return err
	}

	user, err := newAccount(email, first, last, models.RoleTeacher, uploadedBy)
	if err != nil {
		return err
	}
	teacher := &models.Teacher{
		EmployeeID:      employeeID,
		Subjects:        splitList(row["subjects"]),
		Classes:         splitList(row["classes"]),
		Qualification:   strings.TrimSpace(row["qualification"]),
		ExperienceYears: parseInt(row["experienceYears"]),
		Salary:          parseFloat(row["salary"]),
		ContactNumber:   strings.TrimSpace(row["contactNumber"]),
		Active:          true,
	}
	if err := s.teachers.CreateWithUser(ctx, user, teacher); err != nil {
		return fmt.Errorf("failed to create teacher: %w", err)
	}
	return nil
}

func (s *ImportService) createStaff(ctx context.Context, row spreadsheet.Row, uploadedBy string, staffType models.StaffType) error {
	email := strings.ToLower(strings.TrimSpace(row["email"]))
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	if taken, err := s.users.ExistsByEmail(ctx, email); err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	} else if taken {
		return fmt.Errorf("email %s already exists", email)
	}

	employeeID := strings.TrimSpace(row["employeeId"])
	if taken, err := s.staff.ExistsByEmployeeID(ctx, staffType, employeeID, ""); err != nil {
		return fmt.Errorf("failed to check employee id: %w", err)
	} else if taken {
		return fmt.Errorf("employee id %s already exists", employeeID)
	}

	role := models.RoleAdminStaff
	if staffType == models.StaffTypeSupport {
		role = models.RoleSupportStaff
	}
	user, err := newAccount(email, row["firstName"], row["lastName"], role, uploadedBy)
	if err != nil {
		return err
	}
	staff := &models.Staff{
		Type:             staffType,
		EmployeeID:       employeeID,
		Department:       strings.TrimSpace(row["department"]),
		Designation:      strings.TrimSpace(row["designation"]),
		Responsibilities: splitList(row["responsibilities"]),
		DaysOfWeek:       splitList(row["daysOfWeek"]),
		Salary:           parseFloat(row["salary"]),
		ContactNumber:    strings.TrimSpace(row["contactNumber"]),
		Active:           true,
	}
	if err := s.staff.CreateWithUser(ctx, user, staff); err != nil {
		return fmt.Errorf("failed to create staff: %w", err)
	}
	return nil
}

// newAccount builds a user account with a random temporary password.
func newAccount(email, first, last string, role models.UserRole, createdBy string) (*models.User, error) {
	password, err := tempPassword()
	if err != nil {
		return nil, fmt.Errorf("failed to generate password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(first),
		LastName:     strings.TrimSpace(last),
		Role:         role,
		Approved:     true,
		Active:       true,
	}
	if createdBy != "" {
		user.CreatedBy = &createdBy
	}
	return user, nil
}

type employeeIDChecker interface {
	ExistsByEmployeeID(ctx context.Context, employeeID string, excludeID string) (bool, error)
}

// generateUniqueEmail derives <prefix><first><last>@<domain> from the cleaned
// name parts, appending a numeric suffix until the address is free.
func generateUniqueEmail(ctx context.Context, users importUserRepository, domain, prefix, first, last string) (string, error) {
	local := prefix + cleanNamePart(first) + cleanNamePart(last)
	email := local + "@" + domain
	for suffix := 1; ; suffix++ {
		exists, err := users.ExistsByEmail(ctx, email)
		if err != nil {
			return "", fmt.Errorf("failed to check email: %w", err)
		}
		if !exists {
			return email, nil
		}
		email = fmt.Sprintf("%s%d@%s", local, suffix, domain)
	}
}

// nextEmployeeID hands out TCH<yy><seq> identifiers, advancing past any that
// are already taken. The database unique index remains the final arbiter.
func nextEmployeeID(ctx context.Context, teachers employeeIDChecker, counter *int) (string, error) {
	year := time.Now().UTC().Year() % 100
	for {
		*counter++
		candidate := fmt.Sprintf("TCH%02d%03d", year, *counter)
		taken, err := teachers.ExistsByEmployeeID(ctx, candidate, "")
		if err != nil {
			return "", fmt.Errorf("failed to check employee id: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}
}

func missingFields(row spreadsheet.Row, required []string) []string {
	var missing []string
	for _, field := range required {
		if strings.TrimSpace(row[field]) == "" {
			missing = append(missing, field)
		}
	}
	return missing
}

// cleanNamePart keeps lowercase alphanumerics only.
func cleanNamePart(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func splitList(s string) pq.StringArray {
	parts := strings.Split(s, ",")
	out := make(pq.StringArray, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseInt(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return v
}

func tempPassword() (string, error) {
	buf := make([]byte, 9)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func filenameOf(path string) string {
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

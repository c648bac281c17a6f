package handler

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nexlearn/campus-api/internal/models"
	"github.com/nexlearn/campus-api/internal/service"
	appErrors "github.com/nexlearn/campus-api/pkg/errors"
	"github.com/nexlearn/campus-api/pkg/response"
	"github.com/nexlearn/campus-api/pkg/storage"
)

// ImportHandler exposes the bulk roster import endpoints.
type ImportHandler struct {
	imports   *service.ImportService
	metrics   *service.MetricsService
	uploads   *storage.LocalStorage
	maxSize   int64
	uploadTTL time.Duration
	logger    *zap.Logger
}

// NewImportHandler constructs ImportHandler.
func NewImportHandler(imports *service.ImportService, metrics *service.MetricsService, uploads *storage.LocalStorage, maxSize int64, uploadTTL time.Duration, logger *zap.Logger) *ImportHandler {
	if maxSize <= 0 {
		maxSize = 10 << 20
	}
	if uploadTTL <= 0 {
		uploadTTL = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportHandler{imports: imports, metrics: metrics, uploads: uploads, maxSize: maxSize, uploadTTL: uploadTTL, logger: logger}
}

// Students godoc
// @Summary Bulk import students from a spreadsheet
// @Tags Imports
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX roster"
// @Success 200 {object} response.Envelope
// @Router /imports/students [post]
func (h *ImportHandler) Students(c *gin.Context) {
	h.run(c, models.ImportUserTypeStudent, h.imports.ImportStudents)
}

// Teachers godoc
// @Summary Bulk import teachers from a spreadsheet
// @Tags Imports
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX roster"
// @Success 200 {object} response.Envelope
// @Router /imports/teachers [post]
func (h *ImportHandler) Teachers(c *gin.Context) {
	h.run(c, models.ImportUserTypeTeacher, h.imports.ImportTeachers)
}

// AdminStaff godoc
// @Summary Bulk import administrative staff from a spreadsheet
// @Tags Imports
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX roster"
// @Success 200 {object} response.Envelope
// @Router /imports/admin-staff [post]
func (h *ImportHandler) AdminStaff(c *gin.Context) {
	h.run(c, models.ImportUserTypeAdminStaff, h.imports.ImportAdminStaff)
}

// SupportStaff godoc
// @Summary Bulk import support staff from a spreadsheet
// @Tags Imports
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX roster"
// @Success 200 {object} response.Envelope
// @Router /imports/support-staff [post]
func (h *ImportHandler) SupportStaff(c *gin.Context) {
	h.run(c, models.ImportUserTypeSupportStaff, h.imports.ImportSupportStaff)
}

// History godoc
// @Summary List past import runs
// @Tags Imports
// @Produce json
// @Param userType query string false "Filter by user type"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /imports/history [get]
func (h *ImportHandler) History(c *gin.Context) {
	var filter models.ImportHistoryFilter
	filter.UserType = models.ImportUserType(c.Query("userType"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	runs, pagination, err := h.imports.History(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, runs, pagination)
}

func (h *ImportHandler) run(c *gin.Context, userType models.ImportUserType, process func(context.Context, service.ImportUpload) (*models.ImportResult, error)) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	if fileHeader.Size > h.maxSize {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file exceeds maximum allowed size"))
		return
	}
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext != ".csv" && ext != ".xlsx" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "only .csv and .xlsx files are supported"))
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read upload"))
		return
	}
	defer src.Close() //nolint:errcheck

	// Staged files are normally removed when a run finishes; anything older
	// than the TTL is a crash leftover.
	if removed, err := h.uploads.CleanupOlderThan(h.uploadTTL); err != nil {
		h.logger.Warn("failed to sweep stale uploads", zap.Error(err))
	} else if len(removed) > 0 {
		h.logger.Info("removed stale staged uploads", zap.Int("count", len(removed)))
	}

	staged := fmt.Sprintf("%s-%s%s", userType, uuid.NewString(), ext)
	if _, err := h.uploads.SaveStream(staged, src); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stage upload"))
		return
	}

	upload := service.ImportUpload{
		Path:             h.uploads.Path(staged),
		OriginalFilename: fileHeader.Filename,
		UploadedBy:       currentUserID(c),
	}
	result, err := process(c.Request.Context(), upload)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.ObserveImportRun(string(userType), string(result.Status()), result.SuccessCount, result.ErrorCount)
	response.JSON(c, http.StatusOK, result, nil)
}

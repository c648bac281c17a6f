package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nexlearn/campus-api/internal/models"
	"github.com/nexlearn/campus-api/internal/service"
	appErrors "github.com/nexlearn/campus-api/pkg/errors"
	"github.com/nexlearn/campus-api/pkg/export"
	"github.com/nexlearn/campus-api/pkg/response"
)

// FeeHandler exposes fee lifecycle endpoints.
type FeeHandler struct {
	fees     *service.FeeService
	students *service.StudentService
	receipts *export.ReceiptExporter
}

// NewFeeHandler constructs FeeHandler.
func NewFeeHandler(fees *service.FeeService, students *service.StudentService, receipts *export.ReceiptExporter) *FeeHandler {
	return &FeeHandler{fees: fees, students: students, receipts: receipts}
}

// List godoc
// @Summary List fee records
// @Tags Fees
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param status query string false "Filter by status"
// @Param dueMonth query string false "Filter by due month (YYYY-MM)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /fees [get]
func (h *FeeHandler) List(c *gin.Context) {
	var filter models.FeeFilter
	filter.StudentID = c.Query("studentId")
	filter.Status = models.FeeStatus(c.Query("status"))
	filter.DueMonth = c.Query("dueMonth")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	fees, pagination, err := h.fees.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fees, pagination)
}

// Get godoc
// @Summary Get a fee record
// @Tags Fees
// @Produce json
// @Param id path string true "Fee ID"
// @Success 200 {object} response.Envelope
// @Router /fees/{id} [get]
func (h *FeeHandler) Get(c *gin.Context) {
	fee, err := h.fees.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fee, nil)
}

// Create godoc
// @Summary Record a fee manually
// @Tags Fees
// @Accept json
// @Produce json
// @Param payload body service.CreateFeeRequest true "Fee payload"
// @Success 201 {object} response.Envelope
// @Router /fees [post]
func (h *FeeHandler) Create(c *gin.Context) {
	var req service.CreateFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	fee, err := h.fees.Create(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, fee)
}

// Update godoc
// @Summary Record a payment or mark a fee as paid
// @Tags Fees
// @Accept json
// @Produce json
// @Param id path string true "Fee ID"
// @Param payload body service.UpdateFeeRequest true "Payment payload"
// @Success 200 {object} response.Envelope
// @Router /fees/{id} [put]
func (h *FeeHandler) Update(c *gin.Context) {
	var req service.UpdateFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	fee, err := h.fees.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fee, nil)
}

// Delete godoc
// @Summary Delete a fee record
// @Tags Fees
// @Produce json
// @Param id path string true "Fee ID"
// @Success 204
// @Router /fees/{id} [delete]
func (h *FeeHandler) Delete(c *gin.Context) {
	if err := h.fees.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Arrears godoc
// @Summary Compute a student's carried-forward arrears
// @Tags Fees
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /fees/arrears/{studentId} [get]
func (h *FeeHandler) Arrears(c *gin.Context) {
	studentID := c.Param("studentId")
	arrears, err := h.fees.CalculateArrears(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"student_id": studentID, "arrears": arrears}, nil)
}

// StudentFees godoc
// @Summary List fee records of one student
// @Tags Fees
// @Produce json
// @Param id path string true "Student ID"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/fees [get]
func (h *FeeHandler) StudentFees(c *gin.Context) {
	var filter models.FeeFilter
	filter.StudentID = c.Param("id")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	fees, pagination, err := h.fees.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fees, pagination)
}

// StudentArrears godoc
// @Summary Compute a student's carried-forward arrears
// @Tags Fees
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/arrears [get]
func (h *FeeHandler) StudentArrears(c *gin.Context) {
	studentID := c.Param("id")
	arrears, err := h.fees.CalculateArrears(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"student_id": studentID, "arrears": arrears}, nil)
}

// Generate godoc
// @Summary Queue monthly fee generation for all active students
// @Tags Fees
// @Produce json
// @Success 202 {object} response.Envelope
// @Router /fees/generate [post]
func (h *FeeHandler) Generate(c *gin.Context) {
	queued, err := h.fees.EnqueueMonthlyGeneration(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"queued": queued}, nil)
}

// CleanupOrphans godoc
// @Summary Remove fee records whose student is gone or inactive
// @Tags Fees
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /fees/cleanup-orphans [post]
func (h *FeeHandler) CleanupOrphans(c *gin.Context) {
	removed, err := h.fees.CleanupOrphans(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"removed": removed}, nil)
}

// Receipt godoc
// @Summary Download a fee receipt as PDF
// @Tags Fees
// @Produce application/pdf
// @Param id path string true "Fee ID"
// @Success 200 {file} binary
// @Router /fees/{id}/receipt [get]
func (h *FeeHandler) Receipt(c *gin.Context) {
	fee, err := h.fees.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	student, err := h.students.Get(c.Request.Context(), fee.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	receipt := export.Receipt{
		ReceiptNo:   fee.ID,
		StudentName: student.FirstName + " " + student.LastName,
		RollNumber:  student.RollNumber,
		Class:       student.Class,
		FeeType:     fee.FeeType,
		DueMonth:    fee.DueMonth,
		Amount:      fee.Amount,
		PaidAmount:  fee.PaidAmount,
		Remaining:   fee.RemainingAmount,
		Arrears:     fee.Arrears,
		Status:      string(fee.Status),
		PaymentDate: fee.PaymentDate,
		IssuedAt:    fee.UpdatedAt,
	}
	pdf, err := h.receipts.Render(receipt)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render receipt"))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="receipt-%s.pdf"`, fee.ID))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

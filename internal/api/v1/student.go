package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/api/dto"
	ierr "github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/errors"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/logger"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/service"
)

type StudentHandler struct {
	service service.StudentService
	billing service.BillingService
	log     *logger.Logger
}

func NewStudentHandler(
	service service.StudentService,
	billing service.BillingService,
	log *logger.Logger,
) *StudentHandler {
	return &StudentHandler{
		service: service,
		billing: billing,
		log:     log,
	}
}

// @Summary Create a student
// @Description Create a student
// @Tags Students
// @Accept json
// @Produce json
// @Param student body dto.CreateStudentRequest true "Student"
// @Success 201 {object} dto.StudentResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /students [post]
func (h *StudentHandler) CreateStudent(c *gin.Context) {
	var req dto.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CreateStudent(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Get a student
// @Description Get a student
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} dto.StudentResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /students/{id} [get]
func (h *StudentHandler) GetStudent(c *gin.Context) {
	resp, err := h.service.GetStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary List students
// @Description List students
// @Tags Students
// @Accept json
// @Produce json
// @Success 200 {object} dto.ListStudentsResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /students [get]
func (h *StudentHandler) ListStudents(c *gin.Context) {
	resp, err := h.service.ListStudents(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Get a student's payment history
// @Description Get all payments recorded for a student, newest first
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} dto.StudentPaymentHistoryResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /students/{id}/payments [get]
func (h *StudentHandler) GetStudentPayments(c *gin.Context) {
	resp, err := h.billing.GetStudentPayments(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Get a student's outstanding balance
// @Description Sum of remaining balances across the student's open invoices
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} dto.OutstandingBalanceResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /students/{id}/balance [get]
func (h *StudentHandler) GetOutstandingBalance(c *gin.Context) {
	resp, err := h.billing.GetOutstandingBalance(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "directpay/internal/errors"
	"directpay/internal/pagination"
	"directpay/internal/services"
)

// LeaseHandler handles lease registration and schedule lookups.
type LeaseHandler struct {
	leaseService    services.LeaseServicer
	scheduleService services.ScheduleServicer
	auditService    services.AuditServicer
}

// NewLeaseHandler creates a new LeaseHandler.
func NewLeaseHandler(leaseService services.LeaseServicer, scheduleService services.ScheduleServicer, auditService services.AuditServicer) *LeaseHandler {
	return &LeaseHandler{leaseService: leaseService, scheduleService: scheduleService, auditService: auditService}
}

// CreateLeaseRequest represents the request payload for creating a lease.
// Dates use the YYYY-MM-DD form.
type CreateLeaseRequest struct {
	PropertyID    string          `json:"property_id" binding:"required,uuid"`
	RenterID      string          `json:"renter_id" binding:"required,uuid"`
	StartDate     string          `json:"start_date" binding:"required" example:"2024-01-01"`
	EndDate       string          `json:"end_date" binding:"required" example:"2024-12-31"`
	RentAmount    decimal.Decimal `json:"rent_amount" swaggertype:"string" example:"2500.00"`
	DueDayOfMonth int             `json:"due_day_of_month" binding:"required"`
}

// CreateLease handles lease creation
// @Summary     Create a lease
// @Description Create a lease and its payment schedule
// @Tags        leases
// @Accept      json
// @Produce     json
// @Param       request body CreateLeaseRequest true "Lease details"
// @Success     201 {object} models.Lease "Lease created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Property or renter not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /leases [post]
func (h *LeaseHandler) CreateLease(c *gin.Context) {
	var req CreateLeaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		respondWithError(c, err)
		return
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	lease, err := h.leaseService.CreateLease(c.Request.Context(), services.CreateLeaseInput{
		PropertyID:    req.PropertyID,
		RenterID:      req.RenterID,
		StartDate:     start,
		EndDate:       end,
		RentAmount:    req.RentAmount,
		DueDayOfMonth: req.DueDayOfMonth,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), services.AuditEntry{
		Table:    "leases",
		RecordID: lease.ID,
		Action:   services.AuditActionCreate,
		NewValues: map[string]interface{}{
			"property_id":      lease.PropertyID,
			"renter_id":        lease.RenterID,
			"rent_amount":      lease.RentAmount.StringFixed(2),
			"due_day_of_month": lease.DueDayOfMonth,
		},
		ClientIP: c.ClientIP(),
	})

	c.JSON(http.StatusCreated, lease)
}

// ListRenterLeases handles the listing of a renter's leases
// @Summary     List a renter's leases
// @Tags        leases
// @Produce     json
// @Param       renter_id path  string true  "Renter ID"
// @Param       skip      query int    false "Rows to skip (default 0)"
// @Param       limit     query int    false "Rows to return (default 100, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Lease] "Paginated leases"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /leases/renter/{renter_id} [get]
func (h *LeaseHandler) ListRenterLeases(c *gin.Context) {
	renterID, err := parsePathID(c, "renter_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.leaseService.ListRenterLeases(c.Request.Context(), renterID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetLeaseSchedule handles the retrieval of a lease's payment schedule
// @Summary     Get a lease's payment schedule
// @Tags        leases
// @Produce     json
// @Param       id path string true "Lease ID"
// @Success     200 {object} models.PaymentSchedule "Payment schedule"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Schedule not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /leases/{id}/schedule [get]
func (h *LeaseHandler) GetLeaseSchedule(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	schedule, err := h.scheduleService.GetByLease(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, schedule)
}

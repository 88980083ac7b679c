package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "directpay/internal/errors"
	"directpay/internal/pagination"
	"directpay/internal/services"
)

// PropertyHandler handles property registration.
type PropertyHandler struct {
	propertyService services.PropertyServicer
	auditService    services.AuditServicer
}

// NewPropertyHandler creates a new PropertyHandler.
func NewPropertyHandler(propertyService services.PropertyServicer, auditService services.AuditServicer) *PropertyHandler {
	return &PropertyHandler{propertyService: propertyService, auditService: auditService}
}

// CreatePropertyRequest represents the request payload for registering a property
type CreatePropertyRequest struct {
	LandlordID  string          `json:"landlord_id" binding:"required,uuid"`
	Address     string          `json:"address" binding:"required,min=1,max=255"`
	City        string          `json:"city" binding:"required,min=1,max=100"`
	State       string          `json:"state" binding:"required,len=2"`
	ZipCode     string          `json:"zip_code" binding:"required,min=5,max=10"`
	MonthlyRent decimal.Decimal `json:"monthly_rent" swaggertype:"string" example:"2500.00"`
}

// CreateProperty handles property registration
// @Summary     Register a property
// @Description Register a property owned by an existing landlord
// @Tags        properties
// @Accept      json
// @Produce     json
// @Param       request body CreatePropertyRequest true "Property details"
// @Success     201 {object} models.Property "Property created"
// @Failure     400 {object} ErrorResponse "Invalid input or user is not a landlord"
// @Failure     404 {object} ErrorResponse "Landlord not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /properties [post]
func (h *PropertyHandler) CreateProperty(c *gin.Context) {
	var req CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	property, err := h.propertyService.CreateProperty(c.Request.Context(), services.CreatePropertyInput{
		LandlordID:  req.LandlordID,
		Address:     req.Address,
		City:        req.City,
		State:       req.State,
		ZipCode:     req.ZipCode,
		MonthlyRent: req.MonthlyRent,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), services.AuditEntry{
		Table:     "properties",
		RecordID:  property.ID,
		Action:    services.AuditActionCreate,
		NewValues: map[string]interface{}{"landlord_id": property.LandlordID, "monthly_rent": property.MonthlyRent.StringFixed(2)},
		ClientIP:  c.ClientIP(),
	})

	c.JSON(http.StatusCreated, property)
}

// ListLandlordProperties handles the listing of a landlord's properties
// @Summary     List a landlord's properties
// @Tags        properties
// @Produce     json
// @Param       landlord_id path  string true  "Landlord ID"
// @Param       skip        query int    false "Rows to skip (default 0)"
// @Param       limit       query int    false "Rows to return (default 100, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Property] "Paginated properties"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /properties/landlord/{landlord_id} [get]
func (h *PropertyHandler) ListLandlordProperties(c *gin.Context) {
	landlordID, err := parsePathID(c, "landlord_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.propertyService.ListLandlordProperties(c.Request.Context(), landlordID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "directpay/internal/errors"
	"directpay/internal/models"
	"directpay/internal/pagination"
	"directpay/internal/services"
)

// UserHandler handles landlord and renter registration.
type UserHandler struct {
	userService  services.UserServicer
	auditService services.AuditServicer
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService services.UserServicer, auditService services.AuditServicer) *UserHandler {
	return &UserHandler{userService: userService, auditService: auditService}
}

// CreateUserRequest represents the request payload for registering a user
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	FullName string `json:"full_name" binding:"required,min=1,max=255"`
	Role     string `json:"role" binding:"required,user_role"`
}

// CreateUser handles user registration
// @Summary     Register a user
// @Description Register a landlord or renter
// @Tags        users
// @Accept      json
// @Produce     json
// @Param       request body CreateUserRequest true "User details"
// @Success     201 {object} models.User "User created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Email already registered"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), req.Email, req.FullName, models.UserRole(req.Role))
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), services.AuditEntry{
		Table:     "users",
		RecordID:  user.ID,
		Action:    services.AuditActionCreate,
		NewValues: map[string]interface{}{"email": user.Email, "role": user.Role},
		ClientIP:  c.ClientIP(),
	})

	c.JSON(http.StatusCreated, user)
}

// ListUsers handles the paginated user listing
// @Summary     List users
// @Tags        users
// @Produce     json
// @Param       skip  query int false "Rows to skip (default 0)"
// @Param       limit query int false "Rows to return (default 100, max 100)"
// @Success     200 {object} pagination.PageResponse[models.User] "Paginated users"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.userService.ListUsers(c.Request.Context(), page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetUser handles the retrieval of a user by ID
// @Summary     Get a user
// @Tags        users
// @Produce     json
// @Param       id path string true "User ID"
// @Success     200 {object} models.User "User"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByID(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

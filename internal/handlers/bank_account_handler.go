package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "directpay/internal/errors"
	"directpay/internal/services"
)

// BankAccountHandler handles bank account registration.
type BankAccountHandler struct {
	bankAccountService services.BankAccountServicer
	auditService       services.AuditServicer
}

// NewBankAccountHandler creates a new BankAccountHandler.
func NewBankAccountHandler(bankAccountService services.BankAccountServicer, auditService services.AuditServicer) *BankAccountHandler {
	return &BankAccountHandler{bankAccountService: bankAccountService, auditService: auditService}
}

// CreateBankAccountRequest represents the request payload for linking a bank account.
// Only the last four digits of the account number are stored.
type CreateBankAccountRequest struct {
	UserID        string `json:"user_id" binding:"required,uuid"`
	AccountNumber string `json:"account_number" binding:"required,numeric,min=4,max=17"`
	RoutingNumber string `json:"routing_number" binding:"required,routing_number"`
	BankName      string `json:"bank_name" binding:"max=100"`
}

// CreateBankAccount handles bank account registration
// @Summary     Link a bank account
// @Tags        bank-accounts
// @Accept      json
// @Produce     json
// @Param       request body CreateBankAccountRequest true "Bank account details"
// @Success     201 {object} models.BankAccount "Bank account created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /bank-accounts [post]
func (h *BankAccountHandler) CreateBankAccount(c *gin.Context) {
	var req CreateBankAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	account, err := h.bankAccountService.CreateBankAccount(c.Request.Context(), services.CreateBankAccountInput{
		UserID:        req.UserID,
		AccountNumber: req.AccountNumber,
		RoutingNumber: req.RoutingNumber,
		BankName:      req.BankName,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), services.AuditEntry{
		Table:     "bank_accounts",
		RecordID:  account.ID,
		Action:    services.AuditActionCreate,
		NewValues: map[string]interface{}{"user_id": account.UserID, "account_number_token": account.AccountNumberToken},
		ClientIP:  c.ClientIP(),
	})

	c.JSON(http.StatusCreated, account)
}

// ListUserBankAccounts handles the listing of a user's bank accounts
// @Summary     List a user's bank accounts
// @Description Primary account first
// @Tags        bank-accounts
// @Produce     json
// @Param       user_id path string true "User ID"
// @Success     200 {array}  models.BankAccount "Bank accounts"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /bank-accounts/user/{user_id} [get]
func (h *BankAccountHandler) ListUserBankAccounts(c *gin.Context) {
	userID, err := parsePathID(c, "user_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	accounts, err := h.bankAccountService.ListUserBankAccounts(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, accounts)
}

// SetPrimary handles marking a bank account as the owner's primary account
// @Summary     Set primary bank account
// @Tags        bank-accounts
// @Produce     json
// @Param       id path string true "Bank account ID"
// @Success     200 {object} models.BankAccount "Updated bank account"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Bank account not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /bank-accounts/{id}/set-primary [patch]
func (h *BankAccountHandler) SetPrimary(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	account, err := h.bankAccountService.SetPrimary(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), services.AuditEntry{
		Table:     "bank_accounts",
		RecordID:  account.ID,
		Action:    services.AuditActionUpdate,
		NewValues: map[string]interface{}{"is_primary": true},
		ClientIP:  c.ClientIP(),
	})

	c.JSON(http.StatusOK, account)
}

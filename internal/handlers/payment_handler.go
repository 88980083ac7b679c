package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "directpay/internal/errors"
	"directpay/internal/models"
	"directpay/internal/pagination"
	"directpay/internal/services"
)

// IdempotencyKeyHeader carries the client's idempotency key. It takes
// precedence over the body field.
const IdempotencyKeyHeader = "Idempotency-Key"

// PaymentHandler handles payment initiation, lookups and client retries.
type PaymentHandler struct {
	paymentService services.PaymentServicer
	auditService   services.AuditServicer
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService services.PaymentServicer, auditService services.AuditServicer) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, auditService: auditService}
}

// InitiatePaymentRequest represents the request payload for initiating a payment
type InitiatePaymentRequest struct {
	IdempotencyKey string                 `json:"idempotency_key" binding:"max=255"`
	LeaseID        string                 `json:"lease_id" binding:"required,uuid"`
	PayerAccountID string                 `json:"payer_account_id" binding:"required,uuid"`
	PayeeAccountID string                 `json:"payee_account_id" binding:"required,uuid"`
	Amount         decimal.Decimal        `json:"amount" swaggertype:"string" example:"2500.00"`
	RailType       string                 `json:"rail_type" binding:"omitempty,rail_type" example:"standard_ach"`
	Metadata       map[string]interface{} `json:"metadata"`
}

// HistoryResponse is the event history of one transaction.
type HistoryResponse struct {
	TransactionID string                    `json:"transaction_id"`
	EventCount    int                       `json:"event_count"`
	Events        []models.TransactionEvent `json:"events"`
}

// RetryResponse is returned after a successful client retry.
type RetryResponse struct {
	Message       string `json:"message"`
	TransactionID string `json:"transaction_id"`
	RetryCount    int    `json:"retry_count"`
}

// InitiatePayment handles payment initiation
// @Summary     Initiate a payment
// @Description Create a rent payment. Repeating a request with the same idempotency key returns the original transaction.
// @Tags        payments
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key header string                 false "Idempotency key (overrides the body field)"
// @Param       request         body   InitiatePaymentRequest true  "Payment details"
// @Success     201 {object} models.Transaction "Payment initiated"
// @Failure     400 {object} ErrorResponse "Invalid input or missing idempotency key"
// @Failure     404 {object} ErrorResponse "Bank account not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /payments [post]
func (h *PaymentHandler) InitiatePayment(c *gin.Context) {
	var req InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	if key == "" {
		key = strings.TrimSpace(req.IdempotencyKey)
	}
	if key == "" {
		respondWithError(c, apperrors.ErrIdempotencyKeyRequired)
		return
	}

	txn, err := h.paymentService.InitiatePayment(c.Request.Context(), services.InitiatePaymentRequest{
		IdempotencyKey: key,
		LeaseID:        req.LeaseID,
		PayerAccountID: req.PayerAccountID,
		PayeeAccountID: req.PayeeAccountID,
		Amount:         req.Amount,
		RailType:       models.PaymentRailType(req.RailType),
		Metadata:       req.Metadata,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, txn)
}

// GetPayment handles the retrieval of a transaction
// @Summary     Get a payment
// @Tags        payments
// @Produce     json
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /payments/{id} [get]
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	txn, err := h.paymentService.GetTransaction(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, txn)
}

// GetPaymentHistory handles the retrieval of a transaction's event history
// @Summary     Get payment history
// @Description Events in the order they were recorded
// @Tags        payments
// @Produce     json
// @Param       id path string true "Transaction ID"
// @Success     200 {object} HistoryResponse "Event history"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /payments/{id}/history [get]
func (h *PaymentHandler) GetPaymentHistory(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if _, err := h.paymentService.GetTransaction(c.Request.Context(), id); err != nil {
		respondWithError(c, err)
		return
	}

	events, err := h.paymentService.GetHistory(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, HistoryResponse{
		TransactionID: id,
		EventCount:    len(events),
		Events:        events,
	})
}

// ListLeasePayments handles the listing of a lease's transactions
// @Summary     List a lease's payments
// @Description Newest first
// @Tags        payments
// @Produce     json
// @Param       lease_id path  string true  "Lease ID"
// @Param       skip     query int    false "Rows to skip (default 0)"
// @Param       limit    query int    false "Rows to return (default 100, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /payments/lease/{lease_id} [get]
func (h *PaymentHandler) ListLeasePayments(c *gin.Context) {
	leaseID, err := parsePathID(c, "lease_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.paymentService.ListLeaseTransactions(c.Request.Context(), leaseID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RetryPayment handles a client retry of a failed payment
// @Summary     Retry a failed payment
// @Tags        payments
// @Produce     json
// @Param       id path string true "Transaction ID"
// @Success     200 {object} RetryResponse "Retry initiated"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     409 {object} ErrorResponse "Payment is not failed or has no retries left"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /payments/{id}/retry [post]
func (h *PaymentHandler) RetryPayment(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	txn, err := h.paymentService.RetryPayment(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), services.AuditEntry{
		Table:     "transactions",
		RecordID:  txn.ID,
		Action:    services.AuditActionRetry,
		OldValues: map[string]interface{}{"status": models.TransactionStatusFailed, "retry_count": txn.RetryCount - 1},
		NewValues: map[string]interface{}{"status": txn.Status, "retry_count": txn.RetryCount},
		ClientIP:  c.ClientIP(),
	})

	c.JSON(http.StatusOK, RetryResponse{
		Message:       "Payment retry initiated",
		TransactionID: txn.ID,
		RetryCount:    txn.RetryCount,
	})
}

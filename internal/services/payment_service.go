package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"directpay/internal/database"
	apperrors "directpay/internal/errors"
	"directpay/internal/logger"
	"directpay/internal/models"
	"directpay/internal/pagination"
)

// paymentService handles transaction creation and every status change.
type paymentService struct {
	db         *gorm.DB
	accounts   AccountResolver
	dispatcher Dispatcher
	now        func() time.Time
}

// NewPaymentService creates a new PaymentServicer. dispatcher may be nil, in
// which case new transactions wait for the reconciliation sweep.
func NewPaymentService(db *gorm.DB, accounts AccountResolver, dispatcher Dispatcher) PaymentServicer {
	return &paymentService{
		db:         db,
		accounts:   accounts,
		dispatcher: dispatcher,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// InitiatePayment creates the transaction for req.IdempotencyKey, or returns
// the transaction already stored under that key.
func (s *paymentService) InitiatePayment(ctx context.Context, req InitiatePaymentRequest) (*models.Transaction, error) {
	key := strings.TrimSpace(req.IdempotencyKey)
	if key == "" {
		return nil, apperrors.ErrIdempotencyKeyRequired
	}
	// Stored amounts carry cents, so validate the rounded value.
	amount := req.Amount.Round(2)
	if !amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	rail := req.RailType
	if rail == "" {
		rail = models.DefaultPaymentRail
	}
	if !rail.IsValid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("unknown payment rail %q", rail))
	}

	existing, err := s.findByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	for _, id := range []string{req.PayerAccountID, req.PayeeAccountID} {
		ok, err := s.accounts.AccountExists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperrors.WithMessage(apperrors.ErrBankAccountNotFound, "Invalid bank account(s)")
		}
	}

	txn := &models.Transaction{
		IdempotencyKey:  key,
		LeaseID:         req.LeaseID,
		PayerAccountID:  req.PayerAccountID,
		PayeeAccountID:  req.PayeeAccountID,
		Amount:          amount,
		Status:          models.TransactionStatusPending,
		PaymentRailType: rail,
		InitiatedAt:     s.now(),
		Metadata:        req.Metadata,
	}

	txn, created, err := s.insertOrRecover(ctx, txn)
	if err != nil {
		return nil, err
	}
	if !created {
		return txn, nil
	}

	logger.Get().Infow("payment initiated",
		"transaction_id", txn.ID,
		"lease_id", txn.LeaseID,
		"amount", txn.Amount.StringFixed(2),
		"rail", txn.PaymentRailType,
	)
	s.dispatch(ctx, txn.ID)
	return txn, nil
}

// insertOrRecover stores txn and its initiation event in one unit of work.
// When a concurrent caller won the idempotency key, it returns the winner's
// row and created=false instead of the constraint error.
func (s *paymentService) insertOrRecover(ctx context.Context, txn *models.Transaction) (*models.Transaction, bool, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(txn).Error; err != nil {
			return err
		}
		return appendEvent(tx, txn.ID, models.EventPaymentInitiated, nil, statusPtr(models.TransactionStatusPending),
			datatypes.JSONMap{
				"payer_account": txn.PayerAccountID,
				"payee_account": txn.PayeeAccountID,
				"amount":        txn.Amount.StringFixed(2),
				"rail":          string(txn.PaymentRailType),
			}, txn.InitiatedAt)
	})
	if err == nil {
		return txn, true, nil
	}
	if !database.IsUniqueViolation(err) {
		return nil, false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	winner, findErr := s.findByKey(ctx, txn.IdempotencyKey)
	if findErr != nil {
		return nil, false, findErr
	}
	if winner == nil {
		return nil, false, apperrors.Wrap(apperrors.ErrInternalServer,
			fmt.Errorf("unique violation on idempotency key but no row found: %w", err))
	}
	logger.Get().Infow("idempotency key race resolved to existing transaction",
		"transaction_id", winner.ID,
	)
	return winner, false, nil
}

func (s *paymentService) dispatch(ctx context.Context, transactionID string) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.DispatchPayment(ctx, transactionID); err != nil {
		logger.Get().Warnw("failed to dispatch payment, leaving it for reconciliation",
			"transaction_id", transactionID,
			"error", err,
		)
	}
}

func (s *paymentService) findByKey(ctx context.Context, key string) (*models.Transaction, error) {
	var txn models.Transaction
	err := s.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &txn, nil
}

// GetTransaction retrieves a transaction by ID.
func (s *paymentService) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	var txn models.Transaction
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &txn, nil
}

// ListLeaseTransactions lists a lease's transactions, newest first.
func (s *paymentService) ListLeaseTransactions(ctx context.Context, leaseID string, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.Transaction{}).Where("lease_id = ?", leaseID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var txns []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Order("initiated_at DESC").
		Find(&txns).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(txns, page, total)
	return &result, nil
}

// UpdateStatus moves a transaction to status under a row lock, stamps the
// matching timestamp and appends a status_change event.
func (s *paymentService) UpdateStatus(ctx context.Context, id string, status models.TransactionStatus, failureReason string) (*models.Transaction, error) {
	if !status.IsValid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("unknown status %q", status))
	}

	var txn models.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTransaction(tx, id, &txn); err != nil {
			return err
		}

		previous := txn.Status
		// failed -> pending belongs to the retry path, which also spends budget.
		if status == models.TransactionStatusPending || !previous.CanTransitionTo(status) {
			return apperrors.WithMessage(apperrors.ErrInvalidStatusTransition,
				fmt.Sprintf("cannot move transaction from %s to %s", previous, status))
		}

		now := s.now()
		txn.Status = status
		meta := datatypes.JSONMap{}
		switch status {
		case models.TransactionStatusProcessing:
			txn.ProcessingAt = &now
		case models.TransactionStatusCompleted:
			txn.CompletedAt = &now
		case models.TransactionStatusFailed:
			txn.FailedAt = &now
			reason := failureReason
			txn.FailureReason = &reason
			meta["failure_reason"] = failureReason
		}

		if err := tx.Save(&txn).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return appendEvent(tx, txn.ID, models.EventStatusChange, &previous, &status, meta, now)
	})
	if err != nil {
		return nil, asAppError(err)
	}

	logger.Get().Infow("transaction status updated",
		"transaction_id", txn.ID,
		"status", txn.Status,
	)
	return &txn, nil
}

// RetryPayment returns a failed transaction to pending and dispatches it.
func (s *paymentService) RetryPayment(ctx context.Context, id string) (*models.Transaction, error) {
	txn, err := s.retry(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	s.dispatch(ctx, txn.ID)
	return txn, nil
}

// RetryPaymentIfAt returns a failed transaction to pending when its retry
// count still matches. The caller is responsible for processing it.
func (s *paymentService) RetryPaymentIfAt(ctx context.Context, id string, expectedRetryCount int) (*models.Transaction, error) {
	return s.retry(ctx, id, &expectedRetryCount)
}

func (s *paymentService) retry(ctx context.Context, id string, expected *int) (*models.Transaction, error) {
	var txn models.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTransaction(tx, id, &txn); err != nil {
			return err
		}

		if expected != nil && txn.RetryCount != *expected {
			return apperrors.WithMessage(apperrors.ErrRetryNotAllowed,
				fmt.Sprintf("retry %d already applied", *expected+1))
		}
		if txn.Status != models.TransactionStatusFailed {
			return apperrors.ErrRetryNotAllowed
		}
		if txn.RetryCount >= models.MaxRetries {
			return apperrors.ErrRetryBudgetExhausted
		}

		previous := txn.Status
		next := models.TransactionStatusPending
		txn.RetryCount++
		txn.Status = next
		txn.FailedAt = nil
		txn.FailureReason = nil

		if err := tx.Save(&txn).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return appendEvent(tx, txn.ID, models.EventRetryAttempted, &previous, &next,
			datatypes.JSONMap{"retry_count": txn.RetryCount}, s.now())
	})
	if err != nil {
		return nil, asAppError(err)
	}

	logger.Get().Infow("payment retry attempted",
		"transaction_id", txn.ID,
		"retry_count", txn.RetryCount,
	)
	return &txn, nil
}

// GetHistory returns a transaction's events in the order they were recorded.
func (s *paymentService) GetHistory(ctx context.Context, id string) ([]models.TransactionEvent, error) {
	events := []models.TransactionEvent{}
	if err := s.db.WithContext(ctx).
		Where("transaction_id = ?", id).
		Order("occurred_at ASC").
		Order("sequence ASC").
		Find(&events).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return events, nil
}

// ListStale returns up to limit transactions in status whose last change is
// older than before, oldest first.
func (s *paymentService) ListStale(ctx context.Context, status models.TransactionStatus, before time.Time, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	var txns []models.Transaction
	if err := s.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", status, before).
		Order("updated_at ASC").
		Limit(limit).
		Find(&txns).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return txns, nil
}

// lockTransaction loads the row with SELECT ... FOR UPDATE.
func lockTransaction(tx *gorm.DB, id string, txn *models.Transaction) error {
	err := database.ForUpdate(tx).Where("id = ?", id).First(txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrTransactionNotFound
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// appendEvent writes the next event of a transaction. Callers hold the
// transaction row lock or have just inserted the row, so the sequence read
// here cannot race.
func appendEvent(tx *gorm.DB, transactionID string, eventType models.EventType, previous, next *models.TransactionStatus, meta datatypes.JSONMap, at time.Time) error {
	var last int
	if err := tx.Model(&models.TransactionEvent{}).
		Where("transaction_id = ?", transactionID).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&last).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	event := &models.TransactionEvent{
		TransactionID:  transactionID,
		Sequence:       last + 1,
		EventType:      eventType,
		PreviousStatus: previous,
		NewStatus:      next,
		Metadata:       meta,
		Timestamp:      at,
	}
	if err := tx.Create(event).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func statusPtr(s models.TransactionStatus) *models.TransactionStatus {
	return &s
}

// asAppError passes AppErrors through and wraps anything else.
func asAppError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

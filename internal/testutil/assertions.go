package testutil

import (
	"errors"
	"testing"

	apperrors "directpay/internal/errors"
	"directpay/internal/models"

	"gorm.io/gorm"
)

// AssertAppError checks that err is an *AppError with the expected error code.
func AssertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected AppError with code %q, got nil", expectedCode)
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}

	if appErr.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// ReloadTransaction reads a transaction straight from the database.
func ReloadTransaction(t *testing.T, db *gorm.DB, id string) *models.Transaction {
	t.Helper()

	var txn models.Transaction
	if err := db.Where("id = ?", id).First(&txn).Error; err != nil {
		t.Fatalf("failed to reload transaction %s: %v", id, err)
	}
	return &txn
}

// CountEvents returns the number of stored events of a transaction.
func CountEvents(t *testing.T, db *gorm.DB, transactionID string) int64 {
	t.Helper()

	var n int64
	if err := db.Model(&models.TransactionEvent{}).Where("transaction_id = ?", transactionID).Count(&n).Error; err != nil {
		t.Fatalf("failed to count events: %v", err)
	}
	return n
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// MaxRetries is the number of client or automatic retries a transaction may use.
const MaxRetries = 3

// TransactionStatus is the settlement state of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "pending"
	TransactionStatusProcessing TransactionStatus = "processing"
	TransactionStatusCompleted  TransactionStatus = "completed"
	TransactionStatusFailed     TransactionStatus = "failed"
)

// transitions lists every legal status move. failed -> pending is reserved
// for the retry path.
var transitions = map[TransactionStatus][]TransactionStatus{
	TransactionStatusPending:    {TransactionStatusProcessing},
	TransactionStatusProcessing: {TransactionStatusCompleted, TransactionStatusFailed},
	TransactionStatusFailed:     {TransactionStatusPending},
}

// IsValid reports whether s is one of the known statuses.
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusProcessing, TransactionStatusCompleted, TransactionStatusFailed:
		return true
	}
	return false
}

// CanTransitionTo reports whether the transition table allows s -> next.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no automatic transition leaves s.
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusFailed
}

// PaymentRailType is the settlement network a transaction travels on.
type PaymentRailType string

const (
	PaymentRailInstant     PaymentRailType = "instant"
	PaymentRailSameDayACH  PaymentRailType = "same_day_ach"
	PaymentRailStandardACH PaymentRailType = "standard_ach"
	PaymentRailWire        PaymentRailType = "wire"
)

// DefaultPaymentRail is used when a request names no rail.
const DefaultPaymentRail = PaymentRailStandardACH

// IsValid reports whether r is a known rail.
func (r PaymentRailType) IsValid() bool {
	switch r {
	case PaymentRailInstant, PaymentRailSameDayACH, PaymentRailStandardACH, PaymentRailWire:
		return true
	}
	return false
}

// Transaction is a single money-movement attempt. The row caches the current
// state; the event log is the canonical history.
type Transaction struct {
	LedgerBase
	IdempotencyKey  string            `gorm:"type:varchar(255);uniqueIndex;not null" json:"idempotency_key"`
	LeaseID         string            `gorm:"type:uuid;not null;index" json:"lease_id"`
	PayerAccountID  string            `gorm:"type:uuid;not null" json:"payer_account_id"`
	PayeeAccountID  string            `gorm:"type:uuid;not null" json:"payee_account_id"`
	Amount          decimal.Decimal   `gorm:"type:numeric(12,2);not null" json:"amount"`
	Status          TransactionStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentRailType PaymentRailType   `gorm:"type:varchar(20);not null" json:"payment_rail_type"`
	InitiatedAt     time.Time         `gorm:"not null" json:"initiated_at"`
	ProcessingAt    *time.Time        `json:"processing_at"`
	CompletedAt     *time.Time        `json:"completed_at"`
	FailedAt        *time.Time        `json:"failed_at"`
	FailureReason   *string           `gorm:"type:text" json:"failure_reason"`
	RetryCount      int               `gorm:"not null;default:0" json:"retry_count"`
	Metadata        datatypes.JSONMap `json:"metadata,omitempty"`
}

// RetriesLeft returns how many retries the transaction may still use.
func (t *Transaction) RetriesLeft() int {
	if t.RetryCount >= MaxRetries {
		return 0
	}
	return MaxRetries - t.RetryCount
}

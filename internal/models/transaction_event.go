package models

import (
	"time"

	"directpay/internal/uuid"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EventType names the kind of fact a TransactionEvent records.
type EventType string

const (
	EventPaymentInitiated EventType = "payment_initiated"
	EventStatusChange     EventType = "status_change"
	EventRetryAttempted   EventType = "retry_attempted"
)

// TransactionEvent is an immutable entry in a transaction's history. Sequence
// is 1-based per transaction and breaks ties between equal timestamps.
type TransactionEvent struct {
	ID             string             `gorm:"type:uuid;primaryKey" json:"id"`
	TransactionID  string             `gorm:"type:uuid;not null;uniqueIndex:idx_transaction_events_sequence,priority:1" json:"transaction_id"`
	Sequence       int                `gorm:"not null;uniqueIndex:idx_transaction_events_sequence,priority:2" json:"sequence"`
	EventType      EventType          `gorm:"type:varchar(50);not null" json:"event_type"`
	PreviousStatus *TransactionStatus `gorm:"type:varchar(20)" json:"previous_status"`
	NewStatus      *TransactionStatus `gorm:"type:varchar(20)" json:"new_status"`
	Metadata       datatypes.JSONMap  `json:"metadata,omitempty"`
	Timestamp      time.Time          `gorm:"column:occurred_at;not null" json:"timestamp"`
}

// BeforeCreate hook generates a UUIDv7 for new events
func (e *TransactionEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New()
	}
	return nil
}

// BeforeUpdate rejects any attempt to rewrite history.
func (e *TransactionEvent) BeforeUpdate(tx *gorm.DB) error {
	return gorm.ErrInvalidData
}

// BeforeDelete rejects any attempt to remove history.
func (e *TransactionEvent) BeforeDelete(tx *gorm.DB) error {
	return gorm.ErrInvalidData
}

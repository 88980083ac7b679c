package models

import (
	"time"

	"directpay/internal/uuid"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog records registry mutations and client-initiated payment actions.
type AuditLog struct {
	ID        string            `gorm:"type:uuid;primaryKey" json:"id"`
	Entity    string            `gorm:"column:table_name;type:varchar(100);not null" json:"table_name"`
	RecordID  string            `gorm:"type:uuid;not null;index" json:"record_id"`
	Action    string            `gorm:"type:varchar(20);not null" json:"action"`
	OldValues datatypes.JSONMap `json:"old_values,omitempty"`
	NewValues datatypes.JSONMap `json:"new_values,omitempty"`
	ClientIP  string            `gorm:"type:varchar(64)" json:"client_ip,omitempty"`
	ChangedAt time.Time         `gorm:"not null" json:"changed_at"`
}

// BeforeCreate hook generates a UUIDv7 for new entries
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New()
	}
	if a.ChangedAt.IsZero() {
		a.ChangedAt = time.Now().UTC()
	}
	return nil
}

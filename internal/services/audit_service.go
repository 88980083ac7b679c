package services

import (
	"context"

	"gorm.io/gorm"

	"directpay/internal/logger"
	"directpay/internal/models"
)

// Audit actions.
const (
	AuditActionCreate = "CREATE"
	AuditActionUpdate = "UPDATE"
	AuditActionRetry  = "RETRY"
)

// AuditEntry describes one audited mutation.
type AuditEntry struct {
	Table     string
	RecordID  string
	Action    string
	OldValues map[string]interface{}
	NewValues map[string]interface{}
	ClientIP  string
}

// auditService handles audit log recording.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an audit event. Errors are logged but never propagate
// to avoid disrupting the main operation.
func (s *auditService) Log(ctx context.Context, entry AuditEntry) {
	row := &models.AuditLog{
		Entity:    entry.Table,
		RecordID:  entry.RecordID,
		Action:    entry.Action,
		OldValues: entry.OldValues,
		NewValues: entry.NewValues,
		ClientIP:  entry.ClientIP,
	}

	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		logger.Get().Errorw("failed to create audit log entry",
			"error", err,
			"table", entry.Table,
			"record_id", entry.RecordID,
			"action", entry.Action,
		)
	}
}

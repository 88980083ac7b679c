package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScheduleStatus is the state of a lease's billing schedule.
type ScheduleStatus string

const (
	ScheduleStatusActive    ScheduleStatus = "active"
	ScheduleStatusPaused    ScheduleStatus = "paused"
	ScheduleStatusCompleted ScheduleStatus = "completed"
)

// PaymentSchedule tracks the next rent due date of a lease. DueDay keeps the
// lease's configured day so a date clamped to a short month can return to it.
type PaymentSchedule struct {
	LedgerBase
	LeaseID     string          `gorm:"type:uuid;not null;uniqueIndex" json:"lease_id"`
	NextDueDate time.Time       `gorm:"type:date;not null" json:"next_due_date"`
	DueDay      int             `gorm:"not null" json:"due_day"`
	Amount      decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"amount"`
	Status      ScheduleStatus  `gorm:"type:varchar(20);not null;default:active" json:"status"`
}

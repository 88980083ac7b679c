package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LeaseStatus is the lifecycle state of a lease.
type LeaseStatus string

const (
	LeaseStatusActive     LeaseStatus = "active"
	LeaseStatusExpired    LeaseStatus = "expired"
	LeaseStatusTerminated LeaseStatus = "terminated"
)

// Lease binds a renter to a property for a period at a monthly rent.
type Lease struct {
	Base
	PropertyID    string          `gorm:"type:uuid;not null;index" json:"property_id"`
	RenterID      string          `gorm:"type:uuid;not null;index" json:"renter_id"`
	StartDate     time.Time       `gorm:"type:date;not null" json:"start_date"`
	EndDate       time.Time       `gorm:"type:date;not null" json:"end_date"`
	RentAmount    decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"rent_amount"`
	DueDayOfMonth int             `gorm:"not null" json:"due_day_of_month"`
	Status        LeaseStatus     `gorm:"type:varchar(20);not null;default:active" json:"status"`
}

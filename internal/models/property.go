package models

import "github.com/shopspring/decimal"

// Property is a rentable unit owned by a landlord.
type Property struct {
	Base
	LandlordID  string          `gorm:"type:uuid;not null;index" json:"landlord_id"`
	Address     string          `gorm:"not null" json:"address"`
	City        string          `gorm:"not null" json:"city"`
	State       string          `gorm:"type:varchar(2);not null" json:"state"`
	ZipCode     string          `gorm:"type:varchar(10);not null" json:"zip_code"`
	MonthlyRent decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"monthly_rent"`
}

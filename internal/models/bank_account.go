package models

// BankAccount is a tokenized external account used as payer or payee.
type BankAccount struct {
	Base
	UserID             string `gorm:"type:uuid;not null;index" json:"user_id"`
	AccountNumberToken string `gorm:"not null" json:"account_number_token"`
	RoutingNumber      string `gorm:"type:varchar(9);not null" json:"routing_number"`
	BankName           string `json:"bank_name,omitempty"`
	IsVerified         bool   `gorm:"not null;default:false" json:"is_verified"`
	IsPrimary          bool   `gorm:"not null;default:false" json:"is_primary"`
}

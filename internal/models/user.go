package models

// UserRole distinguishes the two parties of a lease.
type UserRole string

const (
	UserRoleLandlord UserRole = "landlord"
	UserRoleRenter   UserRole = "renter"
)

// IsValid reports whether r is a known role.
func (r UserRole) IsValid() bool {
	return r == UserRoleLandlord || r == UserRoleRenter
}

// User represents a landlord or renter
type User struct {
	Base
	Email    string   `gorm:"uniqueIndex;not null" json:"email"`
	FullName string   `gorm:"not null" json:"full_name"`
	Role     UserRole `gorm:"type:varchar(20);not null" json:"role"`
}

package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"directpay/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Date returns midnight UTC of the given calendar day.
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CreateTestUser creates a user with a unique email and the given role.
func CreateTestUser(t *testing.T, db *gorm.DB, role models.UserRole) *models.User {
	t.Helper()

	n := nextID()
	user := &models.User{
		Email:    fmt.Sprintf("user%d@test.com", n),
		FullName: fmt.Sprintf("Test User %d", n),
		Role:     role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestProperty creates a property owned by landlordID.
func CreateTestProperty(t *testing.T, db *gorm.DB, landlordID string) *models.Property {
	t.Helper()

	property := &models.Property{
		LandlordID:  landlordID,
		Address:     fmt.Sprintf("%d Main St", nextID()),
		City:        "Springfield",
		State:       "IL",
		ZipCode:     "62701",
		MonthlyRent: decimal.RequireFromString("2500.00"),
	}
	if err := db.Create(property).Error; err != nil {
		t.Fatalf("failed to create test property: %v", err)
	}
	return property
}

// CreateTestLease creates an active lease with a schedule due on nextDue.
func CreateTestLease(t *testing.T, db *gorm.DB, propertyID, renterID string, dueDay int, nextDue time.Time) (*models.Lease, *models.PaymentSchedule) {
	t.Helper()

	lease := &models.Lease{
		PropertyID:    propertyID,
		RenterID:      renterID,
		StartDate:     Date(2024, time.January, 1),
		EndDate:       Date(2025, time.January, 1),
		RentAmount:    decimal.RequireFromString("2500.00"),
		DueDayOfMonth: dueDay,
		Status:        models.LeaseStatusActive,
	}
	if err := db.Create(lease).Error; err != nil {
		t.Fatalf("failed to create test lease: %v", err)
	}

	schedule := &models.PaymentSchedule{
		LeaseID:     lease.ID,
		NextDueDate: nextDue,
		DueDay:      dueDay,
		Amount:      lease.RentAmount,
		Status:      models.ScheduleStatusActive,
	}
	if err := db.Create(schedule).Error; err != nil {
		t.Fatalf("failed to create test schedule: %v", err)
	}
	return lease, schedule
}

// CreateTestBankAccount creates a verified account for userID.
func CreateTestBankAccount(t *testing.T, db *gorm.DB, userID string) *models.BankAccount {
	t.Helper()

	account := &models.BankAccount{
		UserID:             userID,
		AccountNumberToken: fmt.Sprintf("%04d", nextID()%10000),
		RoutingNumber:      "021000021",
		BankName:           "Test Bank",
		IsVerified:         true,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test bank account: %v", err)
	}
	return account
}

// Ledger bundles the rows a payment needs.
type Ledger struct {
	Landlord *models.User
	Renter   *models.User
	Property *models.Property
	Lease    *models.Lease
	Schedule *models.PaymentSchedule
	Payer    *models.BankAccount
	Payee    *models.BankAccount
}

// CreateTestLedger creates a landlord, renter, property, lease due on the 1st
// with next due date 2024-02-01, and one bank account per party.
func CreateTestLedger(t *testing.T, db *gorm.DB) *Ledger {
	t.Helper()

	landlord := CreateTestUser(t, db, models.UserRoleLandlord)
	renter := CreateTestUser(t, db, models.UserRoleRenter)
	property := CreateTestProperty(t, db, landlord.ID)
	lease, schedule := CreateTestLease(t, db, property.ID, renter.ID, 1, Date(2024, time.February, 1))

	return &Ledger{
		Landlord: landlord,
		Renter:   renter,
		Property: property,
		Lease:    lease,
		Schedule: schedule,
		Payer:    CreateTestBankAccount(t, db, renter.ID),
		Payee:    CreateTestBankAccount(t, db, landlord.ID),
	}
}

// CreateTestTransaction inserts a transaction row directly, bypassing the
// engine, in the given status.
func CreateTestTransaction(t *testing.T, db *gorm.DB, l *Ledger, key string, status models.TransactionStatus) *models.Transaction {
	t.Helper()

	txn := &models.Transaction{
		IdempotencyKey:  key,
		LeaseID:         l.Lease.ID,
		PayerAccountID:  l.Payer.ID,
		PayeeAccountID:  l.Payee.ID,
		Amount:          decimal.RequireFromString("2500.00"),
		Status:          status,
		PaymentRailType: models.PaymentRailStandardACH,
		InitiatedAt:     time.Now().UTC(),
	}
	if err := db.Create(txn).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return txn
}

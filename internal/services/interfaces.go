package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"directpay/internal/models"
	"directpay/internal/pagination"
)

// UserServicer defines the contract for landlord and renter registration.
type UserServicer interface {
	CreateUser(ctx context.Context, email, fullName string, role models.UserRole) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, page pagination.PageRequest) (*pagination.PageResponse[models.User], error)
}

// CreatePropertyInput carries the fields of a new property.
type CreatePropertyInput struct {
	LandlordID  string
	Address     string
	City        string
	State       string
	ZipCode     string
	MonthlyRent decimal.Decimal
}

// PropertyServicer defines the contract for property registration.
type PropertyServicer interface {
	CreateProperty(ctx context.Context, in CreatePropertyInput) (*models.Property, error)
	GetPropertyByID(ctx context.Context, id string) (*models.Property, error)
	ListLandlordProperties(ctx context.Context, landlordID string, page pagination.PageRequest) (*pagination.PageResponse[models.Property], error)
}

// CreateLeaseInput carries the fields of a new lease.
type CreateLeaseInput struct {
	PropertyID    string
	RenterID      string
	StartDate     time.Time
	EndDate       time.Time
	RentAmount    decimal.Decimal
	DueDayOfMonth int
}

// LeaseServicer defines the contract for lease registration.
type LeaseServicer interface {
	// CreateLease stores the lease together with its payment schedule.
	CreateLease(ctx context.Context, in CreateLeaseInput) (*models.Lease, error)
	GetLeaseByID(ctx context.Context, id string) (*models.Lease, error)
	ListRenterLeases(ctx context.Context, renterID string, page pagination.PageRequest) (*pagination.PageResponse[models.Lease], error)
}

// CreateBankAccountInput carries the fields of a new bank account.
type CreateBankAccountInput struct {
	UserID        string
	AccountNumber string
	RoutingNumber string
	BankName      string
}

// AccountResolver answers whether a bank account id refers to a stored account.
type AccountResolver interface {
	AccountExists(ctx context.Context, id string) (bool, error)
}

// BankAccountServicer defines the contract for bank account registration.
type BankAccountServicer interface {
	AccountResolver
	CreateBankAccount(ctx context.Context, in CreateBankAccountInput) (*models.BankAccount, error)
	ListUserBankAccounts(ctx context.Context, userID string) ([]models.BankAccount, error)
	SetPrimary(ctx context.Context, id string) (*models.BankAccount, error)
}

// Dispatcher hands a transaction to the asynchronous settlement workers.
// Implementations must not block on processing.
type Dispatcher interface {
	DispatchPayment(ctx context.Context, transactionID string) error
}

// InitiatePaymentRequest is a payment initiation after the idempotency key has
// been resolved by the caller.
type InitiatePaymentRequest struct {
	IdempotencyKey string
	LeaseID        string
	PayerAccountID string
	PayeeAccountID string
	Amount         decimal.Decimal
	RailType       models.PaymentRailType
	Metadata       map[string]interface{}
}

// PaymentServicer is the transaction engine: the single writer of transaction
// state and of the event log.
type PaymentServicer interface {
	InitiatePayment(ctx context.Context, req InitiatePaymentRequest) (*models.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	ListLeaseTransactions(ctx context.Context, leaseID string, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
	UpdateStatus(ctx context.Context, id string, status models.TransactionStatus, failureReason string) (*models.Transaction, error)
	RetryPayment(ctx context.Context, id string) (*models.Transaction, error)
	// RetryPaymentIfAt retries only while retry_count still equals
	// expectedRetryCount, so repeated automatic retries apply once.
	RetryPaymentIfAt(ctx context.Context, id string, expectedRetryCount int) (*models.Transaction, error)
	GetHistory(ctx context.Context, id string) ([]models.TransactionEvent, error)
	ListStale(ctx context.Context, status models.TransactionStatus, before time.Time, limit int) ([]models.Transaction, error)
}

// ScheduleServicer reads and advances lease payment schedules.
type ScheduleServicer interface {
	GetByLease(ctx context.Context, leaseID string) (*models.PaymentSchedule, error)
	// AdvanceSchedule moves next_due_date one month forward if it still
	// equals cycleDue. The returned bool reports whether this call advanced.
	AdvanceSchedule(ctx context.Context, leaseID string, cycleDue time.Time) (*models.PaymentSchedule, bool, error)
}

// AuditServicer defines the contract for recording audit log entries.
type AuditServicer interface {
	Log(ctx context.Context, entry AuditEntry)
}

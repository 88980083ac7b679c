package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "directpay/internal/errors"
	"directpay/internal/logger"
	"directpay/internal/models"
	"directpay/internal/pagination"
)

type leaseService struct {
	db *gorm.DB
}

// NewLeaseService creates a new LeaseServicer.
func NewLeaseService(db *gorm.DB) LeaseServicer {
	return &leaseService{db: db}
}

// CreateLease validates the parties and dates, then stores the lease and its
// payment schedule in one unit of work.
func (s *leaseService) CreateLease(ctx context.Context, in CreateLeaseInput) (*models.Lease, error) {
	if in.DueDayOfMonth < 1 || in.DueDayOfMonth > 31 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "due day of month must be between 1 and 31")
	}
	if !in.EndDate.After(in.StartDate) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "end date must be after start date")
	}
	rent := in.RentAmount.Round(2)
	if !rent.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "rent amount must be greater than zero")
	}

	lease := &models.Lease{
		PropertyID:    in.PropertyID,
		RenterID:      in.RenterID,
		StartDate:     dateOnly(in.StartDate),
		EndDate:       dateOnly(in.EndDate),
		RentAmount:    rent,
		DueDayOfMonth: in.DueDayOfMonth,
		Status:        models.LeaseStatusActive,
	}

	var schedule *models.PaymentSchedule
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var property models.Property
		if err := tx.Where("id = ?", in.PropertyID).First(&property).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrPropertyNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if _, err := requireRole(tx, in.RenterID, models.UserRoleRenter, apperrors.ErrRenterNotFound); err != nil {
			return err
		}

		if err := tx.Create(lease).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		schedule = &models.PaymentSchedule{
			LeaseID:     lease.ID,
			NextDueDate: FirstDueDate(lease.StartDate, lease.DueDayOfMonth),
			DueDay:      lease.DueDayOfMonth,
			Amount:      lease.RentAmount,
			Status:      models.ScheduleStatusActive,
		}
		if err := tx.Create(schedule).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, asAppError(err)
	}

	logger.Get().Infow("lease created",
		"lease_id", lease.ID,
		"first_due_date", schedule.NextDueDate.Format("2006-01-02"),
	)
	return lease, nil
}

// GetLeaseByID retrieves a lease by ID.
func (s *leaseService) GetLeaseByID(ctx context.Context, id string) (*models.Lease, error) {
	var lease models.Lease
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&lease).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrLeaseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &lease, nil
}

// ListRenterLeases returns one window of a renter's leases.
func (s *leaseService) ListRenterLeases(ctx context.Context, renterID string, page pagination.PageRequest) (*pagination.PageResponse[models.Lease], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.Lease{}).Where("renter_id = ?", renterID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var leases []models.Lease
	if err := base.Scopes(pagination.Paginate(page)).
		Order("start_date DESC").
		Find(&leases).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(leases, page, total)
	return &result, nil
}

// dateOnly truncates t to midnight UTC of its calendar date.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

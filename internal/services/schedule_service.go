package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"directpay/internal/database"
	apperrors "directpay/internal/errors"
	"directpay/internal/logger"
	"directpay/internal/models"
)

// scheduleService reads and advances payment schedules.
type scheduleService struct {
	db *gorm.DB
}

// NewScheduleService creates a new ScheduleServicer.
func NewScheduleService(db *gorm.DB) ScheduleServicer {
	return &scheduleService{db: db}
}

// GetByLease returns the schedule of a lease.
func (s *scheduleService) GetByLease(ctx context.Context, leaseID string) (*models.PaymentSchedule, error) {
	var schedule models.PaymentSchedule
	if err := s.db.WithContext(ctx).Where("lease_id = ?", leaseID).First(&schedule).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrScheduleNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &schedule, nil
}

// AdvanceSchedule moves the lease's next due date forward by one month under
// a row lock. The move happens only while next_due_date still equals
// cycleDue, so concurrent settlements of one billing cycle advance it once.
// A missing schedule is logged and ignored.
func (s *scheduleService) AdvanceSchedule(ctx context.Context, leaseID string, cycleDue time.Time) (*models.PaymentSchedule, bool, error) {
	var schedule models.PaymentSchedule
	var missing, advanced bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := database.ForUpdate(tx).Where("lease_id = ?", leaseID).First(&schedule).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			missing = true
			return nil
		}
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if !sameDate(schedule.NextDueDate, cycleDue) {
			return nil
		}

		schedule.NextDueDate = AddMonthClamped(schedule.NextDueDate, schedule.DueDay)
		if err := tx.Save(&schedule).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		advanced = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	log := logger.Get()
	if missing {
		log.Warnw("no payment schedule for lease, nothing to advance", "lease_id", leaseID)
		return nil, false, nil
	}
	if !advanced {
		log.Infow("payment schedule already advanced past cycle",
			"lease_id", leaseID,
			"cycle_due", cycleDue.Format(time.DateOnly),
			"next_due_date", schedule.NextDueDate.Format(time.DateOnly),
		)
		return &schedule, false, nil
	}

	log.Infow("payment schedule advanced",
		"lease_id", leaseID,
		"next_due_date", schedule.NextDueDate.Format(time.DateOnly),
	)
	return &schedule, true, nil
}

// AddMonthClamped returns the date one calendar month after d on dueDay,
// clamped to the last day of that month. A non-positive dueDay keeps d's day.
func AddMonthClamped(d time.Time, dueDay int) time.Time {
	if dueDay <= 0 {
		dueDay = d.Day()
	}
	y, m, _ := d.Date()
	// Day 1 never overflows, so AddDate cannot skip a month here.
	first := time.Date(y, m, 1, d.Hour(), d.Minute(), d.Second(), d.Nanosecond(), d.Location()).AddDate(0, 1, 0)
	return onDay(first, dueDay)
}

// FirstDueDate returns the first date on or after start that falls on
// dueDay, clamped to the month length.
func FirstDueDate(start time.Time, dueDay int) time.Time {
	candidate := onDay(start, dueDay)
	if start.Day() <= candidate.Day() {
		return candidate
	}
	return AddMonthClamped(start, dueDay)
}

// onDay returns d moved to day (clamped) within d's month.
func onDay(d time.Time, day int) time.Time {
	y, m, _ := d.Date()
	if last := daysIn(y, m); day > last {
		day = last
	}
	return time.Date(y, m, day, d.Hour(), d.Minute(), d.Second(), d.Nanosecond(), d.Location())
}

func daysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

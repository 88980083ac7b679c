package services

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"gorm.io/gorm"

	"directpay/internal/database"
	apperrors "directpay/internal/errors"
	"directpay/internal/models"
)

// bankAccountService handles bank account registration and lookups.
type bankAccountService struct {
	db *gorm.DB
}

// NewBankAccountService creates a new BankAccountServicer.
func NewBankAccountService(db *gorm.DB) BankAccountServicer {
	return &bankAccountService{db: db}
}

// CreateBankAccount stores a tokenized account for an existing user. Only the
// last four digits of the account number are kept.
func (s *bankAccountService) CreateBankAccount(ctx context.Context, in CreateBankAccountInput) (*models.BankAccount, error) {
	number := strings.TrimSpace(in.AccountNumber)
	if len(number) < 4 || !allDigits(number) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account number must contain at least 4 digits")
	}
	routing := strings.TrimSpace(in.RoutingNumber)
	if len(routing) != 9 || !allDigits(routing) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "routing number must be 9 digits")
	}

	var owner models.User
	if err := s.db.WithContext(ctx).Where("id = ?", in.UserID).First(&owner).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	account := &models.BankAccount{
		UserID:             owner.ID,
		AccountNumberToken: number[len(number)-4:],
		RoutingNumber:      routing,
		BankName:           strings.TrimSpace(in.BankName),
	}
	if err := s.db.WithContext(ctx).Create(account).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return account, nil
}

// ListUserBankAccounts returns every account of a user, primary first.
func (s *bankAccountService) ListUserBankAccounts(ctx context.Context, userID string) ([]models.BankAccount, error) {
	accounts := []models.BankAccount{}
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_primary DESC").
		Order("created_at ASC").
		Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return accounts, nil
}

// SetPrimary marks an account primary and clears the flag on the owner's
// other accounts in the same unit of work.
func (s *bankAccountService) SetPrimary(ctx context.Context, id string) (*models.BankAccount, error) {
	var account models.BankAccount
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := database.ForUpdate(tx).Where("id = ?", id).First(&account).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrBankAccountNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if err := tx.Model(&models.BankAccount{}).
			Where("user_id = ? AND id <> ?", account.UserID, account.ID).
			Update("is_primary", false).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		account.IsPrimary = true
		if err := tx.Save(&account).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, asAppError(err)
	}
	return &account, nil
}

// AccountExists reports whether id refers to a stored bank account.
func (s *bankAccountService) AccountExists(ctx context.Context, id string) (bool, error) {
	if strings.TrimSpace(id) == "" {
		return false, nil
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.BankAccount{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "directpay/internal/errors"
	"directpay/internal/models"
	"directpay/internal/pagination"
)

type propertyService struct {
	db *gorm.DB
}

// NewPropertyService creates a new PropertyServicer.
func NewPropertyService(db *gorm.DB) PropertyServicer {
	return &propertyService{db: db}
}

// CreateProperty registers a property for an existing landlord.
func (s *propertyService) CreateProperty(ctx context.Context, in CreatePropertyInput) (*models.Property, error) {
	rent := in.MonthlyRent.Round(2)
	if !rent.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "monthly rent must be greater than zero")
	}

	var landlord models.User
	if err := s.db.WithContext(ctx).Where("id = ?", in.LandlordID).First(&landlord).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrLandlordNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if landlord.Role != models.UserRoleLandlord {
		return nil, apperrors.ErrNotALandlord
	}

	property := &models.Property{
		LandlordID:  landlord.ID,
		Address:     strings.TrimSpace(in.Address),
		City:        strings.TrimSpace(in.City),
		State:       strings.ToUpper(strings.TrimSpace(in.State)),
		ZipCode:     strings.TrimSpace(in.ZipCode),
		MonthlyRent: rent,
	}
	if err := s.db.WithContext(ctx).Create(property).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return property, nil
}

// GetPropertyByID retrieves a property by ID.
func (s *propertyService) GetPropertyByID(ctx context.Context, id string) (*models.Property, error) {
	var property models.Property
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&property).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPropertyNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &property, nil
}

// ListLandlordProperties returns one window of a landlord's properties.
func (s *propertyService) ListLandlordProperties(ctx context.Context, landlordID string, page pagination.PageRequest) (*pagination.PageResponse[models.Property], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.Property{}).Where("landlord_id = ?", landlordID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var properties []models.Property
	if err := base.Scopes(pagination.Paginate(page)).
		Order("created_at ASC").
		Find(&properties).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(properties, page, total)
	return &result, nil
}

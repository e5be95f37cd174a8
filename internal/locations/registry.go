// Package locations maintains the local mirror of carrier-side pickup
// addresses, one set per seller, with exactly one default per seller.
package locations

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/trovecart/shipping/pkg/carrier"
	"github.com/trovecart/shipping/pkg/carrier/shiprocket"
)

// PickupLocation is the local mirror row for a carrier-registered pickup
// address. Rows are never silently deleted; carrier-side removal is out of
// scope.
type PickupLocation struct {
	ID              uint   `gorm:"primaryKey"`
	LocationID      int64  `gorm:"uniqueIndex;not null"`
	SellerProfileID string `gorm:"index;not null"`
	Label           string `gorm:"not null"`
	Address         string
	City            string
	State           string
	Country         string
	Postcode        string `gorm:"not null"`
	Phone           string
	IsDefault       bool `gorm:"not null;default:false"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Location is a mirror row merged with the carrier's address record.
type Location struct {
	LocationID      int64  `json:"location_id"`
	SellerProfileID string `json:"sellerProfileId"`
	Label           string `json:"pickup_location"`
	Address         string `json:"address"`
	City            string `json:"city"`
	State           string `json:"state"`
	Country         string `json:"country"`
	Postcode        string `json:"pin_code"`
	Phone           string `json:"phone"`
	IsDefault       bool   `json:"is_default"`
}

// AddressInput carries the fields required to register a pickup address.
type AddressInput struct {
	Label   string `json:"pickup_location" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"required"`
	Address string `json:"address" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	Country string `json:"country" validate:"required"`
	PinCode string `json:"pin_code" validate:"required"`
}

// Registry owns the pickup-location mirror.
type Registry struct {
	db       *gorm.DB
	api      shiprocket.APIClient
	validate *validator.Validate
	logger   *otelzap.Logger
}

// NewRegistry creates a registry over the given store and carrier client.
func NewRegistry(db *gorm.DB, api shiprocket.APIClient, logger *otelzap.Logger) *Registry {
	return &Registry{
		db:       db,
		api:      api,
		validate: validator.New(),
		logger:   logger,
	}
}

// Migrate creates or updates the mirror schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&PickupLocation{})
}

// ListBySeller merges the carrier's full pickup-address list with the
// local mirror, returning only addresses known locally for the seller,
// each annotated with the locally-tracked default flag.
func (r *Registry) ListBySeller(ctx context.Context, sellerID string) ([]Location, error) {
	if sellerID == "" {
		return nil, carrier.NewValidationError("seller id is required")
	}

	var rows []PickupLocation
	if err := r.db.WithContext(ctx).Where("seller_profile_id = ?", sellerID).Find(&rows).Error; err != nil {
		return nil, err
	}

	local := make(map[int64]PickupLocation, len(rows))
	for _, row := range rows {
		local[row.LocationID] = row
	}

	resp, err := r.api.ListPickupLocations(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]Location, 0, len(rows))
	for _, addr := range resp.Data.ShippingAddress {
		row, ok := local[addr.ID]
		if !ok {
			continue
		}
		result = append(result, Location{
			LocationID:      addr.ID,
			SellerProfileID: sellerID,
			Label:           addr.PickupLocation,
			Address:         addr.AddressLine,
			City:            addr.City,
			State:           addr.State,
			Country:         addr.Country,
			Postcode:        addr.PinCode,
			Phone:           addr.Phone,
			IsDefault:       row.IsDefault,
		})
	}
	return result, nil
}

// Register validates the address, creates it with the carrier, then
// persists the mirror row. The first location registered for a seller is
// automatically marked default.
func (r *Registry) Register(ctx context.Context, sellerID string, input AddressInput) (*Location, error) {
	if sellerID == "" {
		return nil, carrier.NewValidationError("seller id is required")
	}
	if err := r.validate.Struct(input); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return nil, carrier.NewValidationError("invalid address field: %s", fieldErrs[0].Field())
		}
		return nil, carrier.NewValidationError("invalid address payload")
	}

	resp, err := r.api.AddPickupLocation(ctx, &shiprocket.AddPickupLocationRequest{
		PickupLocation: input.Label,
		Name:           input.Name,
		Email:          input.Email,
		Phone:          input.Phone,
		Address:        input.Address,
		City:           input.City,
		State:          input.State,
		Country:        input.Country,
		PinCode:        input.PinCode,
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, carrier.NewCarrierError("carrier rejected the pickup address")
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&PickupLocation{}).
		Where("seller_profile_id = ?", sellerID).Count(&count).Error; err != nil {
		return nil, err
	}

	row := PickupLocation{
		LocationID:      resp.Address.ID,
		SellerProfileID: sellerID,
		Label:           input.Label,
		Address:         input.Address,
		City:            input.City,
		State:           input.State,
		Country:         input.Country,
		Postcode:        input.PinCode,
		Phone:           input.Phone,
		IsDefault:       count == 0,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}

	r.logger.Info("Pickup location registered",
		zap.String("seller_id", sellerID),
		zap.Int64("location_id", row.LocationID),
		zap.Bool("is_default", row.IsDefault),
	)

	loc := toLocation(row)
	return &loc, nil
}

// SetDefault marks one of the seller's locations as default. The clear and
// set run in a single transaction so readers never observe zero or two
// defaults.
func (r *Registry) SetDefault(ctx context.Context, sellerID string, locationID int64) error {
	if sellerID == "" || locationID == 0 {
		return carrier.NewValidationError("seller id and location_id are required")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row PickupLocation
		err := tx.Where("seller_profile_id = ? AND location_id = ?", sellerID, locationID).
			First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return carrier.NewNotFoundError("location %d does not belong to seller %s", locationID, sellerID)
		}
		if err != nil {
			return err
		}

		if err := tx.Model(&PickupLocation{}).
			Where("seller_profile_id = ?", sellerID).
			Update("is_default", false).Error; err != nil {
			return err
		}
		return tx.Model(&PickupLocation{}).
			Where("seller_profile_id = ? AND location_id = ?", sellerID, locationID).
			Update("is_default", true).Error
	})
}

// DefaultPostcode returns the default location's postcode, falling back to
// any location the seller has.
func (r *Registry) DefaultPostcode(ctx context.Context, sellerID string) (string, error) {
	if sellerID == "" {
		return "", carrier.NewValidationError("seller id is required")
	}

	var row PickupLocation
	err := r.db.WithContext(ctx).
		Where("seller_profile_id = ?", sellerID).
		Order("is_default DESC, id ASC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", carrier.NewNotFoundError("seller %s has no pickup locations", sellerID)
	}
	if err != nil {
		return "", err
	}
	return row.Postcode, nil
}

// DefaultLabel returns the default location's carrier label, used as the
// pickup_location reference on order creation.
func (r *Registry) DefaultLabel(ctx context.Context, sellerID string) (string, error) {
	if sellerID == "" {
		return "", carrier.NewValidationError("seller id is required")
	}

	var row PickupLocation
	err := r.db.WithContext(ctx).
		Where("seller_profile_id = ?", sellerID).
		Order("is_default DESC, id ASC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", carrier.NewNotFoundError("seller %s has no pickup locations", sellerID)
	}
	if err != nil {
		return "", err
	}
	return row.Label, nil
}

func toLocation(row PickupLocation) Location {
	return Location{
		LocationID:      row.LocationID,
		SellerProfileID: row.SellerProfileID,
		Label:           row.Label,
		Address:         row.Address,
		City:            row.City,
		State:           row.State,
		Country:         row.Country,
		Postcode:        row.Postcode,
		Phone:           row.Phone,
		IsDefault:       row.IsDefault,
	}
}

package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/mandi_backend/config"
	"github.com/mmdatafocus/mandi_backend/utils"
	"github.com/shopspring/decimal"
)

type Farmer struct {
	ID             int             `gorm:"primary_key" json:"id"`
	BusinessId     string          `gorm:"index;not null" json:"business_id"`
	Name           string          `gorm:"index;size:100;not null" json:"name" binding:"required"`
	Phone          string          `gorm:"size:20" json:"phone"`
	Village        string          `gorm:"size:100" json:"village"`
	OpeningBalance decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"opening_balance"`
	IsActive       *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewFarmer struct {
	Name           string          `json:"name" binding:"required"`
	Phone          string          `json:"phone"`
	Village        string          `json:"village"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

func (f Farmer) GetId() int {
	return f.ID
}

// validate input for both create & update. (id = 0 for create)
func (input *NewFarmer) validate(ctx context.Context, businessId string, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Farmer](ctx, businessId, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateUnique[Farmer](ctx, businessId, "name", input.Name, id); err != nil {
		return err
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return utils.NewValidationError("farmer phone number is not valid")
		}
	}
	return nil
}

func CreateFarmer(ctx context.Context, input *NewFarmer) (*Farmer, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business id is required")
	}

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	farmer := Farmer{
		BusinessId:     businessId,
		Name:           input.Name,
		Phone:          input.Phone,
		Village:        input.Village,
		OpeningBalance: input.OpeningBalance,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&farmer).Error; err != nil {
		return nil, err
	}
	return &farmer, nil
}

func UpdateFarmer(ctx context.Context, id int, input *NewFarmer) (*Farmer, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business id is required")
	}

	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	farmer := Farmer{ID: id, BusinessId: businessId}
	db := config.GetDB()
	err := db.WithContext(ctx).Model(&farmer).Updates(map[string]interface{}{
		"Name":           input.Name,
		"Phone":          input.Phone,
		"Village":        input.Village,
		"OpeningBalance": input.OpeningBalance,
	}).Error
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Farmer](ctx, businessId, id)
}

func GetFarmer(ctx context.Context, id int) (*Farmer, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business id is required")
	}
	return utils.FetchModel[Farmer](ctx, businessId, id)
}

func ListFarmers(ctx context.Context) ([]*Farmer, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business id is required")
	}
	return utils.FetchAllModels[Farmer](ctx, businessId)
}

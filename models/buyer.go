package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/mandi_backend/config"
	"github.com/mmdatafocus/mandi_backend/utils"
	"github.com/shopspring/decimal"
)

type Buyer struct {
	ID             int             `gorm:"primary_key" json:"id"`
	BusinessId     string          `gorm:"index;not null" json:"business_id"`
	Name           string          `gorm:"index;size:100;not null" json:"name" binding:"required"`
	FirmName       string          `gorm:"size:100" json:"firm_name"`
	Phone          string          `gorm:"size:20" json:"phone"`
	OpeningBalance decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"opening_balance"`
	IsActive       *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBuyer struct {
	Name           string          `json:"name" binding:"required"`
	FirmName       string          `json:"firm_name"`
	Phone          string          `json:"phone"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

func (b Buyer) GetId() int {
	return b.ID
}

func (input *NewBuyer) validate(ctx context.Context, businessId string, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[Buyer](ctx, businessId, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateUnique[Buyer](ctx, businessId, "name", input.Name, id); err != nil {
		return err
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return utils.NewValidationError("buyer phone number is not valid")
		}
	}
	return nil
}

func CreateBuyer(ctx context.Context, input *NewBuyer) (*Buyer, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business id is required")
	}

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	buyer := Buyer{
		BusinessId:     businessId,
		Name:           input.Name,
		FirmName:       input.FirmName,
		Phone:          input.Phone,
		OpeningBalance: input.OpeningBalance,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&buyer).Error; err != nil {
		return nil, err
	}
	return &buyer, nil
}

func UpdateBuyer(ctx context.Context, id int, input *NewBuyer) (*Buyer, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business id is required")
	}

	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	buyer := Buyer{ID: id, BusinessId: businessId}
	db := config.GetDB()
	err := db.WithContext(ctx).Model(&buyer).Updates(map[string]interface{}{
		"Name":           input.Name,
		"FirmName":       input.FirmName,
		"Phone":          input.Phone,
		"OpeningBalance": input.OpeningBalance,
	}).Error
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Buyer](ctx, businessId, id)
}

func GetBuyer(ctx context.Context, id int) (*Buyer, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business id is required")
	}
	return utils.FetchModel[Buyer](ctx, businessId, id)
}

func ListBuyers(ctx context.Context) ([]*Buyer, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business id is required")
	}
	return utils.FetchAllModels[Buyer](ctx, businessId)
}

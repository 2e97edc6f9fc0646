package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/mandi_backend/config"
)

type Business struct {
	ID        uuid.UUID `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"index;size:100;not null" json:"name" binding:"required"`
	OwnerName string    `gorm:"size:100" json:"owner_name"`
	Email     string    `gorm:"size:255" json:"email"`
	Phone     string    `gorm:"size:20" json:"phone"`
	Address   string    `gorm:"type:text" json:"address"`
	MandiName string    `gorm:"size:100" json:"mandi_name"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBusiness struct {
	Name      string `json:"name" binding:"required"`
	OwnerName string `json:"owner_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	MandiName string `json:"mandi_name"`
}

func CreateBusiness(ctx context.Context, input *NewBusiness) (*Business, error) {
	business := Business{
		ID:        uuid.New(),
		Name:      input.Name,
		OwnerName: input.OwnerName,
		Email:     input.Email,
		Phone:     input.Phone,
		Address:   input.Address,
		MandiName: input.MandiName,
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&business).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	// every business starts with zeroed market charge rates
	setting := ChargeSetting{BusinessId: business.ID.String()}
	if err := tx.WithContext(ctx).Create(&setting).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	return &business, tx.Commit().Error
}

func GetBusiness(ctx context.Context, id string) (*Business, error) {
	db := config.GetDB()
	var business Business
	if err := db.WithContext(ctx).First(&business, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &business, nil
}

package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/mandi_backend/config"
	"github.com/mmdatafocus/mandi_backend/utils"
	"github.com/shopspring/decimal"
)

// BankAccount is a destination for cash transfers. Its balance is never
// stored; it is derived from the cash ledger on every read.
type BankAccount struct {
	ID             int             `gorm:"primary_key" json:"id"`
	BusinessId     string          `gorm:"index;not null" json:"business_id"`
	Name           string          `gorm:"index;size:100;not null" json:"name"`
	AccountNumber  string          `gorm:"size:30" json:"account_number"`
	BankName       string          `gorm:"size:100" json:"bank_name"`
	Type           BankAccountType `gorm:"type:enum('savings','current','od');not null" json:"type"`
	OpeningBalance decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"opening_balance"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBankAccount struct {
	Name           string          `json:"name" binding:"required"`
	AccountNumber  string          `json:"account_number"`
	BankName       string          `json:"bank_name"`
	Type           BankAccountType `json:"type" binding:"required"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

func (a BankAccount) GetId() int {
	return a.ID
}

func (input *NewBankAccount) validate(ctx context.Context, businessId string, id int) error {
	if id > 0 {
		if err := utils.ValidateResourceId[BankAccount](ctx, businessId, id); err != nil {
			return err
		}
	}
	if err := utils.ValidateUnique[BankAccount](ctx, businessId, "name", input.Name, id); err != nil {
		return err
	}
	return input.Type.Validate()
}

func CreateBankAccount(ctx context.Context, input *NewBankAccount) (*BankAccount, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business id is required")
	}

	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	account := BankAccount{
		BusinessId:     businessId,
		Name:           input.Name,
		AccountNumber:  input.AccountNumber,
		BankName:       input.BankName,
		Type:           input.Type,
		OpeningBalance: input.OpeningBalance,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func UpdateBankAccount(ctx context.Context, id int, input *NewBankAccount) (*BankAccount, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business id is required")
	}

	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	account := BankAccount{ID: id, BusinessId: businessId}
	db := config.GetDB()
	err := db.WithContext(ctx).Model(&account).Updates(map[string]interface{}{
		"Name":           input.Name,
		"AccountNumber":  input.AccountNumber,
		"BankName":       input.BankName,
		"Type":           input.Type,
		"OpeningBalance": input.OpeningBalance,
	}).Error
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[BankAccount](ctx, businessId, id)
}

// DeleteBankAccount removes an account that the cash ledger has never
// referenced. Accounts with history stay, since their entries derive
// balances from them.
func DeleteBankAccount(ctx context.Context, id int) error {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return utils.NewValidationError("business id is required")
	}

	account, err := utils.FetchModel[BankAccount](ctx, businessId, id)
	if err != nil {
		return err
	}
	count, err := utils.ResourceCountWhere[CashEntry](ctx, businessId, "bank_account_id = ?", id)
	if err != nil {
		return err
	}
	if count > 0 {
		return utils.NewInvalidStateError("bank account %s has cash entries", account.Name)
	}

	db := config.GetDB()
	return db.WithContext(ctx).Delete(account).Error
}

func GetBankAccount(ctx context.Context, id int) (*BankAccount, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business id is required")
	}
	return utils.FetchModel[BankAccount](ctx, businessId, id)
}

func ListBankAccounts(ctx context.Context) ([]*BankAccount, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business id is required")
	}
	return utils.FetchAllModels[BankAccount](ctx, businessId)
}

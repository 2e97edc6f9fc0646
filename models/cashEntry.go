package models

import (
	"context"
	"fmt"
	"time"

	"github.com/mmdatafocus/mandi_backend/config"
	"github.com/mmdatafocus/mandi_backend/utils"
	"github.com/shopspring/decimal"
)

// CashEntry is one row of the operator's cash book: money received, money
// paid out, or a transfer between cash-in-hand and a bank account. Entries
// are never edited or deleted; mistakes and bounced cheques are reversed.
// The cash ledger is independent of the settlement ledger: reversing a
// transaction never touches its payments and vice versa.
type CashEntry struct {
	ID         int    `gorm:"primary_key" json:"id"`
	BusinessId string `gorm:"index;not null" json:"business_id"`
	SequenceNo int64  `gorm:"not null" json:"sequence_no"`
	CashFlowNo string `gorm:"index;size:20;not null" json:"cash_flow_no"`

	Category    CashCategory    `gorm:"type:enum('inward','outward','transfer');not null" json:"category"`
	Type        CashEntryType   `gorm:"type:enum('cash_in','cash_out','cash_to_account','account_to_cash');not null" json:"type"`
	PaymentMode PaymentMode     `gorm:"type:enum('Cash','Online','Cheque');not null" json:"payment_mode"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`

	FarmerId      *int   `gorm:"index" json:"farmer_id"`
	BuyerId       *int   `gorm:"index" json:"buyer_id"`
	BankAccountId *int   `gorm:"index" json:"bank_account_id"`
	ChequeNumber  string `gorm:"size:50" json:"cheque_number"`
	Notes         string `gorm:"size:255" json:"notes"`

	EntryDate      time.Time  `gorm:"index;not null" json:"entry_date"`
	IsReversed     *bool      `gorm:"not null;default:false" json:"is_reversed"`
	ReversedAt     *time.Time `json:"reversed_at"`
	ReversalReason string     `gorm:"size:100" json:"reversal_reason"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCashEntry struct {
	Category      CashCategory    `json:"category" binding:"required"`
	Type          CashEntryType   `json:"type" binding:"required"`
	PaymentMode   PaymentMode     `json:"payment_mode"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	FarmerId      *int            `json:"farmer_id"`
	BuyerId       *int            `json:"buyer_id"`
	BankAccountId *int            `json:"bank_account_id"`
	ChequeNumber  string          `json:"cheque_number"`
	Notes         string          `json:"notes"`
	EntryDate     time.Time       `json:"entry_date"`
}

func (e CashEntry) GetId() int {
	return e.ID
}

func (e CashEntry) Reversed() bool {
	return e.IsReversed != nil && *e.IsReversed
}

// validate checks category/type/mode consistency and resolves the derived
// payment mode for transfers: moving cash into a bank account is an online
// movement, drawing cash out of one is a cash movement. Callers never pick
// the mode on a transfer.
func (input *NewCashEntry) validate(ctx context.Context, businessId string) error {
	if err := input.Category.Validate(); err != nil {
		return err
	}
	if err := input.Type.Validate(); err != nil {
		return err
	}
	if !input.Amount.IsPositive() {
		return utils.NewValidationError("amount must be positive")
	}

	switch input.Category {
	case CashCategoryInward:
		if input.Type != CashEntryTypeCashIn {
			return utils.NewValidationError("inward entries must use type %s", CashEntryTypeCashIn)
		}
	case CashCategoryOutward:
		if input.Type != CashEntryTypeCashOut {
			return utils.NewValidationError("outward entries must use type %s", CashEntryTypeCashOut)
		}
	case CashCategoryTransfer:
		if !input.Type.IsTransfer() {
			return utils.NewValidationError("transfer entries must use type %s or %s",
				CashEntryTypeCashToAccount, CashEntryTypeAccountToCash)
		}
	}

	if input.Type.IsTransfer() {
		if input.BankAccountId == nil {
			return utils.NewValidationError("transfer entries require a bank account")
		}
		if input.Type == CashEntryTypeCashToAccount {
			input.PaymentMode = PaymentModeOnline
		} else {
			input.PaymentMode = PaymentModeCash
		}
	} else {
		if err := input.PaymentMode.Validate(); err != nil {
			return err
		}
		if input.PaymentMode == PaymentModeCheque && input.ChequeNumber == "" {
			return utils.NewValidationError("cheque entries require a cheque number")
		}
	}

	if input.FarmerId != nil && *input.FarmerId > 0 {
		if err := utils.ValidateResourceId[Farmer](ctx, businessId, *input.FarmerId); err != nil {
			return utils.NewNotFoundError("farmer not found")
		}
	}
	if input.BuyerId != nil && *input.BuyerId > 0 {
		if err := utils.ValidateResourceId[Buyer](ctx, businessId, *input.BuyerId); err != nil {
			return utils.NewNotFoundError("buyer not found")
		}
	}
	if input.BankAccountId != nil && *input.BankAccountId > 0 {
		if err := utils.ValidateResourceId[BankAccount](ctx, businessId, *input.BankAccountId); err != nil {
			return utils.NewNotFoundError("bank account not found")
		}
	}
	return nil
}

func CreateCashEntry(ctx context.Context, input *NewCashEntry) (*CashEntry, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business id is required")
	}
	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	sequenceNo, err := utils.GetSequence[CashEntry](ctx, businessId)
	if err != nil {
		return nil, err
	}

	entryDate := input.EntryDate
	if entryDate.IsZero() {
		entryDate = time.Now().UTC()
	}

	entry := CashEntry{
		BusinessId:    businessId,
		SequenceNo:    sequenceNo,
		CashFlowNo:    fmt.Sprintf("CF-%05d", sequenceNo),
		Category:      input.Category,
		Type:          input.Type,
		PaymentMode:   input.PaymentMode,
		Amount:        input.Amount,
		FarmerId:      input.FarmerId,
		BuyerId:       input.BuyerId,
		BankAccountId: input.BankAccountId,
		ChequeNumber:  input.ChequeNumber,
		Notes:         input.Notes,
		EntryDate:     entryDate,
		IsReversed:    utils.NewFalse(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// ReverseCashEntry marks an entry reversed. The reason is display-only: a
// bounced cheque reversal is the same state transition as any other, just
// annotated.
func ReverseCashEntry(ctx context.Context, id int, reason string) (*CashEntry, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business id is required")
	}

	entry, err := utils.FetchModel[CashEntry](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	if entry.Reversed() {
		return nil, utils.NewAlreadyReversedError("cash entry %s is already reversed", entry.CashFlowNo)
	}

	now := time.Now().UTC()
	db := config.GetDB()
	res := db.WithContext(ctx).Model(&CashEntry{}).
		Where("id = ? AND business_id = ? AND is_reversed = false", id, businessId).
		Updates(map[string]interface{}{
			"IsReversed":     true,
			"ReversedAt":     now,
			"ReversalReason": reason,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, utils.NewAlreadyReversedError("cash entry %s is already reversed", entry.CashFlowNo)
	}
	return utils.FetchModel[CashEntry](ctx, businessId, id)
}

func GetCashEntry(ctx context.Context, id int) (*CashEntry, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business id is required")
	}
	return utils.FetchModel[CashEntry](ctx, businessId, id)
}

func ListCashEntries(ctx context.Context, category *CashCategory, farmerID *int, buyerID *int, bankAccountID *int) ([]*CashEntry, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if category != nil {
		if err := category.Validate(); err != nil {
			return nil, err
		}
		dbCtx = dbCtx.Where("category = ?", *category)
	}
	if farmerID != nil && *farmerID > 0 {
		dbCtx = dbCtx.Where("farmer_id = ?", *farmerID)
	}
	if buyerID != nil && *buyerID > 0 {
		dbCtx = dbCtx.Where("buyer_id = ?", *buyerID)
	}
	if bankAccountID != nil && *bankAccountID > 0 {
		dbCtx = dbCtx.Where("bank_account_id = ?", *bankAccountID)
	}

	var entries []*CashEntry
	if err := dbCtx.Order("entry_date DESC, id DESC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

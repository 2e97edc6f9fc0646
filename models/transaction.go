package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/mandi_backend/config"
	"github.com/mmdatafocus/mandi_backend/utils"
	"github.com/shopspring/decimal"
)

// Transaction is the settled form of a bid: the weighed quantity priced and
// split into farmer-side deductions and buyer-side additions. All rates are
// snapshotted at settlement time; nothing here is re-derived later. The only
// state transition after creation is reversal, which is terminal.
type Transaction struct {
	ID           int    `gorm:"primary_key" json:"id"`
	BusinessId   string `gorm:"index;not null" json:"business_id"`
	SequenceNo   int64  `gorm:"not null" json:"sequence_no"`
	BidId        int    `gorm:"index;not null" json:"bid_id"`
	LotId        int    `gorm:"index;not null" json:"lot_id"`
	FarmerId     int    `gorm:"index;not null" json:"farmer_id"`
	BuyerId      int    `gorm:"index;not null" json:"buyer_id"`
	NumberOfBags int    `gorm:"not null" json:"number_of_bags"`
	Grade        string `gorm:"size:20" json:"grade"`

	TotalWeight decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total_weight"`
	NetWeight   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"net_weight"`
	PricePerKg  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"price_per_kg"`
	GrossAmount decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"gross_amount"`

	HammaliFarmer decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"hammali_farmer"`
	GradingFarmer decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"grading_farmer"`
	AadhatFarmer  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"aadhat_farmer"`
	MandiFarmer   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"mandi_farmer"`
	FreightFarmer decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"freight_farmer"`

	HammaliBuyer decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"hammali_buyer"`
	GradingBuyer decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"grading_buyer"`
	AadhatBuyer  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"aadhat_buyer"`
	MandiBuyer   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"mandi_buyer"`

	// ChargedTo is only set on historical single-sided settlements where the
	// whole commission went to one party.
	ChargedTo *ChargedToSide `gorm:"type:enum('farmer','buyer');default:null" json:"charged_to"`

	TotalPayableToFarmer     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total_payable_to_farmer"`
	TotalReceivableFromBuyer decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total_receivable_from_buyer"`

	IsReversed *bool      `gorm:"not null;default:false" json:"is_reversed"`
	ReversedAt *time.Time `json:"reversed_at"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t Transaction) GetId() int {
	return t.ID
}

func (t Transaction) Reversed() bool {
	return t.IsReversed != nil && *t.IsReversed
}

func GetTransaction(ctx context.Context, id int) (*Transaction, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business id is required")
	}
	return utils.FetchModel[Transaction](ctx, businessId, id)
}

func ListTransactions(ctx context.Context, lotID *int, farmerID *int, buyerID *int) ([]*Transaction, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if lotID != nil && *lotID > 0 {
		dbCtx = dbCtx.Where("lot_id = ?", *lotID)
	}
	if farmerID != nil && *farmerID > 0 {
		dbCtx = dbCtx.Where("farmer_id = ?", *farmerID)
	}
	if buyerID != nil && *buyerID > 0 {
		dbCtx = dbCtx.Where("buyer_id = ?", *buyerID)
	}

	var transactions []*Transaction
	if err := dbCtx.Order("created_at DESC").Find(&transactions).Error; err != nil {
		return nil, err
	}
	return transactions, nil
}

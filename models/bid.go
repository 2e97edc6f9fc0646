package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/mandi_backend/config"
	"github.com/mmdatafocus/mandi_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Bid reserves bags from a lot for a buyer at a price. The reservation
// consumes the lot's remaining bags immediately; settlement later converts
// the bid into a transaction, deletion releases the bags.
type Bid struct {
	ID           int             `gorm:"primary_key" json:"id"`
	BusinessId   string          `gorm:"index;not null" json:"business_id"`
	LotId        int             `gorm:"index;not null" json:"lot_id"`
	BuyerId      int             `gorm:"index;not null" json:"buyer_id"`
	PricePerKg   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"price_per_kg"`
	NumberOfBags int             `gorm:"not null" json:"number_of_bags"`
	Grade        string          `gorm:"size:20" json:"grade"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBid struct {
	LotId        int             `json:"lot_id" binding:"required"`
	BuyerId      int             `json:"buyer_id" binding:"required"`
	PricePerKg   decimal.Decimal `json:"price_per_kg"`
	NumberOfBags int             `json:"number_of_bags" binding:"required"`
	Grade        string          `json:"grade"`
}

type BidPatch struct {
	NumberOfBags *int             `json:"number_of_bags"`
	PricePerKg   *decimal.Decimal `json:"price_per_kg"`
	Grade        *string          `json:"grade"`
}

func (b Bid) GetId() int {
	return b.ID
}

// AllocateLotBags moves bags between a lot's remaining pool and an
// allocation, inside the caller's transaction. delta > 0 consumes bags,
// delta < 0 returns them. The WHERE clause is the stock guard: it refuses
// a consume past zero and a release past the lot's bag ceiling.
func AllocateLotBags(tx *gorm.DB, ctx context.Context, businessId string, lotID int, delta int) error {
	if delta == 0 {
		return nil
	}

	q := tx.WithContext(ctx).Model(&Lot{}).
		Where("id = ? AND business_id = ?", lotID, businessId)
	if delta > 0 {
		q = q.Where("remaining_bags >= ?", delta)
	} else {
		q = q.Where("remaining_bags - ? <= COALESCE(actual_number_of_bags, number_of_bags)", delta)
	}
	result := q.Update("remaining_bags", gorm.Expr("remaining_bags - ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := utils.FetchModelTx[Lot](tx, ctx, businessId, lotID); err != nil {
			return err
		}
		if delta > 0 {
			return utils.NewInsufficientStockError("lot has fewer than %d bags remaining", delta)
		}
		return utils.NewValidationError("returning %d bags would exceed the lot's bag count", -delta)
	}
	return nil
}

// bidHasSettlement reports whether any transaction references the bid.
// Reversed transactions count too: the reversal already handed the bid's
// bags back to the lot, so an edit or delete afterwards would release
// them a second time.
func bidHasSettlement(ctx context.Context, businessId string, bidID int) (bool, error) {
	count, err := utils.ResourceCountWhere[Transaction](ctx, businessId, "bid_id = ?", bidID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func CreateBid(ctx context.Context, input *NewBid) (*Bid, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business id is required")
	}

	if input.NumberOfBags <= 0 {
		return nil, utils.NewValidationError("number of bags must be positive")
	}
	if !input.PricePerKg.IsPositive() {
		return nil, utils.NewValidationError("price per kg must be positive")
	}
	if err := utils.ValidateResourceId[Buyer](ctx, businessId, input.BuyerId); err != nil {
		return nil, utils.NewNotFoundError("buyer not found")
	}
	lot, err := utils.FetchModel[Lot](ctx, businessId, input.LotId)
	if err != nil {
		return nil, utils.NewNotFoundError("lot not found")
	}
	if lot.IsReturned != nil && *lot.IsReturned {
		return nil, utils.NewInvalidStateError("lot %s is returned, bidding is closed", lot.LotCode)
	}

	bid := Bid{
		BusinessId:   businessId,
		LotId:        input.LotId,
		BuyerId:      input.BuyerId,
		PricePerKg:   input.PricePerKg,
		NumberOfBags: input.NumberOfBags,
		Grade:        input.Grade,
	}

	db := config.GetDB()
	err = WithLotLock(ctx, businessId, input.LotId, func() error {
		tx := db.Begin()
		if err := AllocateLotBags(tx, ctx, businessId, input.LotId, input.NumberOfBags); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.WithContext(ctx).Create(&bid).Error; err != nil {
			tx.Rollback()
			return err
		}
		return tx.Commit().Error
	})
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

func UpdateBid(ctx context.Context, id int, input *BidPatch) (*Bid, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business id is required")
	}

	bid, err := utils.FetchModel[Bid](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	settled, err := bidHasSettlement(ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	if settled {
		return nil, utils.NewInvalidStateError("bid %d has a settlement on record", id)
	}

	updates := map[string]interface{}{}
	delta := 0
	if input.NumberOfBags != nil {
		if *input.NumberOfBags <= 0 {
			return nil, utils.NewValidationError("number of bags must be positive")
		}
		delta = *input.NumberOfBags - bid.NumberOfBags
		updates["NumberOfBags"] = *input.NumberOfBags
	}
	if input.PricePerKg != nil {
		if !input.PricePerKg.IsPositive() {
			return nil, utils.NewValidationError("price per kg must be positive")
		}
		updates["PricePerKg"] = *input.PricePerKg
	}
	if input.Grade != nil {
		updates["Grade"] = *input.Grade
	}
	if len(updates) == 0 {
		return bid, nil
	}

	db := config.GetDB()
	err = WithLotLock(ctx, businessId, bid.LotId, func() error {
		tx := db.Begin()
		if err := AllocateLotBags(tx, ctx, businessId, bid.LotId, delta); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.WithContext(ctx).Model(bid).Updates(updates).Error; err != nil {
			tx.Rollback()
			return err
		}
		return tx.Commit().Error
	})
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Bid](ctx, businessId, id)
}

func DeleteBid(ctx context.Context, id int) (*Bid, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business id is required")
	}

	bid, err := utils.FetchModel[Bid](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	settled, err := bidHasSettlement(ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	if settled {
		return nil, utils.NewInvalidStateError("bid %d has a settlement on record", id)
	}

	db := config.GetDB()
	err = WithLotLock(ctx, businessId, bid.LotId, func() error {
		tx := db.Begin()
		if err := AllocateLotBags(tx, ctx, businessId, bid.LotId, -bid.NumberOfBags); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.WithContext(ctx).Delete(bid).Error; err != nil {
			tx.Rollback()
			return err
		}
		return tx.Commit().Error
	})
	if err != nil {
		return nil, err
	}
	return bid, nil
}

func GetBid(ctx context.Context, id int) (*Bid, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business id is required")
	}
	return utils.FetchModel[Bid](ctx, businessId, id)
}

func ListBidsForLot(ctx context.Context, lotID int) ([]*Bid, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business id is required")
	}

	db := config.GetDB()
	var bids []*Bid
	err := db.WithContext(ctx).
		Where("business_id = ? AND lot_id = ?", businessId, lotID).
		Order("created_at ASC").
		Find(&bids).Error
	if err != nil {
		return nil, err
	}
	return bids, nil
}

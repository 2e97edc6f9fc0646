package workflow

import (
	"context"
	"time"

	"github.com/mmdatafocus/mandi_backend/config"
	"github.com/mmdatafocus/mandi_backend/models"
	"github.com/mmdatafocus/mandi_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NewSettlement is the payload for settling a bid into a transaction, and
// for re-running an existing transaction's numbers on edit.
type NewSettlement struct {
	BidId       int             `json:"bid_id" binding:"required"`
	TotalWeight decimal.Decimal `json:"total_weight" binding:"required"`

	// PricePerKg overrides the bid's price when the final rate was
	// renegotiated at the weighbridge. Nil keeps the bid price.
	PricePerKg *decimal.Decimal `json:"price_per_kg"`

	Grade              string                `json:"grade"`
	ApplyGradingFarmer bool                  `json:"apply_grading_farmer"`
	ApplyGradingBuyer  bool                  `json:"apply_grading_buyer"`
	ChargedTo          *models.ChargedToSide `json:"charged_to"`

	// Per-settlement rate overrides, keyed by rate name. Unknown keys are
	// rejected before any money math runs.
	ChargeOverrides map[string]decimal.Decimal `json:"charge_overrides"`
}

func resolveSettlement(ctx context.Context, bid *models.Bid, lot *models.Lot, input *NewSettlement) (*SettlementResult, decimal.Decimal, error) {
	setting, err := models.GetChargeSetting(ctx)
	if err != nil {
		return nil, decimal.Zero, err
	}
	cfg, err := models.ChargeConfigWithOverrides(setting.Config(), input.ChargeOverrides)
	if err != nil {
		return nil, decimal.Zero, err
	}

	price := bid.PricePerKg
	if input.PricePerKg != nil {
		price = *input.PricePerKg
	}

	result, err := Settle(SettlementInput{
		NumberOfBags:       bid.NumberOfBags,
		TotalWeight:        input.TotalWeight,
		PricePerKg:         price,
		VehicleBhadaRate:   lot.VehicleBhadaRate,
		LotNumberOfBags:    lot.NumberOfBags,
		LotActualBags:      lot.ActualNumberOfBags,
		ApplyGradingFarmer: input.ApplyGradingFarmer,
		ApplyGradingBuyer:  input.ApplyGradingBuyer,
		ChargedTo:          input.ChargedTo,
	}, cfg)
	if err != nil {
		return nil, decimal.Zero, err
	}
	return result, price, nil
}

// CreateTransaction settles a bid. A bid carries at most one active
// transaction; once that transaction is reversed the bid may be settled
// again, which consumes the bags a second time since reversal handed them
// back to the lot.
func CreateTransaction(ctx context.Context, input *NewSettlement) (*models.Transaction, error) {
	logger := config.GetLogger()
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business id is required")
	}

	bid, err := utils.FetchModel[models.Bid](ctx, businessId, input.BidId)
	if err != nil {
		return nil, utils.NewNotFoundError("bid not found")
	}
	activeCount, err := utils.ResourceCountWhere[models.Transaction](ctx, businessId,
		"bid_id = ? AND is_reversed = false", bid.ID)
	if err != nil {
		return nil, err
	}
	if activeCount > 0 {
		return nil, utils.NewDuplicateSettlementError("bid %d is already settled", bid.ID)
	}

	lot, err := utils.FetchModel[models.Lot](ctx, businessId, bid.LotId)
	if err != nil {
		return nil, utils.NewNotFoundError("lot not found")
	}

	result, price, err := resolveSettlement(ctx, bid, lot, input)
	if err != nil {
		return nil, err
	}

	sequenceNo, err := utils.GetSequence[models.Transaction](ctx, businessId)
	if err != nil {
		config.LogError(logger, "transactionWorkflow.go", "CreateTransaction", "GetSequence", input, err)
		return nil, err
	}

	grade := input.Grade
	if grade == "" {
		grade = bid.Grade
	}

	transaction := models.Transaction{
		BusinessId:               businessId,
		SequenceNo:               sequenceNo,
		BidId:                    bid.ID,
		LotId:                    lot.ID,
		FarmerId:                 lot.FarmerId,
		BuyerId:                  bid.BuyerId,
		NumberOfBags:             bid.NumberOfBags,
		Grade:                    grade,
		TotalWeight:              input.TotalWeight,
		NetWeight:                result.NetWeight,
		PricePerKg:               price,
		GrossAmount:              result.GrossAmount,
		HammaliFarmer:            result.HammaliFarmer,
		GradingFarmer:            result.GradingFarmer,
		AadhatFarmer:             result.AadhatFarmer,
		MandiFarmer:              result.MandiFarmer,
		FreightFarmer:            result.FreightFarmer,
		HammaliBuyer:             result.HammaliBuyer,
		GradingBuyer:             result.GradingBuyer,
		AadhatBuyer:              result.AadhatBuyer,
		MandiBuyer:               result.MandiBuyer,
		ChargedTo:                input.ChargedTo,
		TotalPayableToFarmer:     result.TotalPayableToFarmer,
		TotalReceivableFromBuyer: result.TotalReceivableFromBuyer,
		IsReversed:               utils.NewFalse(),
	}

	db := config.GetDB()
	err = models.WithLotLock(ctx, businessId, lot.ID, func() error {
		tx := db.Begin()
		// The redis lock is best-effort; the bid row lock is the durable
		// serializer. Both checks above must rerun under it.
		var lockedBid models.Bid
		if err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("business_id = ?", businessId).
			First(&lockedBid, bid.ID).Error; err != nil {
			tx.Rollback()
			return utils.NewNotFoundError("bid not found")
		}
		activeCount, err := utils.ResourceCountWhereTx[models.Transaction](tx, ctx, businessId,
			"bid_id = ? AND is_reversed = false", bid.ID)
		if err != nil {
			tx.Rollback()
			return err
		}
		if activeCount > 0 {
			tx.Rollback()
			return utils.NewDuplicateSettlementError("bid %d is already settled", bid.ID)
		}
		reversedCount, err := utils.ResourceCountWhereTx[models.Transaction](tx, ctx, businessId,
			"bid_id = ? AND is_reversed = true", bid.ID)
		if err != nil {
			tx.Rollback()
			return err
		}
		if reversedCount > 0 {
			// The earlier reversal returned these bags to the lot; settling
			// again takes them back out.
			if err := models.AllocateLotBags(tx, ctx, businessId, lot.ID, bid.NumberOfBags); err != nil {
				tx.Rollback()
				return err
			}
		}
		if err := tx.WithContext(ctx).Create(&transaction).Error; err != nil {
			tx.Rollback()
			return err
		}
		return tx.Commit().Error
	})
	if err != nil {
		config.LogError(logger, "transactionWorkflow.go", "CreateTransaction", "Commit", input, err)
		return nil, err
	}
	return &transaction, nil
}

// UpdateTransaction re-runs the settlement with new inputs and replaces
// every financial field. Reversed transactions are immutable.
func UpdateTransaction(ctx context.Context, id int, input *NewSettlement) (*models.Transaction, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business id is required")
	}

	transaction, err := utils.FetchModel[models.Transaction](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	if transaction.Reversed() {
		return nil, utils.NewInvalidStateError("transaction %d is reversed", id)
	}

	bid, err := utils.FetchModel[models.Bid](ctx, businessId, transaction.BidId)
	if err != nil {
		return nil, err
	}
	lot, err := utils.FetchModel[models.Lot](ctx, businessId, transaction.LotId)
	if err != nil {
		return nil, err
	}

	result, price, err := resolveSettlement(ctx, bid, lot, input)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"Grade":                    input.Grade,
		"TotalWeight":              input.TotalWeight,
		"NetWeight":                result.NetWeight,
		"PricePerKg":               price,
		"GrossAmount":              result.GrossAmount,
		"HammaliFarmer":            result.HammaliFarmer,
		"GradingFarmer":            result.GradingFarmer,
		"AadhatFarmer":             result.AadhatFarmer,
		"MandiFarmer":              result.MandiFarmer,
		"FreightFarmer":            result.FreightFarmer,
		"HammaliBuyer":             result.HammaliBuyer,
		"GradingBuyer":             result.GradingBuyer,
		"AadhatBuyer":              result.AadhatBuyer,
		"MandiBuyer":               result.MandiBuyer,
		"ChargedTo":                input.ChargedTo,
		"TotalPayableToFarmer":     result.TotalPayableToFarmer,
		"TotalReceivableFromBuyer": result.TotalReceivableFromBuyer,
	}
	if input.Grade == "" {
		delete(updates, "Grade")
	}

	db := config.GetDB()
	// Guard on is_reversed again inside the write: a concurrent reversal
	// between the read above and this update must win.
	res := db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ? AND business_id = ? AND is_reversed = false", id, businessId).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, utils.NewInvalidStateError("transaction %d is reversed", id)
	}
	return utils.FetchModel[models.Transaction](ctx, businessId, id)
}

// ReverseTransaction marks a settlement reversed and hands its bags back to
// the lot. Reversal is terminal; the row stays for audit. Returns the number
// of bags restored.
//
// A lot that was returned to the farmer gets special treatment: the bags
// rejoin number_of_bags as well, and the returned flag is cleared so the
// bags become biddable again.
func ReverseTransaction(ctx context.Context, id int) (int, error) {
	logger := config.GetLogger()
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return 0, utils.NewValidationError("business id is required")
	}

	transaction, err := utils.FetchModel[models.Transaction](ctx, businessId, id)
	if err != nil {
		return 0, err
	}
	if transaction.Reversed() {
		return 0, utils.NewAlreadyReversedError("transaction %d is already reversed", id)
	}

	db := config.GetDB()
	err = models.WithLotLock(ctx, businessId, transaction.LotId, func() error {
		tx := db.Begin()

		now := time.Now().UTC()
		res := tx.WithContext(ctx).Model(&models.Transaction{}).
			Where("id = ? AND business_id = ? AND is_reversed = false", id, businessId).
			Updates(map[string]interface{}{"IsReversed": true, "ReversedAt": now})
		if res.Error != nil {
			tx.Rollback()
			return res.Error
		}
		if res.RowsAffected == 0 {
			tx.Rollback()
			return utils.NewAlreadyReversedError("transaction %d is already reversed", id)
		}

		lot, err := utils.FetchModelTx[models.Lot](tx, ctx, businessId, transaction.LotId)
		if err != nil {
			tx.Rollback()
			return err
		}
		if lot.IsReturned != nil && *lot.IsReturned {
			if err := reopenReturnedLot(tx, ctx, businessId, lot, transaction.NumberOfBags); err != nil {
				tx.Rollback()
				return err
			}
		} else {
			if err := models.AllocateLotBags(tx, ctx, businessId, lot.ID, -transaction.NumberOfBags); err != nil {
				tx.Rollback()
				return err
			}
		}
		return tx.Commit().Error
	})
	if err != nil {
		config.LogError(logger, "transactionWorkflow.go", "ReverseTransaction", "Commit", id, err)
		return 0, err
	}
	return transaction.NumberOfBags, nil
}

// reopenReturnedLot restores bags onto a lot that was closed out to the
// farmer. The bag ceiling grows along with the remaining count, so the
// stock invariant keeps holding while the lot becomes biddable again.
func reopenReturnedLot(tx *gorm.DB, ctx context.Context, businessId string, lot *models.Lot, bags int) error {
	updates := map[string]interface{}{
		"NumberOfBags":  gorm.Expr("number_of_bags + ?", bags),
		"RemainingBags": gorm.Expr("remaining_bags + ?", bags),
		"IsReturned":    false,
	}
	if lot.ActualNumberOfBags != nil {
		updates["ActualNumberOfBags"] = gorm.Expr("actual_number_of_bags + ?", bags)
	}
	res := tx.WithContext(ctx).Model(&models.Lot{}).
		Where("id = ? AND business_id = ? AND is_returned = true", lot.ID, businessId).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.NewInvalidStateError("lot %s is no longer returned", lot.LotCode)
	}
	return nil
}

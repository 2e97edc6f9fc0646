package workflow

import (
	"context"

	"github.com/mmdatafocus/mandi_backend/config"
	"github.com/mmdatafocus/mandi_backend/models"
	"github.com/mmdatafocus/mandi_backend/utils"
	"github.com/shopspring/decimal"
)

// Dues are never stored. Every read folds the live ledgers, so a reversal
// drops out of the next aggregation with no compensating entry.

type FarmerWithDues struct {
	models.Farmer
	DueAmount decimal.Decimal `json:"due_amount"`
}

type BuyerWithDues struct {
	models.Buyer
	ReceivableDue decimal.Decimal `json:"receivable_due"`
	OverallDue    decimal.Decimal `json:"overall_due"`
}

// FarmerDueAmount folds what the market owes one farmer: opening balance,
// plus every active settlement payable, minus every active payout.
func FarmerDueAmount(openingBalance decimal.Decimal, transactions []*models.Transaction, payments []*models.CashEntry) decimal.Decimal {
	due := openingBalance
	for _, t := range transactions {
		if t.Reversed() {
			continue
		}
		due = due.Add(t.TotalPayableToFarmer)
	}
	for _, p := range payments {
		if p.Reversed() || p.Category != models.CashCategoryOutward {
			continue
		}
		due = due.Add(p.Amount.Neg())
	}
	return due
}

// BuyerReceivableDue folds what one buyer owes the market from settlements:
// active receivables minus active receipts. Opening balance is excluded here
// and folded by BuyerOverallDue.
func BuyerReceivableDue(transactions []*models.Transaction, receipts []*models.CashEntry) decimal.Decimal {
	due := decimal.Zero
	for _, t := range transactions {
		if t.Reversed() {
			continue
		}
		due = due.Add(t.TotalReceivableFromBuyer)
	}
	for _, r := range receipts {
		if r.Reversed() || r.Category != models.CashCategoryInward {
			continue
		}
		due = due.Add(r.Amount.Neg())
	}
	return due
}

func BuyerOverallDue(openingBalance decimal.Decimal, transactions []*models.Transaction, receipts []*models.CashEntry) decimal.Decimal {
	return openingBalance.Add(BuyerReceivableDue(transactions, receipts))
}

// ListFarmersWithDues returns every farmer with the due computed over the
// business's full settlement and payout history. One query per ledger, the
// fold happens in memory.
func ListFarmersWithDues(ctx context.Context) ([]*FarmerWithDues, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business id is required")
	}

	farmers, err := utils.FetchAllModels[models.Farmer](ctx, businessId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var transactions []*models.Transaction
	if err := db.WithContext(ctx).
		Where("business_id = ? AND is_reversed = false", businessId).
		Find(&transactions).Error; err != nil {
		return nil, err
	}
	var payments []*models.CashEntry
	if err := db.WithContext(ctx).
		Where("business_id = ? AND category = ? AND is_reversed = false AND farmer_id IS NOT NULL",
			businessId, models.CashCategoryOutward).
		Find(&payments).Error; err != nil {
		return nil, err
	}

	transactionsByFarmer := map[int][]*models.Transaction{}
	for _, t := range transactions {
		transactionsByFarmer[t.FarmerId] = append(transactionsByFarmer[t.FarmerId], t)
	}
	paymentsByFarmer := map[int][]*models.CashEntry{}
	for _, p := range payments {
		paymentsByFarmer[*p.FarmerId] = append(paymentsByFarmer[*p.FarmerId], p)
	}

	rows := make([]*FarmerWithDues, 0, len(farmers))
	for _, f := range farmers {
		rows = append(rows, &FarmerWithDues{
			Farmer:    *f,
			DueAmount: FarmerDueAmount(f.OpeningBalance, transactionsByFarmer[f.ID], paymentsByFarmer[f.ID]),
		})
	}
	return rows, nil
}

func ListBuyersWithDues(ctx context.Context) ([]*BuyerWithDues, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business id is required")
	}

	buyers, err := utils.FetchAllModels[models.Buyer](ctx, businessId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var transactions []*models.Transaction
	if err := db.WithContext(ctx).
		Where("business_id = ? AND is_reversed = false", businessId).
		Find(&transactions).Error; err != nil {
		return nil, err
	}
	var receipts []*models.CashEntry
	if err := db.WithContext(ctx).
		Where("business_id = ? AND category = ? AND is_reversed = false AND buyer_id IS NOT NULL",
			businessId, models.CashCategoryInward).
		Find(&receipts).Error; err != nil {
		return nil, err
	}

	transactionsByBuyer := map[int][]*models.Transaction{}
	for _, t := range transactions {
		transactionsByBuyer[t.BuyerId] = append(transactionsByBuyer[t.BuyerId], t)
	}
	receiptsByBuyer := map[int][]*models.CashEntry{}
	for _, r := range receipts {
		receiptsByBuyer[*r.BuyerId] = append(receiptsByBuyer[*r.BuyerId], r)
	}

	rows := make([]*BuyerWithDues, 0, len(buyers))
	for _, b := range buyers {
		receivable := BuyerReceivableDue(transactionsByBuyer[b.ID], receiptsByBuyer[b.ID])
		rows = append(rows, &BuyerWithDues{
			Buyer:         *b,
			ReceivableDue: receivable,
			OverallDue:    b.OpeningBalance.Add(receivable),
		})
	}
	return rows, nil
}

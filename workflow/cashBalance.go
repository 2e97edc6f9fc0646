package workflow

import (
	"context"

	"github.com/mmdatafocus/mandi_backend/config"
	"github.com/mmdatafocus/mandi_backend/models"
	"github.com/mmdatafocus/mandi_backend/utils"
	"github.com/shopspring/decimal"
)

type BankAccountsWithBalance struct {
	models.BankAccount
	Balance decimal.Decimal `json:"balance"`
}

type CashSummary struct {
	CashInHand decimal.Decimal            `json:"cash_in_hand"`
	Accounts   []*BankAccountsWithBalance `json:"accounts"`
}

// CashInHandBalance folds the physical cash drawer: cash-mode receipts in,
// cash-mode payouts out, transfers moving cash to or from the bank.
func CashInHandBalance(entries []*models.CashEntry) decimal.Decimal {
	balance := decimal.Zero
	for _, e := range entries {
		if e.Reversed() {
			continue
		}
		switch {
		case e.Type == models.CashEntryTypeCashToAccount:
			balance = balance.Sub(e.Amount)
		case e.Type == models.CashEntryTypeAccountToCash:
			balance = balance.Add(e.Amount)
		case e.PaymentMode != models.PaymentModeCash:
			// Online and cheque money never passes through the drawer.
		case e.Category == models.CashCategoryInward:
			balance = balance.Add(e.Amount)
		case e.Category == models.CashCategoryOutward:
			balance = balance.Sub(e.Amount)
		}
	}
	return balance
}

// BankAccountBalance folds one account's side of the ledger from the
// entries that reference it.
func BankAccountBalance(openingBalance decimal.Decimal, entries []*models.CashEntry) decimal.Decimal {
	balance := openingBalance
	for _, e := range entries {
		if e.Reversed() {
			continue
		}
		switch {
		case e.Type == models.CashEntryTypeCashToAccount:
			balance = balance.Add(e.Amount)
		case e.Type == models.CashEntryTypeAccountToCash:
			balance = balance.Sub(e.Amount)
		case e.Category == models.CashCategoryInward:
			balance = balance.Add(e.Amount)
		case e.Category == models.CashCategoryOutward:
			balance = balance.Sub(e.Amount)
		}
	}
	return balance
}

// GetCashSummary derives the cash-in-hand pool and every bank account's
// balance from the full ledger in one pass.
func GetCashSummary(ctx context.Context) (*CashSummary, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business id is required")
	}

	accounts, err := utils.FetchAllModels[models.BankAccount](ctx, businessId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var entries []*models.CashEntry
	if err := db.WithContext(ctx).
		Where("business_id = ?", businessId).
		Find(&entries).Error; err != nil {
		return nil, err
	}

	entriesByAccount := map[int][]*models.CashEntry{}
	for _, e := range entries {
		if e.BankAccountId != nil {
			entriesByAccount[*e.BankAccountId] = append(entriesByAccount[*e.BankAccountId], e)
		}
	}

	summary := &CashSummary{
		CashInHand: CashInHandBalance(entries),
		Accounts:   make([]*BankAccountsWithBalance, 0, len(accounts)),
	}
	for _, a := range accounts {
		summary.Accounts = append(summary.Accounts, &BankAccountsWithBalance{
			BankAccount: *a,
			Balance:     BankAccountBalance(a.OpeningBalance, entriesByAccount[a.ID]),
		})
	}
	return summary, nil
}

package models

import (
	"context"
	"errors"
	"testing"

	"github.com/mmdatafocus/mandi_backend/utils"
	"github.com/shopspring/decimal"
)

func TestChargeConfigWithOverrides(t *testing.T) {
	base := ChargeConfig{
		HammaliFarmerPerBag: decimal.NewFromInt(5),
		AadhatBuyerPercent:  decimal.NewFromInt(1),
	}

	cfg, err := ChargeConfigWithOverrides(base, map[string]decimal.Decimal{
		"hammaliFarmerPerBag": decimal.NewFromInt(7),
		"mandiFarmerPercent":  decimal.NewFromFloat(1.5),
	})
	if err != nil {
		t.Fatalf("ChargeConfigWithOverrides: %v", err)
	}
	if !cfg.HammaliFarmerPerBag.Equal(decimal.NewFromInt(7)) {
		t.Errorf("HammaliFarmerPerBag = %s, want 7", cfg.HammaliFarmerPerBag)
	}
	if !cfg.MandiFarmerPercent.Equal(decimal.NewFromFloat(1.5)) {
		t.Errorf("MandiFarmerPercent = %s, want 1.5", cfg.MandiFarmerPercent)
	}
	// untouched keys keep their defaults
	if !cfg.AadhatBuyerPercent.Equal(decimal.NewFromInt(1)) {
		t.Errorf("AadhatBuyerPercent = %s, want 1", cfg.AadhatBuyerPercent)
	}
}

func TestChargeConfigWithOverrides_RejectsUnknownKey(t *testing.T) {
	_, err := ChargeConfigWithOverrides(ChargeConfig{}, map[string]decimal.Decimal{
		"loadingCharge": decimal.NewFromInt(5),
	})
	var validationErr *utils.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError for unknown key, got %v", err)
	}
}

func TestChargeConfigWithOverrides_RejectsNegativeRate(t *testing.T) {
	_, err := ChargeConfigWithOverrides(ChargeConfig{}, map[string]decimal.Decimal{
		"hammaliFarmerPerBag": decimal.NewFromInt(-5),
	})
	var validationErr *utils.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError for negative rate, got %v", err)
	}
}

func TestNewCashEntryValidate_CategoryTypeConsistency(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name  string
		input NewCashEntry
		ok    bool
	}{
		{"inward cash_in", NewCashEntry{Category: CashCategoryInward, Type: CashEntryTypeCashIn, PaymentMode: PaymentModeCash, Amount: decimal.NewFromInt(100)}, true},
		{"inward with outward type", NewCashEntry{Category: CashCategoryInward, Type: CashEntryTypeCashOut, PaymentMode: PaymentModeCash, Amount: decimal.NewFromInt(100)}, false},
		{"outward with transfer type", NewCashEntry{Category: CashCategoryOutward, Type: CashEntryTypeCashToAccount, PaymentMode: PaymentModeCash, Amount: decimal.NewFromInt(100)}, false},
		{"transfer with plain type", NewCashEntry{Category: CashCategoryTransfer, Type: CashEntryTypeCashIn, Amount: decimal.NewFromInt(100)}, false},
		{"transfer without account", NewCashEntry{Category: CashCategoryTransfer, Type: CashEntryTypeCashToAccount, Amount: decimal.NewFromInt(100)}, false},
		{"zero amount", NewCashEntry{Category: CashCategoryInward, Type: CashEntryTypeCashIn, PaymentMode: PaymentModeCash}, false},
		{"cheque without number", NewCashEntry{Category: CashCategoryInward, Type: CashEntryTypeCashIn, PaymentMode: PaymentModeCheque, Amount: decimal.NewFromInt(100)}, false},
		{"cheque with number", NewCashEntry{Category: CashCategoryInward, Type: CashEntryTypeCashIn, PaymentMode: PaymentModeCheque, ChequeNumber: "000123", Amount: decimal.NewFromInt(100)}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.input.validate(ctx, "biz-test")
			if tc.ok && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestNewCashEntryValidate_DerivesTransferMode(t *testing.T) {
	ctx := context.Background()
	accountId := 0 // zero id skips the existence lookup below

	toAccount := NewCashEntry{
		Category:      CashCategoryTransfer,
		Type:          CashEntryTypeCashToAccount,
		Amount:        decimal.NewFromInt(100),
		BankAccountId: &accountId,
	}
	if err := toAccount.validate(ctx, "biz-test"); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if toAccount.PaymentMode != PaymentModeOnline {
		t.Errorf("cash_to_account mode = %s, want %s", toAccount.PaymentMode, PaymentModeOnline)
	}

	toCash := NewCashEntry{
		Category:      CashCategoryTransfer,
		Type:          CashEntryTypeAccountToCash,
		Amount:        decimal.NewFromInt(100),
		BankAccountId: &accountId,
	}
	if err := toCash.validate(ctx, "biz-test"); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if toCash.PaymentMode != PaymentModeCash {
		t.Errorf("account_to_cash mode = %s, want %s", toCash.PaymentMode, PaymentModeCash)
	}
}

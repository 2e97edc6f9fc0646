package models

import (
	"github.com/mmdatafocus/mandi_backend/utils"
)

type CashCategory string

const (
	CashCategoryInward   CashCategory = "inward"
	CashCategoryOutward  CashCategory = "outward"
	CashCategoryTransfer CashCategory = "transfer"
)

func (c CashCategory) Validate() error {
	switch c {
	case CashCategoryInward, CashCategoryOutward, CashCategoryTransfer:
		return nil
	}
	return utils.NewValidationError("invalid cash category: %s", string(c))
}

type CashEntryType string

const (
	CashEntryTypeCashIn        CashEntryType = "cash_in"
	CashEntryTypeCashOut       CashEntryType = "cash_out"
	CashEntryTypeCashToAccount CashEntryType = "cash_to_account"
	CashEntryTypeAccountToCash CashEntryType = "account_to_cash"
)

func (t CashEntryType) Validate() error {
	switch t {
	case CashEntryTypeCashIn, CashEntryTypeCashOut, CashEntryTypeCashToAccount, CashEntryTypeAccountToCash:
		return nil
	}
	return utils.NewValidationError("invalid cash entry type: %s", string(t))
}

// IsTransfer reports whether the type moves money between the cash pool and
// a bank account rather than in or out of the business.
func (t CashEntryType) IsTransfer() bool {
	return t == CashEntryTypeCashToAccount || t == CashEntryTypeAccountToCash
}

type PaymentMode string

const (
	PaymentModeCash   PaymentMode = "Cash"
	PaymentModeOnline PaymentMode = "Online"
	PaymentModeCheque PaymentMode = "Cheque"
)

func (m PaymentMode) Validate() error {
	switch m {
	case PaymentModeCash, PaymentModeOnline, PaymentModeCheque:
		return nil
	}
	return utils.NewValidationError("invalid payment mode: %s", string(m))
}

// ChargedToSide routes the whole aadhat+mandi commission to one party.
// Only historical single-sided settlements carry it; new settlements use
// the per-side percentage split.
type ChargedToSide string

const (
	ChargedToFarmer ChargedToSide = "farmer"
	ChargedToBuyer  ChargedToSide = "buyer"
)

func (s ChargedToSide) Validate() error {
	switch s {
	case ChargedToFarmer, ChargedToBuyer:
		return nil
	}
	return utils.NewValidationError("invalid charged-to side: %s", string(s))
}

type BankAccountType string

const (
	BankAccountTypeSavings BankAccountType = "savings"
	BankAccountTypeCurrent BankAccountType = "current"
	BankAccountTypeOD      BankAccountType = "od"
)

func (t BankAccountType) Validate() error {
	switch t {
	case BankAccountTypeSavings, BankAccountTypeCurrent, BankAccountTypeOD:
		return nil
	}
	return utils.NewValidationError("invalid bank account type: %s", string(t))
}

package workflow

import (
	"github.com/mmdatafocus/mandi_backend/models"
	"github.com/mmdatafocus/mandi_backend/utils"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// SettlementInput carries everything the calculator needs: the bid terms,
// the weighbridge reading and the lot's bag counts for freight proportioning.
type SettlementInput struct {
	NumberOfBags int
	TotalWeight  decimal.Decimal
	PricePerKg   decimal.Decimal

	// Lot fields, snapshotted by the caller.
	VehicleBhadaRate decimal.Decimal
	LotNumberOfBags  int
	LotActualBags    *int

	// Grading is opt-in per settlement even when a business-wide rate exists.
	ApplyGradingFarmer bool
	ApplyGradingBuyer  bool

	// ChargedTo routes the whole commission to one side. Only historical
	// single-sided settlements set it; nil means the split-percent model.
	ChargedTo *models.ChargedToSide
}

// SettlementResult is the full financial breakdown of one settlement.
type SettlementResult struct {
	NetWeight   decimal.Decimal
	GrossAmount decimal.Decimal

	HammaliFarmer decimal.Decimal
	GradingFarmer decimal.Decimal
	AadhatFarmer  decimal.Decimal
	MandiFarmer   decimal.Decimal
	FreightFarmer decimal.Decimal

	HammaliBuyer decimal.Decimal
	GradingBuyer decimal.Decimal
	AadhatBuyer  decimal.Decimal
	MandiBuyer   decimal.Decimal

	TotalPayableToFarmer     decimal.Decimal
	TotalReceivableFromBuyer decimal.Decimal
}

// Settle computes the settlement amounts for a weighed bid. Pure: the same
// input always produces the same result, so edits can simply re-run it.
//
// Net weight deducts one weight unit per bag as sack tare. Per-bag charges
// scale with the bag count, percentage charges with the gross amount.
// Freight is the lot's vehicle bhada spread over the bags actually present:
// when grading corrected the bag count the per-bag rate is inflated by
// original/actual so the lot's total freight still gets recovered.
func Settle(input SettlementInput, cfg models.ChargeConfig) (*SettlementResult, error) {
	if input.NumberOfBags <= 0 {
		return nil, utils.NewValidationError("number of bags must be positive")
	}
	if input.TotalWeight.LessThanOrEqual(decimal.Zero) {
		return nil, utils.NewValidationError("total weight must be positive")
	}
	if input.PricePerKg.LessThanOrEqual(decimal.Zero) {
		return nil, utils.NewValidationError("price per kg must be positive")
	}
	if input.ChargedTo != nil {
		if err := input.ChargedTo.Validate(); err != nil {
			return nil, err
		}
	}

	bags := decimal.NewFromInt(int64(input.NumberOfBags))

	result := &SettlementResult{}
	result.NetWeight = input.TotalWeight.Sub(bags)
	if result.NetWeight.LessThanOrEqual(decimal.Zero) {
		return nil, utils.NewValidationError("total weight %s leaves no net weight after tare for %d bags",
			input.TotalWeight.String(), input.NumberOfBags)
	}
	result.GrossAmount = result.NetWeight.Mul(input.PricePerKg).Round(2)

	result.HammaliFarmer = cfg.HammaliFarmerPerBag.Mul(bags).Round(2)
	result.HammaliBuyer = cfg.HammaliBuyerPerBag.Mul(bags).Round(2)
	if input.ApplyGradingFarmer {
		result.GradingFarmer = cfg.GradingFarmerPerBag.Mul(bags).Round(2)
	}
	if input.ApplyGradingBuyer {
		result.GradingBuyer = cfg.GradingBuyerPerBag.Mul(bags).Round(2)
	}

	percentOf := func(percent decimal.Decimal) decimal.Decimal {
		return result.GrossAmount.Mul(percent).Div(hundred).Round(2)
	}
	if input.ChargedTo != nil {
		// Single-sided commission: the combined aadhat and mandi percentages
		// land entirely on the charged party.
		aadhat := percentOf(cfg.AadhatFarmerPercent.Add(cfg.AadhatBuyerPercent))
		mandi := percentOf(cfg.MandiFarmerPercent.Add(cfg.MandiBuyerPercent))
		if *input.ChargedTo == models.ChargedToFarmer {
			result.AadhatFarmer = aadhat
			result.MandiFarmer = mandi
		} else {
			result.AadhatBuyer = aadhat
			result.MandiBuyer = mandi
		}
	} else {
		result.AadhatFarmer = percentOf(cfg.AadhatFarmerPercent)
		result.MandiFarmer = percentOf(cfg.MandiFarmerPercent)
		result.AadhatBuyer = percentOf(cfg.AadhatBuyerPercent)
		result.MandiBuyer = percentOf(cfg.MandiBuyerPercent)
	}

	result.FreightFarmer = freightForBags(input.VehicleBhadaRate, bags,
		input.LotNumberOfBags, input.LotActualBags)

	farmerDeductions := result.HammaliFarmer.
		Add(result.GradingFarmer).
		Add(result.AadhatFarmer).
		Add(result.MandiFarmer).
		Add(result.FreightFarmer)
	buyerAdditions := result.HammaliBuyer.
		Add(result.GradingBuyer).
		Add(result.AadhatBuyer).
		Add(result.MandiBuyer)

	result.TotalPayableToFarmer = result.GrossAmount.Sub(farmerDeductions).Round(2)
	result.TotalReceivableFromBuyer = result.GrossAmount.Add(buyerAdditions).Round(2)
	return result, nil
}

func freightForBags(rate decimal.Decimal, bags decimal.Decimal, lotBags int, actualBags *int) decimal.Decimal {
	if rate.IsZero() {
		return decimal.Zero
	}
	freight := rate.Mul(bags)
	if actualBags != nil && *actualBags != lotBags && *actualBags > 0 {
		freight = freight.
			Mul(decimal.NewFromInt(int64(lotBags))).
			Div(decimal.NewFromInt(int64(*actualBags)))
	}
	return freight.Round(2)
}

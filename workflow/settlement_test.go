package workflow

import (
	"errors"
	"testing"

	"github.com/mmdatafocus/mandi_backend/models"
	"github.com/mmdatafocus/mandi_backend/utils"
	"github.com/shopspring/decimal"
)

// These tests are intentionally DB-free: the calculator is a pure function
// and every money outcome must be reproducible from its inputs alone.

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func assertDecimal(t *testing.T, name string, got, want decimal.Decimal) {
	t.Helper()
	if !got.Equal(want) {
		t.Errorf("%s = %s, want %s", name, got.String(), want.String())
	}
}

func TestSettle_HammaliOnly(t *testing.T) {
	// 40 bags at 20/kg, weighed 2040kg. One kg tare per bag leaves 2000kg
	// net, 40000 gross; 5/bag hammali deducts 200.
	result, err := Settle(SettlementInput{
		NumberOfBags:    40,
		TotalWeight:     d("2040"),
		PricePerKg:      d("20"),
		LotNumberOfBags: 100,
	}, models.ChargeConfig{
		HammaliFarmerPerBag: d("5"),
	})
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}

	assertDecimal(t, "NetWeight", result.NetWeight, d("2000"))
	assertDecimal(t, "GrossAmount", result.GrossAmount, d("40000"))
	assertDecimal(t, "HammaliFarmer", result.HammaliFarmer, d("200"))
	assertDecimal(t, "TotalPayableToFarmer", result.TotalPayableToFarmer, d("39800"))
	assertDecimal(t, "TotalReceivableFromBuyer", result.TotalReceivableFromBuyer, d("40000"))
}

func TestSettle_SplitPercentModel(t *testing.T) {
	cfg := models.ChargeConfig{
		HammaliFarmerPerBag: d("5"),
		HammaliBuyerPerBag:  d("3"),
		AadhatFarmerPercent: d("2"),
		AadhatBuyerPercent:  d("1"),
		MandiFarmerPercent:  d("1"),
		MandiBuyerPercent:   d("0.5"),
	}
	result, err := Settle(SettlementInput{
		NumberOfBags:    10,
		TotalWeight:     d("510"),
		PricePerKg:      d("20"),
		LotNumberOfBags: 50,
	}, cfg)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}

	// net 500, gross 10000
	assertDecimal(t, "GrossAmount", result.GrossAmount, d("10000"))
	assertDecimal(t, "AadhatFarmer", result.AadhatFarmer, d("200"))
	assertDecimal(t, "MandiFarmer", result.MandiFarmer, d("100"))
	assertDecimal(t, "AadhatBuyer", result.AadhatBuyer, d("100"))
	assertDecimal(t, "MandiBuyer", result.MandiBuyer, d("50"))
	// 10000 - 50 hammali - 200 aadhat - 100 mandi
	assertDecimal(t, "TotalPayableToFarmer", result.TotalPayableToFarmer, d("9650"))
	// 10000 + 30 hammali + 100 aadhat + 50 mandi
	assertDecimal(t, "TotalReceivableFromBuyer", result.TotalReceivableFromBuyer, d("10180"))
}

func TestSettle_ChargedToRoutesWholeCommission(t *testing.T) {
	cfg := models.ChargeConfig{
		AadhatFarmerPercent: d("2"),
		AadhatBuyerPercent:  d("1"),
		MandiFarmerPercent:  d("1"),
		MandiBuyerPercent:   d("0.5"),
	}
	chargedTo := models.ChargedToBuyer
	result, err := Settle(SettlementInput{
		NumberOfBags:    10,
		TotalWeight:     d("510"),
		PricePerKg:      d("20"),
		LotNumberOfBags: 50,
		ChargedTo:       &chargedTo,
	}, cfg)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}

	// The whole 3% aadhat and 1.5% mandi lands on the buyer.
	assertDecimal(t, "AadhatFarmer", result.AadhatFarmer, decimal.Zero)
	assertDecimal(t, "MandiFarmer", result.MandiFarmer, decimal.Zero)
	assertDecimal(t, "AadhatBuyer", result.AadhatBuyer, d("300"))
	assertDecimal(t, "MandiBuyer", result.MandiBuyer, d("150"))
	assertDecimal(t, "TotalPayableToFarmer", result.TotalPayableToFarmer, d("10000"))
	assertDecimal(t, "TotalReceivableFromBuyer", result.TotalReceivableFromBuyer, d("10450"))

	chargedTo = models.ChargedToFarmer
	result, err = Settle(SettlementInput{
		NumberOfBags:    10,
		TotalWeight:     d("510"),
		PricePerKg:      d("20"),
		LotNumberOfBags: 50,
		ChargedTo:       &chargedTo,
	}, cfg)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	assertDecimal(t, "AadhatFarmer", result.AadhatFarmer, d("300"))
	assertDecimal(t, "MandiFarmer", result.MandiFarmer, d("150"))
	assertDecimal(t, "TotalPayableToFarmer", result.TotalPayableToFarmer, d("9550"))
	assertDecimal(t, "TotalReceivableFromBuyer", result.TotalReceivableFromBuyer, d("10000"))
}

func TestSettle_GradingIsOptIn(t *testing.T) {
	cfg := models.ChargeConfig{
		GradingFarmerPerBag: d("2"),
		GradingBuyerPerBag:  d("1"),
	}
	input := SettlementInput{
		NumberOfBags:    10,
		TotalWeight:     d("510"),
		PricePerKg:      d("20"),
		LotNumberOfBags: 50,
	}

	// A business-wide grading rate alone charges nobody.
	result, err := Settle(input, cfg)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	assertDecimal(t, "GradingFarmer", result.GradingFarmer, decimal.Zero)
	assertDecimal(t, "GradingBuyer", result.GradingBuyer, decimal.Zero)

	input.ApplyGradingFarmer = true
	input.ApplyGradingBuyer = true
	result, err = Settle(input, cfg)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	assertDecimal(t, "GradingFarmer", result.GradingFarmer, d("20"))
	assertDecimal(t, "GradingBuyer", result.GradingBuyer, d("10"))
}

func TestSettle_FreightProportioning(t *testing.T) {
	// 100 bags arrived, 80 survived grading: the per-bag freight rate is
	// inflated by 100/80 so the lot's total freight is still recovered
	// over the bags actually sold.
	actual := 80
	result, err := Settle(SettlementInput{
		NumberOfBags:     20,
		TotalWeight:      d("1020"),
		PricePerKg:       d("20"),
		VehicleBhadaRate: d("10"),
		LotNumberOfBags:  100,
		LotActualBags:    &actual,
	}, models.ChargeConfig{})
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	assertDecimal(t, "FreightFarmer", result.FreightFarmer, d("250"))

	// Without a correction the plain per-bag rate applies.
	result, err = Settle(SettlementInput{
		NumberOfBags:     20,
		TotalWeight:      d("1020"),
		PricePerKg:       d("20"),
		VehicleBhadaRate: d("10"),
		LotNumberOfBags:  100,
	}, models.ChargeConfig{})
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	assertDecimal(t, "FreightFarmer", result.FreightFarmer, d("200"))
}

func TestSettle_Deterministic(t *testing.T) {
	cfg := models.ChargeConfig{
		HammaliFarmerPerBag: d("5.25"),
		AadhatFarmerPercent: d("2.5"),
		MandiBuyerPercent:   d("1.05"),
	}
	input := SettlementInput{
		NumberOfBags:    33,
		TotalWeight:     d("1684.5"),
		PricePerKg:      d("21.75"),
		LotNumberOfBags: 120,
	}

	first, err := Settle(input, cfg)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Settle(input, cfg)
		if err != nil {
			t.Fatalf("Settle run %d: %v", i, err)
		}
		if !again.TotalPayableToFarmer.Equal(first.TotalPayableToFarmer) ||
			!again.TotalReceivableFromBuyer.Equal(first.TotalReceivableFromBuyer) {
			t.Fatalf("run %d drifted: payable %s vs %s, receivable %s vs %s", i,
				again.TotalPayableToFarmer, first.TotalPayableToFarmer,
				again.TotalReceivableFromBuyer, first.TotalReceivableFromBuyer)
		}
	}
}

func TestSettle_Validation(t *testing.T) {
	base := SettlementInput{
		NumberOfBags:    10,
		TotalWeight:     d("510"),
		PricePerKg:      d("20"),
		LotNumberOfBags: 50,
	}

	cases := []struct {
		name   string
		mutate func(*SettlementInput)
	}{
		{"zero weight", func(in *SettlementInput) { in.TotalWeight = decimal.Zero }},
		{"negative weight", func(in *SettlementInput) { in.TotalWeight = d("-100") }},
		{"zero bags", func(in *SettlementInput) { in.NumberOfBags = 0 }},
		{"zero price", func(in *SettlementInput) { in.PricePerKg = decimal.Zero }},
		{"weight below tare", func(in *SettlementInput) { in.TotalWeight = d("10") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := base
			tc.mutate(&input)
			_, err := Settle(input, models.ChargeConfig{})
			var validationErr *utils.ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

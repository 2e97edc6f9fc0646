package models

import (
	"errors"
	"testing"

	"github.com/mmdatafocus/mandi_backend/utils"
)

func intPtr(v int) *int { return &v }

func TestResolveLotReturn_ClampsToSoldBags(t *testing.T) {
	// 50 bags, 30 sold, 20 remaining: the 20 unsold leave the ledger and
	// the lot is recorded as a 30-bag lot fully sold.
	lot := Lot{NumberOfBags: 50, RemainingBags: 20}

	number, actual, remaining, soldBags := resolveLotReturn(lot)
	if number != 30 {
		t.Errorf("number = %d, want 30", number)
	}
	if actual == nil || *actual != 30 {
		t.Errorf("actual = %v, want 30", actual)
	}
	if remaining != 0 {
		t.Errorf("remaining = %d, want 0", remaining)
	}
	if soldBags != 30 {
		t.Errorf("soldBags = %d, want 30", soldBags)
	}
}

func TestResolveLotReturn_NothingSoldKeepsCounts(t *testing.T) {
	lot := Lot{NumberOfBags: 50, RemainingBags: 50}

	number, actual, remaining, soldBags := resolveLotReturn(lot)
	if number != 50 || remaining != 50 || soldBags != 0 {
		t.Errorf("got number=%d remaining=%d soldBags=%d, want 50/50/0", number, remaining, soldBags)
	}
	if actual != nil {
		t.Errorf("actual = %v, want nil: an untouched lot gets no correction", *actual)
	}
}

func TestResolveLotReturn_RespectsActualCorrection(t *testing.T) {
	// 50 arrived, corrected to 45, 25 remaining: 20 sold.
	lot := Lot{NumberOfBags: 50, ActualNumberOfBags: intPtr(45), RemainingBags: 25}

	number, actual, remaining, soldBags := resolveLotReturn(lot)
	if number != 20 || actual == nil || *actual != 20 || remaining != 0 || soldBags != 20 {
		t.Errorf("got number=%d actual=%v remaining=%d soldBags=%d, want 20/20/0/20",
			number, actual, remaining, soldBags)
	}
}

func TestResolveLotPatch_AdjustsRemaining(t *testing.T) {
	// 100 bags, 40 sold. Growing the lot to 120 gives remaining 80.
	lot := Lot{NumberOfBags: 100, RemainingBags: 60}

	number, actual, remaining, err := resolveLotPatch(lot, 120, nil)
	if err != nil {
		t.Fatalf("resolveLotPatch: %v", err)
	}
	if number != 120 || actual != nil || remaining != 80 {
		t.Errorf("got number=%d actual=%v remaining=%d, want 120/nil/80", number, actual, remaining)
	}
}

func TestResolveLotPatch_ActualCorrectionLowersCeiling(t *testing.T) {
	// 100 bags, 40 sold, corrected down to 90 present: remaining 50.
	lot := Lot{NumberOfBags: 100, RemainingBags: 60}

	number, actual, remaining, err := resolveLotPatch(lot, 0, intPtr(90))
	if err != nil {
		t.Fatalf("resolveLotPatch: %v", err)
	}
	if number != 100 || actual == nil || *actual != 90 || remaining != 50 {
		t.Errorf("got number=%d actual=%v remaining=%d, want 100/90/50", number, actual, remaining)
	}
}

func TestResolveLotPatch_RejectsCeilingBelowSold(t *testing.T) {
	lot := Lot{NumberOfBags: 100, RemainingBags: 60} // 40 sold

	cases := []struct {
		name      string
		newNumber int
		newActual *int
	}{
		{"number below sold", 30, nil},
		{"actual below sold", 0, intPtr(30)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, _, err := resolveLotPatch(lot, tc.newNumber, tc.newActual)
			var validationErr *utils.ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestResolveLotPatch_RejectsActualAboveNumber(t *testing.T) {
	lot := Lot{NumberOfBags: 100, RemainingBags: 100}

	_, _, _, err := resolveLotPatch(lot, 0, intPtr(110))
	var validationErr *utils.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestBagConservationReplay(t *testing.T) {
	// Replay a sequence of allocations and releases against the pure
	// counters: remaining always equals ceiling minus active allocations
	// and never dips negative.
	lot := Lot{NumberOfBags: 100, RemainingBags: 100}
	active := 0

	apply := func(delta int) bool {
		if delta > 0 && lot.RemainingBags < delta {
			return false
		}
		if delta < 0 && lot.RemainingBags-delta > lot.BagCeiling() {
			return false
		}
		lot.RemainingBags -= delta
		active += delta
		return true
	}

	steps := []struct {
		delta int
		ok    bool
	}{
		{40, true},   // bid
		{30, true},   // bid
		{-40, true},  // reversal returns first bid's bags
		{40, true},   // re-settle
		{50, false},  // over-allocation refused
		{-30, true},  // delete second bid
		{-50, false}, // release past ceiling refused
	}
	for i, s := range steps {
		if got := apply(s.delta); got != s.ok {
			t.Fatalf("step %d (delta %d): applied=%v, want %v", i, s.delta, got, s.ok)
		}
		if lot.RemainingBags < 0 {
			t.Fatalf("step %d: remaining went negative", i)
		}
		if lot.RemainingBags != lot.BagCeiling()-active {
			t.Fatalf("step %d: remaining %d != ceiling %d - active %d",
				i, lot.RemainingBags, lot.BagCeiling(), active)
		}
	}
}

func TestLotCodePrefix(t *testing.T) {
	cases := map[string]string{
		"wheat":     "WHE",
		"Soya Bean": "SOY",
		" gram ":    "GRA",
		"RICE":      "RIC",
		"ok":        "OK",
	}
	for crop, want := range cases {
		if got := lotCodePrefix(crop); got != want {
			t.Errorf("lotCodePrefix(%q) = %q, want %q", crop, got, want)
		}
	}
}

package models

import (
	"math"
	"testing"
)

func TestComputeQuote(t *testing.T) {
	tests := []struct {
		name  string
		in    QuoteInput
		total float64
	}{
		{
			name: "three days with cleaning fee",
			in: QuoteInput{
				RentalDays:  3,
				PricePerDay: 49,
				CleaningFee: 7,
			},
			total: 154.00,
		},
		{
			name: "location and after-hours fees",
			in: QuoteInput{
				RentalDays:    2,
				PricePerDay:   60,
				CleaningFee:   10,
				PickupFee:     15,
				ReturnFee:     25,
				AfterHoursFee: 30,
			},
			total: 200.00,
		},
		{
			name: "unlimited km charged per day",
			in: QuoteInput{
				RentalDays:        4,
				PricePerDay:       50,
				UnlimitedKm:       true,
				UnlimitedKmPerDay: 9.5,
			},
			total: 238.00,
		},
		{
			name: "unlimited km fee ignored when not selected",
			in: QuoteInput{
				RentalDays:        4,
				PricePerDay:       50,
				UnlimitedKm:       false,
				UnlimitedKmPerDay: 9.5,
			},
			total: 200.00,
		},
		{
			name: "zero days clamped to one",
			in: QuoteInput{
				RentalDays:  0,
				PricePerDay: 80,
			},
			total: 80.00,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := ComputeQuote(tt.in)
			if math.Abs(fb.Total-tt.total) > 1e-9 {
				t.Errorf("Total = %.2f, want %.2f", fb.Total, tt.total)
			}
		})
	}
}

func TestComputeQuoteBreakdownSums(t *testing.T) {
	fb := ComputeQuote(QuoteInput{
		RentalDays:        3,
		PricePerDay:       49.99,
		CleaningFee:       7,
		PickupFee:         12.5,
		ReturnFee:         12.5,
		AfterHoursFee:     20,
		UnlimitedKm:       true,
		UnlimitedKmPerDay: 8.33,
	})

	sum := fb.RentalCost + fb.CleaningFee + fb.PickupFee + fb.ReturnFee + fb.AfterHoursFee + fb.UnlimitedKm
	if math.Abs(fb.Total-sum) > PriceTolerance {
		t.Errorf("Total %.2f does not equal sum of parts %.2f", fb.Total, sum)
	}
	if fb.RentalCost != 149.97 {
		t.Errorf("RentalCost = %.2f, want 149.97", fb.RentalCost)
	}
	if fb.UnlimitedKm != 24.99 {
		t.Errorf("UnlimitedKm = %.2f, want 24.99", fb.UnlimitedKm)
	}
}

func TestTotalsMatch(t *testing.T) {
	if !TotalsMatch(154.00, 154.00) {
		t.Error("identical totals must match")
	}
	if !TotalsMatch(154.004, 154.00) {
		t.Error("sub-cent difference must match")
	}
	if TotalsMatch(154.02, 154.00) {
		t.Error("two-cent difference must not match")
	}
}

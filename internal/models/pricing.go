package models

import "math"

// PriceTolerance is the largest client/server total discrepancy treated as a
// rounding artifact rather than a mismatch.
const PriceTolerance = 0.01

type FeeBreakdown struct {
	RentalDays    int     `db:"rental_days" json:"rental_days"`
	PricePerDay   float64 `db:"price_per_day" json:"price_per_day"`
	RentalCost    float64 `db:"rental_cost" json:"rental_cost"`
	CleaningFee   float64 `db:"cleaning_fee" json:"cleaning_fee"`
	PickupFee     float64 `db:"pickup_fee" json:"pickup_fee"`
	ReturnFee     float64 `db:"return_fee" json:"return_fee"`
	AfterHoursFee float64 `db:"after_hours_fee" json:"after_hours_fee"`
	UnlimitedKm   float64 `db:"unlimited_km_fee" json:"unlimited_km_fee"`
	Total         float64 `db:"total" json:"total"`
}

// QuoteInput carries the pricing knobs for one quote. Location and after-hours
// fees are resolved by the service from the chosen pickup/return options.
type QuoteInput struct {
	RentalDays        int
	PricePerDay       float64
	CleaningFee       float64
	PickupFee         float64
	ReturnFee         float64
	AfterHoursFee     float64
	UnlimitedKm       bool
	UnlimitedKmPerDay float64
}

// ComputeQuote recomputes the full fee breakdown from server-held inputs.
func ComputeQuote(in QuoteInput) FeeBreakdown {
	days := in.RentalDays
	if days < 1 {
		days = 1
	}

	fb := FeeBreakdown{
		RentalDays:    days,
		PricePerDay:   in.PricePerDay,
		RentalCost:    roundCents(float64(days) * in.PricePerDay),
		CleaningFee:   in.CleaningFee,
		PickupFee:     in.PickupFee,
		ReturnFee:     in.ReturnFee,
		AfterHoursFee: in.AfterHoursFee,
	}
	if in.UnlimitedKm {
		fb.UnlimitedKm = roundCents(float64(days) * in.UnlimitedKmPerDay)
	}

	fb.Total = roundCents(fb.RentalCost + fb.CleaningFee + fb.PickupFee + fb.ReturnFee + fb.AfterHoursFee + fb.UnlimitedKm)
	return fb
}

// TotalsMatch compares a client-submitted total against the server total.
func TotalsMatch(client, server float64) bool {
	return math.Abs(client-server) <= PriceTolerance
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

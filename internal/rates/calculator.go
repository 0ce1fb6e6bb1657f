// Package rates prices the two fixed-rate mortgage products offered on the
// lending page. All functions are pure; identical inputs always produce
// identical quotes.
package rates

import (
	"math"

	"bankena/internal/models"
)

// Base 30-year rate for the best credit band. Lower bands add a fixed spread.
const baseRate30 = 6.875

const (
	discount15 = 0.750
	feeSpread30 = 0.152
	feeSpread15 = 0.215
)

// Bands lists the accepted credit-score bands, best first.
var Bands = []string{"740+", "720-739", "700-719", "680-699", "660-679", "640-659", "620-639"}

var bandSpreads = map[string]float64{
	"740+":    0,
	"720-739": 0.125,
	"700-719": 0.250,
	"680-699": 0.375,
	"660-679": 0.500,
	"640-659": 0.750,
	"620-639": 1.000,
}

// ValidBand reports whether band is one of the seven accepted credit bands.
func ValidBand(band string) bool {
	_, ok := bandSpreads[band]
	return ok
}

// Compute prices the 30-year and 15-year fixed products for the given loan
// amount and credit band. An unknown band prices as the best band; callers
// validate bands before quoting.
func Compute(loanAmount float64, creditBand string) []models.RateQuote {
	rate30 := baseRate30 + bandSpreads[creditBand]
	rate15 := rate30 - discount15

	return []models.RateQuote{
		{
			Name:           "30-Year Fixed",
			InterestRate:   rate30,
			APR:            rate30 + feeSpread30,
			MonthlyPayment: MonthlyPayment(loanAmount, rate30, 30),
		},
		{
			Name:           "15-Year Fixed",
			InterestRate:   rate15,
			APR:            rate15 + feeSpread15,
			MonthlyPayment: MonthlyPayment(loanAmount, rate15, 15),
		},
	}
}

// MonthlyPayment applies the standard fixed-rate amortization formula.
// Non-positive loan amounts clamp to a zero payment.
func MonthlyPayment(loanAmount, annualRate float64, termYears int) float64 {
	if loanAmount <= 0 {
		return 0
	}
	monthlyRate := annualRate / 100 / 12
	months := float64(termYears * 12)
	if monthlyRate == 0 {
		return loanAmount / months
	}
	return loanAmount * monthlyRate / (1 - math.Pow(1+monthlyRate, -months))
}

// DeriveLoanFigures recomputes the display-only form fields from home value
// and down payment: percentage = round(downPayment/homeValue*100) and
// loanAmount = homeValue - downPayment, clamped at zero.
func DeriveLoanFigures(homeValue, downPayment float64) (percentage int, loanAmount float64) {
	if homeValue > 0 {
		percentage = int(math.Round(downPayment / homeValue * 100))
	}
	loanAmount = homeValue - downPayment
	if loanAmount < 0 {
		loanAmount = 0
	}
	return percentage, loanAmount
}

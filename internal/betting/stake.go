package betting

import (
	"github.com/shopspring/decimal"
)

const (
	// DefaultKellyFraction is the risk-reduction multiplier on full Kelly.
	// Deployed leagues run between 1/8 and 0.125.
	DefaultKellyFraction = 0.125
	// DefaultMaxBankrollFraction is the hard stake ceiling
	DefaultMaxBankrollFraction = 0.05
)

// Sizer converts an edge into a bounded fractional-Kelly stake.
// Output is always within [0, bankroll*maxFraction]; a negative full-Kelly
// edge recommends zero, never an error.
type Sizer struct {
	kellyFraction float64
	maxFraction   float64

	// Fixed display-currency conversion, set at configuration time
	currencyRate decimal.Decimal
	currencyCode string
}

// NewSizer creates a stake sizer. Non-positive parameters take the
// documented defaults.
func NewSizer(kellyFraction, maxFraction float64, currencyRate float64, currencyCode string) *Sizer {
	if kellyFraction <= 0 {
		kellyFraction = DefaultKellyFraction
	}
	if maxFraction <= 0 {
		maxFraction = DefaultMaxBankrollFraction
	}
	if currencyRate <= 0 {
		currencyRate = 1
	}
	if currencyCode == "" {
		currencyCode = "USD"
	}
	return &Sizer{
		kellyFraction: kellyFraction,
		maxFraction:   maxFraction,
		currencyRate:  decimal.NewFromFloat(currencyRate),
		currencyCode:  currencyCode,
	}
}

// Stake returns the recommended stake in bankroll units.
// Full Kelly: f* = (p*(odds-1) - (1-p)) / (odds-1), scaled by the
// fractional multiplier and clamped to the bankroll ceiling.
func (s *Sizer) Stake(fairProb, odds, bankroll float64) float64 {
	if fairProb <= 0 || fairProb >= 1 || odds <= 1 || bankroll <= 0 {
		return 0
	}

	b := odds - 1
	kelly := (fairProb*b - (1 - fairProb)) / b
	if kelly <= 0 {
		return 0
	}

	stake := bankroll * kelly * s.kellyFraction
	if ceiling := bankroll * s.maxFraction; stake > ceiling {
		stake = ceiling
	}
	return stake
}

// MaxStake returns the ceiling for a bankroll
func (s *Sizer) MaxStake(bankroll float64) float64 {
	if bankroll <= 0 {
		return 0
	}
	return bankroll * s.maxFraction
}

// DisplayStake renders a stake in the configured display currency,
// rounded to cents with decimal arithmetic.
func (s *Sizer) DisplayStake(stake float64) string {
	if stake <= 0 {
		return ""
	}
	amount := decimal.NewFromFloat(stake).Mul(s.currencyRate).Round(2)
	return amount.String() + " " + s.currencyCode
}

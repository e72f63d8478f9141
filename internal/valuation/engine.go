// Package valuation computes point-valuation scores for card sign-up offers.
//
// The headline score is the net value: the cash value of the bonus points at
// the currency's published cents-per-point rate, plus statement credits, minus
// the effective annual fee. All monetary arithmetic runs on decimals and is
// rounded half-up to whole currency units so displayed values never drift
// across platforms.
package valuation

import (
	"github.com/offer-tracker/internal/models"
	"github.com/shopspring/decimal"
)

// DefaultCentsPerPoint is the fallback rate applied when a reward currency has
// no published valuation. An unknown currency is a policy case, not an error.
const DefaultCentsPerPoint = 1.0

// RateTable maps reward currency codes to published cents-per-point rates.
type RateTable map[string]float64

// Lookup returns the cents-per-point rate for a currency code, falling back to
// DefaultCentsPerPoint for unknown codes.
func (t RateTable) Lookup(currencyCode string) float64 {
	if cpp, ok := t[currencyCode]; ok {
		return cpp
	}
	return DefaultCentsPerPoint
}

// Value is the computed valuation for an offer
type Value struct {
	BonusValue    int64   `json:"bonusValue"`
	NetValue      int64   `json:"netValue"`
	CentsPerPoint float64 `json:"centsPerPoint"`
}

// Input carries the offer terms the engine scores
type Input struct {
	BonusPoints      int64
	StatementCredits decimal.Decimal
	AnnualFee        decimal.Decimal
	FirstYearWaived  bool
}

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.New(5, -1)
)

// roundHalfUp rounds to the nearest whole unit, ties toward positive
// infinity. Distinct from decimal.Round, which takes ties away from zero:
// -98.5 must round to -98, not -99.
func roundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Add(half).Floor()
}

// Score computes the bonus value and net value of an offer at the given
// cents-per-point rate.
//
//	bonusValue = round(bonusPoints * centsPerPoint / 100)
//	netValue   = round(bonusValue + statementCredits - effectiveAnnualFee)
//
// A rate of zero yields a bonus value of zero. A negative net value is valid
// and preserved; a card can have negative expected value.
func Score(in Input, centsPerPoint float64) Value {
	cpp := decimal.NewFromFloat(centsPerPoint)

	bonusValue := roundHalfUp(decimal.NewFromInt(in.BonusPoints).
		Mul(cpp).
		Div(hundred))

	netValue := roundHalfUp(bonusValue.
		Add(in.StatementCredits).
		Sub(EffectiveAnnualFee(in.AnnualFee, in.FirstYearWaived)))

	return Value{
		BonusValue:    bonusValue.IntPart(),
		NetValue:      netValue.IntPart(),
		CentsPerPoint: centsPerPoint,
	}
}

// EffectiveAnnualFee is zero when the first year is waived, the full annual
// fee otherwise.
func EffectiveAnnualFee(annualFee decimal.Decimal, firstYearWaived bool) decimal.Decimal {
	if firstYearWaived {
		return decimal.Zero
	}
	return annualFee
}

// ScoreOffer computes the valuation for an offer using its product's reward
// currency. The offer must be loaded with its owning product.
func ScoreOffer(offer *models.Offer, rates RateTable) Value {
	cpp := DefaultCentsPerPoint
	if offer.Product != nil {
		cpp = rates.Lookup(offer.Product.CurrencyCode)
	}

	return Score(Input{
		BonusPoints:      offer.BonusPoints,
		StatementCredits: offer.StatementCredits,
		AnnualFee:        offer.AnnualFee,
		FirstYearWaived:  offer.FirstYearWaived,
	}, cpp)
}

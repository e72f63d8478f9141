package valuation

import (
	"testing"

	"github.com/offer-tracker/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestScoreCitiAAOffer(t *testing.T) {
	// 80,000 AA miles at 1.4 cpp, $99 annual fee not waived, no credits
	v := Score(Input{
		BonusPoints:      80000,
		StatementCredits: decimal.Zero,
		AnnualFee:        decimal.NewFromInt(99),
		FirstYearWaived:  false,
	}, 1.4)

	assert.Equal(t, int64(1120), v.BonusValue)
	assert.Equal(t, int64(1021), v.NetValue)
	assert.Equal(t, 1.4, v.CentsPerPoint)
}

func TestScoreAmexGoldOffer(t *testing.T) {
	// 90,000 MR at 1.7 cpp, $325 annual fee not waived, $120 credits
	v := Score(Input{
		BonusPoints:      90000,
		StatementCredits: decimal.NewFromInt(120),
		AnnualFee:        decimal.NewFromInt(325),
		FirstYearWaived:  false,
	}, 1.7)

	assert.Equal(t, int64(1530), v.BonusValue)
	assert.Equal(t, int64(1325), v.NetValue)
}

func TestScoreFirstYearWaived(t *testing.T) {
	v := Score(Input{
		BonusPoints:      80000,
		StatementCredits: decimal.Zero,
		AnnualFee:        decimal.NewFromInt(99),
		FirstYearWaived:  true,
	}, 1.4)

	assert.Equal(t, int64(1120), v.NetValue, "waived annual fee must not reduce net value")
}

func TestScoreZeroRate(t *testing.T) {
	v := Score(Input{
		BonusPoints:      50000,
		StatementCredits: decimal.Zero,
		AnnualFee:        decimal.NewFromInt(95),
		FirstYearWaived:  false,
	}, 0)

	assert.Equal(t, int64(0), v.BonusValue, "zero cents-per-point yields zero bonus value, not an error")
	assert.Equal(t, int64(-95), v.NetValue, "negative net value is valid and preserved")
}

func TestScoreRoundsHalfUp(t *testing.T) {
	// 1,500 points at 1.3 cpp = 19.5, rounds up to 20
	v := Score(Input{
		BonusPoints:      1500,
		StatementCredits: decimal.Zero,
		AnnualFee:        decimal.Zero,
		FirstYearWaived:  false,
	}, 1.3)

	assert.Equal(t, int64(20), v.BonusValue)
}

func TestScoreRoundsNegativeHalfUp(t *testing.T) {
	// 99 points at 1.0 cpp = 0.99, rounds to a $1 bonus; net value is then
	// exactly -98.5, which rounds toward positive infinity to -98
	v := Score(Input{
		BonusPoints:      99,
		StatementCredits: decimal.Zero,
		AnnualFee:        decimal.NewFromFloat(99.5),
		FirstYearWaived:  false,
	}, 1.0)

	assert.Equal(t, int64(1), v.BonusValue)
	assert.Equal(t, int64(-98), v.NetValue, "ties round up, not away from zero")
}

func TestRateTableLookup(t *testing.T) {
	rates := RateTable{"MR": 1.7, "UR": 1.6}

	assert.Equal(t, 1.7, rates.Lookup("MR"))
	assert.Equal(t, DefaultCentsPerPoint, rates.Lookup("XX"), "unknown currency falls back to 1.0 cpp")
}

func TestScoreOfferUnknownCurrency(t *testing.T) {
	offer := &models.Offer{
		BonusPoints:      10000,
		StatementCredits: decimal.Zero,
		AnnualFee:        decimal.Zero,
		Product:          &models.CardProduct{CurrencyCode: "ZZ"},
	}

	v := ScoreOffer(offer, RateTable{"MR": 1.7})

	assert.Equal(t, int64(100), v.BonusValue, "10,000 points at the 1.0 cpp fallback is worth $100")
	assert.Equal(t, 1.0, v.CentsPerPoint)
}

func TestScoreOfferWithoutProduct(t *testing.T) {
	offer := &models.Offer{
		BonusPoints:      10000,
		StatementCredits: decimal.Zero,
		AnnualFee:        decimal.Zero,
	}

	v := ScoreOffer(offer, RateTable{})
	assert.Equal(t, int64(100), v.BonusValue)
}

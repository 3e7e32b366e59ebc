package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/cryptofolio/backend/src/models"
)

func defaultRates() models.TaxRates {
	return models.DefaultTaxRates()
}

func tx(market, date, typ string, amount, price, fee float64) models.Transaction {
	return models.Transaction{
		Market: market,
		Date:   date,
		Type:   typ,
		Amount: models.FlexFloat(amount),
		Price:  models.FlexFloat(price),
		Fee:    models.FlexFloat(fee),
	}
}

func TestGenerateReportEmptyInput(t *testing.T) {
	p := NewMarketProcessor()
	report := p.GenerateReport(nil, defaultRates())
	assert.Empty(t, report.Rows)
	assert.Zero(t, report.TotalTax)
}

func TestGenerateReportBuyThenSell(t *testing.T) {
	// BUY 1.0 @ 100, SELL 1.0 @ 150 with fee 1 -> profit (150-1)*1 = 149.
	p := NewMarketProcessor()
	report := p.GenerateReport([]models.Transaction{
		tx("BTC/INR", "2024-01-01", models.TypeBuy, 1.0, 100, 0),
		tx("BTC/INR", "2024-02-01", models.TypeSell, 1.0, 150, 1),
	}, defaultRates())

	require.Len(t, report.Rows, 1)
	row := report.Rows[0]
	assert.Equal(t, 1, row.Index)
	assert.Equal(t, "BTC/INR", row.Market)
	assert.Equal(t, 149.0, row.Profit)
	assert.Equal(t, 44.70, row.Tax)
	assert.Equal(t, 0.0, row.RemainingQuantity)
	// The balance ended at exactly zero, so the sell-not-detected advisory
	// fires even though every sell was covered.
	assert.Equal(t, models.NoteSellNotDetected, row.Note)
	assert.Equal(t, 44.70, report.TotalTax)
}

func TestGenerateReportOnlyBuys(t *testing.T) {
	p := NewMarketProcessor()
	report := p.GenerateReport([]models.Transaction{
		tx("BTC/INR", "2024-01-01", models.TypeBuy, 1.5, 100, 0),
		tx("BTC/INR", "2024-01-02", models.TypeBuy, 0.5, 110, 0),
	}, defaultRates())

	require.Len(t, report.Rows, 1)
	row := report.Rows[0]
	assert.Zero(t, row.Profit)
	assert.Zero(t, row.Tax)
	assert.Equal(t, "", row.Note)
	assert.Equal(t, 2.0, row.RemainingQuantity)
	assert.Zero(t, report.TotalTax)
}

func TestGenerateReportOnlySells(t *testing.T) {
	// No prior buy: the sell matches against a zero balance and contributes
	// no profit. With zero total buys the shortfall note is never wiped, so
	// it survives to the report.
	p := NewMarketProcessor()
	report := p.GenerateReport([]models.Transaction{
		tx("DOGE/INR", "2024-01-05", models.TypeSell, 3, 10, 0),
	}, defaultRates())

	require.Len(t, report.Rows, 1)
	row := report.Rows[0]
	assert.Zero(t, row.Profit)
	assert.Equal(t, 0.0, row.Tax)
	assert.Equal(t, 0.0, row.RemainingQuantity)
	assert.Equal(t, models.NoteBuyLessThanSell, row.Note)
}

func TestGenerateReportSellWithZeroQuantityFlagsMissingSell(t *testing.T) {
	// A sell whose quantity coerced to zero matches the zero balance
	// "successfully", leaving the note slot empty for the zero-balance
	// advisory. This is the one path where the advisory fires for a market
	// with no buys at all.
	p := NewMarketProcessor()
	report := p.GenerateReport([]models.Transaction{
		{Market: "SHIB/INR", Date: "2024-01-05", Type: models.TypeSell, Amount: models.ParseFlexFloat("n/a"), Price: 10},
	}, defaultRates())

	require.Len(t, report.Rows, 1)
	assert.Equal(t, models.NoteSellNotDetected, report.Rows[0].Note)
	assert.Zero(t, report.Rows[0].Profit)
}

func TestGenerateReportSellExceedsBuys(t *testing.T) {
	// BUY 0.5 @ 1000, SELL 1.0 @ 1200: the matched amount is the available
	// balance (0.5), so profit = 1200*0.5 = 600. The shortfall note is then
	// wiped because the market recorded nonzero total buys.
	p := NewMarketProcessor()
	report := p.GenerateReport([]models.Transaction{
		tx("ETH/INR", "2024-01-01", models.TypeBuy, 0.5, 1000, 0),
		tx("ETH/INR", "2024-01-02", models.TypeSell, 1.0, 1200, 0),
	}, defaultRates())

	require.Len(t, report.Rows, 1)
	row := report.Rows[0]
	assert.Equal(t, 600.0, row.Profit)
	assert.Equal(t, 180.0, row.Tax)
	assert.Equal(t, -0.5, row.RemainingQuantity)
	// buyTotal != 0 wipes the shortfall note, and the empty-note slot is then
	// refilled by the sell-not-detected rule since the balance ended at zero.
	assert.Equal(t, models.NoteSellNotDetected, row.Note)
}

func TestGenerateReportShortfallNoteSurvivesOnlyWithZeroBuys(t *testing.T) {
	// A market whose sells never had any buy keeps its shortfall flag; a
	// market with any buy at all has the flag wiped by the
	// remaining-quantity step and refilled by the zero-balance advisory.
	p := NewMarketProcessor()
	report := p.GenerateReport([]models.Transaction{
		tx("A/INR", "2024-01-01", models.TypeSell, 1, 100, 0),
		tx("B/INR", "2024-01-01", models.TypeBuy, 1, 50, 0),
		tx("B/INR", "2024-01-02", models.TypeSell, 2, 100, 0),
	}, defaultRates())

	require.Len(t, report.Rows, 2)
	assert.Equal(t, models.NoteBuyLessThanSell, report.Rows[0].Note)
	assert.Equal(t, models.NoteSellNotDetected, report.Rows[1].Note)
	assert.Equal(t, 100.0, report.Rows[1].Profit) // matched only the 1 unit bought
}

func TestGenerateReportSortsWithinMarketByDate(t *testing.T) {
	// The sell arrives first in the input but dates after the buy, so the
	// buy is available when the sell is matched.
	p := NewMarketProcessor()
	report := p.GenerateReport([]models.Transaction{
		tx("BTC/INR", "2024-03-01", models.TypeSell, 1, 200, 0),
		tx("BTC/INR", "2024-01-01", models.TypeBuy, 1, 100, 0),
	}, defaultRates())

	require.Len(t, report.Rows, 1)
	assert.Equal(t, 200.0, report.Rows[0].Profit)
	assert.Equal(t, 0.0, report.Rows[0].RemainingQuantity)
}

func TestGenerateReportUnparseableDateSortsFirst(t *testing.T) {
	// A record with a broken date is kept and ordered before every real
	// date, so this buy still covers the later sell.
	p := NewMarketProcessor()
	report := p.GenerateReport([]models.Transaction{
		tx("BTC/INR", "2024-01-01", models.TypeSell, 1, 150, 0),
		tx("BTC/INR", "not-a-date", models.TypeBuy, 1, 100, 0),
	}, defaultRates())

	require.Len(t, report.Rows, 1)
	assert.Equal(t, 150.0, report.Rows[0].Profit)
	assert.Equal(t, 0.0, report.Rows[0].RemainingQuantity)
}

func TestGenerateReportStableTieOrder(t *testing.T) {
	// Same-date legs keep input order: buy before sell means the sell is
	// covered; reversed input leaves the sell unmatched first.
	p := NewMarketProcessor()

	covered := p.GenerateReport([]models.Transaction{
		tx("X", "2024-01-01", models.TypeBuy, 1, 100, 0),
		tx("X", "2024-01-01", models.TypeSell, 1, 150, 0),
	}, defaultRates())
	require.Len(t, covered.Rows, 1)
	assert.Equal(t, 150.0, covered.Rows[0].Profit)

	uncovered := p.GenerateReport([]models.Transaction{
		tx("X", "2024-01-01", models.TypeSell, 1, 150, 0),
		tx("X", "2024-01-01", models.TypeBuy, 1, 100, 0),
	}, defaultRates())
	require.Len(t, uncovered.Rows, 1)
	// Sell matched against a zero balance: no profit from it.
	assert.Equal(t, 0.0, uncovered.Rows[0].Profit)
}

func TestGenerateReportUnknownTypeIgnored(t *testing.T) {
	p := NewMarketProcessor()
	report := p.GenerateReport([]models.Transaction{
		tx("BTC/INR", "2024-01-01", "TRANSFER", 5, 100, 0),
		tx("BTC/INR", "2024-01-02", models.TypeBuy, 1, 100, 0),
	}, defaultRates())

	require.Len(t, report.Rows, 1)
	assert.Equal(t, 1.0, report.Rows[0].RemainingQuantity)
	assert.Zero(t, report.Rows[0].Profit)
}

func TestGenerateReportMarketOrderFollowsFirstEncounter(t *testing.T) {
	p := NewMarketProcessor()
	report := p.GenerateReport([]models.Transaction{
		tx("ZZZ/INR", "2024-01-01", models.TypeBuy, 1, 1, 0),
		tx("AAA/INR", "2024-01-01", models.TypeBuy, 1, 1, 0),
		tx("ZZZ/INR", "2024-01-02", models.TypeBuy, 1, 1, 0),
	}, defaultRates())

	require.Len(t, report.Rows, 2)
	assert.Equal(t, "ZZZ/INR", report.Rows[0].Market)
	assert.Equal(t, "AAA/INR", report.Rows[1].Market)
	assert.Equal(t, 1, report.Rows[0].Index)
	assert.Equal(t, 2, report.Rows[1].Index)
}

func TestGenerateReportCrossMarketPermutationInvariant(t *testing.T) {
	p := NewMarketProcessor()
	a := []models.Transaction{
		tx("BTC/INR", "2024-01-01", models.TypeBuy, 1, 100, 0),
		tx("ETH/INR", "2024-01-01", models.TypeBuy, 2, 50, 0),
		tx("BTC/INR", "2024-02-01", models.TypeSell, 1, 150, 0),
		tx("ETH/INR", "2024-02-01", models.TypeSell, 2, 75, 0),
	}
	// Interleave differently without changing any market's internal order.
	b := []models.Transaction{a[1], a[0], a[3], a[2]}

	ra := p.GenerateReport(a, defaultRates())
	rb := p.GenerateReport(b, defaultRates())

	byMarket := func(r models.TaxReport) map[string]models.MarketReport {
		m := make(map[string]models.MarketReport)
		for _, row := range r.Rows {
			row.Index = 0 // ordering differs, per-market figures must not
			m[row.Market] = row
		}
		return m
	}
	assert.Equal(t, byMarket(ra), byMarket(rb))
	assert.Equal(t, ra.TotalTax, rb.TotalTax)
}

func TestGenerateReportIdempotent(t *testing.T) {
	p := NewMarketProcessor()
	input := []models.Transaction{
		tx("BTC/INR", "2024-02-01", models.TypeSell, 1, 150, 1),
		tx("BTC/INR", "2024-01-01", models.TypeBuy, 1, 100, 0),
	}
	first := p.GenerateReport(input, defaultRates())
	second := p.GenerateReport(input, defaultRates())
	assert.Equal(t, first, second)
}

func TestGenerateReportMalformedAmountCoercesToZero(t *testing.T) {
	p := NewMarketProcessor()
	report := p.GenerateReport([]models.Transaction{
		{Market: "BTC/INR", Date: "2024-01-01", Type: models.TypeBuy, Amount: models.ParseFlexFloat("abc"), Price: 100},
		tx("BTC/INR", "2024-01-02", models.TypeBuy, 1, 100, 0),
	}, defaultRates())

	require.Len(t, report.Rows, 1)
	assert.Equal(t, 1.0, report.Rows[0].RemainingQuantity)
}

func TestGenerateReportTotalTaxSumsRoundedRows(t *testing.T) {
	// Each row's tax is rounded to 2 decimals before it enters the total.
	p := NewMarketProcessor()
	report := p.GenerateReport([]models.Transaction{
		tx("A", "2024-01-01", models.TypeBuy, 1, 0, 0),
		tx("A", "2024-01-02", models.TypeSell, 1, 0.035, 0), // tax 0.0105 -> 0.01
		tx("B", "2024-01-01", models.TypeBuy, 1, 0, 0),
		tx("B", "2024-01-02", models.TypeSell, 1, 0.035, 0),
	}, defaultRates())

	require.Len(t, report.Rows, 2)
	assert.Equal(t, 0.01, report.Rows[0].Tax)
	assert.Equal(t, 0.02, report.TotalTax)
}

func TestGenerateReportCustomRates(t *testing.T) {
	p := NewMarketProcessor()
	report := p.GenerateReport([]models.Transaction{
		tx("BTC/INR", "2024-01-01", models.TypeBuy, 1, 100, 0),
		tx("BTC/INR", "2024-02-01", models.TypeSell, 1, 200, 0),
	}, models.TaxRates{TaxRate: 0.10})

	require.Len(t, report.Rows, 1)
	assert.Equal(t, 20.0, report.Rows[0].Tax)
}

func TestGenerateReportFeeOnSellOnly(t *testing.T) {
	// A fee on the buy leg has no effect; the sell fee reduces the unit
	// price before matching.
	p := NewMarketProcessor()
	report := p.GenerateReport([]models.Transaction{
		tx("BTC/INR", "2024-01-01", models.TypeBuy, 2, 100, 5),
		tx("BTC/INR", "2024-02-01", models.TypeSell, 2, 150, 2),
	}, defaultRates())

	require.Len(t, report.Rows, 1)
	assert.Equal(t, (150.0-2.0)*2.0, report.Rows[0].Profit)
}

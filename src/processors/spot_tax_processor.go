package processors

import (
	"github.com/username/cryptofolio/backend/src/models"
)

type SpotProcessor struct{}

func NewSpotProcessor() *SpotProcessor {
	return &SpotProcessor{}
}

// Calculate sums profit over directly-entered round-trip trades and returns
// the single final tax figure: profit taxed at the flat rate, plus an
// optional cess on the profit, minus tax already deducted at source. An
// over-withheld (negative) result is valid and is not clamped.
func (p *SpotProcessor) Calculate(trades []models.SpotTrade, tdsDeducted float64, includeCess bool, rates models.TaxRates) float64 {
	var totalProfit float64
	for _, t := range trades {
		totalProfit += t.SellingPrice.Float64() - t.PurchasePrice.Float64()
	}

	taxLiability := totalProfit * rates.TaxRate
	if includeCess {
		taxLiability += totalProfit * rates.CessRate
	}
	return taxLiability - tdsDeducted
}

// CalculateWithSurcharge generalizes Calculate with a surcharge applied
// before cess and per-trade TDS records, returning the full breakdown. Cess
// is unconditional on this path.
func (p *SpotProcessor) CalculateWithSurcharge(trades []models.SurchargeTrade, surchargeRate float64, rates models.TaxRates) models.AggregateTaxResult {
	var totalProfit, totalTdsPaid float64
	for _, t := range trades {
		totalProfit += t.SellingPrice.Float64() - t.PurchasePrice.Float64()
		totalTdsPaid += t.TdsPaid.Float64()
	}

	taxLiability := totalProfit * rates.TaxRate
	surcharge := taxLiability * (surchargeRate / 100)
	cess := (taxLiability + surcharge) * rates.CessRate

	return models.AggregateTaxResult{
		TotalProfit:  totalProfit,
		TaxLiability: taxLiability,
		Surcharge:    surcharge,
		Cess:         cess,
		TaxPayable:   taxLiability + surcharge + cess - totalTdsPaid,
	}
}

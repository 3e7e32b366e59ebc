package processors

import (
	"github.com/username/cryptofolio/backend/src/models"
)

// ReportGenerator produces the per-market reconciliation report.
type ReportGenerator interface {
	GenerateReport(transactions []models.Transaction, rates models.TaxRates) models.TaxReport
}

// SpotCalculator covers the two aggregate paths over directly-entered trades.
type SpotCalculator interface {
	Calculate(trades []models.SpotTrade, tdsDeducted float64, includeCess bool, rates models.TaxRates) float64
	CalculateWithSurcharge(trades []models.SurchargeTrade, surchargeRate float64, rates models.TaxRates) models.AggregateTaxResult
}

package processors

import (
	"sort"

	"github.com/username/cryptofolio/backend/src/models"
	"github.com/username/cryptofolio/backend/src/utils"
)

type MarketProcessor struct{}

func NewMarketProcessor() *MarketProcessor {
	return &MarketProcessor{}
}

// GenerateReport reconciles an unordered list of buy/sell transactions into
// one report row per market plus a total tax figure.
//
// Matching is balance-based, not lot-based: each market carries a single
// scalar balance of previously bought units, decremented as sells are
// matched against it. Profit accrues only on sell legs, at (price - fee) per
// matched unit. The report lists markets in the order they first appear in
// the input.
func (p *MarketProcessor) GenerateReport(transactions []models.Transaction, rates models.TaxRates) models.TaxReport {
	grouped, marketOrder := groupTransactionsByMarket(transactions)

	report := models.TaxReport{Rows: []models.MarketReport{}}
	for _, market := range marketOrder {
		row := p.reconcileMarket(market, grouped[market], rates)
		row.Index = len(report.Rows) + 1
		report.Rows = append(report.Rows, row)
		report.TotalTax += row.Tax
	}
	return report
}

// reconcileMarket runs the running-balance scan over one market's
// transactions, sorted ascending by date.
func (p *MarketProcessor) reconcileMarket(market string, transactions []models.Transaction, rates models.TaxRates) models.MarketReport {
	sortTransactionsByDate(transactions)

	var (
		buyBalance float64 // bought units not yet consumed by a sell
		buyTotal   float64 // cumulative buy quantity, for the remaining figure
		sellTotal  float64
		profit     float64
		sellSeen   bool
		note       string
	)

	for _, tx := range transactions {
		amount := tx.Amount.Float64()
		price := tx.Price.Float64()
		fee := tx.Fee.Float64()

		switch tx.Type {
		case models.TypeBuy:
			buyBalance += amount
			buyTotal += amount
		case models.TypeSell:
			sellSeen = true
			sellTotal += amount
			if buyBalance >= amount {
				profit += (price - fee) * amount
				buyBalance -= amount
			} else {
				// The sell exceeds everything bought so far; match what is
				// available and flag the shortfall.
				profit += (price - fee) * buyBalance
				note = models.NoteBuyLessThanSell
				buyBalance = 0
			}
		}
	}

	remaining := buyTotal - sellTotal
	if buyTotal == 0 {
		remaining = 0
	} else {
		// Any shortfall note is discarded for markets that recorded at least
		// one buy. Looks like a latent defect but is load-bearing for report
		// parity; kept until a product decision.
		note = ""
	}
	if sellSeen && buyBalance == 0 && note == "" {
		note = models.NoteSellNotDetected
	}

	var tax float64
	if sellSeen {
		tax = utils.RoundFloat(profit*rates.TaxRate, 2)
	}

	return models.MarketReport{
		Market:            market,
		Profit:            profit,
		Tax:               tax,
		RemainingQuantity: remaining,
		Note:              note,
	}
}

// groupTransactionsByMarket partitions transactions by market key, keeping
// every record and remembering the order in which markets first appear.
func groupTransactionsByMarket(transactions []models.Transaction) (map[string][]models.Transaction, []string) {
	grouped := make(map[string][]models.Transaction)
	var order []string
	for _, tx := range transactions {
		if _, seen := grouped[tx.Market]; !seen {
			order = append(order, tx.Market)
		}
		grouped[tx.Market] = append(grouped[tx.Market], tx)
	}
	return grouped, order
}

func sortTransactionsByDate(transactions []models.Transaction) {
	// Stable so that same-date legs keep their input order.
	sort.SliceStable(transactions, func(i, j int) bool {
		return utils.ParseFlexibleDate(transactions[i].Date).Before(utils.ParseFlexibleDate(transactions[j].Date))
	})
}

package tabular

import (
	"strings"

	"github.com/username/cryptofolio/backend/src/models"
	"github.com/username/cryptofolio/backend/src/security/validation"
)

// Column headers with engine meaning, after normalization.
const (
	colMarket = "Market"
	colDate   = "Date"
	colType   = "Type"
	colAmount = "Amount"
	colPrice  = "Price"
	colFee    = "Fee"
	colTotal  = "Total"
)

// numericColumns are the headers whose cells coerce to numbers on import;
// non-numeric cells under them become 0.
var numericColumns = map[string]bool{
	colPrice:  true,
	colTotal:  true,
	colAmount: true,
	colFee:    true,
}

// NormalizeHeader trims a raw header cell and capitalizes its first letter,
// so "market", " Market" and "Market" all address the same column.
func NormalizeHeader(header string) string {
	h := strings.TrimSpace(header)
	if h == "" {
		return h
	}
	return strings.ToUpper(h[:1]) + h[1:]
}

// FromRows converts a header row plus data rows into transactions. Cells
// under recognised headers land on the typed fields; everything else passes
// through as a sanitized free-form string on the row's Extra map. Rows are
// never rejected: missing cells read as empty, bad numbers read as zero.
func FromRows(headers []string, rows [][]string) []models.Transaction {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = NormalizeHeader(h)
	}

	var txs []models.Transaction
	for _, row := range rows {
		if isEmptyRow(row) {
			continue
		}
		tx := models.Transaction{}
		for i, header := range normalized {
			var value string
			if i < len(row) {
				value = strings.TrimSpace(row[i])
			}
			switch header {
			case colMarket:
				tx.Market = validation.SanitizeImportedString(value)
			case colDate:
				tx.Date = validation.SanitizeImportedString(value)
			case colType:
				tx.Type = validation.SanitizeImportedString(value)
			case colAmount:
				tx.Amount = models.ParseFlexFloat(value)
			case colPrice:
				tx.Price = models.ParseFlexFloat(value)
			case colFee:
				tx.Fee = models.ParseFlexFloat(value)
			default:
				if header == "" {
					continue
				}
				if tx.Extra == nil {
					tx.Extra = make(map[string]string)
				}
				if numericColumns[header] {
					// Coerced numeric columns without engine meaning (Total)
					// still normalize to a number.
					tx.Extra[header] = models.ParseFlexFloat(value).String()
				} else {
					tx.Extra[header] = validation.SanitizeImportedString(value)
				}
			}
		}
		txs = append(txs, tx)
	}
	return txs
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

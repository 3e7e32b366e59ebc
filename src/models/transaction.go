package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Transaction types recognised by the reconciliation engine. Any other value
// is carried along untouched but contributes no quantity to either side of a
// match.
const (
	TypeBuy  = "BUY"
	TypeSell = "SELL"
)

// Advisory notes attached to a market report row. These are data-quality
// warnings, not errors: report generation always completes.
const (
	NoteBuyLessThanSell = "Buy is less than sell"
	NoteSellNotDetected = "Sell order not detected"
)

// FlexFloat is a float64 that tolerates noisy input. User-entered and
// imported data routinely carries numbers as strings ("1.5"), empty cells or
// outright garbage ("abc"); all of those decode to 0 rather than failing, so
// downstream arithmetic always operates on real numbers.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			*f = 0
			return nil
		}
		*f = ParseFlexFloat(str)
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = FlexFloat(v)
	return nil
}

func (f FlexFloat) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(f))
}

func (f FlexFloat) Float64() float64 {
	return float64(f)
}

func (f FlexFloat) String() string {
	return strconv.FormatFloat(float64(f), 'f', -1, 64)
}

// ParseFlexFloat coerces a free-form string to a number, returning 0 for
// anything unparseable.
func ParseFlexFloat(s string) FlexFloat {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return FlexFloat(v)
}

// Transaction is a single buy or sell leg as the engine sees it: one row of
// an uploaded spreadsheet or one manually entered record.
type Transaction struct {
	ID      int64             `json:"id,omitempty"`
	Market  string            `json:"market"`
	Date    string            `json:"date"`
	Type    string            `json:"type"`
	Amount  FlexFloat         `json:"amount"`
	Price   FlexFloat         `json:"price"`
	Fee     FlexFloat         `json:"fee"`
	BatchID string            `json:"batch_id,omitempty"`
	Extra   map[string]string `json:"extra,omitempty"`
}

// MarketReport is one row of the reconciliation report.
type MarketReport struct {
	Index             int     `json:"index"`
	Market            string  `json:"market"`
	Profit            float64 `json:"profit"`
	Tax               float64 `json:"tax"`
	RemainingQuantity float64 `json:"remainingQuantity"`
	Note              string  `json:"note"`
}

// TaxReport is the full reconciliation output: one row per market, in the
// order markets first appear in the input, plus the summed tax figure.
type TaxReport struct {
	Rows     []MarketReport `json:"rows"`
	TotalTax float64        `json:"totalTax"`
}

// SpotTrade is a completed round-trip trade entered directly by the user.
type SpotTrade struct {
	SellingPrice  FlexFloat `json:"sellingPrice"`
	PurchasePrice FlexFloat `json:"purchasePrice"`
}

// SurchargeTrade extends SpotTrade with the tax already withheld on it.
type SurchargeTrade struct {
	SellingPrice  FlexFloat `json:"sellingPrice"`
	PurchasePrice FlexFloat `json:"purchasePrice"`
	TdsPaid       FlexFloat `json:"tdsPaid"`
}

// AggregateTaxResult is the full breakdown returned by the surcharge-aware
// aggregator.
type AggregateTaxResult struct {
	TotalProfit  float64 `json:"totalProfit"`
	TaxLiability float64 `json:"taxLiability"`
	Surcharge    float64 `json:"surcharge"`
	Cess         float64 `json:"cess"`
	TaxPayable   float64 `json:"taxPayable"`
}

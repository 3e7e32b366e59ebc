package models

// TaxRates carries the flat rates every computation path shares. They are
// passed in explicitly rather than read from globals so the processors stay
// pure and testable with varied rates.
type TaxRates struct {
	TaxRate       float64 // flat rate on realized profit, e.g. 0.30
	CessRate      float64 // levy on (tax + surcharge), e.g. 0.04
	SurchargeRate float64 // percentage of tax liability, e.g. 10 for 10%
}

// DefaultTaxRates returns the statutory flat-rate regime: 30% tax, 4% cess,
// no surcharge.
func DefaultTaxRates() TaxRates {
	return TaxRates{TaxRate: 0.30, CessRate: 0.04, SurchargeRate: 0}
}

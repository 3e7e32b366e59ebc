package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/username/cryptofolio/backend/src/models"
)

func TestSpotCalculateWithCessAndTDS(t *testing.T) {
	// Pairs (150,100) and (90,120): profit 50 - 30 = 20.
	// Tax 20*0.30 + cess 20*0.04 - TDS 5 = 1.80.
	p := NewSpotProcessor()
	trades := []models.SpotTrade{
		{SellingPrice: 150, PurchasePrice: 100},
		{SellingPrice: 90, PurchasePrice: 120},
	}
	got := p.Calculate(trades, 5, true, defaultRates())
	assert.InDelta(t, 1.80, got, 1e-9)
}

func TestSpotCalculateWithoutCess(t *testing.T) {
	p := NewSpotProcessor()
	trades := []models.SpotTrade{{SellingPrice: 200, PurchasePrice: 100}}
	got := p.Calculate(trades, 0, false, defaultRates())
	assert.InDelta(t, 30.0, got, 1e-9)
}

func TestSpotCalculateNegativeResultNotClamped(t *testing.T) {
	// Over-withheld TDS is a valid, unflagged negative payable.
	p := NewSpotProcessor()
	trades := []models.SpotTrade{{SellingPrice: 110, PurchasePrice: 100}}
	got := p.Calculate(trades, 50, true, defaultRates())
	assert.InDelta(t, 10*0.30+10*0.04-50, got, 1e-9)
	assert.Less(t, got, 0.0)
}

func TestSpotCalculateEmptyTrades(t *testing.T) {
	p := NewSpotProcessor()
	got := p.Calculate(nil, 5, true, defaultRates())
	assert.InDelta(t, -5.0, got, 1e-9)
}

func TestSurchargeBreakdown(t *testing.T) {
	// One record {200,100,10} at 10% surcharge:
	// profit 100, liability 30, surcharge 3, cess 33*0.04 = 1.32,
	// payable 30+3+1.32-10 = 24.32.
	p := NewSpotProcessor()
	trades := []models.SurchargeTrade{
		{SellingPrice: 200, PurchasePrice: 100, TdsPaid: 10},
	}
	got := p.CalculateWithSurcharge(trades, 10, defaultRates())

	assert.InDelta(t, 100.0, got.TotalProfit, 1e-9)
	assert.InDelta(t, 30.0, got.TaxLiability, 1e-9)
	assert.InDelta(t, 3.0, got.Surcharge, 1e-9)
	assert.InDelta(t, 1.32, got.Cess, 1e-9)
	assert.InDelta(t, 24.32, got.TaxPayable, 1e-9)
}

func TestSurchargeCessIsUnconditional(t *testing.T) {
	// Unlike the plain spot path, this path always applies cess.
	p := NewSpotProcessor()
	trades := []models.SurchargeTrade{{SellingPrice: 200, PurchasePrice: 100}}
	got := p.CalculateWithSurcharge(trades, 0, defaultRates())
	assert.InDelta(t, 30*0.04, got.Cess, 1e-9)
	assert.InDelta(t, 30+1.2, got.TaxPayable, 1e-9)
}

func TestSurchargeSumsTdsAcrossTrades(t *testing.T) {
	p := NewSpotProcessor()
	trades := []models.SurchargeTrade{
		{SellingPrice: 150, PurchasePrice: 100, TdsPaid: 2},
		{SellingPrice: 300, PurchasePrice: 250, TdsPaid: 3},
	}
	got := p.CalculateWithSurcharge(trades, 0, defaultRates())
	assert.InDelta(t, 100.0, got.TotalProfit, 1e-9)
	assert.InDelta(t, 30+100*0.3*0.04-5, got.TaxPayable, 1e-9)
}

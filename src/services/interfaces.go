package services

import (
	"io"

	"github.com/username/cryptofolio/backend/src/models"
)

// UploadResult summarizes one accepted spreadsheet upload.
type UploadResult struct {
	BatchID          string               `json:"batch_id"`
	TransactionCount int                  `json:"transaction_count"`
	Transactions     []models.Transaction `json:"transactions"`
}

// TaxService is the application-facing surface: ingestion, the transaction
// CRUD operations, and the three computation paths over the stored data.
type TaxService interface {
	ProcessUpload(fileReader io.Reader, format string, userID int64) (*UploadResult, error)

	GetTransactions(userID int64) ([]models.Transaction, error)
	AddTransaction(userID int64, tx models.Transaction) (*models.Transaction, error)
	UpdateTransaction(userID int64, txID int64, tx models.Transaction) error
	DeleteTransaction(userID int64, txID int64) error
	DeleteAllTransactions(userID int64) error

	GetTaxReport(userID int64) (*models.TaxReport, error)
	FixMarket(userID int64, market string, fix models.Transaction) (*models.TaxReport, error)

	CalculateSpotTax(trades []models.SpotTrade, tdsDeducted float64, includeCess bool) float64
	CalculateSurchargeTax(trades []models.SurchargeTrade, surchargeRate float64) models.AggregateTaxResult

	InvalidateUserCache(userID int64)
}

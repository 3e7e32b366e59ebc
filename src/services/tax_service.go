package services

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/username/cryptofolio/backend/src/database"
	"github.com/username/cryptofolio/backend/src/logger"
	"github.com/username/cryptofolio/backend/src/models"
	"github.com/username/cryptofolio/backend/src/parsers"
	"github.com/username/cryptofolio/backend/src/processors"
)

const (
	ckTaxReport = "res_tax_report_user_%d"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

type taxServiceImpl struct {
	marketProcessor processors.ReportGenerator
	spotProcessor   processors.SpotCalculator
	rates           models.TaxRates
	reportCache     *cache.Cache
}

func NewTaxService(
	marketProcessor processors.ReportGenerator,
	spotProcessor processors.SpotCalculator,
	rates models.TaxRates,
	reportCache *cache.Cache,
) TaxService {
	return &taxServiceImpl{
		marketProcessor: marketProcessor,
		spotProcessor:   spotProcessor,
		rates:           rates,
		reportCache:     reportCache,
	}
}

func (s *taxServiceImpl) ProcessUpload(fileReader io.Reader, format string, userID int64) (*UploadResult, error) {
	overallStartTime := time.Now()
	logger.L.Info("ProcessUpload START", "userID", userID, "format", format)

	parser, err := parsers.GetParser(format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	parsedTxs, err := parser.Parse(fileReader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	batchID := uuid.NewString()

	dbTx, err := database.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.Prepare(`INSERT INTO transactions (user_id, market, date, type, amount, price, fee, batch_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("error preparing insert statement: %w", err)
	}
	defer stmt.Close()

	stored := make([]models.Transaction, 0, len(parsedTxs))
	for _, tx := range parsedTxs {
		res, err := stmt.Exec(userID, tx.Market, tx.Date, normalizeType(tx.Type),
			tx.Amount.Float64(), tx.Price.Float64(), tx.Fee.Float64(), batchID)
		if err != nil {
			return nil, fmt.Errorf("error inserting transaction (market: %s): %w", tx.Market, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("error reading inserted transaction id: %w", err)
		}
		tx.ID = id
		tx.Type = normalizeType(tx.Type)
		tx.BatchID = batchID
		stored = append(stored, tx)
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing transactions: %w", err)
	}

	s.InvalidateUserCache(userID)

	logger.L.Info("ProcessUpload END", "userID", userID, "count", len(stored), "duration", time.Since(overallStartTime))
	return &UploadResult{
		BatchID:          batchID,
		TransactionCount: len(stored),
		Transactions:     stored,
	}, nil
}

// normalizeType uppercases the side marker so imports with "buy"/"Sell"
// cells still reconcile; unknown values pass through untouched and simply
// contribute no quantity downstream.
func normalizeType(t string) string {
	switch upper := strings.ToUpper(strings.TrimSpace(t)); upper {
	case models.TypeBuy, models.TypeSell:
		return upper
	default:
		return strings.TrimSpace(t)
	}
}

// InvalidateUserCache clears cached reports for a user, forcing a full
// recomputation on the next request.
func (s *taxServiceImpl) InvalidateUserCache(userID int64) {
	s.reportCache.Delete(fmt.Sprintf(ckTaxReport, userID))
	logger.L.Info("Invalidated report cache for user", "userID", userID)
}

func (s *taxServiceImpl) GetTransactions(userID int64) ([]models.Transaction, error) {
	return fetchUserTransactions(userID)
}

func (s *taxServiceImpl) AddTransaction(userID int64, tx models.Transaction) (*models.Transaction, error) {
	tx.Type = normalizeType(tx.Type)
	res, err := database.DB.Exec(
		`INSERT INTO transactions (user_id, market, date, type, amount, price, fee, batch_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, tx.Market, tx.Date, tx.Type,
		tx.Amount.Float64(), tx.Price.Float64(), tx.Fee.Float64(), tx.BatchID)
	if err != nil {
		return nil, fmt.Errorf("error inserting transaction for userID %d: %w", userID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("error reading inserted transaction id: %w", err)
	}
	tx.ID = id
	s.InvalidateUserCache(userID)
	return &tx, nil
}

func (s *taxServiceImpl) UpdateTransaction(userID int64, txID int64, tx models.Transaction) error {
	res, err := database.DB.Exec(
		`UPDATE transactions SET market = ?, date = ?, type = ?, amount = ?, price = ?, fee = ? WHERE id = ? AND user_id = ?`,
		tx.Market, tx.Date, normalizeType(tx.Type),
		tx.Amount.Float64(), tx.Price.Float64(), tx.Fee.Float64(), txID, userID)
	if err != nil {
		return fmt.Errorf("error updating transaction %d for userID %d: %w", txID, userID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrTransactionNotFound
	}
	s.InvalidateUserCache(userID)
	return nil
}

func (s *taxServiceImpl) DeleteTransaction(userID int64, txID int64) error {
	res, err := database.DB.Exec(`DELETE FROM transactions WHERE id = ? AND user_id = ?`, txID, userID)
	if err != nil {
		return fmt.Errorf("error deleting transaction %d for userID %d: %w", txID, userID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrTransactionNotFound
	}
	s.InvalidateUserCache(userID)
	return nil
}

func (s *taxServiceImpl) DeleteAllTransactions(userID int64) error {
	_, err := database.DB.Exec(`DELETE FROM transactions WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("error deleting transactions for userID %d: %w", userID, err)
	}
	s.InvalidateUserCache(userID)
	return nil
}

// GetTaxReport runs the reconciliation engine over the user's current
// transactions. The report is always recomputed from the full stored set
// and memoized until the next mutation.
func (s *taxServiceImpl) GetTaxReport(userID int64) (*models.TaxReport, error) {
	cacheKey := fmt.Sprintf(ckTaxReport, userID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		logger.L.Debug("Cache hit for GetTaxReport", "userID", userID)
		return cached.(*models.TaxReport), nil
	}
	logger.L.Info("Cache miss for GetTaxReport, computing...", "userID", userID)

	transactions, err := fetchUserTransactions(userID)
	if err != nil {
		return nil, err
	}

	report := s.marketProcessor.GenerateReport(transactions, s.rates)
	s.reportCache.Set(cacheKey, &report, DefaultCacheExpiration)
	return &report, nil
}

// FixMarket appends one synthetic transaction to a flagged market and
// regenerates the full report from scratch. There is no incremental
// patching of a report, only recomputation.
func (s *taxServiceImpl) FixMarket(userID int64, market string, fix models.Transaction) (*models.TaxReport, error) {
	fix.Market = market
	if _, err := s.AddTransaction(userID, fix); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessingFailed, err)
	}
	return s.GetTaxReport(userID)
}

func (s *taxServiceImpl) CalculateSpotTax(trades []models.SpotTrade, tdsDeducted float64, includeCess bool) float64 {
	return s.spotProcessor.Calculate(trades, tdsDeducted, includeCess, s.rates)
}

func (s *taxServiceImpl) CalculateSurchargeTax(trades []models.SurchargeTrade, surchargeRate float64) models.AggregateTaxResult {
	return s.spotProcessor.CalculateWithSurcharge(trades, surchargeRate, s.rates)
}

func fetchUserTransactions(userID int64) ([]models.Transaction, error) {
	logger.L.Debug("Fetching transactions from DB", "userID", userID)
	rows, err := database.DB.Query(
		`SELECT id, market, date, type, amount, price, fee, COALESCE(batch_id, '') FROM transactions WHERE user_id = ? ORDER BY id ASC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("error querying transactions for userID %d: %w", userID, err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		var amount, price, fee float64
		if err := rows.Scan(&tx.ID, &tx.Market, &tx.Date, &tx.Type, &amount, &price, &fee, &tx.BatchID); err != nil {
			return nil, fmt.Errorf("error scanning transaction row for userID %d: %w", userID, err)
		}
		tx.Amount = models.FlexFloat(amount)
		tx.Price = models.FlexFloat(price)
		tx.Fee = models.FlexFloat(fee)
		transactions = append(transactions, tx)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over transaction rows for userID %d: %w", userID, err)
	}
	logger.L.Debug("DB fetch complete", "userID", userID, "transactionCount", len(transactions))
	return transactions, nil
}

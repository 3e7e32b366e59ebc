package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/username/cryptofolio/backend/src/logger"
	"github.com/username/cryptofolio/backend/src/models"
	"github.com/username/cryptofolio/backend/src/services"
	"github.com/username/cryptofolio/backend/src/utils"
)

type ReportHandler struct {
	taxService services.TaxService
}

func NewReportHandler(service services.TaxService) *ReportHandler {
	return &ReportHandler{
		taxService: service,
	}
}

// HandleGetTaxReport runs the reconciliation engine over the user's stored
// transactions and returns the per-market report with ETag support.
func (h *ReportHandler) HandleGetTaxReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	report, err := h.taxService.GetTaxReport(userID)
	if err != nil {
		logger.L.Error("Error generating tax report", "userID", userID, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error generating tax report for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}
	if report.Rows == nil {
		report.Rows = []models.MarketReport{}
	}

	currentETag, etagErr := utils.GenerateETag(report)
	if etagErr != nil {
		logger.L.Error("Failed to generate ETag for tax report", "userID", userID, "error", etagErr)
	}

	w.Header().Set("Cache-Control", "no-cache, private")

	if etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("\"%s\"", currentETag)
		w.Header().Set("ETag", quotedETag)
		clientETag := r.Header.Get("If-None-Match")
		for _, cETag := range strings.Split(clientETag, ",") {
			if strings.TrimSpace(cETag) == quotedETag {
				logger.L.Debug("ETag match for tax report", "userID", userID, "etag", currentETag)
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(report); err != nil {
		logger.L.Error("Error encoding tax report response", "userID", userID, "error", err)
	}
}

// HandleFixMarket appends one synthetic transaction to a flagged market and
// returns the regenerated report.
func (h *ReportHandler) HandleFixMarket(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	var requestBody struct {
		Market      string             `json:"market"`
		Transaction models.Transaction `json:"transaction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	requestBody.Market = strings.TrimSpace(requestBody.Market)
	if requestBody.Market == "" {
		utils.SendJSONError(w, "market is required", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(requestBody.Transaction.Type) == "" {
		utils.SendJSONError(w, "transaction.type is required", http.StatusBadRequest)
		return
	}

	report, err := h.taxService.FixMarket(userID, requestBody.Market, requestBody.Transaction)
	if err != nil {
		logger.L.Error("Error applying market fix", "userID", userID, "market", requestBody.Market, "error", err)
		utils.SendJSONError(w, "Failed to apply fix and regenerate report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(report); err != nil {
		logger.L.Error("Error encoding fixed report response", "userID", userID, "error", err)
	}
}

// HandleSpotTax computes a single aggregate tax figure over directly-entered
// trade pairs. Negative results (over-withheld TDS) are returned as-is.
func (h *ReportHandler) HandleSpotTax(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		Trades      []models.SpotTrade `json:"trades"`
		TdsDeducted models.FlexFloat   `json:"tdsDeducted"`
		IncludeCess bool               `json:"includeCess"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	finalTax := h.taxService.CalculateSpotTax(requestBody.Trades, requestBody.TdsDeducted.Float64(), requestBody.IncludeCess)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]float64{
		"finalTax": finalTax,
	})
}

// HandleSurchargeTax computes the full surcharge-aware breakdown.
func (h *ReportHandler) HandleSurchargeTax(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		Trades        []models.SurchargeTrade `json:"trades"`
		SurchargeRate models.FlexFloat        `json:"surchargeRate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result := h.taxService.CalculateSurchargeTax(requestBody.Trades, requestBody.SurchargeRate.Float64())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

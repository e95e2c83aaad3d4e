// backend/src/handlers/email_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/username/wealthfolio/backend/src/logger"
	"github.com/username/wealthfolio/backend/src/models"
	"github.com/username/wealthfolio/backend/src/security/validation"
	"github.com/username/wealthfolio/backend/src/services"
	"github.com/username/wealthfolio/backend/src/utils"
)

type EmailHandler struct {
	ingestionService services.IngestionService
}

func NewEmailHandler(ingestionService services.IngestionService) *EmailHandler {
	return &EmailHandler{ingestionService: ingestionService}
}

// processEmailRequest accepts either a raw email (parsed server-side using the
// named source parser) or an already parsed one. Exactly one of Raw and Parsed
// must be set.
type processEmailRequest struct {
	PortfolioID string                         `json:"portfolio_id"`
	Source      string                         `json:"source,omitempty"` // defaults to "wealthsimple"
	Raw         *models.RawEmail               `json:"raw,omitempty"`
	Parsed      *models.ParsedTransactionEmail `json:"parsed,omitempty"`
}

func (h *EmailHandler) HandleProcessEmail(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	var req processEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.PortfolioID == "" {
		utils.SendJSONError(w, "portfolio_id is required", http.StatusBadRequest)
		return
	}
	if (req.Raw == nil) == (req.Parsed == nil) {
		utils.SendJSONError(w, "exactly one of 'raw' or 'parsed' must be provided", http.StatusBadRequest)
		return
	}

	logger.L.Info("Processing email", "userId", userID, "portfolioId", req.PortfolioID, "raw", req.Raw != nil)

	var result *services.ProcessEmailResult
	var err error
	if req.Raw != nil {
		source := req.Source
		if source == "" {
			source = "wealthsimple"
		}
		result, err = h.ingestionService.ProcessRawEmail(r.Context(), req.Raw, req.PortfolioID, source)
	} else {
		result, err = h.ingestionService.ProcessParsedEmail(r.Context(), req.Parsed, req.PortfolioID)
	}
	if err != nil {
		switch {
		case errors.Is(err, validation.ErrValidationFailed):
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrParsingFailed):
			utils.SendJSONError(w, err.Error(), http.StatusUnprocessableEntity)
		case errors.Is(err, services.ErrDetectionFailed):
			utils.SendJSONError(w, "duplicate detection unavailable, email was not ingested", http.StatusServiceUnavailable)
		default:
			logger.L.Error("Email processing failed", "userId", userID, "portfolioId", req.PortfolioID, "error", err)
			utils.SendJSONError(w, "Failed to process email", http.StatusInternalServerError)
		}
		return
	}

	status := http.StatusOK
	if result.Status == models.RecommendationAccept {
		status = http.StatusCreated
	}
	utils.SendJSON(w, result, status)
}

func (h *EmailHandler) HandleListEmails(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	portfolioID := r.URL.Query().Get("portfolio_id")
	if portfolioID == "" {
		utils.SendJSONError(w, "portfolio_id query parameter is required", http.StatusBadRequest)
		return
	}

	records, err := h.ingestionService.ListRecords(r.Context(), portfolioID)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error querying email records for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []models.StoredEmailRecord{}
	}
	utils.SendJSON(w, records, http.StatusOK)
}

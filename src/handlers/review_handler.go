package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/username/wealthfolio/backend/src/logger"
	"github.com/username/wealthfolio/backend/src/models"
	"github.com/username/wealthfolio/backend/src/services"
	"github.com/username/wealthfolio/backend/src/utils"
)

type ReviewHandler struct {
	ingestionService services.IngestionService
}

func NewReviewHandler(ingestionService services.IngestionService) *ReviewHandler {
	return &ReviewHandler{ingestionService: ingestionService}
}

func (h *ReviewHandler) HandleListReviews(w http.ResponseWriter, r *http.Request) {
	_, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	portfolioID := r.URL.Query().Get("portfolio_id")
	if portfolioID == "" {
		utils.SendJSONError(w, "portfolio_id query parameter is required", http.StatusBadRequest)
		return
	}

	items, err := h.ingestionService.ListPendingReviews(r.Context(), portfolioID)
	if err != nil {
		logger.L.Error("Failed to list pending reviews", "portfolioId", portfolioID, "error", err)
		utils.SendJSONError(w, "Failed to list pending reviews", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []models.ReviewItem{}
	}
	utils.SendJSON(w, items, http.StatusOK)
}

func (h *ReviewHandler) HandleResolveReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	reviewID := r.PathValue("id")
	if reviewID == "" {
		utils.SendJSONError(w, "review id is required", http.StatusBadRequest)
		return
	}

	var payload struct {
		Action string `json:"action"` // "approve" or "dismiss"
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var approve bool
	switch payload.Action {
	case "approve":
		approve = true
	case "dismiss":
		approve = false
	default:
		utils.SendJSONError(w, "action must be 'approve' or 'dismiss'", http.StatusBadRequest)
		return
	}

	result, err := h.ingestionService.ResolveReview(r.Context(), reviewID, approve)
	if err != nil {
		if errors.Is(err, services.ErrReviewNotFound) {
			utils.SendJSONError(w, "Review item not found or already resolved", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to resolve review", "reviewId", reviewID, "userId", userID, "error", err)
		utils.SendJSONError(w, "Failed to resolve review", http.StatusInternalServerError)
		return
	}

	logger.L.Info("Review resolved", "reviewId", reviewID, "userId", userID, "action", payload.Action)
	utils.SendJSON(w, result, http.StatusOK)
}

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/wealthfolio/backend/src/models"
	"github.com/username/wealthfolio/backend/src/services"
)

func resolveRequest(t *testing.T, reviewID string, payload interface{}) *http.Request {
	t.Helper()
	req := authedRequest(t, http.MethodPost, "/api/review/"+reviewID+"/resolve", payload)
	req.SetPathValue("id", reviewID)
	return req
}

func TestHandleListReviews(t *testing.T) {
	fake := &fakeIngestionService{
		reviews: []models.ReviewItem{{ID: "rev-1", PortfolioID: "p1", Status: models.ReviewPending}},
	}
	h := NewReviewHandler(fake)

	rec := httptest.NewRecorder()
	h.HandleListReviews(rec, authedRequest(t, http.MethodGet, "/api/review?portfolio_id=p1", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var got []models.ReviewItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "rev-1", got[0].ID)
}

func TestHandleResolveReviewApprove(t *testing.T) {
	fake := &fakeIngestionService{
		resolveResult: &services.ProcessEmailResult{
			Status:   models.RecommendationAccept,
			RecordID: "rec-1",
		},
	}
	h := NewReviewHandler(fake)

	rec := httptest.NewRecorder()
	h.HandleResolveReview(rec, resolveRequest(t, "rev-1", map[string]string{"action": "approve"}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rev-1", fake.lastReviewID)
	assert.True(t, fake.lastApprove)
}

func TestHandleResolveReviewDismiss(t *testing.T) {
	fake := &fakeIngestionService{
		resolveResult: &services.ProcessEmailResult{Status: models.RecommendationReject},
	}
	h := NewReviewHandler(fake)

	rec := httptest.NewRecorder()
	h.HandleResolveReview(rec, resolveRequest(t, "rev-1", map[string]string{"action": "dismiss"}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, fake.lastApprove)
}

func TestHandleResolveReviewInvalidAction(t *testing.T) {
	h := NewReviewHandler(&fakeIngestionService{})
	rec := httptest.NewRecorder()
	h.HandleResolveReview(rec, resolveRequest(t, "rev-1", map[string]string{"action": "maybe"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleResolveReviewNotFound(t *testing.T) {
	h := NewReviewHandler(&fakeIngestionService{resolveErr: services.ErrReviewNotFound})
	rec := httptest.NewRecorder()
	h.HandleResolveReview(rec, resolveRequest(t, "missing", map[string]string{"action": "approve"}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

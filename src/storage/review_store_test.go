package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/wealthfolio/backend/src/models"
)

func sampleReviewItem(id, portfolioID string, createdAt time.Time) *models.ReviewItem {
	return &models.ReviewItem{
		ID:          id,
		PortfolioID: portfolioID,
		EmailData: models.ParsedTransactionEmail{
			Symbol:          "AAPL",
			TransactionType: models.TransactionBuy,
			Quantity:        10,
			Price:           150.00,
			AccountType:     "TFSA",
		},
		Detection: models.DuplicateDetectionResult{
			Matches: []models.DuplicateMatch{
				{Level: 2, Confidence: 0.90, MatchedRecordID: "r1"},
			},
			OverallConfidence: 0.90,
			RiskLevel:         models.RiskMedium,
			Recommendation:    models.RecommendationReview,
			Summary:           "order id already seen",
		},
		Status:    models.ReviewPending,
		CreatedAt: createdAt,
	}
}

func TestReviewStoreEnqueueAndList(t *testing.T) {
	store := NewReviewStore(newTestDB(t))
	ctx := context.Background()

	base := time.Date(2024, 1, 17, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Enqueue(ctx, sampleReviewItem("rev2", "p1", base.Add(time.Hour))))
	require.NoError(t, store.Enqueue(ctx, sampleReviewItem("rev1", "p1", base)))
	require.NoError(t, store.Enqueue(ctx, sampleReviewItem("rev3", "p2", base)))

	items, err := store.ListPending(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	// Oldest first: review is a queue.
	assert.Equal(t, "rev1", items[0].ID)
	assert.Equal(t, "rev2", items[1].ID)

	got := items[0]
	assert.Equal(t, models.ReviewPending, got.Status)
	assert.Equal(t, "AAPL", got.EmailData.Symbol)
	assert.Equal(t, models.RecommendationReview, got.Detection.Recommendation)
	require.Len(t, got.Detection.Matches, 1)
	assert.Equal(t, 2, got.Detection.Matches[0].Level)
	assert.Nil(t, got.ResolvedAt)
}

func TestReviewStoreResolve(t *testing.T) {
	store := NewReviewStore(newTestDB(t))
	ctx := context.Background()

	item := sampleReviewItem("rev1", "p1", time.Now().UTC().Truncate(time.Second))
	require.NoError(t, store.Enqueue(ctx, item))

	require.NoError(t, store.Resolve(ctx, "rev1", models.ReviewApproved))

	fetched, err := store.GetByID(ctx, "rev1")
	require.NoError(t, err)
	assert.Equal(t, models.ReviewApproved, fetched.Status)
	require.NotNil(t, fetched.ResolvedAt)

	// Resolved items drop out of the pending list.
	pending, err := store.ListPending(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Resolving twice is an error: the queue is settle-once.
	assert.ErrorIs(t, store.Resolve(ctx, "rev1", models.ReviewDismissed), sql.ErrNoRows)
}

func TestReviewStoreResolveMissing(t *testing.T) {
	store := NewReviewStore(newTestDB(t))
	assert.ErrorIs(t, store.Resolve(context.Background(), "nope", models.ReviewApproved), sql.ErrNoRows)
}

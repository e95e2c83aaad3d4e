package services

import (
	"context"
	"errors"

	"github.com/username/wealthfolio/backend/src/models"
)

var (
	// ErrParsingFailed means the raw email could not be parsed into a
	// transaction. Handlers translate this to a 422.
	ErrParsingFailed = errors.New("email parsing failed")

	// ErrDetectionFailed means the duplicate check itself failed (for example
	// the record store was unavailable). The email must NOT be auto-accepted
	// on this path; callers surface it and force manual handling.
	ErrDetectionFailed = errors.New("duplicate detection failed")

	// ErrReviewNotFound means the review item does not exist or was already
	// resolved.
	ErrReviewNotFound = errors.New("review item not found or already resolved")
)

// ProcessEmailResult is what one ingestion call produced.
type ProcessEmailResult struct {
	Status        models.Recommendation            `json:"status"` // accept, review or reject
	Email         *models.ParsedTransactionEmail   `json:"email"`
	Detection     *models.DuplicateDetectionResult `json:"detection"`
	RecordID      string                           `json:"record_id,omitempty"`      // set on accept
	TransactionID string                           `json:"transaction_id,omitempty"` // set on accept
	ReviewID      string                           `json:"review_id,omitempty"`      // set on review
}

// IngestionService runs the email ingestion pipeline: parse, duplicate-check,
// then persist, queue for review, or drop.
type IngestionService interface {
	ProcessRawEmail(ctx context.Context, raw *models.RawEmail, portfolioID, source string) (*ProcessEmailResult, error)
	ProcessParsedEmail(ctx context.Context, email *models.ParsedTransactionEmail, portfolioID string) (*ProcessEmailResult, error)
	ListRecords(ctx context.Context, portfolioID string) ([]models.StoredEmailRecord, error)
	ListPendingReviews(ctx context.Context, portfolioID string) ([]models.ReviewItem, error)
	ResolveReview(ctx context.Context, reviewID string, approve bool) (*ProcessEmailResult, error)
	ListTransactions(ctx context.Context, portfolioID string) ([]models.Transaction, error)
}

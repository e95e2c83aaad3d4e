// backend/src/services/ingestion_service.go
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/username/wealthfolio/backend/src/dedup"
	"github.com/username/wealthfolio/backend/src/logger"
	"github.com/username/wealthfolio/backend/src/models"
	"github.com/username/wealthfolio/backend/src/parsers"
	"github.com/username/wealthfolio/backend/src/security/validation"
	"github.com/username/wealthfolio/backend/src/storage"
)

const portfolioRecordsCacheKeyFormat = "records_portfolio_%s"

// CachedRecordStore serves candidate lookups for duplicate detection from an
// in-memory cache, falling back to the database on a miss. InvalidatePortfolio
// must be called after every insert so the next detection sees the new record.
type CachedRecordStore struct {
	store *storage.EmailRecordStore
	cache *cache.Cache
}

func NewCachedRecordStore(store *storage.EmailRecordStore, c *cache.Cache) *CachedRecordStore {
	return &CachedRecordStore{store: store, cache: c}
}

func (c *CachedRecordStore) ListByPortfolio(ctx context.Context, portfolioID string) ([]models.StoredEmailRecord, error) {
	key := fmt.Sprintf(portfolioRecordsCacheKeyFormat, portfolioID)
	if cached, found := c.cache.Get(key); found {
		if records, ok := cached.([]models.StoredEmailRecord); ok {
			logger.L.Debug("Serving candidate records from cache", "portfolioId", portfolioID, "count", len(records))
			return records, nil
		}
	}
	records, err := c.store.ListByPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, records, cache.DefaultExpiration)
	return records, nil
}

func (c *CachedRecordStore) InvalidatePortfolio(portfolioID string) {
	c.cache.Delete(fmt.Sprintf(portfolioRecordsCacheKeyFormat, portfolioID))
}

type ingestionServiceImpl struct {
	detector     *dedup.Detector
	records      *storage.EmailRecordStore
	reviews      *storage.ReviewStore
	transactions *storage.TransactionStore
	candidates   *CachedRecordStore
	emailService EmailService

	// Empty disables review notifications.
	reviewNotifyEmail string
	maxEmailSizeBytes int64
}

// NewIngestionService wires the ingestion pipeline. The detector must have
// been built over the same CachedRecordStore so inserts invalidate the
// candidate sets it reads.
func NewIngestionService(
	detector *dedup.Detector,
	records *storage.EmailRecordStore,
	reviews *storage.ReviewStore,
	transactions *storage.TransactionStore,
	candidates *CachedRecordStore,
	emailService EmailService,
	reviewNotifyEmail string,
	maxEmailSizeBytes int64,
) IngestionService {
	return &ingestionServiceImpl{
		detector:          detector,
		records:           records,
		reviews:           reviews,
		transactions:      transactions,
		candidates:        candidates,
		emailService:      emailService,
		reviewNotifyEmail: reviewNotifyEmail,
		maxEmailSizeBytes: maxEmailSizeBytes,
	}
}

func (s *ingestionServiceImpl) ProcessRawEmail(ctx context.Context, raw *models.RawEmail, portfolioID, source string) (*ProcessEmailResult, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: raw email is nil", validation.ErrValidationFailed)
	}
	if err := validation.ValidateEmailPayload(raw.Subject, raw.Body, s.maxEmailSizeBytes); err != nil {
		return nil, err
	}

	parser, err := parsers.GetParser(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	parsed, err := parser.Parse(raw)
	if err != nil {
		logger.L.Warn("Email parsing failed during ingestion", "source", source, "subject", raw.Subject, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	logger.L.Info("Email parsed", "source", source, "symbol", parsed.Symbol, "parseConfidence", parsed.Confidence)

	return s.ProcessParsedEmail(ctx, parsed, portfolioID)
}

func (s *ingestionServiceImpl) ProcessParsedEmail(ctx context.Context, email *models.ParsedTransactionEmail, portfolioID string) (*ProcessEmailResult, error) {
	if email == nil {
		return nil, fmt.Errorf("%w: parsed email is nil", validation.ErrValidationFailed)
	}
	if portfolioID == "" {
		return nil, fmt.Errorf("%w: portfolio id is required", validation.ErrValidationFailed)
	}

	detection, err := s.detector.Detect(ctx, email, portfolioID)
	if err != nil {
		// A failed detection must never let the email through unchecked.
		logger.L.Error("Duplicate detection failed", "portfolioId", portfolioID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDetectionFailed, err)
	}

	result := &ProcessEmailResult{
		Status:    detection.Recommendation,
		Email:     email,
		Detection: detection,
	}

	switch detection.Recommendation {
	case models.RecommendationAccept:
		record, txn, err := s.persistAccepted(ctx, email, portfolioID)
		if err != nil {
			return nil, err
		}
		result.RecordID = record.ID
		result.TransactionID = txn.ID
		logger.L.Info("Email accepted and stored",
			"portfolioId", portfolioID, "recordId", record.ID, "transactionId", txn.ID,
			"symbol", email.Symbol, "confidence", detection.OverallConfidence)

	case models.RecommendationReview:
		item := &models.ReviewItem{
			ID:          uuid.NewString(),
			PortfolioID: portfolioID,
			EmailData:   *email,
			Detection:   *detection,
			Status:      models.ReviewPending,
			CreatedAt:   time.Now().UTC(),
		}
		if err := s.reviews.Enqueue(ctx, item); err != nil {
			return nil, fmt.Errorf("failed to enqueue review item: %w", err)
		}
		result.ReviewID = item.ID
		logger.L.Info("Email parked for manual review",
			"portfolioId", portfolioID, "reviewId", item.ID,
			"symbol", email.Symbol, "confidence", detection.OverallConfidence, "riskLevel", detection.RiskLevel)
		s.notifyReviewer(item)

	case models.RecommendationReject:
		logger.L.Info("Email rejected as duplicate",
			"portfolioId", portfolioID, "symbol", email.Symbol,
			"confidence", detection.OverallConfidence, "summary", detection.Summary)
	}

	return result, nil
}

func (s *ingestionServiceImpl) persistAccepted(ctx context.Context, email *models.ParsedTransactionEmail, portfolioID string) (*models.StoredEmailRecord, *models.Transaction, error) {
	now := time.Now().UTC()
	record := &models.StoredEmailRecord{
		ID:             uuid.NewString(),
		PortfolioID:    portfolioID,
		Identification: dedup.Identify(email),
		EmailData:      *email,
		CreatedAt:      now,
	}
	if err := s.records.Insert(ctx, record); err != nil {
		return nil, nil, fmt.Errorf("failed to store email record: %w", err)
	}

	txn := &models.Transaction{
		ID:              uuid.NewString(),
		PortfolioID:     portfolioID,
		EmailRecordID:   record.ID,
		Symbol:          email.Symbol,
		TransactionType: email.TransactionType,
		Quantity:        email.Quantity,
		Price:           email.Price,
		TotalAmount:     email.TotalAmount,
		AccountType:     email.AccountType,
		TransactionDate: email.TransactionDate,
		CreatedAt:       now,
	}
	if err := s.transactions.Insert(ctx, txn); err != nil {
		return nil, nil, fmt.Errorf("failed to store transaction: %w", err)
	}

	s.candidates.InvalidatePortfolio(portfolioID)
	return record, txn, nil
}

// notifyReviewer is best effort: a failed notification must not undo the
// enqueue, the item is already visible in the review list.
func (s *ingestionServiceImpl) notifyReviewer(item *models.ReviewItem) {
	if s.reviewNotifyEmail == "" || s.emailService == nil {
		return
	}
	if err := s.emailService.SendReviewNotification(s.reviewNotifyEmail, item); err != nil {
		logger.L.Warn("Failed to send review notification", "reviewId", item.ID, "error", err)
	}
}

func (s *ingestionServiceImpl) ListRecords(ctx context.Context, portfolioID string) ([]models.StoredEmailRecord, error) {
	return s.records.ListByPortfolio(ctx, portfolioID)
}

func (s *ingestionServiceImpl) ListPendingReviews(ctx context.Context, portfolioID string) ([]models.ReviewItem, error) {
	return s.reviews.ListPending(ctx, portfolioID)
}

func (s *ingestionServiceImpl) ResolveReview(ctx context.Context, reviewID string, approve bool) (*ProcessEmailResult, error) {
	item, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to load review item: %w", err)
	}
	if item.Status != models.ReviewPending {
		return nil, ErrReviewNotFound
	}

	status := models.ReviewDismissed
	if approve {
		status = models.ReviewApproved
	}
	if err := s.reviews.Resolve(ctx, reviewID, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to resolve review item: %w", err)
	}

	result := &ProcessEmailResult{
		Status:    models.RecommendationReject,
		Email:     &item.EmailData,
		Detection: &item.Detection,
	}
	if approve {
		record, txn, err := s.persistAccepted(ctx, &item.EmailData, item.PortfolioID)
		if err != nil {
			return nil, err
		}
		result.Status = models.RecommendationAccept
		result.RecordID = record.ID
		result.TransactionID = txn.ID
		logger.L.Info("Review approved, email stored", "reviewId", reviewID, "recordId", record.ID)
	} else {
		logger.L.Info("Review dismissed, email dropped", "reviewId", reviewID)
	}
	return result, nil
}

func (s *ingestionServiceImpl) ListTransactions(ctx context.Context, portfolioID string) ([]models.Transaction, error) {
	return s.transactions.ListByPortfolio(ctx, portfolioID)
}

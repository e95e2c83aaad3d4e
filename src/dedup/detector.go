// Package dedup implements multi-level duplicate detection for incoming
// trade-confirmation emails. Three matchers run against the stored records of
// one portfolio: exact email identity, order identity, and transaction
// fingerprint similarity. The aggregated result carries a confidence score, a
// risk level and an accept/review/reject recommendation for the caller.
package dedup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/username/wealthfolio/backend/src/logger"
	"github.com/username/wealthfolio/backend/src/models"
)

// RecordStore is the read-only view of previously accepted email records the
// detector compares against. Implementations must return only records scoped
// to the given portfolio; the detector never compares across portfolios.
type RecordStore interface {
	ListByPortfolio(ctx context.Context, portfolioID string) ([]models.StoredEmailRecord, error)
}

// Detector runs the three-level duplicate check. Construct one explicitly and
// pass it where needed; there is no package-level instance.
type Detector struct {
	store RecordStore
	cfg   Config
}

// NewDetector creates a detector over the given record store.
func NewDetector(store RecordStore, cfg Config) (*Detector, error) {
	if store == nil {
		return nil, fmt.Errorf("record store cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Detector{store: store, cfg: cfg}, nil
}

// Config returns the configuration the detector was built with.
func (d *Detector) Config() Config { return d.cfg }

// Detect checks one parsed email against the stored records of a portfolio.
//
// An exact Level-1 signature match short-circuits with confidence 1.0 and a
// reject recommendation; Levels 2 and 3 are skipped entirely. A store lookup
// failure propagates to the caller as a hard error: without candidate data no
// recommendation is safe, least of all a silent accept. Per-candidate scoring
// problems never abort the call; they surface as warnings on the result.
func (d *Detector) Detect(ctx context.Context, email *models.ParsedTransactionEmail, portfolioID string) (*models.DuplicateDetectionResult, error) {
	start := time.Now()

	if email == nil {
		return nil, fmt.Errorf("email cannot be nil")
	}
	if strings.TrimSpace(portfolioID) == "" {
		return nil, fmt.Errorf("portfolio id cannot be empty")
	}

	records, err := d.store.ListByPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("list records for portfolio %s: %w", portfolioID, err)
	}
	if len(records) > d.cfg.MaxCandidates {
		records = records[:d.cfg.MaxCandidates]
	}

	ident := Identify(email)

	result := &models.DuplicateDetectionResult{}

	// Level 1: exact email identity. Short-circuit on hit.
	if m := matchLevel1(ident, records); m != nil {
		result.Matches = []models.DuplicateMatch{*m}
		result.OverallConfidence = 1.0
		result.RiskLevel = models.RiskHigh
		result.Recommendation = models.RecommendationReject
		result.Summary = fmt.Sprintf("exact duplicate: level 1 signature match against record %s (confidence 1.00)", m.MatchedRecordID)
		result.ProcessingTimeMs = time.Since(start).Milliseconds()
		logger.L.Info("Duplicate detection: exact match",
			"portfolioID", portfolioID, "matchedRecordID", m.MatchedRecordID)
		return result, nil
	}

	// Level 2: order identity. Same id with changed content may be a correction.
	if m := matchLevel2(ident, records, d.cfg); m != nil {
		result.Matches = []models.DuplicateMatch{*m}
		result.OverallConfidence = m.Confidence
		result.RiskLevel = models.RiskMedium
		result.Recommendation = models.RecommendationReview
		result.Summary = fmt.Sprintf("order id %s already seen on record %s with different content: level 2 match (confidence %.2f), needs review",
			ident.OrderID, m.MatchedRecordID, m.Confidence)
		result.ProcessingTimeMs = time.Since(start).Milliseconds()
		logger.L.Info("Duplicate detection: order id match",
			"portfolioID", portfolioID, "orderID", ident.OrderID, "matchedRecordID", m.MatchedRecordID)
		return result, nil
	}

	// Level 3: transaction fingerprint similarity.
	matches, warnings := matchLevel3(email, records, d.cfg)
	result.Matches = matches
	result.Warnings = warnings

	best := result.BestMatch()
	switch {
	case best != nil && best.Confidence > d.cfg.HighSimilarity:
		result.OverallConfidence = best.Confidence
		result.RiskLevel = models.RiskMedium
		result.Recommendation = models.RecommendationReview
		result.Summary = fmt.Sprintf("near-identical transaction fingerprint: level 3 match against record %s (confidence %.2f), needs review",
			best.MatchedRecordID, best.Confidence)
	case best != nil:
		result.OverallConfidence = best.Confidence
		result.RiskLevel = models.RiskLow
		result.Recommendation = models.RecommendationAccept
		result.Summary = fmt.Sprintf("accepted with warning: level 3 similarity to record %s (confidence %.2f) below review threshold %.2f",
			best.MatchedRecordID, best.Confidence, d.cfg.HighSimilarity)
	default:
		result.OverallConfidence = 0
		result.RiskLevel = models.RiskLow
		result.Recommendation = models.RecommendationAccept
		result.Summary = fmt.Sprintf("no duplicate found across %d stored records", len(records))
	}

	result.ProcessingTimeMs = time.Since(start).Milliseconds()
	logger.L.Debug("Duplicate detection complete",
		"portfolioID", portfolioID,
		"recommendation", result.Recommendation,
		"confidence", result.OverallConfidence,
		"matches", len(result.Matches),
		"warnings", len(result.Warnings),
		"durationMs", result.ProcessingTimeMs)
	return result, nil
}

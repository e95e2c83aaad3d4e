package dedup

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/username/wealthfolio/backend/src/models"
)

// matchLevel1 looks for an exact email-identity duplicate: identical
// signatures. Strict on purpose: any signature mismatch, however small, falls
// through to Level 2. Returns at most one match with confidence 1.0.
func matchLevel1(ident models.EmailIdentification, records []models.StoredEmailRecord) *models.DuplicateMatch {
	for i := range records {
		if records[i].Identification.Signature == ident.Signature {
			return &models.DuplicateMatch{
				Level:           1,
				Confidence:      1.0,
				MatchedRecordID: records[i].ID,
			}
		}
	}
	return nil
}

// matchLevel2 looks for an order-identity duplicate: both sides carry a
// non-empty order id and the ids are equal. Catches confirmations the provider
// resent under the same order with modified body text. Confidence is fixed
// below 1.0 because differing content may be a legitimate correction.
func matchLevel2(ident models.EmailIdentification, records []models.StoredEmailRecord, cfg Config) *models.DuplicateMatch {
	if ident.OrderID == "" {
		return nil
	}
	for i := range records {
		if records[i].Identification.OrderID != "" && records[i].Identification.OrderID == ident.OrderID {
			return &models.DuplicateMatch{
				Level:           2,
				Confidence:      cfg.Level2Confidence,
				MatchedRecordID: records[i].ID,
			}
		}
	}
	return nil
}

// matchLevel3 scores the transaction fingerprint (symbol, quantity, price,
// date) of the new email against every stored record in the same account
// type, emitting one match per candidate whose weighted similarity clears the
// floor. A malformed candidate is skipped and reported as a warning rather
// than aborting the batch.
func matchLevel3(email *models.ParsedTransactionEmail, records []models.StoredEmailRecord, cfg Config) ([]models.DuplicateMatch, []string) {
	var matches []models.DuplicateMatch
	var warnings []string

	for i := range records {
		rec := &records[i]
		if !strings.EqualFold(rec.EmailData.AccountType, email.AccountType) {
			continue
		}
		// A buy is never a duplicate of a sell, whatever the other fields say.
		if rec.EmailData.TransactionType != email.TransactionType {
			continue
		}

		score, err := fingerprintSimilarity(email, &rec.EmailData, cfg)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("skipped candidate %s: %v", rec.ID, err))
			continue
		}
		if score > cfg.SimilarityFloor {
			matches = append(matches, models.DuplicateMatch{
				Level:           3,
				Confidence:      score,
				MatchedRecordID: rec.ID,
			})
		}
	}
	return matches, warnings
}

// fingerprintSimilarity computes the weighted similarity of two transaction
// fingerprints. Returns an error when the candidate record is too malformed
// to compare.
func fingerprintSimilarity(email *models.ParsedTransactionEmail, candidate *models.ParsedTransactionEmail, cfg Config) (float64, error) {
	if strings.TrimSpace(candidate.Symbol) == "" {
		return 0, fmt.Errorf("candidate has empty symbol")
	}
	if candidate.Quantity <= 0 || candidate.Price <= 0 {
		return 0, fmt.Errorf("candidate has non-positive quantity or price (qty=%g, price=%g)",
			candidate.Quantity, candidate.Price)
	}
	if candidate.TransactionDate.IsZero() {
		return 0, fmt.Errorf("candidate has zero transaction date")
	}

	score := cfg.SymbolWeight*symbolMatch(email.Symbol, candidate.Symbol) +
		cfg.QuantityWeight*quantityCloseness(email.Quantity, candidate.Quantity, cfg.QuantityTolerance) +
		cfg.PriceWeight*priceCloseness(email.Price, candidate.Price, cfg.PriceTolerance) +
		cfg.DateWeight*dateProximity(email.TransactionDate, candidate.TransactionDate, cfg.DateWindowDays)
	return score, nil
}

// symbolMatch is binary: normalized symbols either match or they don't.
func symbolMatch(a, b string) float64 {
	if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b)) {
		return 1.0
	}
	return 0.0
}

// quantityCloseness compares share counts with relative tolerance. Fractional
// quantities and repeated processing introduce rounding differences, so exact
// float equality is never required.
func quantityCloseness(a, b, tolerance float64) float64 {
	diff := relativeDiff(a, b)
	switch {
	case diff <= tolerance:
		return 1.0
	case diff <= 0.01:
		return 0.8
	default:
		return 0.0
	}
}

// priceCloseness compares prices with banded relative tolerance.
func priceCloseness(a, b, tolerance float64) float64 {
	diff := relativeDiff(a, b)
	switch {
	case diff <= tolerance:
		return 1.0 // exact within FX/rounding noise
	case diff <= 0.01:
		return 0.9 // within 1%
	case diff <= 0.02:
		return 0.75
	case diff <= 0.05:
		return 0.5
	default:
		return 0.0
	}
}

// dateProximity gives full credit for the same calendar day (UTC) and partial
// credit within the configured window, tolerating timezone and clock skew
// between confirmation and settlement emails.
func dateProximity(a, b time.Time, windowDays int) float64 {
	au, bu := a.UTC(), b.UTC()
	ay, am, ad := au.Date()
	by, bm, bd := bu.Date()
	if ay == by && am == bm && ad == bd {
		return 1.0
	}
	dayA := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	dayB := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	daysApart := math.Abs(dayA.Sub(dayB).Hours()) / 24
	if daysApart <= float64(windowDays) {
		return 0.5
	}
	return 0.0
}

// relativeDiff is |a-b| relative to the larger magnitude. Symmetric, and safe
// for the very-high-value transactions where absolute tolerances break down.
func relativeDiff(a, b float64) float64 {
	larger := math.Max(math.Abs(a), math.Abs(b))
	if larger == 0 {
		return 0
	}
	return math.Abs(a-b) / larger
}

package dedup

import (
	"fmt"
	"math"
	"os"
	"strconv"
)

// Config holds the tuning knobs for duplicate detection. The threshold values
// separating accept/review/reject bands are configuration, not code: tests pin
// the defaults, and deployments can override them via environment variables.
type Config struct {
	// Level2Confidence is the fixed confidence assigned to an order-id match.
	// Deliberately below 1.0: same order id with different content may be a
	// legitimate correction email. Default: 0.90.
	Level2Confidence float64

	// HighSimilarity is the Level-3 score above which an email is routed to
	// manual review. Default: 0.85.
	HighSimilarity float64

	// SimilarityFloor is the minimum Level-3 score for a match to be reported
	// at all. Scores above the floor but at or below HighSimilarity still
	// accept, with a warning in the summary. Default: 0.55.
	SimilarityFloor float64

	// Fingerprint component weights. Must sum to 1.0.
	SymbolWeight   float64 // default 0.45
	QuantityWeight float64 // default 0.20
	PriceWeight    float64 // default 0.20
	DateWeight     float64 // default 0.15

	// QuantityTolerance is the relative difference under which two quantities
	// are considered equal. Fractional shares accumulate rounding drift when
	// emails are re-processed, so exact equality is wrong here. Default: 1e-4.
	QuantityTolerance float64

	// PriceTolerance is the relative difference under which two prices are
	// considered an exact match. Default: 0.001 (0.1%).
	PriceTolerance float64

	// DateWindowDays is how many calendar days apart two transaction dates may
	// be and still earn partial date credit. Tolerates timezone and clock skew
	// between confirmation and settlement emails. Default: 3.
	DateWindowDays int

	// MaxCandidates caps how many stored records are compared per call.
	// Default: 200.
	MaxCandidates int
}

// DefaultConfig returns the default detection configuration. The numeric
// values here are the ones the test suite pins.
func DefaultConfig() Config {
	return Config{
		Level2Confidence:  0.90,
		HighSimilarity:    0.85,
		SimilarityFloor:   0.55,
		SymbolWeight:      0.45,
		QuantityWeight:    0.20,
		PriceWeight:       0.20,
		DateWeight:        0.15,
		QuantityTolerance: 1e-4,
		PriceTolerance:    0.001,
		DateWindowDays:    3,
		MaxCandidates:     200,
	}
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if c.Level2Confidence <= 0 || c.Level2Confidence >= 1.0 {
		return fmt.Errorf("level2_confidence must be in (0.0, 1.0) exclusive (got %.2f)", c.Level2Confidence)
	}
	if c.HighSimilarity <= 0 || c.HighSimilarity >= 1.0 {
		return fmt.Errorf("high_similarity must be in (0.0, 1.0) exclusive (got %.2f)", c.HighSimilarity)
	}
	if c.SimilarityFloor <= 0 || c.SimilarityFloor >= c.HighSimilarity {
		return fmt.Errorf("similarity_floor must be positive and below high_similarity (got %.2f, high %.2f)",
			c.SimilarityFloor, c.HighSimilarity)
	}
	weightSum := c.SymbolWeight + c.QuantityWeight + c.PriceWeight + c.DateWeight
	if math.Abs(weightSum-1.0) > 1e-9 {
		return fmt.Errorf("fingerprint weights must sum to 1.0 (got %.4f)", weightSum)
	}
	for _, w := range []float64{c.SymbolWeight, c.QuantityWeight, c.PriceWeight, c.DateWeight} {
		if w < 0 {
			return fmt.Errorf("fingerprint weights cannot be negative")
		}
	}
	if c.QuantityTolerance < 0 || c.QuantityTolerance > 0.1 {
		return fmt.Errorf("quantity_tolerance out of range (got %g, max 0.1)", c.QuantityTolerance)
	}
	if c.PriceTolerance < 0 || c.PriceTolerance > 0.1 {
		return fmt.Errorf("price_tolerance out of range (got %g, max 0.1)", c.PriceTolerance)
	}
	if c.DateWindowDays < 0 || c.DateWindowDays > 30 {
		return fmt.Errorf("date_window_days out of range (got %d, max 30)", c.DateWindowDays)
	}
	if c.MaxCandidates <= 0 || c.MaxCandidates > 5000 {
		return fmt.Errorf("max_candidates out of range (got %d, max 5000)", c.MaxCandidates)
	}
	return nil
}

// ConfigFromEnv creates a Config from environment variables, falling back to
// defaults for anything unset.
//
// Environment variables:
//   - WF_DEDUP_LEVEL2_CONFIDENCE: confidence for order-id matches (default 0.90)
//   - WF_DEDUP_HIGH_SIMILARITY: review threshold for fingerprint matches (default 0.85)
//   - WF_DEDUP_SIMILARITY_FLOOR: minimum reportable fingerprint score (default 0.55)
//   - WF_DEDUP_DATE_WINDOW_DAYS: date proximity window (default 3)
//   - WF_DEDUP_MAX_CANDIDATES: per-call candidate cap (default 200)
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if err := parseEnvFloat("WF_DEDUP_LEVEL2_CONFIDENCE", &cfg.Level2Confidence); err != nil {
		return cfg, err
	}
	if err := parseEnvFloat("WF_DEDUP_HIGH_SIMILARITY", &cfg.HighSimilarity); err != nil {
		return cfg, err
	}
	if err := parseEnvFloat("WF_DEDUP_SIMILARITY_FLOOR", &cfg.SimilarityFloor); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("WF_DEDUP_DATE_WINDOW_DAYS", &cfg.DateWindowDays); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("WF_DEDUP_MAX_CANDIDATES", &cfg.MaxCandidates); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration from environment: %w", err)
	}
	return cfg, nil
}

func parseEnvFloat(key string, dest *float64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // use default
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

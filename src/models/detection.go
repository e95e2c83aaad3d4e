package models

// Recommendation is the three-way outcome of duplicate detection.
type Recommendation string

const (
	RecommendationAccept Recommendation = "accept"
	RecommendationReject Recommendation = "reject"
	RecommendationReview Recommendation = "review"
)

// RiskLevel grades how likely the incoming email is a duplicate.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// DuplicateMatch is one comparison hit produced by a matcher level.
type DuplicateMatch struct {
	Level           int     `json:"level"` // 1 = email identity, 2 = order identity, 3 = fingerprint
	Confidence      float64 `json:"confidence"`
	MatchedRecordID string  `json:"matched_record_id"`
}

// DuplicateDetectionResult is the output of one detection call.
type DuplicateDetectionResult struct {
	Matches           []DuplicateMatch `json:"matches"`
	OverallConfidence float64          `json:"overall_confidence"`
	RiskLevel         RiskLevel        `json:"risk_level"`
	Recommendation    Recommendation   `json:"recommendation"`
	Summary           string           `json:"summary"`
	Warnings          []string         `json:"warnings,omitempty"`
	ProcessingTimeMs  int64            `json:"processing_time_ms"`
}

// BestMatch returns the highest-confidence match, or nil when there are none.
func (r *DuplicateDetectionResult) BestMatch() *DuplicateMatch {
	var best *DuplicateMatch
	for i := range r.Matches {
		if best == nil || r.Matches[i].Confidence > best.Confidence {
			best = &r.Matches[i]
		}
	}
	return best
}

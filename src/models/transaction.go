package models

import "time"

// Transaction is a portfolio transaction created from an accepted email.
type Transaction struct {
	ID              string          `json:"id"`
	PortfolioID     string          `json:"portfolio_id"`
	EmailRecordID   string          `json:"email_record_id"`
	Symbol          string          `json:"symbol"`
	TransactionType TransactionType `json:"transaction_type"`
	Quantity        float64         `json:"quantity"`
	Price           float64         `json:"price"`
	TotalAmount     float64         `json:"total_amount"`
	AccountType     string          `json:"account_type"`
	TransactionDate time.Time       `json:"transaction_date"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ReviewStatus tracks the lifecycle of a queued review item.
type ReviewStatus string

const (
	ReviewPending   ReviewStatus = "pending"
	ReviewApproved  ReviewStatus = "approved"
	ReviewDismissed ReviewStatus = "dismissed"
)

// ReviewItem is one email parked for manual review, together with the
// detection result that sent it there.
type ReviewItem struct {
	ID          string                   `json:"id"`
	PortfolioID string                   `json:"portfolio_id"`
	EmailData   ParsedTransactionEmail   `json:"email_data"`
	Detection   DuplicateDetectionResult `json:"detection"`
	Status      ReviewStatus             `json:"status"`
	CreatedAt   time.Time                `json:"created_at"`
	ResolvedAt  *time.Time               `json:"resolved_at,omitempty"`
}

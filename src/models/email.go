package models

import "time"

// TransactionType classifies the direction of a parsed trade.
type TransactionType string

const (
	TransactionBuy  TransactionType = "buy"
	TransactionSell TransactionType = "sell"
)

// RawEmail is an unparsed email as delivered by the upstream puller.
type RawEmail struct {
	Subject    string    `json:"subject"`
	FromEmail  string    `json:"from_email"`
	Body       string    `json:"body"` // plain text or HTML
	ReceivedAt time.Time `json:"received_at"`
}

// ParsedTransactionEmail is the structured form of a trade-confirmation email,
// as produced by a parser. It is immutable for the duration of a detection call.
type ParsedTransactionEmail struct {
	Symbol          string          `json:"symbol"`           // ticker or option symbol
	TransactionType TransactionType `json:"transaction_type"` // "buy" or "sell"
	Quantity        float64         `json:"quantity"`
	Price           float64         `json:"price"`
	TotalAmount     float64         `json:"total_amount"`
	AccountType     string          `json:"account_type"` // e.g. TFSA, RRSP, Margin
	TransactionDate time.Time       `json:"transaction_date"`
	Subject         string          `json:"subject"`
	FromEmail       string          `json:"from_email"`
	RawContent      string          `json:"raw_content"`

	// Provenance of the upstream parse, not duplicate-detection confidence.
	Confidence  float64 `json:"confidence"`
	ParseMethod string  `json:"parse_method"`
}

// EmailIdentification holds the stable identity fields derived from an email.
// Signature is always populated; OrderID only when a recognizable order or
// confirmation number was found in the text.
type EmailIdentification struct {
	OrderID   string `json:"order_id,omitempty"`
	Signature string `json:"signature"`
}

// StoredEmailRecord is one previously accepted email, persisted per portfolio.
// Records are append-only: created on accept (or manual approval), never
// mutated, deleted only by external retention policy.
type StoredEmailRecord struct {
	ID             string                 `json:"id"`
	PortfolioID    string                 `json:"portfolio_id"`
	Identification EmailIdentification    `json:"identification"`
	EmailData      ParsedTransactionEmail `json:"email_data"`
	CreatedAt      time.Time              `json:"created_at"`
}

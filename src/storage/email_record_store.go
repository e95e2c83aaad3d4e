// Package storage holds the sqlite persistence for email records, the manual
// review queue and accepted transactions.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/username/wealthfolio/backend/src/models"
)

// EmailRecordStore persists accepted email records. Records are append-only:
// the detector reads them, the ingestion service inserts them, nothing updates
// them in place.
type EmailRecordStore struct {
	db *sql.DB
}

func NewEmailRecordStore(db *sql.DB) *EmailRecordStore {
	return &EmailRecordStore{db: db}
}

// Insert stores a newly accepted email record.
func (s *EmailRecordStore) Insert(ctx context.Context, rec *models.StoredEmailRecord) error {
	query := `INSERT INTO email_records
		(id, portfolio_id, order_id, signature, symbol, transaction_type, quantity, price,
		 total_amount, account_type, transaction_date, subject, from_email, raw_content,
		 parse_confidence, parse_method, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.PortfolioID,
		rec.Identification.OrderID,
		rec.Identification.Signature,
		rec.EmailData.Symbol,
		string(rec.EmailData.TransactionType),
		rec.EmailData.Quantity,
		rec.EmailData.Price,
		rec.EmailData.TotalAmount,
		rec.EmailData.AccountType,
		rec.EmailData.TransactionDate.UTC().Format(time.RFC3339),
		rec.EmailData.Subject,
		rec.EmailData.FromEmail,
		rec.EmailData.RawContent,
		rec.EmailData.Confidence,
		rec.EmailData.ParseMethod,
		rec.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert email record %s: %w", rec.ID, err)
	}
	return nil
}

// ListByPortfolio returns all stored records for one portfolio, newest first.
// This is the candidate set the duplicate detector compares against.
func (s *EmailRecordStore) ListByPortfolio(ctx context.Context, portfolioID string) ([]models.StoredEmailRecord, error) {
	query := `SELECT id, portfolio_id, order_id, signature, symbol, transaction_type, quantity,
		price, total_amount, account_type, transaction_date, subject, from_email, raw_content,
		parse_confidence, parse_method, created_at
		FROM email_records WHERE portfolio_id = ? ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("query email records for portfolio %s: %w", portfolioID, err)
	}
	defer rows.Close()

	var records []models.StoredEmailRecord
	for rows.Next() {
		rec, err := scanEmailRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan email record: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate email records: %w", err)
	}
	return records, nil
}

// GetByID fetches a single record.
func (s *EmailRecordStore) GetByID(ctx context.Context, id string) (*models.StoredEmailRecord, error) {
	query := `SELECT id, portfolio_id, order_id, signature, symbol, transaction_type, quantity,
		price, total_amount, account_type, transaction_date, subject, from_email, raw_content,
		parse_confidence, parse_method, created_at
		FROM email_records WHERE id = ?`
	row := s.db.QueryRowContext(ctx, query, id)
	rec, err := scanEmailRecord(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get email record %s: %w", id, err)
	}
	return rec, nil
}

// CountByPortfolio reports how many records a portfolio holds.
func (s *EmailRecordStore) CountByPortfolio(ctx context.Context, portfolioID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM email_records WHERE portfolio_id = ?", portfolioID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count email records for portfolio %s: %w", portfolioID, err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEmailRecord(row rowScanner) (*models.StoredEmailRecord, error) {
	var rec models.StoredEmailRecord
	var txType, txDate, createdAt string
	var orderID, accountType, subject, fromEmail, rawContent, parseMethod sql.NullString
	var totalAmount, parseConfidence sql.NullFloat64

	err := row.Scan(
		&rec.ID,
		&rec.PortfolioID,
		&orderID,
		&rec.Identification.Signature,
		&rec.EmailData.Symbol,
		&txType,
		&rec.EmailData.Quantity,
		&rec.EmailData.Price,
		&totalAmount,
		&accountType,
		&txDate,
		&subject,
		&fromEmail,
		&rawContent,
		&parseConfidence,
		&parseMethod,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Identification.OrderID = orderID.String
	rec.EmailData.TransactionType = models.TransactionType(txType)
	rec.EmailData.TotalAmount = totalAmount.Float64
	rec.EmailData.AccountType = accountType.String
	rec.EmailData.Subject = subject.String
	rec.EmailData.FromEmail = fromEmail.String
	rec.EmailData.RawContent = rawContent.String
	rec.EmailData.Confidence = parseConfidence.Float64
	rec.EmailData.ParseMethod = parseMethod.String

	if t, err := parseStoredTime(txDate); err == nil {
		rec.EmailData.TransactionDate = t
	}
	if t, err := parseStoredTime(createdAt); err == nil {
		rec.CreatedAt = t
	}
	return &rec, nil
}

// parseStoredTime accepts both RFC3339 (what we write) and the sqlite default
// CURRENT_TIMESTAMP format (what legacy rows may carry).
func parseStoredTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", s)
}

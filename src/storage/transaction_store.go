package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/username/wealthfolio/backend/src/models"
)

// TransactionStore persists portfolio transactions created from accepted
// emails.
type TransactionStore struct {
	db *sql.DB
}

func NewTransactionStore(db *sql.DB) *TransactionStore {
	return &TransactionStore{db: db}
}

// Insert stores one transaction.
func (s *TransactionStore) Insert(ctx context.Context, txn *models.Transaction) error {
	query := `INSERT INTO transactions
		(id, portfolio_id, email_record_id, symbol, transaction_type, quantity, price,
		 total_amount, account_type, transaction_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		txn.ID, txn.PortfolioID, txn.EmailRecordID, txn.Symbol, string(txn.TransactionType),
		txn.Quantity, txn.Price, txn.TotalAmount, txn.AccountType,
		txn.TransactionDate.UTC().Format(time.RFC3339),
		txn.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert transaction %s: %w", txn.ID, err)
	}
	return nil
}

// ListByPortfolio returns the transactions of one portfolio, newest first.
func (s *TransactionStore) ListByPortfolio(ctx context.Context, portfolioID string) ([]models.Transaction, error) {
	query := `SELECT id, portfolio_id, email_record_id, symbol, transaction_type, quantity,
		price, total_amount, account_type, transaction_date, created_at
		FROM transactions WHERE portfolio_id = ? ORDER BY transaction_date DESC`
	rows, err := s.db.QueryContext(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("query transactions for portfolio %s: %w", portfolioID, err)
	}
	defer rows.Close()

	var txns []models.Transaction
	for rows.Next() {
		var txn models.Transaction
		var txType, txDate, createdAt string
		var emailRecordID, accountType sql.NullString
		var totalAmount sql.NullFloat64

		if err := rows.Scan(&txn.ID, &txn.PortfolioID, &emailRecordID, &txn.Symbol, &txType,
			&txn.Quantity, &txn.Price, &totalAmount, &accountType, &txDate, &createdAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txn.EmailRecordID = emailRecordID.String
		txn.TransactionType = models.TransactionType(txType)
		txn.TotalAmount = totalAmount.Float64
		txn.AccountType = accountType.String
		if t, err := parseStoredTime(txDate); err == nil {
			txn.TransactionDate = t
		}
		if t, err := parseStoredTime(createdAt); err == nil {
			txn.CreatedAt = t
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txns, nil
}

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/username/wealthfolio/backend/src/models"
)

// ReviewStore persists the manual-review queue. Email payload and detection
// result are stored as JSON blobs: the queue is a holding pen, not a query
// surface, and the shapes evolve with the detector.
type ReviewStore struct {
	db *sql.DB
}

func NewReviewStore(db *sql.DB) *ReviewStore {
	return &ReviewStore{db: db}
}

// Enqueue adds an email plus its detection result to the review queue.
func (s *ReviewStore) Enqueue(ctx context.Context, item *models.ReviewItem) error {
	emailJSON, err := json.Marshal(item.EmailData)
	if err != nil {
		return fmt.Errorf("marshal review email: %w", err)
	}
	detectionJSON, err := json.Marshal(item.Detection)
	if err != nil {
		return fmt.Errorf("marshal detection result: %w", err)
	}

	query := `INSERT INTO review_queue (id, portfolio_id, email_json, detection_json, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		item.ID, item.PortfolioID, string(emailJSON), string(detectionJSON),
		string(item.Status), item.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("enqueue review item %s: %w", item.ID, err)
	}
	return nil
}

// ListPending returns pending review items for a portfolio, oldest first.
func (s *ReviewStore) ListPending(ctx context.Context, portfolioID string) ([]models.ReviewItem, error) {
	query := `SELECT id, portfolio_id, email_json, detection_json, status, created_at, resolved_at
		FROM review_queue WHERE portfolio_id = ? AND status = ? ORDER BY created_at ASC`
	rows, err := s.db.QueryContext(ctx, query, portfolioID, string(models.ReviewPending))
	if err != nil {
		return nil, fmt.Errorf("query review queue for portfolio %s: %w", portfolioID, err)
	}
	defer rows.Close()

	var items []models.ReviewItem
	for rows.Next() {
		item, err := scanReviewItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review queue: %w", err)
	}
	return items, nil
}

// GetByID fetches one review item.
func (s *ReviewStore) GetByID(ctx context.Context, id string) (*models.ReviewItem, error) {
	query := `SELECT id, portfolio_id, email_json, detection_json, status, created_at, resolved_at
		FROM review_queue WHERE id = ?`
	row := s.db.QueryRowContext(ctx, query, id)
	item, err := scanReviewItem(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get review item %s: %w", id, err)
	}
	return item, nil
}

// Resolve marks a pending item approved or dismissed. Returns sql.ErrNoRows
// when the item does not exist or was already resolved.
func (s *ReviewStore) Resolve(ctx context.Context, id string, status models.ReviewStatus) error {
	query := `UPDATE review_queue SET status = ?, resolved_at = ? WHERE id = ? AND status = ?`
	res, err := s.db.ExecContext(ctx, query,
		string(status), time.Now().UTC().Format(time.RFC3339), id, string(models.ReviewPending))
	if err != nil {
		return fmt.Errorf("resolve review item %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("resolve review item %s: %w", id, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scanReviewItem(row rowScanner) (*models.ReviewItem, error) {
	var item models.ReviewItem
	var emailJSON, detectionJSON, status, createdAt string
	var resolvedAt sql.NullString

	if err := row.Scan(&item.ID, &item.PortfolioID, &emailJSON, &detectionJSON, &status, &createdAt, &resolvedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(emailJSON), &item.EmailData); err != nil {
		return nil, fmt.Errorf("unmarshal review email: %w", err)
	}
	if err := json.Unmarshal([]byte(detectionJSON), &item.Detection); err != nil {
		return nil, fmt.Errorf("unmarshal detection result: %w", err)
	}
	item.Status = models.ReviewStatus(status)
	if t, err := parseStoredTime(createdAt); err == nil {
		item.CreatedAt = t
	}
	if resolvedAt.Valid {
		if t, err := parseStoredTime(resolvedAt.String); err == nil {
			item.ResolvedAt = &t
		}
	}
	return &item, nil
}

package storage

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

const testSchema = `
CREATE TABLE email_records (
	id TEXT PRIMARY KEY,
	portfolio_id TEXT NOT NULL,
	order_id TEXT,
	signature TEXT NOT NULL,
	symbol TEXT NOT NULL,
	transaction_type TEXT NOT NULL,
	quantity REAL NOT NULL,
	price REAL NOT NULL,
	total_amount REAL,
	account_type TEXT,
	transaction_date TEXT NOT NULL,
	subject TEXT,
	from_email TEXT,
	raw_content TEXT,
	parse_confidence REAL,
	parse_method TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE review_queue (
	id TEXT PRIMARY KEY,
	portfolio_id TEXT NOT NULL,
	email_json TEXT NOT NULL,
	detection_json TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	resolved_at TIMESTAMP
);

CREATE TABLE transactions (
	id TEXT PRIMARY KEY,
	portfolio_id TEXT NOT NULL,
	email_record_id TEXT,
	symbol TEXT NOT NULL,
	transaction_type TEXT NOT NULL,
	quantity REAL NOT NULL,
	price REAL NOT NULL,
	total_amount REAL,
	account_type TEXT,
	transaction_date TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// newTestDB opens a throwaway sqlite database for one test.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(testSchema)
	require.NoError(t, err)
	return db
}

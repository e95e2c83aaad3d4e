package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/wealthfolio/backend/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	logger.L.Info("Checking database migrations", "databasePath", databasePath)
	migrateEmailRecordsTable()

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS email_records (
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
	CREATE INDEX IF NOT EXISTS idx_email_records_portfolio ON email_records(portfolio_id);
	CREATE INDEX IF NOT EXISTS idx_email_records_signature ON email_records(portfolio_id, signature);

	CREATE TABLE IF NOT EXISTS review_queue (
		id TEXT PRIMARY KEY,
		portfolio_id TEXT NOT NULL,
		email_json TEXT NOT NULL,
		detection_json TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		resolved_at TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_review_queue_portfolio ON review_queue(portfolio_id, status);

	CREATE TABLE IF NOT EXISTS transactions (
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
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(email_record_id) REFERENCES email_records(id)
	);
	CREATE INDEX IF NOT EXISTS idx_transactions_portfolio ON transactions(portfolio_id);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		logger.L.Error("failed to create tables", "error", err)
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	logger.L.Info("Database tables ensured/created.")
}

// migrateEmailRecordsTable backfills columns added after the first release.
func migrateEmailRecordsTable() {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='email_records'").Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			logger.L.Info("'email_records' table does not exist, no migration needed as table will be created.")
			return
		}
		logger.L.Error("Error checking for 'email_records' table", "error", err)
		return
	}

	rows, err := DB.Query("PRAGMA table_info(email_records)")
	if err != nil {
		logger.L.Error("Error querying table schema for 'email_records'", "error", err)
		return
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}

		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			logger.L.Error("Error scanning column info for 'email_records'", "error", err)
			return
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		logger.L.Error("Error iterating over column info for 'email_records'", "error", err)
		return
	}

	if _, ok := columnExists["parse_method"]; !ok {
		_, err := DB.Exec("ALTER TABLE email_records ADD COLUMN parse_method TEXT")
		if err != nil {
			logger.L.Error("Error adding 'parse_method' column to 'email_records' table", "error", err)
		} else {
			logger.L.Info("Added 'parse_method' column to 'email_records' table")
		}
	}
	if _, ok := columnExists["parse_confidence"]; !ok {
		_, err := DB.Exec("ALTER TABLE email_records ADD COLUMN parse_confidence REAL")
		if err != nil {
			logger.L.Error("Error adding 'parse_confidence' column to 'email_records' table", "error", err)
		} else {
			logger.L.Info("Added 'parse_confidence' column to 'email_records' table")
		}
	}
}

package models

import (
	"database/sql"
	"time"
)

// User is an account owner. A user may own several portfolios; portfolio ids
// are opaque strings scoped to the user.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"-"` // bcrypt hash, never serialized
	CreatedAt time.Time `json:"created_at"`
}

// CreateUser inserts a new user into the database.
func (u *User) CreateUser(db *sql.DB) error {
	query := `INSERT INTO users (username, email, password) VALUES (?, ?, ?)`
	res, err := db.Exec(query, u.Username, u.Email, u.Password)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

// GetUserByUsername fetches a user by username.
func GetUserByUsername(db *sql.DB, username string) (*User, error) {
	var u User
	query := `SELECT id, username, email, password, created_at FROM users WHERE username = ?`
	err := db.QueryRow(query, username).Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByID fetches a user by primary key.
func GetUserByID(db *sql.DB, id int64) (*User, error) {
	var u User
	query := `SELECT id, username, email, password, created_at FROM users WHERE id = ?`
	err := db.QueryRow(query, id).Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

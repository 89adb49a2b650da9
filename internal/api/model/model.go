package model

import (
	"database/sql"
	"time"
)

// User mirrors the users table.
type User struct {
	UserID       string    `db:"user_id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Plan         string    `db:"plan"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// AnalysisJob mirrors the analysis_jobs table. Result holds the raw JSON
// payload written by the worker; ErrorMessage is set only on FAILED rows.
type AnalysisJob struct {
	AnalysisID       string         `db:"analysis_id"`
	UserID           string         `db:"user_id"`
	Status           string         `db:"status"`
	AnalysisType     string         `db:"analysis_type"`
	OriginalFilename string         `db:"original_filename"`
	StorageKey       string         `db:"storage_key"`
	Result           []byte         `db:"result"`
	ErrorMessage     sql.NullString `db:"error_message"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

package db

import (
	"database/sql"
	"errors"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	email TEXT PRIMARY KEY,
	password_hash TEXT NOT NULL DEFAULT '',
	token TEXT NOT NULL DEFAULT '',
	first_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT '',
	middle_name TEXT NOT NULL DEFAULT '',
	birth_date TEXT NOT NULL DEFAULT '',
	gender TEXT NOT NULL DEFAULT 'unspecified',
	auth_provider TEXT NOT NULL DEFAULT 'local',
	google_id TEXT NOT NULL DEFAULT '',
	profile_photo_uri TEXT NOT NULL DEFAULT '',
	driver_license_number TEXT NOT NULL DEFAULT '',
	driver_license_issue_date TEXT NOT NULL DEFAULT '',
	driver_license_photo_uri TEXT NOT NULL DEFAULT '',
	passport_photo_uri TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL DEFAULT 0,
	last_login INTEGER NOT NULL DEFAULT 0,
	registration_step INTEGER NOT NULL DEFAULT 0,
	registration_completed INTEGER NOT NULL DEFAULT 0,
	documents_uploaded INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_users_token ON users(token);
CREATE INDEX IF NOT EXISTS idx_users_created_at ON users(created_at);

CREATE TABLE IF NOT EXISTS auth_prefs (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// OpenSQLite abre la base embebida y aplica el esquema.
func OpenSQLite(path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return sqlDB, nil
}

// OpenSQLiteMemory abre una base en memoria para pruebas.
func OpenSQLiteMemory() (*sql.DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// Una sola conexión: cada conexión nueva vería una base vacía.
	sqlDB.SetMaxOpenConns(1)
	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return sqlDB, nil
}

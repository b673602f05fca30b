package repository

import (
	"context"
	"database/sql"
	"errors"
)

// SQLitePrefs persiste el namespace clave-valor de sesión en la base embebida.
// Satisface la interfaz PrefsStore del paquete service.
type SQLitePrefs struct {
	db *sql.DB
}

func NewSQLitePrefs(db *sql.DB) *SQLitePrefs {
	return &SQLitePrefs{db: db}
}

func (p *SQLitePrefs) Put(ctx context.Context, key, value string) error {
	const query = `
		INSERT INTO auth_prefs (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	_, err := p.db.ExecContext(ctx, query, key, value)
	return err
}

func (p *SQLitePrefs) Get(ctx context.Context, key string) (string, error) {
	const query = `SELECT value FROM auth_prefs WHERE key = ?`
	var value string
	err := p.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return value, err
}

func (p *SQLitePrefs) Remove(ctx context.Context, key string) error {
	const query = `DELETE FROM auth_prefs WHERE key = ?`
	_, err := p.db.ExecContext(ctx, query, key)
	return err
}

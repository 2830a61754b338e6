// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists non-secret UI state between runs: last visited
// view, last login email, theme choice. It refuses anything that smells
// like a credential; cookies and tokens live only in the process-lifetime
// cookie jar, never on disk.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Well-known state keys.
const (
	KeyLastView  = "last_view"
	KeyLastEmail = "last_email"
	KeyTheme     = "theme"
)

// ErrForbiddenKey is returned for keys that look like credential
// material.
var ErrForbiddenKey = errors.New("key is not allowed in persistent state")

// forbiddenFragments are substrings that mark a key as credential-shaped.
var forbiddenFragments = []string{
	"token", "password", "secret", "cookie", "bearer", "credential",
}

// StateStore is a small key-value store over SQLite.
type StateStore struct {
	db *sql.DB
}

// Open opens (creating if necessary) the state database at path.
func Open(path string) (*StateStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	schema := `
	CREATE TABLE IF NOT EXISTS ui_state (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &StateStore{db: db}, nil
}

// Close closes the underlying database.
func (s *StateStore) Close() error {
	return s.db.Close()
}

// Get returns the value for key, or "" when absent.
func (s *StateStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM ui_state WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read state: %w", err)
	}
	return value, nil
}

// Set stores value under key. Credential-shaped keys are rejected.
func (s *StateStore) Set(ctx context.Context, key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ui_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	return nil
}

// Delete removes key. Removing an absent key is not an error.
func (s *StateStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM ui_state WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}
	return nil
}

// Keys returns all stored keys, sorted.
func (s *StateStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key FROM ui_state ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("failed to list state keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func checkKey(key string) error {
	lower := strings.ToLower(key)
	for _, frag := range forbiddenFragments {
		if strings.Contains(lower, frag) {
			return fmt.Errorf("%w: %q", ErrForbiddenKey, key)
		}
	}
	return nil
}

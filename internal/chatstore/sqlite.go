package chatstore

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/iksnae/databricks-chatbot/internal"
	_ "modernc.org/sqlite"
)

const createChatsTable = `
CREATE TABLE IF NOT EXISTS chats (
	chat_id TEXT PRIMARY KEY,
	payload TEXT NOT NULL,
	updated_at TEXT
)`

// SQLiteStore keeps every session as one JSON payload row
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLiteStore opens (or creates) the chat database at path
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, &StorageError{Path: path, Op: "mkdir", Err: err}
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps :memory: databases shared
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	if _, err := db.Exec(createChatsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create chats table: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

func (s *SQLiteStore) rowPath(chatID string) string {
	return "sqlite:" + chatID
}

// Save upserts the session inside a transaction
func (s *SQLiteStore) Save(session *ChatSession) error {
	if session == nil {
		return errors.New("nil session")
	}
	if err := ValidateID(session.ChatID); err != nil {
		return err
	}
	data, err := encodeSession(session)
	if err != nil {
		return fmt.Errorf("failed to marshal chat %s: %w", session.ChatID, err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return &StorageError{Path: s.path, Op: "write", Err: err}
	}
	_, err = tx.Exec(
		`INSERT INTO chats (chat_id, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(chat_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		session.ChatID, string(data), session.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		tx.Rollback()
		return &StorageError{Path: s.path, Op: "write", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &StorageError{Path: s.path, Op: "write", Err: err}
	}
	return nil
}

// Load reads a session by chat_id
func (s *SQLiteStore) Load(chatID string) (*ChatSession, error) {
	if err := ValidateID(chatID); err != nil {
		return nil, err
	}
	var payload string
	err := s.db.QueryRow("SELECT payload FROM chats WHERE chat_id = ?", chatID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(chatID)
	}
	if err != nil {
		return nil, &StorageError{Path: s.path, Op: "query", Err: err}
	}
	session, _, err := decodeSession([]byte(payload))
	if err != nil {
		return nil, &MalformedDataError{Path: s.rowPath(chatID), Err: err}
	}
	return session, nil
}

type payloadRow struct {
	chatID  string
	payload string
}

func (s *SQLiteStore) rows() ([]payloadRow, error) {
	rows, err := s.db.Query("SELECT chat_id, payload FROM chats")
	if err != nil {
		return nil, &StorageError{Path: s.path, Op: "query", Err: err}
	}
	defer rows.Close()

	var out []payloadRow
	for rows.Next() {
		var r payloadRow
		if err := rows.Scan(&r.chatID, &r.payload); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return out, nil
}

// List returns summaries newest first, skipping unparseable rows
func (s *SQLiteStore) List() (*Listing, error) {
	rows, err := s.rows()
	if err != nil {
		return nil, err
	}
	listing := &Listing{Sessions: make([]Summary, 0, len(rows))}
	for _, r := range rows {
		session, _, err := decodeSession([]byte(r.payload))
		if err != nil {
			internal.LogWarn("Skipping malformed chat row %s: %v", r.chatID, err)
			listing.Skipped = append(listing.Skipped, SkippedFile{Path: s.rowPath(r.chatID), Reason: err.Error()})
			continue
		}
		listing.Sessions = append(listing.Sessions, session.Summary())
	}
	sortSummaries(listing.Sessions)
	return listing, nil
}

// Delete removes one row. A missing chat yields ErrNotFound.
func (s *SQLiteStore) Delete(chatID string) error {
	if err := ValidateID(chatID); err != nil {
		return err
	}
	res, err := s.db.Exec("DELETE FROM chats WHERE chat_id = ?", chatID)
	if err != nil {
		return &StorageError{Path: s.path, Op: "delete", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &StorageError{Path: s.path, Op: "delete", Err: err}
	}
	if n == 0 {
		return notFound(chatID)
	}
	return nil
}

// DeleteAll clears the table
func (s *SQLiteStore) DeleteAll() (int, error) {
	res, err := s.db.Exec("DELETE FROM chats")
	if err != nil {
		return 0, &StorageError{Path: s.path, Op: "delete", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &StorageError{Path: s.path, Op: "delete", Err: err}
	}
	return int(n), nil
}

// MigrateLegacyFormat rewrites legacy payloads with the same key rename the
// file store uses
func (s *SQLiteStore) MigrateLegacyFormat() (*MigrationReport, error) {
	rows, err := s.rows()
	if err != nil {
		return nil, err
	}

	report := &MigrationReport{}
	tx, err := s.db.Begin()
	if err != nil {
		return nil, &StorageError{Path: s.path, Op: "write", Err: err}
	}
	for _, r := range rows {
		out, changed, err := migrateRecord([]byte(r.payload))
		if err != nil {
			internal.LogWarn("Skipping malformed chat row %s: %v", r.chatID, err)
			report.Skipped = append(report.Skipped, SkippedFile{Path: s.rowPath(r.chatID), Reason: err.Error()})
			continue
		}
		if !changed {
			report.Current = append(report.Current, r.chatID)
			continue
		}
		if _, err := tx.Exec("UPDATE chats SET payload = ? WHERE chat_id = ?", string(out), r.chatID); err != nil {
			tx.Rollback()
			return nil, &StorageError{Path: s.path, Op: "write", Err: err}
		}
		report.Migrated = append(report.Migrated, r.chatID)
	}
	if err := tx.Commit(); err != nil {
		return nil, &StorageError{Path: s.path, Op: "write", Err: err}
	}
	return report, nil
}

// Close releases the database handle
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}


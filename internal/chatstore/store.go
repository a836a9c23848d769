// Package chatstore persists chat sessions and migrates legacy chat files.
package chatstore

import (
	"fmt"
	"sort"

	"github.com/iksnae/databricks-chatbot/internal/config"
)

// Store persists chat sessions keyed by chat_id
type Store interface {
	Save(session *ChatSession) error
	Load(chatID string) (*ChatSession, error)
	List() (*Listing, error)
	Delete(chatID string) error
	DeleteAll() (int, error)
	MigrateLegacyFormat() (*MigrationReport, error)
	Close() error
}

// Listing is the result of Store.List
type Listing struct {
	Sessions []Summary
	Skipped  []SkippedFile
}

// MigrationReport describes one migration pass
type MigrationReport struct {
	Migrated []string // rewritten from id/name keys
	Renamed  []string // moved off the chat_ filename prefix
	Current  []string // already in the current schema
	Skipped  []SkippedFile
}

// Changed reports whether the pass touched anything
func (r *MigrationReport) Changed() bool {
	return len(r.Migrated) > 0 || len(r.Renamed) > 0
}

// Open returns the backend selected by cfg
func Open(cfg *config.Config) (Store, error) {
	switch cfg.Store {
	case config.StoreFile, "":
		return NewFileStore(cfg.ChatDir)
	case config.StoreSQLite:
		return OpenSQLiteStore(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported chat store %q", cfg.Store)
	}
}

// sortSummaries orders most recently updated first
func sortSummaries(s []Summary) {
	sort.SliceStable(s, func(i, j int) bool {
		if !s[i].UpdatedAt.Equal(s[j].UpdatedAt) {
			return s[i].UpdatedAt.After(s[j].UpdatedAt)
		}
		return s[i].ChatID < s[j].ChatID
	})
}

package chatstore

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/iksnae/databricks-chatbot/internal/config"
	"github.com/iksnae/databricks-chatbot/testutil"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// insertRaw stores a payload verbatim, bypassing the encoder
func (s *SQLiteStore) insertRaw(t *testing.T, chatID, payload string) {
	t.Helper()
	if _, err := s.db.Exec("INSERT OR REPLACE INTO chats (chat_id, payload) VALUES (?, ?)", chatID, payload); err != nil {
		t.Fatalf("insert %s: %v", chatID, err)
	}
}

func TestSQLiteStore_SaveLoad(t *testing.T) {
	store := newTestSQLiteStore(t)
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	s := NewSession("sqlite chat", now)
	s.AppendMessage(RoleUser, "hello", now)

	if err := store.Save(s); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	s.AppendMessage(RoleAssistant, "hi there", now.Add(time.Second))
	if err := store.Save(s); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	got, err := store.Load(s.ChatID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.ChatName != "sqlite chat" || len(got.Messages) != 2 {
		t.Errorf("Load() = %+v", got)
	}
	if !got.UpdatedAt.Equal(now.Add(time.Second)) {
		t.Errorf("UpdatedAt = %v", got.UpdatedAt)
	}
}

func TestSQLiteStore_NotFound(t *testing.T) {
	store := newTestSQLiteStore(t)
	if _, err := store.Load("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
	if err := store.Delete("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStore_ListAndDelete(t *testing.T) {
	store := newTestSQLiteStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		s := NewSession("", base.Add(time.Duration(i)*time.Hour))
		if err := store.Save(s); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, s.ChatID)
	}
	store.insertRaw(t, "broken", "{nope")

	listing, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(listing.Sessions) != 3 {
		t.Fatalf("len(Sessions) = %d, want 3", len(listing.Sessions))
	}
	if listing.Sessions[0].ChatID != ids[2] || listing.Sessions[2].ChatID != ids[0] {
		t.Errorf("List() not newest first: %+v", listing.Sessions)
	}
	if len(listing.Skipped) != 1 || listing.Skipped[0].Path != "sqlite:broken" {
		t.Errorf("Skipped = %+v", listing.Skipped)
	}

	if err := store.Delete(ids[1]); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	n, err := store.DeleteAll()
	if err != nil {
		t.Fatalf("DeleteAll() error = %v", err)
	}
	if n != 3 {
		t.Errorf("DeleteAll() = %d, want 3", n)
	}
}

func TestSQLiteStore_MigrateLegacyFormat(t *testing.T) {
	store := newTestSQLiteStore(t)
	store.insertRaw(t, "abc123", string(testutil.LoadFixture(t, "legacy_abc123.json")))
	store.insertRaw(t, "cur", `{"chat_id":"cur","chat_name":"current","messages":[]}`)

	report, err := store.MigrateLegacyFormat()
	if err != nil {
		t.Fatalf("MigrateLegacyFormat() error = %v", err)
	}
	if len(report.Migrated) != 1 || report.Migrated[0] != "abc123" {
		t.Errorf("Migrated = %v", report.Migrated)
	}

	s, err := store.Load("abc123")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.ChatName != "Test" || len(s.Messages) != 2 {
		t.Errorf("Load() = %+v", s)
	}

	second, err := store.MigrateLegacyFormat()
	if err != nil {
		t.Fatal(err)
	}
	if second.Changed() || len(second.Current) != 2 {
		t.Errorf("second pass = %+v, want no changes", second)
	}
}

func TestOpen(t *testing.T) {
	dir := testutil.CreateTempDir(t)

	tests := []struct {
		name    string
		cfg     config.Config
		want    string
		wantErr bool
	}{
		{name: "file", cfg: config.Config{Store: config.StoreFile, ChatDir: dir}, want: "*chatstore.FileStore"},
		{name: "default", cfg: config.Config{ChatDir: dir}, want: "*chatstore.FileStore"},
		{name: "sqlite", cfg: config.Config{Store: config.StoreSQLite, SQLitePath: filepath.Join(dir, "db", "chats.db")}, want: "*chatstore.SQLiteStore"},
		{name: "unknown", cfg: config.Config{Store: "redis"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Open(&tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			defer store.Close()
			var got string
			switch store.(type) {
			case *FileStore:
				got = "*chatstore.FileStore"
			case *SQLiteStore:
				got = "*chatstore.SQLiteStore"
			}
			if got != tt.want {
				t.Errorf("Open() = %s, want %s", got, tt.want)
			}
		})
	}
}

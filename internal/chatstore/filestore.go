package chatstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/iksnae/databricks-chatbot/internal"
)

const (
	fileExt = ".json"
	// retired filename prefix, stripped by the migration
	legacyPrefix = "chat_"
)

// FileStore keeps one <chat_id>.json file per session
type FileStore struct {
	dir string
}

// NewFileStore creates the chat directory if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &StorageError{Path: dir, Op: "mkdir", Err: err}
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the chat directory
func (fs *FileStore) Dir() string {
	return fs.dir
}

// PathFor returns the file a chat_id is stored under
func (fs *FileStore) PathFor(chatID string) string {
	return filepath.Join(fs.dir, chatID+fileExt)
}

// Save atomically replaces the session file. The session counts as saved
// only when Save returns nil.
func (fs *FileStore) Save(session *ChatSession) error {
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
	return writeFileAtomic(fs.PathFor(session.ChatID), data)
}

// Load reads a session by chat_id
func (fs *FileStore) Load(chatID string) (*ChatSession, error) {
	if err := ValidateID(chatID); err != nil {
		return nil, err
	}
	path := fs.PathFor(chatID)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, notFound(chatID)
		}
		return nil, &StorageError{Path: path, Op: "read", Err: err}
	}
	session, _, err := decodeSession(data)
	if err != nil {
		return nil, &MalformedDataError{Path: path, Err: err}
	}
	return session, nil
}

// List returns summaries newest first. Unreadable files are skipped and
// reported in the listing.
func (fs *FileStore) List() (*Listing, error) {
	paths, err := fs.chatFiles()
	if err != nil {
		return nil, err
	}

	listing := &Listing{Sessions: make([]Summary, 0, len(paths))}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			internal.LogWarn("Skipping unreadable chat file %s: %v", path, err)
			listing.Skipped = append(listing.Skipped, SkippedFile{Path: path, Reason: err.Error()})
			continue
		}
		session, _, err := decodeSession(data)
		if err != nil {
			internal.LogWarn("Skipping malformed chat file %s: %v", path, err)
			listing.Skipped = append(listing.Skipped, SkippedFile{Path: path, Reason: err.Error()})
			continue
		}
		if reason := misnamed(path, session.ChatID); reason != "" {
			internal.LogWarn("Skipping chat file %s: %s", path, reason)
			listing.Skipped = append(listing.Skipped, SkippedFile{Path: path, Reason: reason})
			continue
		}
		listing.Sessions = append(listing.Sessions, session.Summary())
	}

	sortSummaries(listing.Sessions)
	return listing, nil
}

// misnamed explains why a file is unreachable through its chat_id, or
// returns "" when it is stored as <chat_id>.json
func misnamed(path, chatID string) string {
	base := filepath.Base(path)
	if base == chatID+fileExt {
		return ""
	}
	if strings.HasPrefix(base, legacyPrefix) {
		return fmt.Sprintf("legacy file name, run 'databricks-chatbot migrate' to move it to %s%s", chatID, fileExt)
	}
	return fmt.Sprintf("file name does not match chat_id %q (expected %s%s)", chatID, chatID, fileExt)
}

// Delete removes a session file. A missing chat yields ErrNotFound.
func (fs *FileStore) Delete(chatID string) error {
	if err := ValidateID(chatID); err != nil {
		return err
	}
	path := fs.PathFor(chatID)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return notFound(chatID)
		}
		return &StorageError{Path: path, Op: "delete", Err: err}
	}
	return nil
}

// DeleteAll clears the chat history and returns how many files were removed
func (fs *FileStore) DeleteAll() (int, error) {
	paths, err := fs.chatFiles()
	if err != nil {
		return 0, err
	}
	return removeFiles(paths)
}

// removeFiles deletes paths and counts only the files it actually removed.
// Files that vanished in the meantime are not counted.
func removeFiles(paths []string) (int, error) {
	removed := 0
	for _, path := range paths {
		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, &StorageError{Path: path, Op: "delete", Err: err}
		}
		removed++
	}
	return removed, nil
}

// MigrateLegacyFormat rewrites id/name files to chat_id/chat_name and moves
// chat_<id>.json files to <id>.json. Running it again changes nothing.
func (fs *FileStore) MigrateLegacyFormat() (*MigrationReport, error) {
	paths, err := fs.chatFiles()
	if err != nil {
		return nil, err
	}

	report := &MigrationReport{}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			report.Skipped = append(report.Skipped, SkippedFile{Path: path, Reason: err.Error()})
			internal.LogWarn("Skipping unreadable chat file %s: %v", path, err)
			continue
		}

		out, changed, err := migrateRecord(data)
		if err != nil {
			report.Skipped = append(report.Skipped, SkippedFile{Path: path, Reason: err.Error()})
			internal.LogWarn("Skipping malformed chat file %s: %v", path, err)
			continue
		}
		session, _, err := decodeSession(out)
		if err != nil {
			report.Skipped = append(report.Skipped, SkippedFile{Path: path, Reason: err.Error()})
			continue
		}

		target := path
		if filepath.Base(path) == legacyPrefix+session.ChatID+fileExt {
			target = fs.PathFor(session.ChatID)
		}
		if target != path {
			if _, err := os.Stat(target); err == nil {
				reason := fmt.Sprintf("target %s already exists", filepath.Base(target))
				report.Skipped = append(report.Skipped, SkippedFile{Path: path, Reason: reason})
				internal.LogWarn("Not migrating %s: %s", path, reason)
				continue
			}
		}

		if changed {
			if err := writeFileAtomic(target, out); err != nil {
				return report, err
			}
			report.Migrated = append(report.Migrated, session.ChatID)
			internal.LogDebug("Migrated legacy chat file %s", path)
		} else if target != path {
			if err := os.Rename(path, target); err != nil {
				return report, &StorageError{Path: path, Op: "rename", Err: err}
			}
		} else {
			report.Current = append(report.Current, session.ChatID)
		}

		if target != path {
			if changed {
				if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
					return report, &StorageError{Path: path, Op: "delete", Err: err}
				}
			}
			report.Renamed = append(report.Renamed, session.ChatID)
		}
	}
	return report, nil
}

// Close is a no-op for files
func (fs *FileStore) Close() error {
	return nil
}

// chatFiles lists *.json files in the chat directory, skipping temp files
func (fs *FileStore) chatFiles() ([]string, error) {
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &StorageError{Path: fs.dir, Op: "read", Err: err}
	}
	var paths []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileExt) || strings.HasPrefix(name, ".") {
			continue
		}
		paths = append(paths, filepath.Join(fs.dir, name))
	}
	return paths, nil
}

// writeFileAtomic writes data next to path and renames it into place
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return &StorageError{Path: path, Op: "write", Err: err}
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return &StorageError{Path: path, Op: "write", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return &StorageError{Path: path, Op: "sync", Err: err}
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return &StorageError{Path: path, Op: "write", Err: err}
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		cleanup()
		return &StorageError{Path: path, Op: "chmod", Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return &StorageError{Path: path, Op: "rename", Err: err}
	}
	return nil
}

package identifiers

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aristath/insights/internal/clientdata"
	"github.com/aristath/insights/internal/domain"
	"github.com/vmihailenco/msgpack/v5"
)

// Record is the persisted form of a snapshot: {timestamp, mapping}
type Record struct {
	Timestamp time.Time                       `json:"timestamp" msgpack:"timestamp"`
	Mapping   map[string]domain.RegistryEntry `json:"mapping" msgpack:"mapping"`
}

// Store persists the most recent snapshot.
// Load returns nil, nil when nothing has been persisted yet.
type Store interface {
	Load() (*Record, error)
	Save(rec *Record) error
}

// FileStore keeps the snapshot in a single msgpack file, replaced atomically on save
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed snapshot store
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the snapshot file location
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the snapshot file
func (s *FileStore) Load() (*Record, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var rec Record
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot file %s: %w", s.path, err)
	}
	if rec.Timestamp.IsZero() {
		return nil, fmt.Errorf("snapshot file %s has no timestamp", s.path)
	}
	return &rec, nil
}

// Save writes the record to a temp file in the same directory and renames it over the old one,
// so a crash mid-write never leaves a truncated snapshot behind.
func (s *FileStore) Save(rec *Record) error {
	data, err := msgpack.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	_ = os.Chmod(tmpPath, 0644)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	// Best effort: persist the rename itself
	_ = syncDir(dir)
	return nil
}

func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}

const registrySnapshotKey = "company_tickers"

// ClientDataStore keeps the snapshot as a JSON blob in client_data.db
type ClientDataStore struct {
	repo *clientdata.Repository
}

// NewClientDataStore creates a client_data.db backed snapshot store
func NewClientDataStore(repo *clientdata.Repository) *ClientDataStore {
	return &ClientDataStore{repo: repo}
}

// Load returns the stored snapshot regardless of its row expiry; freshness is judged by the cache.
func (s *ClientDataStore) Load() (*Record, error) {
	data, err := s.repo.Get(clientdata.TableRegistrySnapshot, registrySnapshotKey)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode stored snapshot: %w", err)
	}
	if rec.Timestamp.IsZero() {
		return nil, fmt.Errorf("stored snapshot has no timestamp")
	}
	return &rec, nil
}

// Save upserts the snapshot row
func (s *ClientDataStore) Save(rec *Record) error {
	return s.repo.Store(clientdata.TableRegistrySnapshot, registrySnapshotKey, rec, clientdata.TTLRegistrySnapshot)
}

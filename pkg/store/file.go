package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iamoneai/laneflow/pkg/docio"
	flowerrors "github.com/iamoneai/laneflow/pkg/errors"
	"github.com/iamoneai/laneflow/pkg/observability"
)

// FileStore is a file-based document store for CLI use. Documents are
// stored as JSON files in a config directory; each document's
// snapshots live in a sibling directory named after the document id.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file-based store rooted at baseDir. An empty
// baseDir defaults to ~/.config/laneflow/documents/.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, flowerrors.Wrap(flowerrors.ErrCodeStore, err, "get home dir")
		}
		baseDir = filepath.Join(home, ".config", "laneflow", "documents")
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, flowerrors.Wrap(flowerrors.ErrCodeStore, err, "create document dir")
	}
	return &FileStore{baseDir: baseDir}, nil
}

var _ Store = (*FileStore)(nil)

func (s *FileStore) documentPath(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

func (s *FileStore) snapshotDir(docID string) string {
	return filepath.Join(s.baseDir, docID+".snapshots")
}

// Path returns the base directory for document files.
func (s *FileStore) Path() string { return s.baseDir }

func (s *FileStore) Save(ctx context.Context, id string, env *docio.Envelope) error {
	if err := flowerrors.ValidateElementID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return flowerrors.Wrap(flowerrors.ErrCodeStore, err, "marshal document")
	}
	if err := os.WriteFile(s.documentPath(id), data, 0600); err != nil {
		return flowerrors.Wrap(flowerrors.ErrCodeStore, err, "write document file")
	}
	observability.Store().OnSave(ctx, "file", id)
	return nil
}

func (s *FileStore) Load(ctx context.Context, id string) (*docio.Envelope, error) {
	if err := flowerrors.ValidateElementID(id); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.documentPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, flowerrors.New(flowerrors.ErrCodeDocumentNotFound, "document not found: %s", id)
		}
		return nil, flowerrors.Wrap(flowerrors.ErrCodeStore, err, "read document file")
	}

	var env docio.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, flowerrors.Wrap(flowerrors.ErrCodeStore, err, "parse document file")
	}
	observability.Store().OnLoad(ctx, "file", id)
	return &env, nil
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	if err := flowerrors.ValidateElementID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.documentPath(id)); err != nil && !os.IsNotExist(err) {
		return flowerrors.Wrap(flowerrors.ErrCodeStore, err, "remove document file")
	}
	if err := os.RemoveAll(s.snapshotDir(id)); err != nil {
		return flowerrors.Wrap(flowerrors.ErrCodeStore, err, "remove snapshot dir")
	}
	return nil
}

func (s *FileStore) List(_ context.Context) ([]DocumentInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, flowerrors.Wrap(flowerrors.ErrCodeStore, err, "read document dir")
	}

	var infos []DocumentInfo
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(s.baseDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var env docio.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		info, _ := entry.Info()
		updated := time.Time{}
		if info != nil {
			updated = info.ModTime()
		}
		infos = append(infos, DocumentInfo{
			ID:        strings.TrimSuffix(entry.Name(), ".json"),
			Name:      env.Name,
			UpdatedAt: updated,
		})
	}
	slices.SortFunc(infos, func(a, b DocumentInfo) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return infos, nil
}

func (s *FileStore) SaveSnapshot(ctx context.Context, docID, name string, env *docio.Envelope) (string, error) {
	if err := flowerrors.ValidateElementID(docID); err != nil {
		return "", err
	}
	if err := flowerrors.ValidateSnapshotName(name); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.snapshotDir(docID)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", flowerrors.Wrap(flowerrors.ErrCodeStore, err, "create snapshot dir")
	}

	rec := &snapshotRecord{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now(),
		Envelope:  env,
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", flowerrors.Wrap(flowerrors.ErrCodeStore, err, "marshal snapshot")
	}
	if err := os.WriteFile(filepath.Join(dir, rec.ID+".json"), data, 0600); err != nil {
		return "", flowerrors.Wrap(flowerrors.ErrCodeStore, err, "write snapshot file")
	}
	observability.Store().OnSnapshot(ctx, "file", docID, "save")
	return rec.ID, nil
}

func (s *FileStore) ListSnapshots(_ context.Context, docID string) ([]Snapshot, error) {
	if err := flowerrors.ValidateElementID(docID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.snapshotDir(docID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, flowerrors.Wrap(flowerrors.ErrCodeStore, err, "read snapshot dir")
	}

	var infos []Snapshot
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		rec, err := s.readSnapshot(docID, strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		infos = append(infos, rec.info())
	}
	slices.SortFunc(infos, func(a, b Snapshot) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return infos, nil
}

func (s *FileStore) RestoreSnapshot(ctx context.Context, docID, snapshotID string) (*docio.Envelope, error) {
	if err := flowerrors.ValidateElementID(docID); err != nil {
		return nil, err
	}
	if err := flowerrors.ValidateElementID(snapshotID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, err := s.readSnapshot(docID, snapshotID)
	if err != nil {
		return nil, err
	}
	observability.Store().OnSnapshot(ctx, "file", docID, "restore")
	return rec.Envelope, nil
}

func (s *FileStore) DeleteSnapshot(_ context.Context, docID, snapshotID string) error {
	if err := flowerrors.ValidateElementID(docID); err != nil {
		return err
	}
	if err := flowerrors.ValidateElementID(snapshotID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.snapshotDir(docID), snapshotID+".json")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return flowerrors.Wrap(flowerrors.ErrCodeStore, err, "remove snapshot file")
	}
	return nil
}

func (s *FileStore) readSnapshot(docID, snapshotID string) (*snapshotRecord, error) {
	data, err := os.ReadFile(filepath.Join(s.snapshotDir(docID), snapshotID+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, flowerrors.New(flowerrors.ErrCodeSnapshotNotFound, "snapshot not found: %s", snapshotID)
		}
		return nil, flowerrors.Wrap(flowerrors.ErrCodeStore, err, "read snapshot file")
	}
	var rec snapshotRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, flowerrors.Wrap(flowerrors.ErrCodeStore, err, "parse snapshot file")
	}
	return &rec, nil
}

func (s *FileStore) Close() error { return nil }

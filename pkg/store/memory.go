package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iamoneai/laneflow/pkg/docio"
	flowerrors "github.com/iamoneai/laneflow/pkg/errors"
	"github.com/iamoneai/laneflow/pkg/observability"
)

// MemoryStore is an in-process Store for development and tests.
type MemoryStore struct {
	mu        sync.RWMutex
	docs      map[string]*memoryDoc
	snapshots map[string][]*snapshotRecord // docID -> records, oldest first
}

type memoryDoc struct {
	env       *docio.Envelope
	updatedAt time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:      make(map[string]*memoryDoc),
		snapshots: make(map[string][]*snapshotRecord),
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Save(ctx context.Context, id string, env *docio.Envelope) error {
	if err := flowerrors.ValidateElementID(id); err != nil {
		return err
	}
	s.mu.Lock()
	s.docs[id] = &memoryDoc{env: env, updatedAt: time.Now()}
	s.mu.Unlock()
	observability.Store().OnSave(ctx, "memory", id)
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, id string) (*docio.Envelope, error) {
	s.mu.RLock()
	doc, ok := s.docs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, flowerrors.New(flowerrors.ErrCodeDocumentNotFound, "document not found: %s", id)
	}
	observability.Store().OnLoad(ctx, "memory", id)
	return doc.env, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.docs, id)
	delete(s.snapshots, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]DocumentInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]DocumentInfo, 0, len(s.docs))
	for id, doc := range s.docs {
		infos = append(infos, DocumentInfo{ID: id, Name: doc.env.Name, UpdatedAt: doc.updatedAt})
	}
	slices.SortFunc(infos, func(a, b DocumentInfo) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return infos, nil
}

func (s *MemoryStore) SaveSnapshot(ctx context.Context, docID, name string, env *docio.Envelope) (string, error) {
	if err := flowerrors.ValidateSnapshotName(name); err != nil {
		return "", err
	}
	rec := &snapshotRecord{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now(),
		Envelope:  env,
	}
	s.mu.Lock()
	s.snapshots[docID] = append(s.snapshots[docID], rec)
	s.mu.Unlock()
	observability.Store().OnSnapshot(ctx, "memory", docID, "save")
	return rec.ID, nil
}

func (s *MemoryStore) ListSnapshots(_ context.Context, docID string) ([]Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.snapshots[docID]
	infos := make([]Snapshot, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		infos = append(infos, records[i].info())
	}
	return infos, nil
}

func (s *MemoryStore) RestoreSnapshot(ctx context.Context, docID, snapshotID string) (*docio.Envelope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.snapshots[docID] {
		if rec.ID == snapshotID {
			observability.Store().OnSnapshot(ctx, "memory", docID, "restore")
			return rec.Envelope, nil
		}
	}
	return nil, flowerrors.New(flowerrors.ErrCodeSnapshotNotFound, "snapshot not found: %s", snapshotID)
}

func (s *MemoryStore) DeleteSnapshot(_ context.Context, docID, snapshotID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.snapshots[docID]
	for i, rec := range records {
		if rec.ID == snapshotID {
			s.snapshots[docID] = append(records[:i], records[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// Package store persists documents and named snapshots.
//
// This package defines the storage interface plus implementations for
// different backends:
//   - memory: in-process storage for development and tests
//   - file: JSON files in a config directory, for the CLI
//   - redis: Redis-backed storage for server deployments
//   - mongo: MongoDB-backed storage for server deployments
//
// Documents are stored as their export envelope, so every backend
// persists exactly the shape the import/export format defines and the
// document model never depends on the storage technology.
//
// A snapshot is an immutable named copy of a document taken at save
// time. Restoring a snapshot returns its envelope; the caller decides
// whether to overwrite the live document with it.
package store

import (
	"context"
	"time"

	"github.com/iamoneai/laneflow/pkg/docio"
)

// DocumentInfo summarizes one stored document for listings.
type DocumentInfo struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Snapshot summarizes one stored snapshot for listings.
type Snapshot struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Store is the interface for document storage backends.
type Store interface {
	// Save stores or replaces the document under the given id.
	Save(ctx context.Context, id string, env *docio.Envelope) error

	// Load retrieves a stored document. Returns a DOCUMENT_NOT_FOUND
	// error when the id is unknown.
	Load(ctx context.Context, id string) (*docio.Envelope, error)

	// Delete removes a document and all of its snapshots. Deleting an
	// unknown id is not an error.
	Delete(ctx context.Context, id string) error

	// List returns all stored documents, most recently updated first.
	List(ctx context.Context) ([]DocumentInfo, error)

	// SaveSnapshot stores a named copy of a document and returns the
	// generated snapshot id.
	SaveSnapshot(ctx context.Context, docID, name string, env *docio.Envelope) (string, error)

	// ListSnapshots returns a document's snapshots, newest first.
	ListSnapshots(ctx context.Context, docID string) ([]Snapshot, error)

	// RestoreSnapshot retrieves a snapshot's envelope. Returns a
	// SNAPSHOT_NOT_FOUND error when the snapshot is unknown.
	RestoreSnapshot(ctx context.Context, docID, snapshotID string) (*docio.Envelope, error)

	// DeleteSnapshot removes one snapshot. Deleting an unknown
	// snapshot is not an error.
	DeleteSnapshot(ctx context.Context, docID, snapshotID string) error

	// Close releases backend resources.
	Close() error
}

// Pinger is implemented by networked backends that can report
// connectivity for health checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// snapshotRecord is the stored form of a snapshot: listing metadata
// plus the document copy.
type snapshotRecord struct {
	ID        string          `json:"id" bson:"_id"`
	Name      string          `json:"name" bson:"name"`
	CreatedAt time.Time       `json:"createdAt" bson:"createdAt"`
	Envelope  *docio.Envelope `json:"envelope" bson:"envelope"`
}

func (r *snapshotRecord) info() Snapshot {
	return Snapshot{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt}
}

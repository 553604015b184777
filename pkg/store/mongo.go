package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/iamoneai/laneflow/pkg/docio"
	flowerrors "github.com/iamoneai/laneflow/pkg/errors"
	"github.com/iamoneai/laneflow/pkg/observability"
)

// MongoConfig configures the MongoDB-backed store.
type MongoConfig struct {
	URI      string
	Database string
}

// MongoStore persists documents in MongoDB: one collection for live
// documents and one for snapshots, both keyed by id with the snapshot
// collection carrying a docId field for per-document queries.
type MongoStore struct {
	client    *mongo.Client
	docs      *mongo.Collection
	snapshots *mongo.Collection
}

const defaultMongoDatabase = "laneflow"

// NewMongoStore connects to MongoDB and verifies connectivity.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, flowerrors.Wrap(flowerrors.ErrCodeStore, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, flowerrors.Wrap(flowerrors.ErrCodeStore, err, "ping mongodb")
	}

	database := cfg.Database
	if database == "" {
		database = defaultMongoDatabase
	}
	db := client.Database(database)
	return &MongoStore{
		client:    client,
		docs:      db.Collection("documents"),
		snapshots: db.Collection("snapshots"),
	}, nil
}

var (
	_ Store  = (*MongoStore)(nil)
	_ Pinger = (*MongoStore)(nil)
)

type mongoDoc struct {
	ID        string          `bson:"_id"`
	Name      string          `bson:"name"`
	UpdatedAt time.Time       `bson:"updatedAt"`
	Envelope  *docio.Envelope `bson:"envelope"`
}

type mongoSnapshot struct {
	ID        string          `bson:"_id"`
	DocID     string          `bson:"docId"`
	Name      string          `bson:"name"`
	CreatedAt time.Time       `bson:"createdAt"`
	Envelope  *docio.Envelope `bson:"envelope"`
}

// Ping reports MongoDB connectivity for health checks.
func (s *MongoStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return flowerrors.Wrap(flowerrors.ErrCodeStore, err, "mongodb ping")
	}
	return nil
}

func (s *MongoStore) Save(ctx context.Context, id string, env *docio.Envelope) error {
	if err := flowerrors.ValidateElementID(id); err != nil {
		return err
	}
	record := mongoDoc{ID: id, Name: env.Name, UpdatedAt: time.Now(), Envelope: env}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.docs.ReplaceOne(ctx, bson.M{"_id": id}, record, opts); err != nil {
		return flowerrors.Wrap(flowerrors.ErrCodeStore, err, "save document %s", id)
	}
	observability.Store().OnSave(ctx, "mongo", id)
	return nil
}

func (s *MongoStore) Load(ctx context.Context, id string) (*docio.Envelope, error) {
	var record mongoDoc
	err := s.docs.FindOne(ctx, bson.M{"_id": id}).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, flowerrors.New(flowerrors.ErrCodeDocumentNotFound, "document not found: %s", id)
	}
	if err != nil {
		return nil, flowerrors.Wrap(flowerrors.ErrCodeStore, err, "load document %s", id)
	}
	observability.Store().OnLoad(ctx, "mongo", id)
	return record.Envelope, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if _, err := s.docs.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return flowerrors.Wrap(flowerrors.ErrCodeStore, err, "delete document %s", id)
	}
	if _, err := s.snapshots.DeleteMany(ctx, bson.M{"docId": id}); err != nil {
		return flowerrors.Wrap(flowerrors.ErrCodeStore, err, "delete snapshots for %s", id)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]DocumentInfo, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: -1}}).
		SetProjection(bson.M{"envelope": 0})
	cursor, err := s.docs.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, flowerrors.Wrap(flowerrors.ErrCodeStore, err, "list documents")
	}
	defer cursor.Close(ctx)

	var infos []DocumentInfo
	for cursor.Next(ctx) {
		var record mongoDoc
		if err := cursor.Decode(&record); err != nil {
			return nil, flowerrors.Wrap(flowerrors.ErrCodeStore, err, "decode document listing")
		}
		infos = append(infos, DocumentInfo{ID: record.ID, Name: record.Name, UpdatedAt: record.UpdatedAt})
	}
	if err := cursor.Err(); err != nil {
		return nil, flowerrors.Wrap(flowerrors.ErrCodeStore, err, "list documents")
	}
	return infos, nil
}

func (s *MongoStore) SaveSnapshot(ctx context.Context, docID, name string, env *docio.Envelope) (string, error) {
	if err := flowerrors.ValidateSnapshotName(name); err != nil {
		return "", err
	}
	record := mongoSnapshot{
		ID:        uuid.NewString(),
		DocID:     docID,
		Name:      name,
		CreatedAt: time.Now(),
		Envelope:  env,
	}
	if _, err := s.snapshots.InsertOne(ctx, record); err != nil {
		return "", flowerrors.Wrap(flowerrors.ErrCodeStore, err, "save snapshot for %s", docID)
	}
	observability.Store().OnSnapshot(ctx, "mongo", docID, "save")
	return record.ID, nil
}

func (s *MongoStore) ListSnapshots(ctx context.Context, docID string) ([]Snapshot, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetProjection(bson.M{"envelope": 0})
	cursor, err := s.snapshots.Find(ctx, bson.M{"docId": docID}, opts)
	if err != nil {
		return nil, flowerrors.Wrap(flowerrors.ErrCodeStore, err, "list snapshots for %s", docID)
	}
	defer cursor.Close(ctx)

	var infos []Snapshot
	for cursor.Next(ctx) {
		var record mongoSnapshot
		if err := cursor.Decode(&record); err != nil {
			return nil, flowerrors.Wrap(flowerrors.ErrCodeStore, err, "decode snapshot listing")
		}
		infos = append(infos, Snapshot{ID: record.ID, Name: record.Name, CreatedAt: record.CreatedAt})
	}
	if err := cursor.Err(); err != nil {
		return nil, flowerrors.Wrap(flowerrors.ErrCodeStore, err, "list snapshots for %s", docID)
	}
	return infos, nil
}

func (s *MongoStore) RestoreSnapshot(ctx context.Context, docID, snapshotID string) (*docio.Envelope, error) {
	var record mongoSnapshot
	err := s.snapshots.FindOne(ctx, bson.M{"_id": snapshotID, "docId": docID}).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, flowerrors.New(flowerrors.ErrCodeSnapshotNotFound, "snapshot not found: %s", snapshotID)
	}
	if err != nil {
		return nil, flowerrors.Wrap(flowerrors.ErrCodeStore, err, "restore snapshot %s", snapshotID)
	}
	observability.Store().OnSnapshot(ctx, "mongo", docID, "restore")
	return record.Envelope, nil
}

func (s *MongoStore) DeleteSnapshot(ctx context.Context, docID, snapshotID string) error {
	if _, err := s.snapshots.DeleteOne(ctx, bson.M{"_id": snapshotID, "docId": docID}); err != nil {
		return flowerrors.Wrap(flowerrors.ErrCodeStore, err, "delete snapshot %s", snapshotID)
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

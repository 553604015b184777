package store

import (
	"context"
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/iamoneai/laneflow/pkg/docio"
	flowerrors "github.com/iamoneai/laneflow/pkg/errors"
	"github.com/iamoneai/laneflow/pkg/observability"
)

// RedisConfig configures the Redis-backed store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// KeyPrefix namespaces all keys, defaulting to "laneflow".
	KeyPrefix string
}

// RedisStore persists documents in Redis. Documents live under
// "<prefix>:doc:<id>" with a registry set at "<prefix>:docs";
// snapshots live in a hash per document keyed by snapshot id.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies connectivity.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, flowerrors.Wrap(flowerrors.ErrCodeStore, err, "connect to redis at %s", cfg.Addr)
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "laneflow"
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

var (
	_ Store  = (*RedisStore)(nil)
	_ Pinger = (*RedisStore)(nil)
)

// redisDoc wraps the envelope with the listing metadata Redis cannot
// derive on its own.
type redisDoc struct {
	Name      string          `json:"name"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Envelope  *docio.Envelope `json:"envelope"`
}

func (s *RedisStore) docKey(id string) string  { return s.prefix + ":doc:" + id }
func (s *RedisStore) snapKey(id string) string { return s.prefix + ":doc:" + id + ":snaps" }
func (s *RedisStore) registryKey() string      { return s.prefix + ":docs" }

// Ping reports Redis connectivity for health checks.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return flowerrors.Wrap(flowerrors.ErrCodeStore, err, "redis ping")
	}
	return nil
}

func (s *RedisStore) Save(ctx context.Context, id string, env *docio.Envelope) error {
	if err := flowerrors.ValidateElementID(id); err != nil {
		return err
	}
	data, err := json.Marshal(redisDoc{Name: env.Name, UpdatedAt: time.Now(), Envelope: env})
	if err != nil {
		return flowerrors.Wrap(flowerrors.ErrCodeStore, err, "marshal document")
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.docKey(id), data, 0)
	pipe.SAdd(ctx, s.registryKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return flowerrors.Wrap(flowerrors.ErrCodeStore, err, "save document %s", id)
	}
	observability.Store().OnSave(ctx, "redis", id)
	return nil
}

func (s *RedisStore) Load(ctx context.Context, id string) (*docio.Envelope, error) {
	data, err := s.client.Get(ctx, s.docKey(id)).Bytes()
	if err == redis.Nil {
		return nil, flowerrors.New(flowerrors.ErrCodeDocumentNotFound, "document not found: %s", id)
	}
	if err != nil {
		return nil, flowerrors.Wrap(flowerrors.ErrCodeStore, err, "load document %s", id)
	}

	var doc redisDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, flowerrors.Wrap(flowerrors.ErrCodeStore, err, "parse document %s", id)
	}
	observability.Store().OnLoad(ctx, "redis", id)
	return doc.Envelope, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.docKey(id), s.snapKey(id))
	pipe.SRem(ctx, s.registryKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return flowerrors.Wrap(flowerrors.ErrCodeStore, err, "delete document %s", id)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]DocumentInfo, error) {
	ids, err := s.client.SMembers(ctx, s.registryKey()).Result()
	if err != nil {
		return nil, flowerrors.Wrap(flowerrors.ErrCodeStore, err, "list documents")
	}

	var infos []DocumentInfo
	for _, id := range ids {
		data, err := s.client.Get(ctx, s.docKey(id)).Bytes()
		if err == redis.Nil {
			// Registry entry without a document key; drop it lazily.
			s.client.SRem(ctx, s.registryKey(), id)
			continue
		}
		if err != nil {
			return nil, flowerrors.Wrap(flowerrors.ErrCodeStore, err, "list documents")
		}
		var doc redisDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			continue
		}
		infos = append(infos, DocumentInfo{ID: id, Name: doc.Name, UpdatedAt: doc.UpdatedAt})
	}
	slices.SortFunc(infos, func(a, b DocumentInfo) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return infos, nil
}

func (s *RedisStore) SaveSnapshot(ctx context.Context, docID, name string, env *docio.Envelope) (string, error) {
	if err := flowerrors.ValidateSnapshotName(name); err != nil {
		return "", err
	}
	rec := &snapshotRecord{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now(),
		Envelope:  env,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return "", flowerrors.Wrap(flowerrors.ErrCodeStore, err, "marshal snapshot")
	}
	if err := s.client.HSet(ctx, s.snapKey(docID), rec.ID, data).Err(); err != nil {
		return "", flowerrors.Wrap(flowerrors.ErrCodeStore, err, "save snapshot for %s", docID)
	}
	observability.Store().OnSnapshot(ctx, "redis", docID, "save")
	return rec.ID, nil
}

func (s *RedisStore) ListSnapshots(ctx context.Context, docID string) ([]Snapshot, error) {
	fields, err := s.client.HGetAll(ctx, s.snapKey(docID)).Result()
	if err != nil {
		return nil, flowerrors.Wrap(flowerrors.ErrCodeStore, err, "list snapshots for %s", docID)
	}

	var infos []Snapshot
	for _, raw := range fields {
		var rec snapshotRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			continue
		}
		infos = append(infos, rec.info())
	}
	slices.SortFunc(infos, func(a, b Snapshot) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return infos, nil
}

func (s *RedisStore) RestoreSnapshot(ctx context.Context, docID, snapshotID string) (*docio.Envelope, error) {
	raw, err := s.client.HGet(ctx, s.snapKey(docID), snapshotID).Result()
	if err == redis.Nil {
		return nil, flowerrors.New(flowerrors.ErrCodeSnapshotNotFound, "snapshot not found: %s", snapshotID)
	}
	if err != nil {
		return nil, flowerrors.Wrap(flowerrors.ErrCodeStore, err, "restore snapshot %s", snapshotID)
	}

	var rec snapshotRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, flowerrors.Wrap(flowerrors.ErrCodeStore, err, "parse snapshot %s", snapshotID)
	}
	observability.Store().OnSnapshot(ctx, "redis", docID, "restore")
	return rec.Envelope, nil
}

func (s *RedisStore) DeleteSnapshot(ctx context.Context, docID, snapshotID string) error {
	if err := s.client.HDel(ctx, s.snapKey(docID), snapshotID).Err(); err != nil {
		return flowerrors.Wrap(flowerrors.ErrCodeStore, err, "delete snapshot %s", snapshotID)
	}
	return nil
}

func (s *RedisStore) Close() error { return s.client.Close() }

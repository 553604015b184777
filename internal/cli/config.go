package cli

import (
	"context"
	"os"
	"strconv"

	"github.com/iamoneai/laneflow/pkg/engine"
	"github.com/iamoneai/laneflow/pkg/engine/invoke"
	flowerrors "github.com/iamoneai/laneflow/pkg/errors"
	"github.com/iamoneai/laneflow/pkg/store"
	"github.com/iamoneai/laneflow/pkg/template"
)

// Environment variables. Flags override these where both exist.
const (
	envInvokerURL = "LANEFLOW_INVOKER_URL"
	envInvokerKey = "LANEFLOW_INVOKER_API_KEY"

	envStoreBackend = "LANEFLOW_STORE"      // memory | file | redis | mongo
	envStorePath    = "LANEFLOW_STORE_PATH" // file backend base dir

	envRedisAddr     = "LANEFLOW_REDIS_ADDR"
	envRedisPassword = "LANEFLOW_REDIS_PASSWORD"
	envRedisDB       = "LANEFLOW_REDIS_DB"

	envMongoURI      = "LANEFLOW_MONGO_URI"
	envMongoDatabase = "LANEFLOW_MONGO_DB"

	envServeAddr = "LANEFLOW_ADDR"
)

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// openStore builds the document store selected by LANEFLOW_STORE,
// defaulting to the file backend under ~/.config/laneflow/documents/.
func openStore(ctx context.Context) (store.Store, error) {
	switch backend := getenv(envStoreBackend, "file"); backend {
	case "memory":
		return store.NewMemoryStore(), nil
	case "file":
		return store.NewFileStore(os.Getenv(envStorePath))
	case "redis":
		db, _ := strconv.Atoi(getenv(envRedisDB, "0"))
		return store.NewRedisStore(ctx, store.RedisConfig{
			Addr:     getenv(envRedisAddr, "localhost:6379"),
			Password: os.Getenv(envRedisPassword),
			DB:       db,
		})
	case "mongo":
		return store.NewMongoStore(ctx, store.MongoConfig{
			URI:      getenv(envMongoURI, "mongodb://localhost:27017"),
			Database: os.Getenv(envMongoDatabase),
		})
	default:
		return nil, flowerrors.New(flowerrors.ErrCodeInvalidInput, "unknown store backend %q", backend)
	}
}

// newInvoker builds the node invoker for a run. Simulated mode works
// without configuration; live mode requires LANEFLOW_INVOKER_URL.
func newInvoker(mode engine.Mode, catalog *template.Registry) (engine.NodeInvoker, error) {
	if mode == engine.ModeLive {
		url := os.Getenv(envInvokerURL)
		if url == "" {
			return nil, flowerrors.New(flowerrors.ErrCodeInvalidInput,
				"live mode requires %s to be set", envInvokerURL)
		}
		return &invoke.Remote{BaseURL: url, APIKey: os.Getenv(envInvokerKey)}, nil
	}
	return &invoke.Simulated{Ports: catalog}, nil
}

// loadCatalog returns the builtin template catalog, extended by a TOML
// catalog file when one is given.
func loadCatalog(path string) (*template.Registry, error) {
	catalog := template.Builtin()
	if path != "" {
		if err := template.LoadFile(catalog, path); err != nil {
			return nil, err
		}
	}
	return catalog, nil
}

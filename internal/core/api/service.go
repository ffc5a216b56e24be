// Package api provides the gRPC introspection service: publish the current
// leaf index of a root type and extract pushed samples against it.
package api

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/solatis/datastreamer/internal/core/config"
	"github.com/solatis/datastreamer/internal/core/db"
	"github.com/solatis/datastreamer/internal/dynamic"
	"github.com/solatis/datastreamer/internal/introspect"
	"github.com/solatis/datastreamer/internal/types"
)

// IntrospectionService implements IntrospectionServer.
// Thin orchestration layer delegating to the engine and the catalog.
type IntrospectionService struct {
	typ     *dynamic.Type
	engine  *introspect.Engine
	catalog *db.Catalog // nil disables persistence
	cfg     *config.ServerConfig
	logger  *slog.Logger
	now     func() time.Time

	schemaMu  sync.Mutex
	schemaIDs map[uint64]types.SchemaID // engine generation -> catalog schema

	jsonlMutexes map[string]*sync.Mutex
	mutexLock    sync.Mutex
}

// NewIntrospectionService creates service instance with dependencies.
// catalog may be nil. Auto-creates the samples directory if not exists.
func NewIntrospectionService(typ *dynamic.Type, engine *introspect.Engine, catalog *db.Catalog, cfg *config.ServerConfig, logger *slog.Logger) (*IntrospectionService, error) {
	if typ == nil {
		return nil, fmt.Errorf("typ cannot be nil")
	}
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	samplesDir := filepath.Join(cfg.DataDir, "samples")
	if err := os.MkdirAll(samplesDir, 0755); err != nil {
		return nil, err
	}

	return &IntrospectionService{
		typ:          typ,
		engine:       engine,
		catalog:      catalog,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
		schemaIDs:    make(map[uint64]types.SchemaID),
		jsonlMutexes: make(map[string]*sync.Mutex),
	}, nil
}

// getJSONLMutex returns mutex for given filename, creating if not exists.
// Per-file mutex protects concurrent appends to the same daily JSONL file.
func (s *IntrospectionService) getJSONLMutex(filename string) *sync.Mutex {
	s.mutexLock.Lock()
	defer s.mutexLock.Unlock()

	if _, ok := s.jsonlMutexes[filename]; !ok {
		s.jsonlMutexes[filename] = &sync.Mutex{}
	}
	return s.jsonlMutexes[filename]
}

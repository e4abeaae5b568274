package ingest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/glassdesk/glassdesk/internal/core"
	"github.com/glassdesk/glassdesk/internal/logging"
	"github.com/glassdesk/glassdesk/internal/providers"
)

// Indexer receives records after they are persisted, for semantic
// search. Indexing is best-effort: failures are logged, never fatal.
type Indexer interface {
	IndexRecord(ctx context.Context, userID string, rec *core.NormalizedRecord) error
}

// Syncer pulls raw payloads from registered connectors and runs them
// through the ingest pipeline.
type Syncer struct {
	service *Service
	indexer Indexer // optional
	logger  *logging.Logger

	mu         sync.RWMutex
	connectors map[string]providers.Connector
}

// NewSyncer creates a syncer over the ingest service
func NewSyncer(service *Service, indexer Indexer) *Syncer {
	return &Syncer{
		service:    service,
		indexer:    indexer,
		connectors: make(map[string]providers.Connector),
		logger:     logging.WithField("component", "sync"),
	}
}

// Register adds or replaces the connector for a provider
func (s *Syncer) Register(conn providers.Connector) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connectors[conn.Name()] = conn
}

// Providers lists registered provider names, sorted
func (s *Syncer) Providers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.connectors))
	for name := range s.connectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SyncProvider fetches from one provider and ingests the result
func (s *Syncer) SyncProvider(ctx context.Context, userID, provider string, limit int) (*providers.SyncResult, error) {
	s.mu.RLock()
	conn, ok := s.connectors[provider]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownProvider, provider)
	}

	start := time.Now()
	raws, err := conn.Fetch(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch from %s: %w", provider, err)
	}

	result, err := s.service.IngestBatch(userID, conn.Source(), raws)
	if err != nil {
		return nil, err
	}

	if s.indexer != nil {
		s.indexBatch(ctx, userID, conn.Source())
	}

	s.logger.Info("synced %s for user %s: %d fetched, %d ingested, %d skipped",
		provider, userID, len(raws), result.Ingested, result.Skipped)

	return &providers.SyncResult{
		Provider: provider,
		Fetched:  len(raws),
		Ingested: result.Ingested,
		Skipped:  result.Skipped,
		Duration: time.Since(start),
		SyncedAt: time.Now().UTC(),
	}, nil
}

// SyncAll runs every registered connector in sequence. Per-provider
// failures are logged and the rest continue.
func (s *Syncer) SyncAll(ctx context.Context, userID string, limit int) []*providers.SyncResult {
	results := make([]*providers.SyncResult, 0, len(s.connectors))
	for _, provider := range s.Providers() {
		res, err := s.SyncProvider(ctx, userID, provider, limit)
		if err != nil {
			s.logger.Error("sync %s failed: %v", provider, err)
			continue
		}
		results = append(results, res)
	}
	return results
}

// indexBatch re-reads the provider's records and pushes them to the
// semantic index
func (s *Syncer) indexBatch(ctx context.Context, userID string, source core.Source) {
	records, err := s.service.records.ListBySource(userID, source, 0)
	if err != nil {
		s.logger.Warn("index batch: list records: %v", err)
		return
	}
	for _, rec := range records {
		if err := s.indexer.IndexRecord(ctx, userID, rec); err != nil {
			s.logger.Warn("index record %s: %v", rec.ID, err)
			continue
		}
	}
}

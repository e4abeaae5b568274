package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glassdesk/glassdesk/internal/core"
	"github.com/glassdesk/glassdesk/internal/providers"
)

type failingConnector struct{}

func (failingConnector) Name() string        { return "broken" }
func (failingConnector) Source() core.Source { return core.SourceEmail }
func (failingConnector) Fetch(context.Context, int) ([][]byte, error) {
	return nil, errors.New("network down")
}

type recordingIndexer struct {
	indexed []core.RecordID

	// failOn makes IndexRecord error for one record ID
	failOn core.RecordID
}

func (r *recordingIndexer) IndexRecord(_ context.Context, _ string, rec *core.NormalizedRecord) error {
	if r.failOn != "" && rec.ID == r.failOn {
		return errors.New("index down")
	}
	r.indexed = append(r.indexed, rec.ID)
	return nil
}

func TestSyncer_SyncProvider(t *testing.T) {
	store := testStore(t)
	syncer := NewSyncer(NewService(store, NewClassifier(DefaultClassifierConfig())), nil)

	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	syncer.Register(providers.MockGmailConnector(day))

	result, err := syncer.SyncProvider(context.Background(), "user-1", providers.ProviderGoogle, 0)
	if err != nil {
		t.Fatalf("SyncProvider() error = %v", err)
	}
	if result.Fetched != 3 || result.Ingested != 3 || result.Skipped != 0 {
		t.Errorf("result = %+v", result)
	}

	count, err := store.Count("user-1")
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 3 {
		t.Errorf("stored %d records, want 3", count)
	}
}

func TestSyncer_SyncProvider_Unknown(t *testing.T) {
	store := testStore(t)
	syncer := NewSyncer(NewService(store, NewClassifier(DefaultClassifierConfig())), nil)

	_, err := syncer.SyncProvider(context.Background(), "user-1", "slack", 0)
	if !errors.Is(err, core.ErrUnknownProvider) {
		t.Errorf("error = %v, want ErrUnknownProvider", err)
	}
}

func TestSyncer_SyncAll_SkipsFailedProvider(t *testing.T) {
	store := testStore(t)
	syncer := NewSyncer(NewService(store, NewClassifier(DefaultClassifierConfig())), nil)

	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	syncer.Register(providers.MockAsanaConnector(day))
	syncer.Register(failingConnector{})

	results := syncer.SyncAll(context.Background(), "user-1", 0)
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1 (failed provider skipped)", len(results))
	}
	if results[0].Provider != providers.ProviderAsana {
		t.Errorf("surviving provider = %s", results[0].Provider)
	}
}

func TestSyncer_IndexesAfterIngest(t *testing.T) {
	store := testStore(t)
	indexer := &recordingIndexer{}
	syncer := NewSyncer(NewService(store, NewClassifier(DefaultClassifierConfig())), indexer)

	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	syncer.Register(providers.MockZoomConnector(day))

	if _, err := syncer.SyncProvider(context.Background(), "user-1", providers.ProviderZoom, 0); err != nil {
		t.Fatalf("SyncProvider() error = %v", err)
	}
	if len(indexer.indexed) != 2 {
		t.Errorf("indexed %d records, want 2", len(indexer.indexed))
	}
}

func TestSyncer_IndexFailureSkipsRecordOnly(t *testing.T) {
	store := testStore(t)
	indexer := &recordingIndexer{failOn: "meeting-roadmap"}
	syncer := NewSyncer(NewService(store, NewClassifier(DefaultClassifierConfig())), indexer)

	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	syncer.Register(providers.MockZoomConnector(day))

	result, err := syncer.SyncProvider(context.Background(), "user-1", providers.ProviderZoom, 0)
	if err != nil {
		t.Fatalf("SyncProvider() error = %v", err)
	}
	if result.Ingested != 2 {
		t.Errorf("Ingested = %d, want 2", result.Ingested)
	}
	if len(indexer.indexed) != 1 {
		t.Fatalf("indexed %d records, want the one that didn't fail", len(indexer.indexed))
	}
	if indexer.indexed[0] == "meeting-roadmap" {
		t.Errorf("indexed the failing record instead of skipping it")
	}
}

func TestSyncer_Providers(t *testing.T) {
	syncer := NewSyncer(NewService(testStore(t), NewClassifier(DefaultClassifierConfig())), nil)

	day := time.Now()
	for _, conn := range providers.MockConnectors(day) {
		syncer.Register(conn)
	}

	names := syncer.Providers()
	want := []string{"asana", "google", "zoom"}
	if len(names) != len(want) {
		t.Fatalf("Providers() = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Providers()[%d] = %s, want %s", i, names[i], want[i])
		}
	}
}

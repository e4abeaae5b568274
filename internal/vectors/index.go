package vectors

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/glassdesk/glassdesk/internal/core"
)

// Embedder turns text into a vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// pointNamespace makes point IDs deterministic per (user, source, record)
var pointNamespace = uuid.MustParse("7f1c3c1e-9a44-4c7e-8b21-5d0f42c9a3de")

// RecordIndex indexes normalized records for semantic retrieval
type RecordIndex struct {
	store    *Store
	embedder Embedder
}

// NewRecordIndex creates a record index
func NewRecordIndex(store *Store, embedder Embedder) *RecordIndex {
	return &RecordIndex{store: store, embedder: embedder}
}

// IndexRecord embeds and upserts one record. Re-indexing the same
// record overwrites its point.
func (idx *RecordIndex) IndexRecord(ctx context.Context, userID string, rec *core.NormalizedRecord) error {
	vector, err := idx.embedder.Embed(ctx, indexText(rec))
	if err != nil {
		return fmt.Errorf("embed record %s: %w", rec.ID, err)
	}

	point := Point{
		ID:     pointID(userID, rec),
		Vector: vector,
		Payload: map[string]any{
			"user_id":   userID,
			"source":    string(rec.Source),
			"record_id": string(rec.ID),
		},
	}

	return idx.store.Upsert(ctx, []Point{point})
}

// Search embeds the question and returns the IDs of the closest
// records belonging to the user
func (idx *RecordIndex) Search(ctx context.Context, userID, question string, limit int) ([]core.RecordID, error) {
	vector, err := idx.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	hits, err := idx.store.Search(ctx, vector, uint64(limit), map[string]string{"user_id": userID})
	if err != nil {
		return nil, err
	}

	ids := make([]core.RecordID, 0, len(hits))
	for _, hit := range hits {
		if recordID, ok := hit.Payload["record_id"].(string); ok && recordID != "" {
			ids = append(ids, core.RecordID(recordID))
		}
	}
	return ids, nil
}

// pointID derives a stable UUID for a record's point
func pointID(userID string, rec *core.NormalizedRecord) string {
	key := userID + "/" + string(rec.Source) + "/" + string(rec.ID)
	return uuid.NewSHA1(pointNamespace, []byte(key)).String()
}

// indexText builds the text that represents a record in the index
func indexText(rec *core.NormalizedRecord) string {
	parts := []string{rec.Title, rec.Body}
	if len(rec.ActionItems) > 0 {
		parts = append(parts, strings.Join(rec.ActionItems, "\n"))
	}
	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}

package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/glassdesk/glassdesk/internal/core"
)

// SummaryStore caches precomputed daily summaries. Summaries are
// derived data: a cache miss just means recomputing from records, so
// rows here can always be dropped.
type SummaryStore struct {
	db *DB
}

// NewSummaryStore creates a summary store
func NewSummaryStore(db *DB) *SummaryStore {
	return &SummaryStore{db: db}
}

// dayKey is the UTC calendar day a summary covers
func dayKey(date time.Time) string {
	return date.UTC().Format("2006-01-02")
}

// Put stores or replaces the cached summary for a day
func (s *SummaryStore) Put(userID string, summary *core.DailySummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	day := dayKey(summary.Date)
	now := time.Now().UTC()

	result, err := s.db.conn.Exec(`
		UPDATE summaries SET payload = ?, created_at = ?
		WHERE user_id = ? AND day = ?`,
		string(payload), now, userID, day,
	)
	if err != nil {
		return fmt.Errorf("update summary: %w", err)
	}
	if n, _ := result.RowsAffected(); n > 0 {
		return nil
	}

	_, err = s.db.conn.Exec(`
		INSERT INTO summaries (id, user_id, day, payload, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), userID, day, string(payload), now,
	)
	if err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}
	return nil
}

// Get returns the cached summary for a day, or (nil, nil) on a miss
func (s *SummaryStore) Get(userID string, date time.Time) (*core.DailySummary, error) {
	var payload string
	err := s.db.conn.QueryRow(`
		SELECT payload FROM summaries WHERE user_id = ? AND day = ?`,
		userID, dayKey(date),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get summary: %w", err)
	}

	var summary core.DailySummary
	if err := json.Unmarshal([]byte(payload), &summary); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}
	return &summary, nil
}

// Delete drops the cached summary for a day. Used when new records
// land on an already-summarized day.
func (s *SummaryStore) Delete(userID string, date time.Time) error {
	_, err := s.db.conn.Exec(`
		DELETE FROM summaries WHERE user_id = ? AND day = ?`,
		userID, dayKey(date),
	)
	if err != nil {
		return fmt.Errorf("delete summary: %w", err)
	}
	return nil
}

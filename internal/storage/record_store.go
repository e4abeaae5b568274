// Package storage provides persistence for GlassDesk.
package storage

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/glassdesk/glassdesk/internal/core"
)

// RecordStore handles normalized record persistence. Records are scoped
// to a user and keyed by (user, source, provider ID); re-ingesting an
// existing record updates it in place.
type RecordStore struct {
	db *DB
}

// NewRecordStore creates a new record store
func NewRecordStore(db *DB) *RecordStore {
	return &RecordStore{db: db}
}

// Upsert inserts or updates a record for a user. The record's CreatedAt
// is preserved across updates; UpdatedAt always moves forward.
func (s *RecordStore) Upsert(userID string, rec *core.NormalizedRecord) error {
	now := time.Now().UTC()

	participants, _ := json.Marshal(rec.Participants)
	actionItems, _ := json.Marshal(rec.ActionItems)
	tags, _ := json.Marshal(rec.Tags)

	var existingID string
	var createdAt time.Time
	err := s.db.conn.QueryRow(`
		SELECT id, created_at FROM records
		WHERE user_id = ? AND source = ? AND external_id = ?
	`, userID, rec.Source, rec.ID).Scan(&existingID, &createdAt)

	if err == sql.ErrNoRows {
		rec.CreatedAt = now
		rec.UpdatedAt = now
		_, err = s.db.conn.Exec(`
			INSERT INTO records (
			    id, user_id, source, external_id, record_timestamp,
			    title, body, participants, status, priority,
			    action_items, tags, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			uuid.New().String(), userID, rec.Source, rec.ID, rec.Timestamp,
			rec.Title, rec.Body, string(participants), rec.Status, rec.Priority,
			string(actionItems), string(tags), rec.CreatedAt, rec.UpdatedAt,
		)
		return err
	}
	if err != nil {
		return err
	}

	rec.CreatedAt = createdAt
	rec.UpdatedAt = now
	_, err = s.db.conn.Exec(`
		UPDATE records SET
		    record_timestamp = ?, title = ?, body = ?, participants = ?,
		    status = ?, priority = ?, action_items = ?, tags = ?,
		    updated_at = ?
		WHERE id = ?
	`,
		rec.Timestamp, rec.Title, rec.Body, string(participants),
		rec.Status, rec.Priority, string(actionItems), string(tags),
		rec.UpdatedAt, existingID,
	)
	return err
}

// GetByID returns a user's record by its provider ID. Provider IDs are
// only unique per source; when the same ID exists under two sources
// this resolves in source order, so callers that know the source
// should use GetBySourceID.
func (s *RecordStore) GetByID(userID string, id core.RecordID) (*core.NormalizedRecord, error) {
	row := s.db.conn.QueryRow(`
		SELECT source, external_id, record_timestamp, title, body,
		       participants, status, priority, action_items, tags,
		       created_at, updated_at
		FROM records WHERE user_id = ? AND external_id = ?
		ORDER BY source LIMIT 1
	`, userID, id)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, core.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetBySourceID returns a user's record by its full natural key
func (s *RecordStore) GetBySourceID(userID string, source core.Source, id core.RecordID) (*core.NormalizedRecord, error) {
	row := s.db.conn.QueryRow(`
		SELECT source, external_id, record_timestamp, title, body,
		       participants, status, priority, action_items, tags,
		       created_at, updated_at
		FROM records WHERE user_id = ? AND source = ? AND external_id = ?
	`, userID, source, id)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, core.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetAllForUser returns all records for a user, timestamp-ascending
func (s *RecordStore) GetAllForUser(userID string) ([]*core.NormalizedRecord, error) {
	rows, err := s.db.conn.Query(`
		SELECT source, external_id, record_timestamp, title, body,
		       participants, status, priority, action_items, tags,
		       created_at, updated_at
		FROM records
		WHERE user_id = ?
		ORDER BY record_timestamp ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return s.scanRecords(rows)
}

// ListBySource returns a user's records from one source, newest first
func (s *RecordStore) ListBySource(userID string, source core.Source, limit int) ([]*core.NormalizedRecord, error) {
	rows, err := s.db.conn.Query(`
		SELECT source, external_id, record_timestamp, title, body,
		       participants, status, priority, action_items, tags,
		       created_at, updated_at
		FROM records
		WHERE user_id = ? AND source = ?
		ORDER BY record_timestamp DESC
		LIMIT ?
	`, userID, source, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return s.scanRecords(rows)
}

// ListSince returns a user's records with timestamps in [since, until),
// timestamp-ascending. Used by the daily aggregator for day windows.
func (s *RecordStore) ListSince(userID string, since, until time.Time) ([]*core.NormalizedRecord, error) {
	rows, err := s.db.conn.Query(`
		SELECT source, external_id, record_timestamp, title, body,
		       participants, status, priority, action_items, tags,
		       created_at, updated_at
		FROM records
		WHERE user_id = ? AND record_timestamp >= ? AND record_timestamp < ?
		ORDER BY record_timestamp ASC
	`, userID, since.UTC(), until.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return s.scanRecords(rows)
}

// ListByPriority returns a user's records with the given priority,
// newest first
func (s *RecordStore) ListByPriority(userID string, priority core.Priority, limit int) ([]*core.NormalizedRecord, error) {
	rows, err := s.db.conn.Query(`
		SELECT source, external_id, record_timestamp, title, body,
		       participants, status, priority, action_items, tags,
		       created_at, updated_at
		FROM records
		WHERE user_id = ? AND priority = ?
		ORDER BY record_timestamp DESC
		LIMIT ?
	`, userID, priority, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return s.scanRecords(rows)
}

// Count returns a user's total record count
func (s *RecordStore) Count(userID string) (int, error) {
	var count int
	err := s.db.conn.QueryRow(
		"SELECT COUNT(*) FROM records WHERE user_id = ?", userID,
	).Scan(&count)
	return count, err
}

// CountBySource returns a user's record counts grouped by source
func (s *RecordStore) CountBySource(userID string) (map[core.Source]int, error) {
	rows, err := s.db.conn.Query(`
		SELECT source, COUNT(*) FROM records
		WHERE user_id = ?
		GROUP BY source
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[core.Source]int)
	for rows.Next() {
		var source core.Source
		var n int
		if err := rows.Scan(&source, &n); err != nil {
			return nil, err
		}
		counts[source] = n
	}

	return counts, rows.Err()
}

// Delete removes a user's record by provider ID
func (s *RecordStore) Delete(userID string, id core.RecordID) error {
	res, err := s.db.conn.Exec(
		"DELETE FROM records WHERE user_id = ? AND external_id = ?", userID, id,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrRecordNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*core.NormalizedRecord, error) {
	rec := &core.NormalizedRecord{}
	var participants, actionItems, tags string

	err := row.Scan(
		&rec.Source, &rec.ID, &rec.Timestamp, &rec.Title, &rec.Body,
		&participants, &rec.Status, &rec.Priority, &actionItems, &tags,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	json.Unmarshal([]byte(participants), &rec.Participants)
	json.Unmarshal([]byte(actionItems), &rec.ActionItems)
	json.Unmarshal([]byte(tags), &rec.Tags)

	rec.Timestamp = rec.Timestamp.UTC()
	return rec, nil
}

func (s *RecordStore) scanRecords(rows *sql.Rows) ([]*core.NormalizedRecord, error) {
	var records []*core.NormalizedRecord

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Package ingest converts raw provider payloads into normalized
// records and assigns them a heuristic priority.
package ingest

import (
	"errors"

	"github.com/glassdesk/glassdesk/internal/core"
	"github.com/glassdesk/glassdesk/internal/logging"
	"github.com/glassdesk/glassdesk/internal/storage"
)

// Result reports the outcome of one batch
type Result struct {
	Ingested int
	Skipped  int
	Errors   []error
}

// Service runs the ingestion pipeline: normalize, classify, persist.
// A record that fails normalization is skipped and the rest of the
// batch continues.
type Service struct {
	normalizer *Normalizer
	classifier *Classifier
	records    *storage.RecordStore
	logger     *logging.Logger
}

// NewService creates an ingest service
func NewService(records *storage.RecordStore, classifier *Classifier) *Service {
	return &Service{
		normalizer: NewNormalizer(),
		classifier: classifier,
		records:    records,
		logger:     logging.WithField("component", "ingest"),
	}
}

// IngestBatch normalizes and persists a batch of raw payloads from one
// source on behalf of a user. Per-record failures are collected, not
// fatal; storage failures abort since later writes would likely fail
// the same way.
func (s *Service) IngestBatch(userID string, source core.Source, raws [][]byte) (*Result, error) {
	result := &Result{}

	for _, raw := range raws {
		rec, err := s.normalizer.Normalize(source, raw)
		if err != nil {
			var nerr *core.NormalizationError
			if errors.As(err, &nerr) {
				s.logger.Warn("skipping record: %v", err)
				result.Skipped++
				result.Errors = append(result.Errors, err)
				continue
			}
			return result, err
		}

		rec.Priority = s.classifier.Classify(rec)

		if rec.Source == core.SourceEmail && s.classifier.IsSpam(rec) {
			rec.Tags = append(rec.Tags, "spam")
			rec.Priority = core.PriorityLow
		}

		if err := s.records.Upsert(userID, rec); err != nil {
			return result, err
		}
		result.Ingested++
	}

	s.logger.Debug("batch done: source=%s ingested=%d skipped=%d",
		source, result.Ingested, result.Skipped)

	return result, nil
}

// IngestOne normalizes, classifies, and persists a single payload
func (s *Service) IngestOne(userID string, source core.Source, raw []byte) (*core.NormalizedRecord, error) {
	rec, err := s.normalizer.Normalize(source, raw)
	if err != nil {
		return nil, err
	}

	rec.Priority = s.classifier.Classify(rec)

	if rec.Source == core.SourceEmail && s.classifier.IsSpam(rec) {
		rec.Tags = append(rec.Tags, "spam")
		rec.Priority = core.PriorityLow
	}

	if err := s.records.Upsert(userID, rec); err != nil {
		return nil, err
	}

	return rec, nil
}

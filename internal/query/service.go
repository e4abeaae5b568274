// Package query implements the question answering pipeline.
package query

import (
	"context"
	"strings"

	"github.com/glassdesk/glassdesk/internal/core"
	"github.com/glassdesk/glassdesk/internal/logging"
	"github.com/glassdesk/glassdesk/internal/storage"
)

// SemanticSearcher finds record IDs by embedding similarity. Optional:
// when configured it refines GENERAL_SUMMARY context selection.
type SemanticSearcher interface {
	Search(ctx context.Context, userID, question string, limit int) ([]core.RecordID, error)
}

// Service wires the pipeline behind a single call:
// classify, retrieve, compose.
type Service struct {
	records    *storage.RecordStore
	classifier *Classifier
	retriever  *Retriever
	composer   *Composer
	semantic   SemanticSearcher
	logger     *logging.Logger
}

// NewService creates a query service. semantic may be nil.
func NewService(records *storage.RecordStore, classifier *Classifier, retriever *Retriever, composer *Composer, semantic SemanticSearcher) *Service {
	return &Service{
		records:    records,
		classifier: classifier,
		retriever:  retriever,
		composer:   composer,
		semantic:   semantic,
		logger:     logging.WithField("component", "query"),
	}
}

// AnswerQuery answers one free-text question over the user's record
// set. It always returns a textual result; LLM failures degrade into
// the fallback response rather than an error. The only error cases
// are invalid input and storage failure.
func (s *Service) AnswerQuery(ctx context.Context, userID, question string) (*core.QueryResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, core.ErrInvalidInput
	}

	records, err := s.records.GetAllForUser(userID)
	if err != nil {
		return nil, err
	}

	category, confidence := s.classifier.Classify(question)
	s.logger.Debug("classified question: category=%s confidence=%.2f", category, confidence)

	contextRecords := s.selectContext(ctx, userID, question, category, records)

	return s.composer.Compose(ctx, question, category, confidence, contextRecords), nil
}

// selectContext picks the context window. GENERAL_SUMMARY questions go
// through semantic search when available; everything else, and any
// semantic failure, uses the rule-based retriever.
func (s *Service) selectContext(ctx context.Context, userID, question string, category core.QueryCategory, records []*core.NormalizedRecord) []*core.NormalizedRecord {
	if category == core.CategoryGeneralSummary && s.semantic != nil {
		ids, err := s.semantic.Search(ctx, userID, question, s.retriever.maxItems)
		if err == nil && len(ids) > 0 {
			byID := make(map[core.RecordID]*core.NormalizedRecord, len(records))
			for _, rec := range records {
				byID[rec.ID] = rec
			}

			var matched []*core.NormalizedRecord
			for _, id := range ids {
				if rec, ok := byID[id]; ok {
					matched = append(matched, rec)
				}
			}
			if len(matched) > 0 {
				return s.retriever.truncate(matched)
			}
		}
		if err != nil {
			s.logger.Warn("semantic search failed, using rule-based retrieval: %v", err)
		}
	}

	return s.retriever.Retrieve(category, records)
}

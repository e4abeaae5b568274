package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/glassdesk/glassdesk/internal/auth"
	"github.com/glassdesk/glassdesk/internal/core"
)

// handleHealth is the liveness probe
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

// handleListRecords lists the user's records, optionally filtered by
// source or priority
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	q := r.URL.Query()

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	var (
		records []*core.NormalizedRecord
		err     error
	)
	switch {
	case q.Get("source") != "":
		source := core.Source(q.Get("source"))
		if !source.Valid() {
			s.respondError(w, http.StatusBadRequest, "unknown source")
			return
		}
		records, err = s.records.ListBySource(userID, source, limit)

	case q.Get("priority") != "":
		priority := core.Priority(q.Get("priority"))
		if !priority.Valid() {
			s.respondError(w, http.StatusBadRequest, "unknown priority")
			return
		}
		records, err = s.records.ListByPriority(userID, priority, limit)

	default:
		records, err = s.records.GetAllForUser(userID)
		if limit > 0 && len(records) > limit {
			records = records[:limit]
		}
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"records": records,
		"count":   len(records),
	})
}

// handleGetRecord returns one record by ID. Provider IDs are unique
// per source, so a ?source= query disambiguates when the same ID
// exists under two sources.
func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	recordID := core.RecordID(chi.URLParam(r, "recordID"))

	var rec *core.NormalizedRecord
	var err error
	if raw := r.URL.Query().Get("source"); raw != "" {
		source := core.Source(raw)
		if !source.Valid() {
			s.respondError(w, http.StatusBadRequest, "unknown source")
			return
		}
		rec, err = s.records.GetBySourceID(userID, source, recordID)
	} else {
		rec, err = s.records.GetByID(userID, recordID)
	}
	if err != nil {
		if errors.Is(err, core.ErrRecordNotFound) {
			s.respondError(w, http.StatusNotFound, err.Error())
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, rec)
}

// handleSyncProvider pulls fresh data from one provider
func (s *Server) handleSyncProvider(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	provider := chi.URLParam(r, "provider")

	result, err := s.syncer.SyncProvider(r.Context(), userID, provider, 0)
	if err != nil {
		if errors.Is(err, core.ErrUnknownProvider) {
			s.respondError(w, http.StatusNotFound, err.Error())
			return
		}
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.Broadcast(EventSyncCompleted, result)
	s.respondJSON(w, http.StatusOK, result)
}

// handleSyncAll pulls from every registered provider
func (s *Server) handleSyncAll(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	results := s.syncer.SyncAll(r.Context(), userID, 0)
	for _, result := range results {
		s.Broadcast(EventSyncCompleted, result)
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"results": results,
	})
}

// handleDailySummary returns the summary for a UTC day (default today).
// Past days are served from the cache when present.
func (s *Server) handleDailySummary(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	date := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}

	if cached, err := s.summaries.Get(userID, date); err == nil && cached != nil {
		s.respondJSON(w, http.StatusOK, cached)
		return
	}

	daySummary, err := s.aggregator.ForDay(userID, date)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, daySummary)
}

// handleInsights returns just today's insight lines
func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	daySummary, err := s.aggregator.ForDay(userID, time.Now().UTC())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"date":     daySummary.Date,
		"insights": daySummary.Insights,
	})
}

// handleQuery answers a natural-language question over the user's
// records. Always returns a textual answer on success paths, including
// LLM failures.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	result, err := s.queries.AnswerQuery(r.Context(), userID, req.Question)
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.Broadcast(EventQueryAnswered, map[string]any{
		"user_id":  userID,
		"category": result.Category,
	})
	s.respondJSON(w, http.StatusOK, result)
}

// handleStats reports record counts plus LLM and scheduler health
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	total, err := s.records.Count(userID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	bySource, err := s.records.CountBySource(userID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	stats := map[string]any{
		"records": map[string]any{
			"total":     total,
			"by_source": bySource,
		},
	}
	if s.llmRouter != nil {
		stats["llm"] = s.llmRouter.GetStats()
	}
	if s.sched != nil {
		stats["scheduler"] = s.sched.GetStats()
	}

	s.respondJSON(w, http.StatusOK, stats)
}

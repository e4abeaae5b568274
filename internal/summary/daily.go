// Package summary builds per-day views of a user's record set.
package summary

import (
	"fmt"
	"sort"
	"time"

	"github.com/glassdesk/glassdesk/internal/core"
	"github.com/glassdesk/glassdesk/internal/storage"
)

// Aggregator computes daily summaries. Summaries are derived views:
// recomputed on demand, never incrementally maintained.
type Aggregator struct {
	records *storage.RecordStore
}

// NewAggregator creates a daily aggregator
func NewAggregator(records *storage.RecordStore) *Aggregator {
	return &Aggregator{records: records}
}

// SummarizeDay computes the summary for one UTC calendar day from an
// in-memory record set. Pure function: same records and date, same
// summary.
func SummarizeDay(records []*core.NormalizedRecord, date time.Time) *core.DailySummary {
	dayStart := date.UTC().Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	summary := &core.DailySummary{
		Date:       dayStart,
		Counts:     make(map[core.Source]int),
		Highlights: []core.RecordID{},
	}

	var candidates []*core.NormalizedRecord
	for _, rec := range records {
		ts := rec.Timestamp.UTC()
		if ts.Before(dayStart) || !ts.Before(dayEnd) {
			continue
		}

		summary.Counts[rec.Source]++

		if rec.Priority == core.PriorityHigh || rec.HasActionItems() {
			candidates = append(candidates, rec)
		}
	}

	// Earliest first, stable across runs. More than the cap qualify:
	// keep the earliest, not the "most important".
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Timestamp.Before(candidates[j].Timestamp)
	})
	if len(candidates) > core.MaxHighlights {
		candidates = candidates[:core.MaxHighlights]
	}
	for _, rec := range candidates {
		summary.Highlights = append(summary.Highlights, rec.ID)
	}

	summary.Insights = buildInsights(summary, candidates)

	return summary
}

// ForDay loads a user's records for the day and summarizes them
func (a *Aggregator) ForDay(userID string, date time.Time) (*core.DailySummary, error) {
	dayStart := date.UTC().Truncate(24 * time.Hour)
	records, err := a.records.ListSince(userID, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}
	return SummarizeDay(records, dayStart), nil
}

// buildInsights derives short observations about the day
func buildInsights(s *core.DailySummary, highlights []*core.NormalizedRecord) []string {
	var insights []string

	if s.Total() == 0 {
		return insights
	}

	high := 0
	actionItems := 0
	for _, rec := range highlights {
		if rec.Priority == core.PriorityHigh {
			high++
		}
		actionItems += len(rec.ActionItems)
	}

	if high == 1 {
		insights = append(insights, "1 high priority item needs attention")
	} else if high > 1 {
		insights = append(insights, fmt.Sprintf("%d high priority items need attention", high))
	}
	if actionItems > 0 {
		insights = append(insights, fmt.Sprintf("%d open action %s across the day", actionItems, plural(actionItems, "item", "items")))
	}
	if n := s.Counts[core.SourceMeeting]; n >= 4 {
		insights = append(insights, fmt.Sprintf("Heavy meeting day: %d meetings", n))
	}

	return insights
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

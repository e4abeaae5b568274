// Package query implements the question answering pipeline.
package query

import (
	"sort"
	"time"

	"github.com/glassdesk/glassdesk/internal/core"
)

// Retriever selects the context window for a classified question. It
// reads an in-memory record set; the service layer loads the user's
// records before calling it.
type Retriever struct {
	maxItems int
	maxChars int
}

// NewRetriever creates a context retriever with its budgets
func NewRetriever(maxItems, maxChars int) *Retriever {
	if maxItems <= 0 {
		maxItems = 20
	}
	if maxChars <= 0 {
		maxChars = 8000
	}
	return &Retriever{maxItems: maxItems, maxChars: maxChars}
}

// Retrieve returns the records relevant to the category, in category
// order, truncated to the item and character budgets. An empty record
// set yields an empty context, not an error.
func (r *Retriever) Retrieve(category core.QueryCategory, records []*core.NormalizedRecord) []*core.NormalizedRecord {
	selected := selectForCategory(category, records)
	return r.truncate(selected)
}

// selectForCategory applies the per-category selection rule. The
// switch is exhaustive over the category set.
func selectForCategory(category core.QueryCategory, records []*core.NormalizedRecord) []*core.NormalizedRecord {
	switch category {
	case core.CategoryActionItems:
		return sortAsc(filter(records, func(rec *core.NormalizedRecord) bool {
			return rec.HasActionItems()
		}))

	case core.CategoryDailySummary, core.CategoryGeneralSummary:
		return mostRecentDay(records)

	case core.CategoryPriorities:
		return sortDesc(filter(records, func(rec *core.NormalizedRecord) bool {
			return rec.Priority == core.PriorityHigh
		}))

	case core.CategoryDeadlines:
		// Soonest due first
		return sortAsc(filter(records, func(rec *core.NormalizedRecord) bool {
			return rec.Source == core.SourceTask && rec.Status == core.StatusOpen
		}))

	case core.CategoryMeetingInfo:
		return sortDesc(filter(records, func(rec *core.NormalizedRecord) bool {
			return rec.Source == core.SourceMeeting
		}))

	case core.CategoryEmailSummary:
		return sortDesc(filter(records, func(rec *core.NormalizedRecord) bool {
			return rec.Source == core.SourceEmail
		}))

	default:
		return mostRecentDay(records)
	}
}

// truncate takes records in order until the item budget is reached or
// the next record would push combined title+body text past the char
// budget. A record never appears partially: the one that would exceed
// the budget is dropped and selection stops.
func (r *Retriever) truncate(records []*core.NormalizedRecord) []*core.NormalizedRecord {
	out := make([]*core.NormalizedRecord, 0, min(len(records), r.maxItems))
	chars := 0

	for _, rec := range records {
		if len(out) >= r.maxItems {
			break
		}
		if chars+rec.ContentLength() > r.maxChars {
			break
		}
		out = append(out, rec)
		chars += rec.ContentLength()
	}

	return out
}

// mostRecentDay returns the records of the most recent UTC day present
// in the set, timestamp-ascending
func mostRecentDay(records []*core.NormalizedRecord) []*core.NormalizedRecord {
	if len(records) == 0 {
		return nil
	}

	var latest time.Time
	for _, rec := range records {
		if rec.Timestamp.After(latest) {
			latest = rec.Timestamp
		}
	}
	dayStart := latest.UTC().Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	return sortAsc(filter(records, func(rec *core.NormalizedRecord) bool {
		ts := rec.Timestamp.UTC()
		return !ts.Before(dayStart) && ts.Before(dayEnd)
	}))
}

func filter(records []*core.NormalizedRecord, keep func(*core.NormalizedRecord) bool) []*core.NormalizedRecord {
	var out []*core.NormalizedRecord
	for _, rec := range records {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	return out
}

func sortAsc(records []*core.NormalizedRecord) []*core.NormalizedRecord {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
	return records
}

func sortDesc(records []*core.NormalizedRecord) []*core.NormalizedRecord {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
	return records
}

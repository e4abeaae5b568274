// Package core defines the fundamental types for GlassDesk.
// Everything that flows through the system is expressed in these terms.
package core

import (
	"time"
)

// -----------------------------------------------------------------------------
// USER - The authenticated owner of a record set
// -----------------------------------------------------------------------------

// User represents an authenticated GlassDesk user. Records are always
// scoped to a user; the query pipeline never reads across users.
type User struct {
	ID        string    `json:"id"` // UUID, never changes
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// -----------------------------------------------------------------------------
// SOURCE - Where a record came from
// -----------------------------------------------------------------------------

// Source identifies the kind of provider a record came from.
type Source string

const (
	SourceEmail   Source = "email"   // Gmail messages
	SourceMeeting Source = "meeting" // Zoom meetings
	SourceTask    Source = "task"    // Asana tasks
)

// Sources lists every known source, in a stable order.
func Sources() []Source {
	return []Source{SourceEmail, SourceMeeting, SourceTask}
}

// Valid reports whether s names a known source.
func (s Source) Valid() bool {
	switch s {
	case SourceEmail, SourceMeeting, SourceTask:
		return true
	}
	return false
}

// Status is the completion state derived from source-specific fields.
type Status string

const (
	StatusOpen      Status = "open"
	StatusCompleted Status = "completed"
	StatusUnknown   Status = "unknown"
)

// Priority is the heuristic urgency label assigned by the priority
// classifier. It is not a model output - just keyword matching.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// -----------------------------------------------------------------------------
// NORMALIZED RECORD - The uniform shape of emails, meetings, and tasks
// -----------------------------------------------------------------------------

// RecordID is a type-safe identifier for normalized records. It is the
// provider's ID for the record, stable across re-processing.
type RecordID string

// NormalizedRecord is the uniform internal representation of an email,
// meeting, or task. (Source, ID) uniquely identifies a record within a
// user's set; re-ingesting the same source ID updates in place.
type NormalizedRecord struct {
	ID     RecordID `json:"id"`
	Source Source   `json:"source"`

	// Timestamp is the record's primary date: email sent date, meeting
	// start, task due date. Always UTC, always present - normalization
	// fails without it.
	Timestamp time.Time `json:"timestamp"`

	Title string `json:"title"` // subject / topic / name
	Body  string `json:"body"`  // email body, transcript or summary, task notes

	// Participants are email addresses or provider user IDs. Order is
	// irrelevant; stored sorted for stable output.
	Participants []string `json:"participants"`

	Status   Status   `json:"status"`
	Priority Priority `json:"priority"`

	// ActionItems is an ordered sequence of short text items extracted
	// from the record. May be empty.
	ActionItems []string `json:"action_items"`

	// Tags carries source-specific labels (Gmail labels, Asana tags).
	Tags []string `json:"tags"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasActionItems reports whether the record carries at least one
// extracted action item.
func (r *NormalizedRecord) HasActionItems() bool {
	return len(r.ActionItems) > 0
}

// ContentLength is the combined length of title and body, the unit the
// context retriever budgets against.
func (r *NormalizedRecord) ContentLength() int {
	return len(r.Title) + len(r.Body)
}

// -----------------------------------------------------------------------------
// DAILY SUMMARY - Derived per-day view
// -----------------------------------------------------------------------------

// MaxHighlights caps the highlight list of a daily summary.
const MaxHighlights = 10

// DailySummary is a derived, idempotent view of one UTC calendar day.
// It can always be recomputed from records; stored copies are caches.
type DailySummary struct {
	Date time.Time `json:"date"` // truncated to the UTC day

	// Counts maps source to the number of records on that day.
	Counts map[Source]int `json:"counts"`

	// Highlights are record IDs selected as notable (HIGH priority or
	// containing action items), timestamp-ascending, capped at
	// MaxHighlights.
	Highlights []RecordID `json:"highlights"`

	// Insights are short human-readable observations about the day.
	Insights []string `json:"insights,omitempty"`
}

// Total returns the sum of per-source counts.
func (s *DailySummary) Total() int {
	n := 0
	for _, c := range s.Counts {
		n += c
	}
	return n
}

// -----------------------------------------------------------------------------
// QUERY - Question classification and answers
// -----------------------------------------------------------------------------

// QueryCategory is one of the fixed set of recognized question types
// used to select context for the LLM.
type QueryCategory string

const (
	CategoryActionItems    QueryCategory = "action_items"
	CategoryDailySummary   QueryCategory = "daily_summary"
	CategoryPriorities     QueryCategory = "priorities"
	CategoryDeadlines      QueryCategory = "deadlines"
	CategoryMeetingInfo    QueryCategory = "meeting_info"
	CategoryEmailSummary   QueryCategory = "email_summary"
	CategoryGeneralSummary QueryCategory = "general_summary"
)

// Categories lists every query category, in a stable order.
func Categories() []QueryCategory {
	return []QueryCategory{
		CategoryActionItems,
		CategoryDailySummary,
		CategoryPriorities,
		CategoryDeadlines,
		CategoryMeetingInfo,
		CategoryEmailSummary,
		CategoryGeneralSummary,
	}
}

// QueryResult is the answer to one free-text question. It is transient,
// computed per request, and owned by the caller.
type QueryResult struct {
	Category QueryCategory `json:"category"`

	// Confidence is a heuristic score in [0,1], not a calibrated
	// probability. Forced to 0 when the LLM call fails.
	Confidence float64 `json:"confidence"`

	// ContextRecords are the record IDs used to build the LLM prompt,
	// in prompt order.
	ContextRecords []RecordID `json:"context_records"`

	ResponseText string `json:"response_text"`

	AnsweredAt time.Time `json:"answered_at"`
}

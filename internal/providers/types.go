// Package providers defines the connector surface for external data
// sources and the raw payload shapes they produce.
package providers

import (
	"context"
	"time"

	"github.com/glassdesk/glassdesk/internal/core"
)

// Provider names as used in OAuth routes and token storage
const (
	ProviderGoogle = "google"
	ProviderZoom   = "zoom"
	ProviderAsana  = "asana"
)

// EmailMessage is a fetched Gmail message with headers parsed and the
// body already decoded from base64url.
type EmailMessage struct {
	ID       string    `json:"id"`
	ThreadID string    `json:"thread_id"`
	From     string    `json:"from"`
	To       []string  `json:"to"`
	Subject  string    `json:"subject"`
	Date     time.Time `json:"date"`
	Body     string    `json:"body"`
	Snippet  string    `json:"snippet"`
	Labels   []string  `json:"labels"`
	IsUnread bool      `json:"is_unread"`
}

// Meeting is a fetched Zoom meeting
type Meeting struct {
	ID           string    `json:"id"`
	Topic        string    `json:"topic"`
	StartTime    time.Time `json:"start_time"`
	Duration     int       `json:"duration"` // minutes
	Participants []string  `json:"participants"`
	Agenda       string    `json:"agenda"`
	Summary      string    `json:"summary"` // post-meeting summary, if any
	ActionItems  []string  `json:"action_items"`
}

// Task is a fetched Asana task
type Task struct {
	GID       string   `json:"gid"`
	Name      string   `json:"name"`
	Notes     string   `json:"notes"`
	Completed bool     `json:"completed"`
	DueOn     string   `json:"due_on"` // YYYY-MM-DD, empty when unset
	Assignee  string   `json:"assignee"`
	Followers []string `json:"followers"`
	Tags      []string `json:"tags"`
}

// SyncResult reports the outcome of one provider sync
type SyncResult struct {
	Provider string        `json:"provider"`
	Fetched  int           `json:"fetched"`
	Ingested int           `json:"ingested"`
	Skipped  int           `json:"skipped"`
	Duration time.Duration `json:"duration"`
	SyncedAt time.Time     `json:"synced_at"`
}

// Connector fetches raw records from one provider and hands them to
// the ingest pipeline as normalized records' source material.
type Connector interface {
	// Name returns the provider name ("google", "zoom", "asana")
	Name() string

	// Source returns the record source this connector feeds
	Source() core.Source

	// Fetch retrieves recent raw payloads as JSON, one per record
	Fetch(ctx context.Context, limit int) ([][]byte, error)
}

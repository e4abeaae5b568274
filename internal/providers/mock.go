package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/glassdesk/glassdesk/internal/core"
)

// MockConnector serves canned payloads for local development and
// demos, so the full pipeline runs without real OAuth credentials.
type MockConnector struct {
	name     string
	source   core.Source
	payloads []any
}

// NewMockConnector wraps arbitrary payloads as a connector
func NewMockConnector(name string, source core.Source, payloads ...any) *MockConnector {
	return &MockConnector{name: name, source: source, payloads: payloads}
}

// Name returns the provider name
func (c *MockConnector) Name() string { return c.name }

// Source returns the record source this connector feeds
func (c *MockConnector) Source() core.Source { return c.source }

// Fetch returns the canned payloads as JSON
func (c *MockConnector) Fetch(_ context.Context, limit int) ([][]byte, error) {
	payloads := c.payloads
	if limit > 0 && limit < len(payloads) {
		payloads = payloads[:limit]
	}

	out := make([][]byte, 0, len(payloads))
	for i, p := range payloads {
		data, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("encode mock payload %d: %w", i, err)
		}
		out = append(out, data)
	}
	return out, nil
}

// MockGmailConnector returns a connector with a plausible inbox for
// the given day
func MockGmailConnector(day time.Time) *MockConnector {
	day = day.UTC().Truncate(24 * time.Hour)
	return NewMockConnector(ProviderGoogle, core.SourceEmail,
		EmailMessage{
			ID:       "email-budget",
			ThreadID: "thread-1",
			From:     "cfo@example.com",
			To:       []string{"you@example.com"},
			Subject:  "URGENT: Q3 budget approval needed",
			Date:     day.Add(8*time.Hour + 12*time.Minute),
			Body:     "The Q3 budget needs your approval before Friday's deadline.\n\nAction item: review the attached spreadsheet and sign off.",
			Snippet:  "The Q3 budget needs your approval",
			Labels:   []string{"INBOX", "UNREAD"},
			IsUnread: true,
		},
		EmailMessage{
			ID:      "email-standup",
			From:    "team-lead@example.com",
			To:      []string{"you@example.com", "eng@example.com"},
			Subject: "Standup notes",
			Date:    day.Add(9*time.Hour + 45*time.Minute),
			Body:    "FYI, notes from this morning's standup are on the wiki. No action needed.",
			Snippet: "notes from this morning's standup",
			Labels:  []string{"INBOX"},
		},
		EmailMessage{
			ID:      "email-newsletter",
			From:    "news@saasweekly.example.com",
			To:      []string{"you@example.com"},
			Subject: "SaaS Weekly newsletter: issue 214",
			Date:    day.Add(6 * time.Hour),
			Body:    "This week in SaaS. Unsubscribe at any time.",
			Snippet: "This week in SaaS",
			Labels:  []string{"INBOX", "CATEGORY_PROMOTIONS"},
		},
	)
}

// MockZoomConnector returns a connector with a plausible meeting
// history for the given day
func MockZoomConnector(day time.Time) *MockConnector {
	day = day.UTC().Truncate(24 * time.Hour)
	return NewMockConnector(ProviderZoom, core.SourceMeeting,
		Meeting{
			ID:           "meeting-roadmap",
			Topic:        "Product roadmap review",
			StartTime:    day.Add(14 * time.Hour),
			Duration:     45,
			Participants: []string{"Dana", "Priya", "Sam"},
			Agenda:       "Review H2 roadmap priorities",
			Summary:      "Agreed to ship the reporting dashboard first.",
			ActionItems:  []string{"Draft the dashboard spec", "Schedule design review"},
		},
		Meeting{
			ID:        "meeting-1on1",
			Topic:     "Weekly 1:1",
			StartTime: day.Add(16*time.Hour + 30*time.Minute),
			Duration:  30,
			Agenda:    "Career growth check-in",
		},
	)
}

// MockAsanaConnector returns a connector with a plausible task list
// for the given day
func MockAsanaConnector(day time.Time) *MockConnector {
	day = day.UTC().Truncate(24 * time.Hour)
	return NewMockConnector(ProviderAsana, core.SourceTask,
		Task{
			GID:      "task-dashboard",
			Name:     "Write reporting dashboard spec",
			Notes:    "Cover filters, export, and sharing.",
			DueOn:    day.Format("2006-01-02"),
			Assignee: "You",
			Tags:     []string{"roadmap"},
		},
		Task{
			GID:       "task-onboarding",
			Name:      "Update onboarding checklist",
			Completed: true,
			DueOn:     day.AddDate(0, 0, -2).Format("2006-01-02"),
			Assignee:  "You",
		},
		Task{
			GID:      "task-renewal",
			Name:     "Renew vendor contract",
			Notes:    "Critical: lapses at end of month.",
			DueOn:    day.AddDate(0, 0, 3).Format("2006-01-02"),
			Assignee: "You",
			Tags:     []string{"ops"},
		},
	)
}

// MockConnectors returns the full demo set keyed by provider name
func MockConnectors(day time.Time) []Connector {
	return []Connector{
		MockGmailConnector(day),
		MockZoomConnector(day),
		MockAsanaConnector(day),
	}
}

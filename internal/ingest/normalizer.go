// Package ingest converts raw provider payloads into normalized
// records and assigns them a heuristic priority.
package ingest

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/glassdesk/glassdesk/internal/core"
	"github.com/glassdesk/glassdesk/internal/providers"
)

// Normalizer maps source-specific payloads to the uniform record
// schema. It is pure: the same payload always yields the same record,
// and nothing is persisted here.
type Normalizer struct{}

// NewNormalizer creates a normalizer
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize unmarshals a raw payload for the given source and maps it.
// The switch is exhaustive over known sources; an unknown source is an
// input error, not a silent skip.
func (n *Normalizer) Normalize(source core.Source, raw []byte) (*core.NormalizedRecord, error) {
	switch source {
	case core.SourceEmail:
		var msg providers.EmailMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, fmt.Errorf("decode email payload: %w", err)
		}
		return n.NormalizeEmail(&msg)
	case core.SourceMeeting:
		var m providers.Meeting
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("decode meeting payload: %w", err)
		}
		return n.NormalizeMeeting(&m)
	case core.SourceTask:
		var t providers.Task
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("decode task payload: %w", err)
		}
		return n.NormalizeTask(&t)
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownProvider, source)
	}
}

// NormalizeEmail maps a Gmail message. The sent date is the record
// timestamp; emails carry no completion state.
func (n *Normalizer) NormalizeEmail(msg *providers.EmailMessage) (*core.NormalizedRecord, error) {
	if msg.ID == "" {
		return nil, &core.NormalizationError{Source: core.SourceEmail, Field: "id", Reason: "missing"}
	}
	if msg.Date.IsZero() {
		return nil, &core.NormalizationError{Source: core.SourceEmail, ID: msg.ID, Field: "date", Reason: "missing"}
	}

	participants := make([]string, 0, len(msg.To)+1)
	if msg.From != "" {
		participants = append(participants, msg.From)
	}
	for _, to := range msg.To {
		if to != "" {
			participants = append(participants, to)
		}
	}

	body := msg.Body
	if body == "" {
		body = msg.Snippet
	}

	return &core.NormalizedRecord{
		ID:           core.RecordID(msg.ID),
		Source:       core.SourceEmail,
		Timestamp:    msg.Date.UTC(),
		Title:        msg.Subject,
		Body:         body,
		Participants: sortedUnique(participants),
		Status:       core.StatusUnknown,
		Priority:     core.PriorityLow, // overwritten by the classifier
		ActionItems:  extractEmailActionItems(body),
		Tags:         copyTags(msg.Labels),
	}, nil
}

// NormalizeMeeting maps a Zoom meeting. The start time is the record
// timestamp. A meeting with open action items is OPEN, otherwise its
// state is unknowable from the payload.
func (n *Normalizer) NormalizeMeeting(m *providers.Meeting) (*core.NormalizedRecord, error) {
	if m.ID == "" {
		return nil, &core.NormalizationError{Source: core.SourceMeeting, Field: "id", Reason: "missing"}
	}
	if m.StartTime.IsZero() {
		return nil, &core.NormalizationError{Source: core.SourceMeeting, ID: m.ID, Field: "start_time", Reason: "missing"}
	}

	body := m.Summary
	if body == "" {
		body = m.Agenda
	}

	actionItems := append([]string{}, m.ActionItems...)
	actionItems = append(actionItems, extractActionItems(body)...)

	status := core.StatusUnknown
	if len(actionItems) > 0 {
		status = core.StatusOpen
	}

	return &core.NormalizedRecord{
		ID:           core.RecordID(m.ID),
		Source:       core.SourceMeeting,
		Timestamp:    m.StartTime.UTC(),
		Title:        m.Topic,
		Body:         body,
		Participants: sortedUnique(m.Participants),
		Status:       status,
		Priority:     core.PriorityLow,
		ActionItems:  actionItems,
		Tags:         []string{},
	}, nil
}

// NormalizeTask maps an Asana task. The due date is the record
// timestamp; an open task's name is its one action item.
func (n *Normalizer) NormalizeTask(t *providers.Task) (*core.NormalizedRecord, error) {
	if t.GID == "" {
		return nil, &core.NormalizationError{Source: core.SourceTask, Field: "gid", Reason: "missing"}
	}
	if t.DueOn == "" {
		return nil, &core.NormalizationError{Source: core.SourceTask, ID: t.GID, Field: "due_on", Reason: "missing"}
	}

	due, err := time.Parse("2006-01-02", t.DueOn)
	if err != nil {
		return nil, &core.NormalizationError{Source: core.SourceTask, ID: t.GID, Field: "due_on", Reason: "unparseable: " + t.DueOn}
	}

	status := core.StatusOpen
	if t.Completed {
		status = core.StatusCompleted
	}

	var actionItems []string
	if status == core.StatusOpen && t.Name != "" {
		actionItems = []string{t.Name}
	} else {
		actionItems = []string{}
	}

	participants := make([]string, 0, len(t.Followers)+1)
	if t.Assignee != "" {
		participants = append(participants, t.Assignee)
	}
	participants = append(participants, t.Followers...)

	return &core.NormalizedRecord{
		ID:           core.RecordID(t.GID),
		Source:       core.SourceTask,
		Timestamp:    due.UTC(),
		Title:        t.Name,
		Body:         t.Notes,
		Participants: sortedUnique(participants),
		Status:       status,
		Priority:     core.PriorityLow,
		ActionItems:  actionItems,
		Tags:         copyTags(t.Tags),
	}, nil
}

// actionMarkers open lines that read as commitments in meeting notes
var actionMarkers = []string{
	"action item:",
	"action:",
	"todo:",
	"follow up:",
	"follow-up:",
	"- [ ]",
}

// extractActionItems pulls marked lines out of meeting notes
func extractActionItems(body string) []string {
	var items []string
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		for _, marker := range actionMarkers {
			if strings.HasPrefix(lower, marker) {
				item := strings.TrimSpace(trimmed[len(marker):])
				if item != "" {
					items = append(items, item)
				}
				break
			}
		}
	}
	return items
}

// emailActionKeywords flag sentences that ask the reader to do
// something. Emails rarely carry marked action lines, so the scan is
// by sentence rather than by line prefix.
var emailActionKeywords = []string{
	"please",
	"need to",
	"should",
	"action required",
	"deadline",
}

// extractEmailActionItems keeps the sentences of an email body that
// contain action language, deduplicated case-insensitively, in body
// order
func extractEmailActionItems(body string) []string {
	items := []string{}
	seen := make(map[string]bool)
	for _, sentence := range splitSentences(body) {
		lower := strings.ToLower(sentence)
		for _, kw := range emailActionKeywords {
			if strings.Contains(lower, kw) {
				if !seen[lower] {
					seen[lower] = true
					items = append(items, sentence)
				}
				break
			}
		}
	}
	return items
}

// splitSentences breaks text on terminal punctuation and newlines,
// dropping the punctuation and surrounding whitespace
func splitSentences(text string) []string {
	var out []string
	var b strings.Builder
	flush := func() {
		if s := strings.TrimSpace(b.String()); s != "" {
			out = append(out, s)
		}
		b.Reset()
	}
	for _, r := range text {
		switch r {
		case '.', '!', '?', '\n':
			flush()
		default:
			b.WriteRune(r)
		}
	}
	flush()
	return out
}

// sortedUnique sorts and dedupes participants for stable output
func sortedUnique(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

func copyTags(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	return append([]string{}, in...)
}

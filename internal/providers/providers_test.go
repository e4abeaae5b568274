package providers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/glassdesk/glassdesk/internal/core"
)

// =============================================================================
// Gmail Parsing Tests
// =============================================================================

func b64(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestParseGmailMessage(t *testing.T) {
	msg := &gmailapi.Message{
		Id:       "msg-1",
		ThreadId: "thread-1",
		Snippet:  "Quick update on the launch",
		LabelIds: []string{"INBOX", "UNREAD"},
		Payload: &gmailapi.MessagePart{
			Headers: []*gmailapi.MessagePartHeader{
				{Name: "From", Value: "alice@example.com"},
				{Name: "To", Value: "bob@example.com, carol@example.com"},
				{Name: "Subject", Value: "Launch update"},
				{Name: "Date", Value: "Mon, 02 Jan 2006 15:04:05 -0700"},
			},
			Body: &gmailapi.MessagePartBody{Data: b64("Launch is on track.")},
		},
	}

	parsed := parseGmailMessage(msg)

	if parsed.ID != "msg-1" || parsed.ThreadID != "thread-1" {
		t.Errorf("IDs = %s/%s", parsed.ID, parsed.ThreadID)
	}
	if parsed.From != "alice@example.com" {
		t.Errorf("From = %s", parsed.From)
	}
	if len(parsed.To) != 2 || parsed.To[1] != "carol@example.com" {
		t.Errorf("To = %v", parsed.To)
	}
	if parsed.Subject != "Launch update" {
		t.Errorf("Subject = %s", parsed.Subject)
	}
	if parsed.Body != "Launch is on track." {
		t.Errorf("Body = %q", parsed.Body)
	}
	if !parsed.IsUnread {
		t.Error("UNREAD label should mark message unread")
	}
	if parsed.Date.IsZero() {
		t.Error("Date should be parsed from header")
	}
}

func TestParseGmailMessage_MultipartPrefersPlainText(t *testing.T) {
	msg := &gmailapi.Message{
		Id: "msg-2",
		Payload: &gmailapi.MessagePart{
			MimeType: "multipart/alternative",
			Parts: []*gmailapi.MessagePart{
				{MimeType: "text/html", Body: &gmailapi.MessagePartBody{Data: b64("<p>HTML body</p>")}},
				{MimeType: "text/plain", Body: &gmailapi.MessagePartBody{Data: b64("Plain body")}},
			},
		},
	}

	if body := parseGmailMessage(msg).Body; body != "Plain body" {
		t.Errorf("Body = %q, want plain text part", body)
	}
}

func TestParseGmailMessage_HTMLFallback(t *testing.T) {
	msg := &gmailapi.Message{
		Id: "msg-3",
		Payload: &gmailapi.MessagePart{
			MimeType: "multipart/alternative",
			Parts: []*gmailapi.MessagePart{
				{MimeType: "text/html", Body: &gmailapi.MessagePartBody{Data: b64("<div>Hello <b>world</b></div>")}},
			},
		},
	}

	if body := parseGmailMessage(msg).Body; body != "Hello world" {
		t.Errorf("Body = %q, want stripped HTML", body)
	}
}

func TestParseGmailMessage_InternalDateFallback(t *testing.T) {
	internal := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	msg := &gmailapi.Message{
		Id:           "msg-4",
		InternalDate: internal.UnixMilli(),
		Payload:      &gmailapi.MessagePart{},
	}

	if got := parseGmailMessage(msg).Date; !got.Equal(internal) {
		t.Errorf("Date = %v, want internal date %v", got, internal)
	}
}

func TestStripHTML(t *testing.T) {
	in := "<html><body>\n  <p>Line one</p>\n\n  <p>Line two</p>\n</body></html>"
	want := "Line one\nLine two"
	if got := stripHTML(in); got != want {
		t.Errorf("stripHTML() = %q, want %q", got, want)
	}
}

func TestParseMailDate(t *testing.T) {
	for _, s := range []string{
		"Mon, 02 Jan 2006 15:04:05 -0700",
		"Mon, 02 Jan 2006 15:04:05 MST",
		"2 Jan 2006 15:04:05 -0700",
	} {
		if _, err := parseMailDate(s); err != nil {
			t.Errorf("parseMailDate(%q) error = %v", s, err)
		}
	}

	if _, err := parseMailDate("not a date"); err == nil {
		t.Error("parseMailDate should reject garbage")
	}
}

// =============================================================================
// Zoom Client Tests
// =============================================================================

func TestZoomClient_ListMeetings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/users/me/meetings"):
			json.NewEncoder(w).Encode(map[string]any{
				"meetings": []map[string]any{
					{"id": 98765, "topic": "Sprint review", "start_time": "2026-03-14T14:00:00Z", "duration": 45, "agenda": "Demo the release"},
				},
			})
		case r.URL.Path == "/past_meetings/98765/participants":
			json.NewEncoder(w).Encode(map[string]any{
				"participants": []map[string]any{
					{"name": "Dana"},
					{"user_email": "sam@example.com"},
				},
			})
		case r.URL.Path == "/meetings/98765/meeting_summary":
			json.NewEncoder(w).Encode(map[string]any{
				"summary_overview": "Demoed the release; one blocker found.",
				"next_steps":       []map[string]any{{"item": "Fix the export blocker"}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	client := NewZoomClient(srv.Client(), srv.URL)
	meetings, err := client.ListMeetings(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListMeetings() error = %v", err)
	}
	if len(meetings) != 1 {
		t.Fatalf("got %d meetings, want 1", len(meetings))
	}

	m := meetings[0]
	if m.ID != "98765" || m.Topic != "Sprint review" || m.Duration != 45 {
		t.Errorf("meeting = %+v", m)
	}
	if m.StartTime != time.Date(2026, 3, 14, 14, 0, 0, 0, time.UTC) {
		t.Errorf("StartTime = %v", m.StartTime)
	}
	if len(m.Participants) != 2 || m.Participants[1] != "sam@example.com" {
		t.Errorf("Participants = %v", m.Participants)
	}
	if m.Summary == "" || len(m.ActionItems) != 1 {
		t.Errorf("summary = %q, action items = %v", m.Summary, m.ActionItems)
	}
}

func TestZoomClient_EnrichmentFailuresAreNonFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/users/me/meetings") {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"meetings": []map[string]any{{"id": 1, "topic": "Quick sync"}},
			})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	client := NewZoomClient(srv.Client(), srv.URL)
	meetings, err := client.ListMeetings(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListMeetings() error = %v", err)
	}
	if len(meetings) != 1 || meetings[0].Topic != "Quick sync" {
		t.Errorf("meetings = %+v", meetings)
	}
}

func TestZoomClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	client := NewZoomClient(srv.Client(), srv.URL)
	if _, err := client.ListMeetings(context.Background(), 0); err == nil {
		t.Error("ListMeetings() should surface API errors")
	}
}

// =============================================================================
// Asana Client Tests
// =============================================================================

func TestAsanaClient_ListTasks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/workspaces":
			json.NewEncoder(w).Encode(map[string]any{
				"data": []map[string]any{{"gid": "ws-1"}},
			})
		case r.URL.Path == "/tasks":
			if r.URL.Query().Get("workspace") != "ws-1" {
				t.Errorf("workspace = %s", r.URL.Query().Get("workspace"))
			}
			json.NewEncoder(w).Encode(map[string]any{
				"data": []map[string]any{
					{
						"gid": "task-1", "name": "Ship the release", "notes": "Beta first",
						"completed": false, "due_on": "2026-03-20",
						"assignee":  map[string]any{"name": "You"},
						"followers": []map[string]any{{"name": "Dana"}},
						"tags":      []map[string]any{{"name": "release"}},
					},
				},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	client := NewAsanaClient(srv.Client(), srv.URL)
	tasks, err := client.ListTasks(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("got %d tasks, want 1", len(tasks))
	}

	task := tasks[0]
	if task.GID != "task-1" || task.Name != "Ship the release" || task.DueOn != "2026-03-20" {
		t.Errorf("task = %+v", task)
	}
	if task.Assignee != "You" || len(task.Followers) != 1 || len(task.Tags) != 1 {
		t.Errorf("task people/tags = %+v", task)
	}
}

func TestAsanaClient_NoWorkspaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	}))
	t.Cleanup(srv.Close)

	client := NewAsanaClient(srv.Client(), srv.URL)
	tasks, err := client.ListTasks(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if tasks != nil {
		t.Errorf("tasks = %v, want nil", tasks)
	}
}

// =============================================================================
// Mock Connector Tests
// =============================================================================

func TestMockConnectors(t *testing.T) {
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	for _, conn := range MockConnectors(day) {
		payloads, err := conn.Fetch(context.Background(), 0)
		if err != nil {
			t.Fatalf("%s Fetch() error = %v", conn.Name(), err)
		}
		if len(payloads) == 0 {
			t.Errorf("%s returned no payloads", conn.Name())
		}
		for _, p := range payloads {
			if !json.Valid(p) {
				t.Errorf("%s produced invalid JSON: %s", conn.Name(), p)
			}
		}
	}
}

func TestMockConnector_Limit(t *testing.T) {
	conn := MockGmailConnector(time.Now())

	payloads, err := conn.Fetch(context.Background(), 1)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(payloads) != 1 {
		t.Errorf("got %d payloads, want 1", len(payloads))
	}
}

func TestMockConnector_Sources(t *testing.T) {
	day := time.Now()
	want := map[string]core.Source{
		ProviderGoogle: core.SourceEmail,
		ProviderZoom:   core.SourceMeeting,
		ProviderAsana:  core.SourceTask,
	}

	for _, conn := range MockConnectors(day) {
		if conn.Source() != want[conn.Name()] {
			t.Errorf("%s source = %s", conn.Name(), conn.Source())
		}
	}
}

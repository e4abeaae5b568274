package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/glassdesk/glassdesk/internal/core"
)

// DefaultZoomBaseURL is Zoom's production API base
const DefaultZoomBaseURL = "https://api.zoom.us/v2"

// ZoomClient calls the Zoom REST API
type ZoomClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewZoomClient creates a Zoom API client. The HTTP client must carry
// the user's OAuth token; baseURL may be overridden for mocks.
func NewZoomClient(httpClient *http.Client, baseURL string) *ZoomClient {
	if baseURL == "" {
		baseURL = DefaultZoomBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &ZoomClient{baseURL: baseURL, httpClient: httpClient}
}

// zoomMeeting is the wire shape of a meeting in list responses
type zoomMeeting struct {
	ID        int64  `json:"id"`
	UUID      string `json:"uuid"`
	Topic     string `json:"topic"`
	StartTime string `json:"start_time"`
	Duration  int    `json:"duration"`
	Agenda    string `json:"agenda"`
}

type zoomMeetingList struct {
	Meetings   []zoomMeeting `json:"meetings"`
	TotalCount int           `json:"total_records"`
}

type zoomParticipantList struct {
	Participants []struct {
		Name  string `json:"name"`
		Email string `json:"user_email"`
	} `json:"participants"`
}

type zoomSummary struct {
	Overview  string `json:"summary_overview"`
	NextSteps []struct {
		Item string `json:"item"`
	} `json:"next_steps"`
}

// ListMeetings fetches the user's meetings
func (c *ZoomClient) ListMeetings(ctx context.Context, limit int) ([]*Meeting, error) {
	q := url.Values{"type": {"previous_meetings"}}
	if limit > 0 {
		q.Set("page_size", strconv.Itoa(limit))
	}

	var list zoomMeetingList
	if err := c.get(ctx, "/users/me/meetings?"+q.Encode(), &list); err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}

	meetings := make([]*Meeting, 0, len(list.Meetings))
	for _, zm := range list.Meetings {
		m := &Meeting{
			ID:       strconv.FormatInt(zm.ID, 10),
			Topic:    zm.Topic,
			Duration: zm.Duration,
			Agenda:   zm.Agenda,
		}
		if zm.StartTime != "" {
			if t, err := time.Parse(time.RFC3339, zm.StartTime); err == nil {
				m.StartTime = t.UTC()
			}
		}

		c.enrichMeeting(ctx, m)
		meetings = append(meetings, m)
	}

	return meetings, nil
}

// enrichMeeting pulls participants and the AI summary when available.
// Both endpoints 404 for meetings without them, so failures are
// non-fatal.
func (c *ZoomClient) enrichMeeting(ctx context.Context, m *Meeting) {
	var participants zoomParticipantList
	if err := c.get(ctx, "/past_meetings/"+m.ID+"/participants", &participants); err == nil {
		for _, p := range participants.Participants {
			name := p.Name
			if name == "" {
				name = p.Email
			}
			if name != "" {
				m.Participants = append(m.Participants, name)
			}
		}
	}

	var summary zoomSummary
	if err := c.get(ctx, "/meetings/"+m.ID+"/meeting_summary", &summary); err == nil {
		m.Summary = summary.Overview
		for _, step := range summary.NextSteps {
			if step.Item != "" {
				m.ActionItems = append(m.ActionItems, step.Item)
			}
		}
	}
}

func (c *ZoomClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("zoom api status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// ZoomConnector feeds Zoom meetings into the ingest pipeline
type ZoomConnector struct {
	client *ZoomClient
}

// NewZoomConnector creates a connector over an API client
func NewZoomConnector(client *ZoomClient) *ZoomConnector {
	return &ZoomConnector{client: client}
}

// Name returns the provider name
func (c *ZoomConnector) Name() string { return ProviderZoom }

// Source returns the record source this connector feeds
func (c *ZoomConnector) Source() core.Source { return core.SourceMeeting }

// Fetch retrieves recent meetings as raw JSON payloads
func (c *ZoomConnector) Fetch(ctx context.Context, limit int) ([][]byte, error) {
	meetings, err := c.client.ListMeetings(ctx, limit)
	if err != nil {
		return nil, err
	}

	payloads := make([][]byte, 0, len(meetings))
	for _, m := range meetings {
		data, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("encode meeting %s: %w", m.ID, err)
		}
		payloads = append(payloads, data)
	}

	return payloads, nil
}

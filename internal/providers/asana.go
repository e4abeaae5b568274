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

// DefaultAsanaBaseURL is Asana's production API base
const DefaultAsanaBaseURL = "https://app.asana.com/api/1.0"

// AsanaClient calls the Asana REST API
type AsanaClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAsanaClient creates an Asana API client. The HTTP client must
// carry the user's OAuth token; baseURL may be overridden for mocks.
func NewAsanaClient(httpClient *http.Client, baseURL string) *AsanaClient {
	if baseURL == "" {
		baseURL = DefaultAsanaBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &AsanaClient{baseURL: baseURL, httpClient: httpClient}
}

// Asana wraps everything in a data envelope
type asanaTask struct {
	GID       string `json:"gid"`
	Name      string `json:"name"`
	Notes     string `json:"notes"`
	Completed bool   `json:"completed"`
	DueOn     string `json:"due_on"`
	Assignee  *struct {
		Name string `json:"name"`
	} `json:"assignee"`
	Followers []struct {
		Name string `json:"name"`
	} `json:"followers"`
	Tags []struct {
		Name string `json:"name"`
	} `json:"tags"`
}

type asanaTaskList struct {
	Data []asanaTask `json:"data"`
}

type asanaWorkspaceList struct {
	Data []struct {
		GID string `json:"gid"`
	} `json:"data"`
}

// ListTasks fetches the user's tasks across their first workspace
func (c *AsanaClient) ListTasks(ctx context.Context, limit int) ([]*Task, error) {
	var workspaces asanaWorkspaceList
	if err := c.get(ctx, "/workspaces", &workspaces); err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	if len(workspaces.Data) == 0 {
		return nil, nil
	}

	q := url.Values{
		"assignee":   {"me"},
		"workspace":  {workspaces.Data[0].GID},
		"opt_fields": {"name,notes,completed,due_on,assignee.name,followers.name,tags.name"},
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var list asanaTaskList
	if err := c.get(ctx, "/tasks?"+q.Encode(), &list); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	tasks := make([]*Task, 0, len(list.Data))
	for _, at := range list.Data {
		task := &Task{
			GID:       at.GID,
			Name:      at.Name,
			Notes:     at.Notes,
			Completed: at.Completed,
			DueOn:     at.DueOn,
		}
		if at.Assignee != nil {
			task.Assignee = at.Assignee.Name
		}
		for _, f := range at.Followers {
			task.Followers = append(task.Followers, f.Name)
		}
		for _, tag := range at.Tags {
			task.Tags = append(task.Tags, tag.Name)
		}
		tasks = append(tasks, task)
	}

	return tasks, nil
}

func (c *AsanaClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("asana api status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// AsanaConnector feeds Asana tasks into the ingest pipeline
type AsanaConnector struct {
	client *AsanaClient
}

// NewAsanaConnector creates a connector over an API client
func NewAsanaConnector(client *AsanaClient) *AsanaConnector {
	return &AsanaConnector{client: client}
}

// Name returns the provider name
func (c *AsanaConnector) Name() string { return ProviderAsana }

// Source returns the record source this connector feeds
func (c *AsanaConnector) Source() core.Source { return core.SourceTask }

// Fetch retrieves the user's tasks as raw JSON payloads
func (c *AsanaConnector) Fetch(ctx context.Context, limit int) ([][]byte, error) {
	tasks, err := c.client.ListTasks(ctx, limit)
	if err != nil {
		return nil, err
	}

	payloads := make([][]byte, 0, len(tasks))
	for _, task := range tasks {
		data, err := json.Marshal(task)
		if err != nil {
			return nil, fmt.Errorf("encode task %s: %w", task.GID, err)
		}
		payloads = append(payloads, data)
	}

	return payloads, nil
}

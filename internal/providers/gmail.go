package providers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/glassdesk/glassdesk/internal/core"
)

// GmailClient wraps the Gmail API
type GmailClient struct {
	service *gmailapi.Service
	userID  string // "me" for authenticated user
}

// NewGmailClient creates a Gmail API client from an authenticated
// HTTP client
func NewGmailClient(ctx context.Context, httpClient *http.Client) (*GmailClient, error) {
	service, err := gmailapi.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return &GmailClient{service: service, userID: "me"}, nil
}

// NewGmailClientFromService wraps an existing service, used by tests
// with a service pointed at a mock endpoint
func NewGmailClientFromService(service *gmailapi.Service) *GmailClient {
	return &GmailClient{service: service, userID: "me"}
}

// ListRecent fetches the most recent messages in full
func (c *GmailClient) ListRecent(ctx context.Context, maxResults int64) ([]*EmailMessage, error) {
	call := c.service.Users.Messages.List(c.userID).Q("in:inbox")
	if maxResults > 0 {
		call = call.MaxResults(maxResults)
	}

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	messages := make([]*EmailMessage, 0, len(resp.Messages))
	for _, summary := range resp.Messages {
		msg, err := c.GetMessage(ctx, summary.Id)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, nil
}

// GetMessage fetches full message details
func (c *GmailClient) GetMessage(ctx context.Context, messageID string) (*EmailMessage, error) {
	msg, err := c.service.Users.Messages.Get(c.userID, messageID).
		Format("full").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}

	return parseGmailMessage(msg), nil
}

// Profile returns the authenticated user's email address
func (c *GmailClient) Profile(ctx context.Context) (string, error) {
	profile, err := c.service.Users.GetProfile(c.userID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get profile: %w", err)
	}
	return profile.EmailAddress, nil
}

// parseGmailMessage converts a Gmail API message to an EmailMessage
func parseGmailMessage(msg *gmailapi.Message) *EmailMessage {
	result := &EmailMessage{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
		Labels:   msg.LabelIds,
	}

	for _, label := range msg.LabelIds {
		if label == "UNREAD" {
			result.IsUnread = true
			break
		}
	}

	if msg.Payload != nil {
		for _, header := range msg.Payload.Headers {
			switch strings.ToLower(header.Name) {
			case "from":
				result.From = header.Value
			case "to":
				result.To = splitAddresses(header.Value)
			case "subject":
				result.Subject = header.Value
			case "date":
				if t, err := parseMailDate(header.Value); err == nil {
					result.Date = t
				}
			}
		}

		result.Body = extractGmailBody(msg.Payload)
	}

	// Fallback to internal date
	if result.Date.IsZero() && msg.InternalDate > 0 {
		result.Date = time.UnixMilli(msg.InternalDate).UTC()
	}

	return result
}

// extractGmailBody extracts the plain text body from a message payload
func extractGmailBody(payload *gmailapi.MessagePart) string {
	// Direct body
	if payload.Body != nil && payload.Body.Data != "" {
		if decoded, err := base64.URLEncoding.DecodeString(payload.Body.Data); err == nil {
			return string(decoded)
		}
	}

	// Multipart: prefer text/plain, fall back to stripped text/html
	var htmlBody string
	for _, part := range payload.Parts {
		if part.MimeType == "text/plain" && part.Body != nil && part.Body.Data != "" {
			if decoded, err := base64.URLEncoding.DecodeString(part.Body.Data); err == nil {
				return string(decoded)
			}
		}
		if part.MimeType == "text/html" && part.Body != nil && part.Body.Data != "" {
			if decoded, err := base64.URLEncoding.DecodeString(part.Body.Data); err == nil {
				htmlBody = stripHTML(string(decoded))
			}
		}
		// Recurse into nested multipart
		if len(part.Parts) > 0 {
			if body := extractGmailBody(part); body != "" {
				return body
			}
		}
	}

	return htmlBody
}

// parseMailDate tries the date formats seen in real mail headers
func parseMailDate(s string) (time.Time, error) {
	formats := []string{
		time.RFC1123Z,
		time.RFC1123,
		"Mon, 2 Jan 2006 15:04:05 -0700",
		"2 Jan 2006 15:04:05 -0700",
		time.RFC822Z,
		time.RFC822,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", s)
}

// splitAddresses splits a comma-separated address header
func splitAddresses(header string) []string {
	parts := strings.Split(header, ",")
	addresses := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			addresses = append(addresses, p)
		}
	}
	return addresses
}

// stripHTML removes HTML tags (basic implementation)
func stripHTML(s string) string {
	var result strings.Builder
	inTag := false

	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			result.WriteRune(r)
		}
	}

	lines := strings.Split(result.String(), "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}

	return strings.Join(cleaned, "\n")
}

// GmailConnector feeds Gmail messages into the ingest pipeline
type GmailConnector struct {
	client *GmailClient
}

// NewGmailConnector creates a connector over an API client
func NewGmailConnector(client *GmailClient) *GmailConnector {
	return &GmailConnector{client: client}
}

// Name returns the provider name
func (c *GmailConnector) Name() string { return ProviderGoogle }

// Source returns the record source this connector feeds
func (c *GmailConnector) Source() core.Source { return core.SourceEmail }

// Fetch retrieves recent messages as raw JSON payloads
func (c *GmailConnector) Fetch(ctx context.Context, limit int) ([][]byte, error) {
	messages, err := c.client.ListRecent(ctx, int64(limit))
	if err != nil {
		return nil, err
	}

	payloads := make([][]byte, 0, len(messages))
	for _, msg := range messages {
		data, err := json.Marshal(msg)
		if err != nil {
			return nil, fmt.Errorf("encode message %s: %w", msg.ID, err)
		}
		payloads = append(payloads, data)
	}

	return payloads, nil
}

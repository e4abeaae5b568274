// Package ingest converts raw provider payloads into normalized
// records and assigns them a heuristic priority.
package ingest

import (
	"strings"

	"github.com/glassdesk/glassdesk/internal/core"
)

// ClassifierConfig holds the keyword sets the priority classifier
// matches against. Tests override these; production uses the defaults.
type ClassifierConfig struct {
	HighKeywords []string
	LowKeywords  []string
	SpamKeywords []string

	// BodyScanLimit caps how many body characters are scanned
	BodyScanLimit int
}

// DefaultClassifierConfig returns the stock keyword sets
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		HighKeywords: []string{
			"urgent",
			"asap",
			"immediate",
			"critical",
			"action required",
			"deadline",
			"emergency",
			"approval needed",
			"approve",
		},
		LowKeywords: []string{
			"fyi",
			"newsletter",
			"no action needed",
			"no action required",
			"for your information",
			"unsubscribe",
		},
		SpamKeywords: []string{
			"limited time offer",
			"act now",
			"winner",
			"free money",
			"click here now",
			"congratulations you",
		},
		BodyScanLimit: 500,
	}
}

// Classifier assigns priority labels by keyword matching. It is a
// heuristic, not a model: deterministic given the same keyword sets
// and text, with no accuracy claim beyond substring matching.
type Classifier struct {
	config ClassifierConfig
}

// NewClassifier creates a priority classifier
func NewClassifier(cfg ClassifierConfig) *Classifier {
	if cfg.BodyScanLimit <= 0 {
		cfg.BodyScanLimit = 500
	}
	return &Classifier{config: cfg}
}

// Classify returns the priority label for a record. Title plus the
// first BodyScanLimit body characters are scanned case-insensitively.
// When both HIGH and LOW keywords match, urgency dominates.
func (c *Classifier) Classify(rec *core.NormalizedRecord) core.Priority {
	text := c.scanText(rec)

	high := containsAny(text, c.config.HighKeywords)
	low := containsAny(text, c.config.LowKeywords)

	switch {
	case high:
		return core.PriorityHigh
	case low:
		return core.PriorityLow
	default:
		return core.PriorityMedium
	}
}

// IsSpam reports whether a record reads as promotional noise
func (c *Classifier) IsSpam(rec *core.NormalizedRecord) bool {
	return containsAny(c.scanText(rec), c.config.SpamKeywords)
}

func (c *Classifier) scanText(rec *core.NormalizedRecord) string {
	body := rec.Body
	if len(body) > c.config.BodyScanLimit {
		body = body[:c.config.BodyScanLimit]
	}
	return strings.ToLower(rec.Title + " " + body)
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

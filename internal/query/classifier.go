// Package query implements the question answering pipeline: classify
// the question, retrieve relevant records, compose an LLM answer.
package query

import (
	"strings"

	"github.com/glassdesk/glassdesk/internal/core"
)

// ClassifierConfig maps each category to its keyword list. Tests
// override the lists; production uses the defaults.
type ClassifierConfig struct {
	Keywords map[core.QueryCategory][]string
}

// DefaultClassifierConfig returns the stock keyword lists
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		Keywords: map[core.QueryCategory][]string{
			core.CategoryActionItems: {
				"action item", "todo", "to-do", "to do", "follow up", "follow-up",
			},
			core.CategoryDailySummary: {
				"today", "daily", "this morning", "my day",
			},
			core.CategoryPriorities: {
				"priority", "priorities", "important", "urgent", "critical",
			},
			core.CategoryDeadlines: {
				"deadline", "due", "by when", "overdue",
			},
			core.CategoryMeetingInfo: {
				"meeting", "zoom", "call", "standup",
			},
			core.CategoryEmailSummary: {
				"email", "inbox", "mail", "message",
			},
			core.CategoryGeneralSummary: {
				"summary", "summarize", "overview", "catch up", "what's new",
			},
		},
	}
}

// Classifier maps free-text questions to query categories by keyword
// counting. Heuristic by contract: deterministic, not semantically
// accurate.
type Classifier struct {
	config ClassifierConfig
}

// NewClassifier creates a query classifier
func NewClassifier(cfg ClassifierConfig) *Classifier {
	if cfg.Keywords == nil {
		cfg = DefaultClassifierConfig()
	}
	return &Classifier{config: cfg}
}

// Classify scores every category by keyword occurrence count in the
// lowered question and returns the winner with a confidence in [0,1].
// Confidence is winner score over total score plus one. Ties and
// all-zero scores fall back to GENERAL_SUMMARY, the broadest context.
func (c *Classifier) Classify(question string) (core.QueryCategory, float64) {
	lowered := strings.ToLower(question)

	scores := make(map[core.QueryCategory]int, len(c.config.Keywords))
	total := 0
	for cat, keywords := range c.config.Keywords {
		n := 0
		for _, kw := range keywords {
			n += strings.Count(lowered, kw)
		}
		scores[cat] = n
		total += n
	}

	if total == 0 {
		return core.CategoryGeneralSummary, 0
	}

	// Walk categories in stable order so the result never depends on
	// map iteration
	best := core.CategoryGeneralSummary
	bestScore := -1
	tied := false
	for _, cat := range core.Categories() {
		s := scores[cat]
		if s > bestScore {
			best = cat
			bestScore = s
			tied = false
		} else if s == bestScore {
			tied = true
		}
	}

	if tied {
		return core.CategoryGeneralSummary, clamp01(float64(bestScore) / float64(total+1))
	}

	return best, clamp01(float64(bestScore) / float64(total+1))
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Package query implements the question answering pipeline.
package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/glassdesk/glassdesk/internal/core"
	"github.com/glassdesk/glassdesk/internal/llm"
	"github.com/glassdesk/glassdesk/internal/logging"
)

// FallbackResponse is returned verbatim when generation fails. The
// answer is always text, never a raw error.
const FallbackResponse = "I couldn't generate an answer right now. Please try again in a moment."

// systemPrompt is the fixed instruction preamble
const systemPrompt = `You are GlassDesk, a workplace assistant. Answer the user's question using only the context records provided. Be concise and specific. If the context does not contain the answer, say so plainly instead of guessing.`

// noContextMarker is injected when retrieval found nothing, so the
// model does not invent records
const noContextMarker = "No relevant data found for this question."

// promptBodyLimit caps how much of each record body goes in the prompt
const promptBodyLimit = 300

// Composer formats retrieved records and the question into a prompt
// and delegates generation to the LLM router.
type Composer struct {
	generator llm.Generator
	logger    *logging.Logger
}

// NewComposer creates a response composer
func NewComposer(generator llm.Generator) *Composer {
	return &Composer{
		generator: generator,
		logger:    logging.WithField("component", "composer"),
	}
}

// Compose builds the prompt and produces the final QueryResult. A
// failed LLM call degrades into the fixed fallback text with
// confidence forced to zero; category and context records are kept
// for diagnostics.
func (c *Composer) Compose(ctx context.Context, question string, category core.QueryCategory, confidence float64, contextRecords []*core.NormalizedRecord) *core.QueryResult {
	result := &core.QueryResult{
		Category:       category,
		Confidence:     confidence,
		ContextRecords: recordIDs(contextRecords),
		AnsweredAt:     time.Now().UTC(),
	}

	prompt := BuildPrompt(question, contextRecords)

	text, err := c.generator.Generate(ctx, systemPrompt, prompt)
	if err != nil {
		c.logger.Warn("generation failed, serving fallback: %v", err)
		result.ResponseText = FallbackResponse
		result.Confidence = 0
		return result
	}

	result.ResponseText = text
	return result
}

// BuildPrompt enumerates the context records and appends the verbatim
// question. Empty context gets an explicit marker, never an empty
// section.
func BuildPrompt(question string, records []*core.NormalizedRecord) string {
	var b strings.Builder

	b.WriteString("Context records:\n")
	if len(records) == 0 {
		b.WriteString(noContextMarker)
		b.WriteString("\n")
	} else {
		for i, rec := range records {
			body := rec.Body
			if len(body) > promptBodyLimit {
				body = body[:promptBodyLimit] + "..."
			}

			fmt.Fprintf(&b, "%d. [%s] %s (%s)\n", i+1, rec.Source, rec.Title,
				rec.Timestamp.UTC().Format("2006-01-02 15:04"))
			if body != "" {
				fmt.Fprintf(&b, "   %s\n", body)
			}
			if rec.HasActionItems() {
				fmt.Fprintf(&b, "   Action items: %s\n", strings.Join(rec.ActionItems, "; "))
			}
		}
	}

	b.WriteString("\nQuestion: ")
	b.WriteString(question)

	return b.String()
}

func recordIDs(records []*core.NormalizedRecord) []core.RecordID {
	ids := make([]core.RecordID, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	return ids
}

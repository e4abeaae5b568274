// Package llm provides text generation for the query pipeline.
package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/glassdesk/glassdesk/internal/core"
)

// Generator is the text generation capability the response composer
// consumes. Implementations must honor context cancellation.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Provider names an LLM backend
type Provider string

const (
	ProviderClaude Provider = "claude"
	ProviderOllama Provider = "ollama"
)

// chatter is the shared surface of the two clients
type chatter interface {
	Chat(ctx context.Context, system, userMessage string) (string, error)
	IsConfigured() bool
}

// RouterConfig configures the generation router
type RouterConfig struct {
	Claude *ClaudeClient
	Ollama *OllamaClient

	// PreferLocal routes to Ollama first when it is reachable
	PreferLocal bool

	// EnableFallback tries the other provider when the first fails
	EnableFallback bool

	// Timeout bounds a single generation call end to end, fallback
	// included
	Timeout time.Duration
}

// Router picks an LLM backend per call and falls back to the other on
// failure. Every error is wrapped with ErrLLMUnavailable so callers
// can treat generation failure uniformly.
type Router struct {
	claude *ClaudeClient
	ollama *OllamaClient

	preferLocal    bool
	enableFallback bool
	timeout        time.Duration

	mu    sync.RWMutex
	stats RouterStats
}

// RouterStats tracks router usage
type RouterStats struct {
	ClaudeRequests int64
	OllamaRequests int64
	FallbackCount  int64
	FailureCount   int64
}

// NewRouter creates a generation router
func NewRouter(cfg RouterConfig) *Router {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Router{
		claude:         cfg.Claude,
		ollama:         cfg.Ollama,
		preferLocal:    cfg.PreferLocal,
		enableFallback: cfg.EnableFallback,
		timeout:        cfg.Timeout,
	}
}

// Generate produces text for a prompt. It tries the preferred provider
// first, falls back to the other when enabled, and fails with
// ErrLLMUnavailable when nothing could serve the request.
func (r *Router) Generate(ctx context.Context, system, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	order := r.providerOrder()
	if len(order) == 0 {
		r.countFailure()
		return "", fmt.Errorf("%w: no provider configured", core.ErrLLMUnavailable)
	}

	var lastErr error
	for i, p := range order {
		if i > 0 && !r.enableFallback {
			break
		}

		text, err := r.chat(ctx, p, system, prompt)
		if err == nil {
			r.countSuccess(p, i > 0)
			return text, nil
		}
		lastErr = err

		// A dead context means fallback would fail the same way
		if ctx.Err() != nil {
			break
		}
	}

	r.countFailure()
	return "", fmt.Errorf("%w: %v", core.ErrLLMUnavailable, lastErr)
}

func (r *Router) providerOrder() []Provider {
	var order []Provider

	claudeOK := r.claude != nil && r.claude.IsConfigured()
	ollamaOK := r.ollama != nil

	if r.preferLocal {
		if ollamaOK {
			order = append(order, ProviderOllama)
		}
		if claudeOK {
			order = append(order, ProviderClaude)
		}
		return order
	}

	if claudeOK {
		order = append(order, ProviderClaude)
	}
	if ollamaOK {
		order = append(order, ProviderOllama)
	}
	return order
}

func (r *Router) chat(ctx context.Context, p Provider, system, prompt string) (string, error) {
	var client chatter
	switch p {
	case ProviderClaude:
		client = r.claude
	case ProviderOllama:
		client = r.ollama
	default:
		return "", fmt.Errorf("unknown provider: %s", p)
	}
	return client.Chat(ctx, system, prompt)
}

func (r *Router) countSuccess(p Provider, wasFallback bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch p {
	case ProviderClaude:
		r.stats.ClaudeRequests++
	case ProviderOllama:
		r.stats.OllamaRequests++
	}
	if wasFallback {
		r.stats.FallbackCount++
	}
}

func (r *Router) countFailure() {
	r.mu.Lock()
	r.stats.FailureCount++
	r.mu.Unlock()
}

// GetStats returns router statistics
func (r *Router) GetStats() RouterStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats
}

// HealthCheck reports which providers are reachable
func (r *Router) HealthCheck(ctx context.Context) map[Provider]bool {
	health := make(map[Provider]bool)

	if r.claude != nil {
		health[ProviderClaude] = r.claude.IsConfigured()
	}
	if r.ollama != nil {
		health[ProviderOllama] = r.ollama.IsConfigured()
	}

	return health
}

// GlassDesk Daemon - the backend service behind the dashboard.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/glassdesk/glassdesk/internal/api"
	"github.com/glassdesk/glassdesk/internal/auth"
	"github.com/glassdesk/glassdesk/internal/config"
	"github.com/glassdesk/glassdesk/internal/ingest"
	"github.com/glassdesk/glassdesk/internal/llm"
	"github.com/glassdesk/glassdesk/internal/providers"
	"github.com/glassdesk/glassdesk/internal/query"
	"github.com/glassdesk/glassdesk/internal/scheduler"
	"github.com/glassdesk/glassdesk/internal/storage"
	"github.com/glassdesk/glassdesk/internal/summary"
	"github.com/glassdesk/glassdesk/internal/vectors"
)

var (
	dataDir    string
	configPath string
	port       int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "glassdesk",
		Short: "GlassDesk Daemon - Your workspace, one pane of glass",
		RunE:  runDaemon,
	}

	rootCmd.Flags().StringVar(&dataDir, "data-dir", "", "Data directory (default ~/.glassdesk)")
	rootCmd.Flags().StringVar(&configPath, "config", "", "Config file path")
	rootCmd.Flags().IntVar(&port, "port", 0, "HTTP server port (default 8080)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runDaemon(cmd *cobra.Command, args []string) error {
	fmt.Println("🚀 Starting GlassDesk...")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if port != 0 {
		cfg.Server.Port = port
	}

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	// Open database
	db, err := storage.Open(storage.Config{Path: filepath.Join(cfg.DataDir, "glassdesk.db")})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	// Sessions and token vault share the secret
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		fmt.Println("⚠️  GLASSDESK_JWT_SECRET not set - using an insecure development secret")
		secret = "glassdesk-dev-secret"
	}

	vault, err := auth.NewVault(secret, cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open token vault: %w", err)
	}

	users := storage.NewUserStore(db)
	records := storage.NewRecordStore(db)
	summaries := storage.NewSummaryStore(db)
	tokens := storage.NewTokenStore(db, vault)

	oauthMgr := auth.NewOAuthManager(cfg, tokens)
	sessions := auth.NewSessionManager(secret, cfg.Auth.SessionExpiry)

	// LLM backends
	claude := llm.NewClaudeClient(llm.ClaudeConfig{
		APIKey: cfg.Claude.APIKey,
		Model:  cfg.Claude.Model,
	})
	ollama := llm.NewOllamaClient(llm.OllamaConfig{
		BaseURL: cfg.Ollama.URL,
		Model:   cfg.Ollama.Model,
	})

	if claude.IsConfigured() {
		fmt.Println("✅ Claude API configured")
	} else {
		fmt.Println("⚠️  ANTHROPIC_API_KEY not set - responses will use Ollama only")
	}

	llmRouter := llm.NewRouter(llm.RouterConfig{
		Claude:         claude,
		Ollama:         ollama,
		EnableFallback: true,
	})

	// Semantic index (Qdrant + Ollama embeddings), optional
	var semantic query.SemanticSearcher
	var indexer ingest.Indexer
	if cfg.Features.EnableSemantic {
		if idx := connectSemanticIndex(cfg, ollama); idx != nil {
			semantic = idx
			indexer = idx
		}
	}

	// Ingest pipeline and provider sync
	ingestSvc := ingest.NewService(records, ingest.NewClassifier(ingest.DefaultClassifierConfig()))
	syncer := ingest.NewSyncer(ingestSvc, indexer)
	registerConnectors(cfg, oauthMgr, users, syncer)

	aggregator := summary.NewAggregator(records)

	queries := query.NewService(
		records,
		query.NewClassifier(query.DefaultClassifierConfig()),
		query.NewRetriever(cfg.Query.MaxContextItems, cfg.Query.MaxContextChars),
		query.NewComposer(llmRouter),
		semantic,
	)

	// Background jobs
	var sched *scheduler.Scheduler
	if cfg.Features.EnableScheduler {
		sched = scheduler.New()
		jobs := &scheduler.Jobs{
			Users:     users,
			Syncer:    syncer,
			Aggreg:    aggregator,
			Summaries: summaries,
			Tokens:    tokens,
			Refresher: func(ctx context.Context, userID, provider string) error {
				_, err := oauthMgr.Token(ctx, userID, provider)
				return err
			},
		}
		if err := jobs.RegisterAll(sched, 15*time.Minute); err != nil {
			return fmt.Errorf("failed to register jobs: %w", err)
		}
		sched.Start()
		defer sched.Stop()
		fmt.Println("⏰ Scheduler started")
	}

	server := api.New(api.Config{
		Host:       cfg.Server.Host,
		Port:       cfg.Server.Port,
		Users:      users,
		Records:    records,
		Summaries:  summaries,
		Sessions:   sessions,
		OAuth:      oauthMgr,
		Syncer:     syncer,
		Aggregator: aggregator,
		Queries:    queries,
		LLMRouter:  llmRouter,
		Scheduler:  sched,
	})

	// Handle shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		fmt.Println("\n🛑 Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Stop(ctx)
	}()

	fmt.Printf("🌐 Open http://%s:%d in your browser\n", cfg.Server.Host, cfg.Server.Port)
	return server.Start()
}

// connectSemanticIndex wires Qdrant and the embedding model. Either
// being unreachable disables semantic search but not the daemon.
func connectSemanticIndex(cfg *config.Config, ollama *llm.OllamaClient) *vectors.RecordIndex {
	vstore, err := vectors.NewStore(vectors.Config{
		Host: cfg.Qdrant.Host,
		Port: cfg.Qdrant.Port,
	})
	if err != nil {
		fmt.Printf("⚠️  Qdrant not available: %v\n", err)
		fmt.Println("   Semantic search disabled, keyword retrieval still works")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := vstore.EnsureCollection(ctx, vectors.DefaultDimension); err != nil {
		fmt.Printf("⚠️  Failed to prepare vector collection: %v\n", err)
		vstore.Close()
		return nil
	}

	if !ollama.IsConfigured() {
		fmt.Println("⚠️  Ollama not reachable - semantic search disabled")
		vstore.Close()
		return nil
	}

	fmt.Println("✅ Qdrant connected")
	return vectors.NewRecordIndex(vstore, ollama)
}

// registerConnectors wires live provider clients when a connected
// account exists, and falls back to sample workspace data otherwise
// so the dashboard is never empty on first run.
func registerConnectors(cfg *config.Config, oauthMgr *auth.OAuthManager, users *storage.UserStore, syncer *ingest.Syncer) {
	live := 0
	if userID := firstConnectedUser(oauthMgr, users, providers.ProviderGoogle); userID != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		client, err := oauthMgr.Client(ctx, userID, providers.ProviderGoogle)
		if err == nil {
			gmail, gerr := providers.NewGmailClient(ctx, client.HTTPClient)
			if gerr == nil {
				syncer.Register(providers.NewGmailConnector(gmail))
				live++
			} else {
				fmt.Printf("⚠️  Gmail client init failed: %v\n", gerr)
			}
		}
		cancel()
	}
	if userID := firstConnectedUser(oauthMgr, users, providers.ProviderZoom); userID != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		client, err := oauthMgr.Client(ctx, userID, providers.ProviderZoom)
		cancel()
		if err == nil {
			syncer.Register(providers.NewZoomConnector(providers.NewZoomClient(client.HTTPClient, cfg.Zoom.BaseURL)))
			live++
		}
	}
	if userID := firstConnectedUser(oauthMgr, users, providers.ProviderAsana); userID != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		client, err := oauthMgr.Client(ctx, userID, providers.ProviderAsana)
		cancel()
		if err == nil {
			syncer.Register(providers.NewAsanaConnector(providers.NewAsanaClient(client.HTTPClient, cfg.Asana.BaseURL)))
			live++
		}
	}

	if live > 0 {
		fmt.Printf("🔌 %d live provider(s) connected\n", live)
		return
	}

	for _, conn := range providers.MockConnectors(time.Now().UTC()) {
		syncer.Register(conn)
	}
	fmt.Println("📦 No providers connected - using sample workspace data")
}

// firstConnectedUser returns the ID of the first user holding a token
// for the provider, or "" when nobody has connected it yet.
func firstConnectedUser(oauthMgr *auth.OAuthManager, users *storage.UserStore, provider string) string {
	all, err := users.List()
	if err != nil {
		return ""
	}
	for _, u := range all {
		connected, err := oauthMgr.Connected(u.ID)
		if err != nil {
			continue
		}
		if connected[provider] {
			return u.ID
		}
	}
	return ""
}

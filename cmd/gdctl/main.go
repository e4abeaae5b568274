// GlassDesk CLI - manage a local GlassDesk installation.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/glassdesk/glassdesk/internal/auth"
	"github.com/glassdesk/glassdesk/internal/config"
	"github.com/glassdesk/glassdesk/internal/core"
	"github.com/glassdesk/glassdesk/internal/llm"
	"github.com/glassdesk/glassdesk/internal/query"
	"github.com/glassdesk/glassdesk/internal/storage"
	"github.com/glassdesk/glassdesk/internal/summary"
)

var (
	dataDir string

	version = "0.1.0"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gdctl",
		Short: "GlassDesk - Your workspace, one pane of glass",
		Long: `GlassDesk pulls email, meetings, and tasks into one place and
answers questions about your day.

Run 'gdctl init' once, then start the daemon with 'glassdesk'.`,
	}

	home, _ := os.UserHomeDir()
	defaultDataDir := filepath.Join(home, ".glassdesk")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", defaultDataDir, "data directory")

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initCmd sets up the data directory, database, and first account
func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize GlassDesk with your account",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath := filepath.Join(dataDir, "glassdesk.db")
			if _, err := os.Stat(dbPath); err == nil {
				fmt.Println("⚠️  GlassDesk is already initialized!")
				fmt.Printf("   Data directory: %s\n", dataDir)
				fmt.Println("\nUse 'gdctl status' to check your installation.")
				return nil
			}

			fmt.Println("🚀 Welcome to GlassDesk!")
			fmt.Println("   Let's set up your account.")
			fmt.Println()

			reader := bufio.NewReader(os.Stdin)
			fmt.Print("Your email: ")
			email, _ := reader.ReadString('\n')
			email = strings.ToLower(strings.TrimSpace(email))
			if email == "" {
				return fmt.Errorf("email is required")
			}

			fmt.Print("Your name: ")
			name, _ := reader.ReadString('\n')
			name = strings.TrimSpace(name)

			secret, err := readSecret()
			if err != nil {
				return err
			}

			fmt.Println("\n⏳ Creating database...")
			db, err := storage.Open(storage.Config{Path: dbPath})
			if err != nil {
				return fmt.Errorf("failed to create database: %w", err)
			}
			defer db.Close()

			if err := db.Migrate(); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			// Creating the vault persists its salt next to the database
			fmt.Println("⏳ Setting up the token vault...")
			if _, err := auth.NewVault(secret, dataDir); err != nil {
				return fmt.Errorf("failed to create token vault: %w", err)
			}

			user, err := storage.NewUserStore(db).GetOrCreate(email, name)
			if err != nil {
				return fmt.Errorf("failed to create account: %w", err)
			}

			cfg := config.Default()
			cfg.DataDir = dataDir
			if err := cfg.Save(""); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			fmt.Println("\n✅ GlassDesk initialized!")
			fmt.Println()
			fmt.Printf("   Account: %s\n", user.Email)
			fmt.Printf("   User ID: %s\n", user.ID)
			fmt.Printf("   Data directory: %s\n", dataDir)
			fmt.Println()
			fmt.Println("🔐 Export your secret before starting the daemon:")
			fmt.Println("   export GLASSDESK_JWT_SECRET=<your secret>")
			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Println("   glassdesk       - start the daemon")
			fmt.Println("   gdctl status    - check your installation")
			fmt.Println("   gdctl ask       - ask about your day")

			return nil
		},
	}
}

// readSecret prompts twice so a typo doesn't lock the vault forever
func readSecret() (string, error) {
	fmt.Print("\nCreate a secret (min 8 chars): ")
	first, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	fmt.Println()

	if len(first) < 8 {
		return "", fmt.Errorf("secret must be at least 8 characters")
	}

	fmt.Print("Confirm secret: ")
	second, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	fmt.Println()

	if string(first) != string(second) {
		return "", fmt.Errorf("secrets don't match")
	}

	return string(first), nil
}

// statusCmd shows the installation state
func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show GlassDesk status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath := filepath.Join(dataDir, "glassdesk.db")
			if _, err := os.Stat(dbPath); os.IsNotExist(err) {
				fmt.Println("❌ GlassDesk is not initialized.")
				fmt.Println("   Run 'gdctl init' to get started.")
				return nil
			}

			db, err := storage.Open(storage.Config{Path: dbPath})
			if err != nil {
				return err
			}
			defer db.Close()

			users, err := storage.NewUserStore(db).List()
			if err != nil {
				return err
			}

			fmt.Println("📊 GlassDesk Status")
			fmt.Println()
			fmt.Printf("   Data: %s\n", dataDir)
			fmt.Printf("   Accounts: %d\n", len(users))

			records := storage.NewRecordStore(db)
			for _, u := range users {
				counts, err := records.CountBySource(u.ID)
				if err != nil {
					continue
				}
				fmt.Println()
				fmt.Printf("   %s\n", u.Email)
				fmt.Printf("   📧 Emails: %d\n", counts[core.SourceEmail])
				fmt.Printf("   📅 Meetings: %d\n", counts[core.SourceMeeting])
				fmt.Printf("   ✅ Tasks: %d\n", counts[core.SourceTask])
			}

			return nil
		},
	}
}

// askCmd runs one question through the query pipeline
func askCmd() *cobra.Command {
	var userEmail string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about your workspace",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")

			db, user, err := openAccount(userEmail)
			if err != nil {
				return err
			}
			defer db.Close()

			cfg, err := config.Load(filepath.Join(dataDir, "config.json"))
			if err != nil {
				return err
			}

			queries := query.NewService(
				storage.NewRecordStore(db),
				query.NewClassifier(query.DefaultClassifierConfig()),
				query.NewRetriever(cfg.Query.MaxContextItems, cfg.Query.MaxContextChars),
				query.NewComposer(newRouter(cfg)),
				nil, // keyword retrieval only; the daemon owns the vector index
			)

			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			result, err := queries.AnswerQuery(ctx, user.ID, question)
			if err != nil {
				return err
			}

			fmt.Println(result.ResponseText)
			fmt.Println()
			fmt.Printf("   (%s, confidence %.2f, %d records)\n",
				result.Category, result.Confidence, len(result.ContextRecords))
			return nil
		},
	}

	cmd.Flags().StringVar(&userEmail, "user", "", "account email (default: first account)")
	return cmd
}

// summaryCmd prints the daily summary
func summaryCmd() *cobra.Command {
	var userEmail, dateStr string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show the daily summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			day := time.Now().UTC()
			if dateStr != "" {
				parsed, err := time.Parse("2006-01-02", dateStr)
				if err != nil {
					return fmt.Errorf("invalid date %q, want YYYY-MM-DD", dateStr)
				}
				day = parsed
			}

			db, user, err := openAccount(userEmail)
			if err != nil {
				return err
			}
			defer db.Close()

			records := storage.NewRecordStore(db)
			ds, err := summary.NewAggregator(records).ForDay(user.ID, day)
			if err != nil {
				return err
			}

			fmt.Printf("📋 Summary for %s\n", ds.Date.Format("2006-01-02"))
			fmt.Println()
			fmt.Printf("   📧 Emails: %d\n", ds.Counts[core.SourceEmail])
			fmt.Printf("   📅 Meetings: %d\n", ds.Counts[core.SourceMeeting])
			fmt.Printf("   ✅ Tasks: %d\n", ds.Counts[core.SourceTask])

			if len(ds.Highlights) > 0 {
				fmt.Println()
				fmt.Println("   Highlights:")
				for _, id := range ds.Highlights {
					rec, err := records.GetByID(user.ID, id)
					if err != nil {
						continue
					}
					fmt.Printf("   • [%s] %s\n", rec.Source, rec.Title)
				}
			}

			for _, insight := range ds.Insights {
				fmt.Printf("\n   💡 %s\n", insight)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&userEmail, "user", "", "account email (default: first account)")
	cmd.Flags().StringVar(&dateStr, "date", "", "day to summarize (YYYY-MM-DD, default today)")
	return cmd
}

// versionCmd shows version
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show GlassDesk version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("GlassDesk %s\n", version)
			fmt.Println("Your workspace, one pane of glass")
		},
	}
}

// openAccount opens the database and resolves the account to act as
func openAccount(email string) (*storage.DB, *core.User, error) {
	dbPath := filepath.Join(dataDir, "glassdesk.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("GlassDesk is not initialized, run 'gdctl init' first")
	}

	db, err := storage.Open(storage.Config{Path: dbPath})
	if err != nil {
		return nil, nil, err
	}

	users := storage.NewUserStore(db)

	if email != "" {
		user, err := users.GetByEmail(strings.ToLower(strings.TrimSpace(email)))
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return db, user, nil
	}

	all, err := users.List()
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	if len(all) == 0 {
		db.Close()
		return nil, nil, fmt.Errorf("no accounts yet, run 'gdctl init' first")
	}
	return db, all[0], nil
}

// newRouter builds the same generation stack the daemon uses
func newRouter(cfg *config.Config) *llm.Router {
	return llm.NewRouter(llm.RouterConfig{
		Claude: llm.NewClaudeClient(llm.ClaudeConfig{
			APIKey: cfg.Claude.APIKey,
			Model:  cfg.Claude.Model,
		}),
		Ollama: llm.NewOllamaClient(llm.OllamaConfig{
			BaseURL: cfg.Ollama.URL,
			Model:   cfg.Ollama.Model,
		}),
		EnableFallback: true,
	})
}

// Package auth handles OAuth flows, token storage, and API sessions.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/glassdesk/glassdesk/internal/config"
	"github.com/glassdesk/glassdesk/internal/core"
	"github.com/glassdesk/glassdesk/internal/providers"
	"github.com/glassdesk/glassdesk/internal/storage"
)

// stateTTL bounds how long an OAuth authorization may stay pending
const stateTTL = 10 * time.Minute

// zoomEndpoint is Zoom's OAuth2 endpoint
var zoomEndpoint = oauth2.Endpoint{
	AuthURL:  "https://zoom.us/oauth/authorize",
	TokenURL: "https://zoom.us/oauth/token",
}

// asanaEndpoint is Asana's OAuth2 endpoint
var asanaEndpoint = oauth2.Endpoint{
	AuthURL:  "https://app.asana.com/-/oauth_authorize",
	TokenURL: "https://app.asana.com/-/oauth_token",
}

// ClientWithToken bundles an authenticated HTTP client with the token
// that backs it
type ClientWithToken struct {
	HTTPClient *http.Client
	Token      *oauth2.Token
	Config     *oauth2.Config
}

// pendingAuth tracks one in-flight authorization
type pendingAuth struct {
	provider  string
	userID    string
	verifier  string // PKCE code verifier
	createdAt time.Time
}

// OAuthManager runs the authorization code + PKCE flow for all three
// providers and persists tokens through the encrypted store.
type OAuthManager struct {
	configs map[string]*oauth2.Config
	tokens  *storage.TokenStore

	mu      sync.Mutex
	pending map[string]pendingAuth // keyed by state
}

// NewOAuthManager builds the per-provider oauth2 configs
func NewOAuthManager(cfg *config.Config, tokens *storage.TokenStore) *OAuthManager {
	return &OAuthManager{
		configs: map[string]*oauth2.Config{
			providers.ProviderGoogle: {
				ClientID:     cfg.Google.ClientID,
				ClientSecret: cfg.Google.ClientSecret,
				RedirectURL:  cfg.Google.RedirectURL,
				Scopes: []string{
					gmailapi.GmailReadonlyScope,
					"openid", "email", "profile",
				},
				Endpoint: google.Endpoint,
			},
			providers.ProviderZoom: {
				ClientID:     cfg.Zoom.ClientID,
				ClientSecret: cfg.Zoom.ClientSecret,
				RedirectURL:  cfg.Zoom.RedirectURL,
				Endpoint:     zoomEndpoint,
			},
			providers.ProviderAsana: {
				ClientID:     cfg.Asana.ClientID,
				ClientSecret: cfg.Asana.ClientSecret,
				RedirectURL:  cfg.Asana.RedirectURL,
				Endpoint:     asanaEndpoint,
			},
		},
		tokens:  tokens,
		pending: make(map[string]pendingAuth),
	}
}

// AuthURL starts an authorization for a user and provider. Returns the
// URL to redirect the user to; the state is held server-side with a
// PKCE verifier until the callback.
func (m *OAuthManager) AuthURL(provider, userID string) (string, error) {
	cfg, ok := m.configs[provider]
	if !ok {
		return "", fmt.Errorf("%w: %q", core.ErrUnknownProvider, provider)
	}

	state, err := randomToken()
	if err != nil {
		return "", err
	}
	verifier := oauth2.GenerateVerifier()

	m.mu.Lock()
	m.prunePendingLocked()
	m.pending[state] = pendingAuth{
		provider:  provider,
		userID:    userID,
		verifier:  verifier,
		createdAt: time.Now(),
	}
	m.mu.Unlock()

	opts := []oauth2.AuthCodeOption{
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
	}
	if provider == providers.ProviderGoogle {
		opts = append(opts, oauth2.ApprovalForce)
	}

	return cfg.AuthCodeURL(state, opts...), nil
}

// HandleCallback completes the flow: validates state, exchanges the
// code with the PKCE verifier, and stores the encrypted token. Returns
// the user the authorization belongs to and the provider.
func (m *OAuthManager) HandleCallback(ctx context.Context, state, code string) (userID, provider string, err error) {
	m.mu.Lock()
	auth, ok := m.pending[state]
	delete(m.pending, state)
	m.mu.Unlock()

	if !ok || time.Since(auth.createdAt) > stateTTL {
		return "", "", core.ErrInvalidState
	}

	cfg := m.configs[auth.provider]
	token, err := cfg.Exchange(ctx, code, oauth2.VerifierOption(auth.verifier))
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", core.ErrAuthenticationFailed, err)
	}

	if err := m.storeToken(auth.userID, auth.provider, token); err != nil {
		return "", "", err
	}

	return auth.userID, auth.provider, nil
}

// Token returns a live token for a user and provider, refreshing and
// re-persisting it when expired. Returns ErrTokenNotFound when the
// user never connected the provider.
func (m *OAuthManager) Token(ctx context.Context, userID, provider string) (*oauth2.Token, error) {
	cfg, ok := m.configs[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownProvider, provider)
	}

	data, err := m.tokens.Get(userID, provider)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, core.ErrTokenNotFound
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("decode stored token: %w", err)
	}

	if token.Valid() {
		return &token, nil
	}

	// Refresh and persist the new token
	fresh, err := cfg.TokenSource(ctx, &token).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: refresh: %v", core.ErrAuthenticationFailed, err)
	}
	if err := m.storeToken(userID, provider, fresh); err != nil {
		return nil, err
	}

	return fresh, nil
}

// Client returns an authenticated HTTP client for a provider
func (m *OAuthManager) Client(ctx context.Context, userID, provider string) (*ClientWithToken, error) {
	token, err := m.Token(ctx, userID, provider)
	if err != nil {
		return nil, err
	}

	cfg := m.configs[provider]
	return &ClientWithToken{
		HTTPClient: oauth2.NewClient(ctx, cfg.TokenSource(ctx, token)),
		Token:      token,
		Config:     cfg,
	}, nil
}

// Connected lists which providers a user has tokens for
func (m *OAuthManager) Connected(userID string) (map[string]bool, error) {
	stored, err := m.tokens.ListProviders(userID)
	if err != nil {
		return nil, err
	}

	connected := make(map[string]bool, len(m.configs))
	for p := range m.configs {
		connected[p] = false
	}
	for _, p := range stored {
		connected[p] = true
	}
	return connected, nil
}

// Disconnect removes a user's token for a provider
func (m *OAuthManager) Disconnect(userID, provider string) error {
	if _, ok := m.configs[provider]; !ok {
		return fmt.Errorf("%w: %q", core.ErrUnknownProvider, provider)
	}
	return m.tokens.Delete(userID, provider)
}

func (m *OAuthManager) storeToken(userID, provider string, token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}

	var expiresAt *time.Time
	if !token.Expiry.IsZero() {
		t := token.Expiry.UTC()
		expiresAt = &t
	}

	tokenType := token.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}

	return m.tokens.Store(userID, provider, tokenType, data, expiresAt)
}

// prunePendingLocked drops expired pending authorizations. Caller
// holds the mutex.
func (m *OAuthManager) prunePendingLocked() {
	for state, auth := range m.pending {
		if time.Since(auth.createdAt) > stateTTL {
			delete(m.pending, state)
		}
	}
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

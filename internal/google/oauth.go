package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DefaultTokenFile is where the authorized token is kept when no path is configured.
const DefaultTokenFile = "token.json"

// ErrNoToken is returned when no stored token exists yet.
var ErrNoToken = errors.New("no Google OAuth token found; run the auth command first")

// LoadOAuthConfig builds the OAuth2 configuration from a Google client
// secrets file (the credentials.json downloaded from the Cloud console).
func LoadOAuthConfig(credentialsFile string) (*oauth2.Config, error) {
	if credentialsFile == "" {
		return nil, fmt.Errorf("credentials file is not configured (set CREDENTIALS_FILE or --credentials-file)")
	}

	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file %s: %w", credentialsFile, err)
	}

	conf, err := google.ConfigFromJSON(data, DefaultOAuthScopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials file %s: %w", credentialsFile, err)
	}
	return conf, nil
}

// GetAuthURL returns the URL the user visits to grant calendar access.
// Offline access is requested so the token carries a refresh token.
func GetAuthURL(conf *oauth2.Config) string {
	return conf.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// ExchangeAuthCode exchanges an authorization code for a token and stores it at path.
func ExchangeAuthCode(ctx context.Context, conf *oauth2.Config, code, path string) (*oauth2.Token, error) {
	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	if err := SaveToken(path, token); err != nil {
		return nil, err
	}
	return token, nil
}

// LoadToken reads a JSON-encoded token from path.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("invalid token file %s: %w", path, err)
	}
	return &token, nil
}

// SaveToken writes token to path with owner-only permissions.
func SaveToken(path string, token *oauth2.Token) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create token directory: %w", err)
		}
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// NewHTTPClient returns an HTTP client that authenticates every request with
// the token from provider, refreshing it through conf when it expires.
func NewHTTPClient(ctx context.Context, conf *oauth2.Config, provider TokenProvider) (*http.Client, error) {
	if provider == nil {
		return nil, fmt.Errorf("token provider cannot be nil")
	}

	token, err := provider.Token(ctx)
	if err != nil {
		return nil, err
	}

	ts := &persistingTokenSource{
		base:     conf.TokenSource(ctx, token),
		provider: provider,
		last:     token.AccessToken,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(token, ts)), nil
}

// persistingTokenSource hands refreshed tokens back to the provider.
type persistingTokenSource struct {
	base     oauth2.TokenSource
	provider TokenProvider
	last     string
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	if token.AccessToken != s.last {
		s.last = token.AccessToken
		// A failed save only costs a refresh on the next start.
		_ = s.provider.Store(token)
	}
	return token, nil
}

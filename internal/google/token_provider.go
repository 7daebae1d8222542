package google

import (
	"context"

	"golang.org/x/oauth2"
)

// TokenProvider supplies and persists the OAuth token for the Calendar API.
type TokenProvider interface {
	// Token returns the stored token.
	Token(ctx context.Context) (*oauth2.Token, error)

	// Store persists a (refreshed) token.
	Store(token *oauth2.Token) error

	// HasToken reports whether a token is available.
	HasToken() bool
}

// FileTokenProvider keeps the token in a JSON file.
type FileTokenProvider struct {
	path string
}

// NewFileTokenProvider creates a provider for path. An empty path means DefaultTokenFile.
func NewFileTokenProvider(path string) *FileTokenProvider {
	if path == "" {
		path = DefaultTokenFile
	}
	return &FileTokenProvider{path: path}
}

// Path returns the token file location.
func (p *FileTokenProvider) Path() string {
	return p.path
}

// Token reads the token file.
func (p *FileTokenProvider) Token(_ context.Context) (*oauth2.Token, error) {
	return LoadToken(p.path)
}

// Store overwrites the token file.
func (p *FileTokenProvider) Store(token *oauth2.Token) error {
	return SaveToken(p.path, token)
}

// HasToken reports whether a readable token file exists.
func (p *FileTokenProvider) HasToken() bool {
	_, err := LoadToken(p.path)
	return err == nil
}

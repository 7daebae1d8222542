package cmd

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calendar-agent/internal/google"
)

// writeCredentials points an installed-app client at tokenURL.
func writeCredentials(t *testing.T, tokenURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.json")
	content := fmt.Sprintf(`{"installed":{"client_id":"client","client_secret":"secret",`+
		`"redirect_uris":["urn:ietf:wg:oauth:2.0:oob"],`+
		`"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":%q}}`, tokenURL)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func newTokenServer(t *testing.T, wantCode string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("code") != wantCode {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access","token_type":"Bearer","refresh_token":"refresh","expires_in":3600}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunAuth_CodeFlag(t *testing.T) {
	srv := newTokenServer(t, "the-code")
	cfg := &Config{
		CredentialsFile: writeCredentials(t, srv.URL),
		TokenFile:       filepath.Join(t.TempDir(), "token.json"),
	}

	var out bytes.Buffer
	require.NoError(t, runAuth(context.Background(), cfg, "the-code", strings.NewReader(""), &out))

	token, err := google.LoadToken(cfg.TokenFile)
	require.NoError(t, err)
	assert.Equal(t, "access", token.AccessToken)
	assert.Equal(t, "refresh", token.RefreshToken)
	assert.Contains(t, out.String(), "Token saved to")
}

func TestRunAuth_Interactive(t *testing.T) {
	srv := newTokenServer(t, "typed-code")
	cfg := &Config{
		CredentialsFile: writeCredentials(t, srv.URL),
		TokenFile:       filepath.Join(t.TempDir(), "token.json"),
	}

	var out bytes.Buffer
	require.NoError(t, runAuth(context.Background(), cfg, "", strings.NewReader("typed-code\n"), &out))

	assert.Contains(t, out.String(), "https://accounts.google.com/o/oauth2/auth")
	assert.Contains(t, out.String(), "access_type=offline")
	assert.FileExists(t, cfg.TokenFile)
}

func TestRunAuth_PastedRedirectURL(t *testing.T) {
	srv := newTokenServer(t, "4/0Abc")
	cfg := &Config{
		CredentialsFile: writeCredentials(t, srv.URL),
		TokenFile:       filepath.Join(t.TempDir(), "token.json"),
	}

	var out bytes.Buffer
	pasted := "http://localhost/?state=state-token&code=4%2F0Abc&scope=https://www.googleapis.com/auth/calendar\n"
	require.NoError(t, runAuth(context.Background(), cfg, "", strings.NewReader(pasted), &out))

	assert.Contains(t, out.String(), "address bar")
	assert.FileExists(t, cfg.TokenFile)
}

func TestAuthCodeFromInput(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "bare code", input: "4/0Abc", expected: "4/0Abc"},
		{name: "surrounding spaces", input: "  4/0Abc \n", expected: "4/0Abc"},
		{name: "redirect URL", input: "http://localhost/?state=s&code=4%2F0Abc&scope=x", expected: "4/0Abc"},
		{name: "query string only", input: "code=4%2F0Abc&scope=x", expected: "4/0Abc"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, authCodeFromInput(tt.input))
		})
	}
}

func TestRunAuth_EmptyCode(t *testing.T) {
	cfg := &Config{
		CredentialsFile: writeCredentials(t, "http://127.0.0.1:1/token"),
		TokenFile:       filepath.Join(t.TempDir(), "token.json"),
	}

	err := runAuth(context.Background(), cfg, "", strings.NewReader("\n"), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authorization code is required")
	assert.NoFileExists(t, cfg.TokenFile)
}

func TestRunAuth_MissingCredentials(t *testing.T) {
	cfg := &Config{CredentialsFile: filepath.Join(t.TempDir(), "nope.json")}

	err := runAuth(context.Background(), cfg, "code", strings.NewReader(""), &bytes.Buffer{})
	assert.Error(t, err)
}

func TestNewCalendarClient_NoToken(t *testing.T) {
	cfg := &Config{
		CredentialsFile: writeCredentials(t, "http://127.0.0.1:1/token"),
		TokenFile:       filepath.Join(t.TempDir(), "token.json"),
	}

	_, err := newCalendarClient(context.Background(), cfg, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "calendar-agent auth")
}

// Package google provides OAuth2 configuration and token storage for the
// Google Calendar API.
//
// Tokens are stored as JSON in a single file (token.json by default) and are
// rewritten whenever the oauth2 library refreshes them. The TokenProvider
// interface lets tests and alternative stores plug in their own source.
package google

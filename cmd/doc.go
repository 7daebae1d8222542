// Package cmd implements the command-line interface for calendar-agent.
//
// This package provides the following commands:
//   - chat: Talk to the calendar assistant on the terminal (default)
//   - serve: Expose the calendar tools as an MCP server over stdio
//   - auth: Authorize access to Google Calendar and store the token
//   - generate-docs: Generate markdown documentation for the tools
//   - version: Display version information
//
// The chat command is the default command when no subcommand is specified.
package cmd

// Package tools maps the tool names a language model may call onto calendar
// operations.
//
// A Registry holds one entry per tool: the mcp-go schema advertised to the
// model and a handler that decodes the raw JSON arguments and calls the
// calendar gateway or the search engine. Every dispatch produces a Result, a
// tagged payload that tells the model whether it received events, nothing,
// a confirmation or an error. The same registry can be exposed on an MCP
// server with RegisterMCPTools.
package tools

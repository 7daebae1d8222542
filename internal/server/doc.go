// Package server wires the calendar gateway, the search engine and the tool
// registry into a ServerContext shared by the chat session and the MCP
// server, and serves Prometheus metrics and health probes on a dedicated
// port.
package server

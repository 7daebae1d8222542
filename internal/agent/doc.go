// Package agent drives a conversation between a user, a language model and
// the calendar tools.
//
// A Loop owns the conversation history. For each user message it calls the
// model, runs every tool call the model asked for, appends one tool result
// per call and calls the model again until the model answers in plain text.
// Run wraps the loop in a line-based session on an io.Reader and io.Writer.
package agent

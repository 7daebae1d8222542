// Package llm defines the conversation entries exchanged with a language
// model and an OpenAI chat-completions implementation of the Model interface.
package llm

package llm

import "context"

// Request is one review call: a system instruction and the user prompt.
type Request struct {
	System string
	Prompt string
}

// Provider is the review capability the gateway calls once per file.
// Implementations do not retry; ctx bounds the whole round trip.
type Provider interface {
	GetModel() string
	Generate(ctx context.Context, req Request) (string, error)
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

var SupportedProviders = []string{"ollama", "openai"}

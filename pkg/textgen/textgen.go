// Package textgen abstracts the external text-generation collaborator.
// The narrative engine talks to the Client interface only; the OpenAI
// implementation lives alongside for production wiring.
package textgen

import "context"

// Request is one text-generation invocation.
type Request struct {
	System    string // system prompt, constraints already appended
	User      string // interpolated user prompt
	MaxTokens int    // token budget for the completion
}

// Completion is the collaborator's response plus usage accounting.
type Completion struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// Client generates text for a composed prompt pair. Implementations
// must be safe for sequential reuse; callers never retry a failed
// generation.
type Client interface {
	Generate(ctx context.Context, req *Request) (*Completion, error)
}

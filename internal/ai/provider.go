package ai

import "context"

// Request is one structured-output completion. Schema is the JSON schema the
// response content must satisfy, registered under SchemaName.
type Request struct {
	System     string
	Prompt     string
	SchemaName string
	Schema     map[string]any
	MaxTokens  int
}

// Completer returns the JSON content an LLM produced for req.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

package llm

import "context"

// Image is an inline image attached to a model request.
type Image struct {
	Data      []byte
	MediaType string // e.g. image/jpeg
}

// Request is one provider-neutral model call.
type Request struct {
	System string
	Prompt string
	Images []Image

	// Schema, when set, asks the provider for a reply that conforms exactly to this
	// JSON Schema. SchemaName labels it for providers that require a name.
	Schema     map[string]any
	SchemaName string
}

// Completer is the external vision/LLM capability the pipeline depends on.
// Implementations return the reply text; an empty string means the model produced no content.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req Request) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

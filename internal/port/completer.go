package port

import "context"

// Completion is the raw text a language model returned for one prompt.
type Completion struct {
	Text     string
	Model    string
	Provider string
}

// Completer abstracts a text completion capability: prompt in, raw text out.
type Completer interface {
	Complete(ctx context.Context, prompt string) (*Completion, error)
}

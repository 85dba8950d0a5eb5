package llm

import "context"

// Generator is the external text generation service. It is used strictly
// for phrasing already-decided, already-redacted content.
type Generator interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

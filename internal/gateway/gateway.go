package gateway

import (
	"context"
)

// TextCompleter is the single boundary to the language model: a prompt goes
// in, best-effort text comes out. Implementations must treat timeouts the
// same as an empty response and never block past their configured deadline.
type TextCompleter interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

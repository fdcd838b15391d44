package assistant

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spennies/spennies/internal/gateway"
)

const chatFallbackText = "I'm having trouble analyzing your data right now."

// ChatResponder generates persona-toned conversational replies over a
// financial context. Read-only: it never mutates state.
type ChatResponder struct {
	gw  gateway.TextCompleter
	log zerolog.Logger
}

// NewChatResponder creates a ChatResponder.
func NewChatResponder(gw gateway.TextCompleter, log zerolog.Logger) *ChatResponder {
	return &ChatResponder{gw: gw, log: log}
}

// Respond answers the user's question using their monthly snapshot. A failed
// generation returns a fixed apology line, never an error.
func (c *ChatResponder) Respond(ctx context.Context, fc *FinancialContext, message string) string {
	reply, err := c.gw.Complete(ctx, buildChatPrompt(fc, message))
	if err != nil {
		c.log.Warn().Err(err).Str("user_id", fc.UserID).Msg("Chat generation degraded to fallback")
		return chatFallbackText
	}
	return reply
}

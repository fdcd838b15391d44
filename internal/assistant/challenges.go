package assistant

import (
	"context"
)

// Challenge is a daily micro-saving task.
type Challenge struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Reward      float64 `json:"reward"`
}

func defaultChallenge() Challenge {
	return Challenge{
		ID:          "default",
		Title:       "Save ₹10 today",
		Description: "Put aside a small amount.",
		Reward:      10,
	}
}

// Challenge generates a personalized micro-saving challenge, falling back to
// a fixed one when generation fails or returns an unusable shape.
func (s *Summarizer) Challenge(ctx context.Context, fc *FinancialContext) Challenge {
	raw, err := s.gw.Complete(ctx, buildChallengePrompt(fc))
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", fc.UserID).Msg("Challenge generation degraded to fallback")
		return defaultChallenge()
	}

	obj, ok := decodeModelObject(raw)
	if !ok {
		return defaultChallenge()
	}

	title := looseString(obj["title"])
	description := looseString(obj["description"])
	if title == "" || description == "" {
		return defaultChallenge()
	}

	reward, has := looseFloat(obj["reward"])
	if !has || reward <= 0 {
		reward = 10
	}

	return Challenge{
		ID:          "generated",
		Title:       title,
		Description: description,
		Reward:      reward,
	}
}

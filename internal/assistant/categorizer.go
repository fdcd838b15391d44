package assistant

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spennies/spennies/internal/domain"
	"github.com/spennies/spennies/internal/gateway"
)

// CategoryResult is the categorizer's verdict for one transaction.
type CategoryResult struct {
	Category   string
	Confidence float64
}

var fallbackCategory = CategoryResult{Category: "Other", Confidence: 0.5}

// Categorizer assigns one of the closed category labels to a transaction
// description. It is a thin extractor variant: same gateway, same permissive
// JSON handling, category-specific prompt.
type Categorizer struct {
	gw  gateway.TextCompleter
	log zerolog.Logger
}

// NewCategorizer creates a Categorizer.
func NewCategorizer(gw gateway.TextCompleter, log zerolog.Logger) *Categorizer {
	return &Categorizer{gw: gw, log: log}
}

// Categorize returns a category for the described transaction. Any upstream
// failure or out-of-set label degrades to "Other" with low confidence.
func (c *Categorizer) Categorize(ctx context.Context, description string, amount float64) CategoryResult {
	raw, err := c.gw.Complete(ctx, buildCategorizePrompt(description, amount))
	if err != nil {
		c.log.Warn().Err(err).Msg("Categorization degraded to fallback")
		return fallbackCategory
	}

	obj, ok := decodeModelObject(raw)
	if !ok {
		return fallbackCategory
	}

	category := canonicalCategory(looseString(obj["category"]))
	if category == "" {
		return fallbackCategory
	}

	confidence, has := looseFloat(obj["confidence"])
	if !has || confidence < 0 || confidence > 1 {
		confidence = 0.5
	}

	return CategoryResult{Category: category, Confidence: confidence}
}

// canonicalCategory maps a free-form label to the closed set, or "" when it
// does not belong.
func canonicalCategory(raw string) string {
	needle := strings.ToLower(strings.TrimSpace(raw))
	for _, c := range domain.Categories {
		if strings.ToLower(c) == needle {
			return c
		}
	}
	return ""
}

package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spennies/spennies/internal/gateway"
)

// smsConfidenceFloor is the minimum model confidence required before an
// SMS-derived transaction is persisted.
const smsConfidenceFloor = 0.7

// SMSResult is the parsed content of a bank SMS.
type SMSResult struct {
	Amount      float64   `json:"amount"`
	Merchant    string    `json:"merchant"`
	Type        string    `json:"type"` // debit or credit
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Confidence  float64   `json:"confidence"`
}

// Persistable reports whether the parse is trustworthy enough to write.
func (r *SMSResult) Persistable() bool {
	return r.Confidence > smsConfidenceFloor && r.Amount > 0
}

// SMSParser extracts transactions from bank SMS text. Another thin extractor
// variant over the shared gateway.
type SMSParser struct {
	gw  gateway.TextCompleter
	log zerolog.Logger
}

// NewSMSParser creates an SMSParser.
func NewSMSParser(gw gateway.TextCompleter, log zerolog.Logger) *SMSParser {
	return &SMSParser{gw: gw, log: log}
}

// Parse extracts a transaction from smsText. A failed or unusable parse
// returns a zero-confidence result, never an error.
func (p *SMSParser) Parse(ctx context.Context, smsText string, today time.Time) SMSResult {
	raw, err := p.gw.Complete(ctx, buildSMSPrompt(smsText, today.Format("2006-01-02")))
	if err != nil {
		p.log.Warn().Err(err).Msg("SMS parsing degraded to empty result")
		return SMSResult{Date: today}
	}

	obj, ok := decodeModelObject(raw)
	if !ok {
		return SMSResult{Date: today}
	}

	result := SMSResult{Date: today}
	result.Amount, _ = looseFloat(obj["amount"])
	result.Merchant = looseString(obj["merchant"])
	result.Type = looseString(obj["type"])
	result.Confidence, _ = looseFloat(obj["confidence"])

	if category := canonicalCategory(looseString(obj["category"])); category != "" {
		result.Category = category
	} else {
		result.Category = "Other"
	}

	result.Description = looseString(obj["description"])
	if result.Description == "" {
		merchant := result.Merchant
		if merchant == "" {
			merchant = "Unknown"
		}
		result.Description = fmt.Sprintf("Payment at %s", merchant)
	}

	if dateStr := looseString(obj["date"]); dateStr != "" {
		if d, err := time.Parse("2006-01-02", dateStr); err == nil {
			result.Date = d
		}
	}

	return result
}

package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spennies/spennies/internal/domain"
	"github.com/spennies/spennies/internal/jobs"
	"github.com/spennies/spennies/internal/store"
)

// mutationTags are the result tags that change stored financial data and
// therefore invalidate the user's insights.
var mutationTags = map[string]bool{
	TagTransactionAdded:   true,
	TagTransactionDeleted: true,
	TagLoanUpdated:        true,
	TagBudgetUpdated:      true,
}

// Assistant is the entry point for everything conversational: it glues the
// extract -> normalize -> dispatch pipeline together and exposes the
// summarizer surfaces. One instance serves all users.
type Assistant struct {
	store      store.Store
	extractor  *Extractor
	dispatcher *Dispatcher
	summarizer *Summarizer
	sms        *SMSParser
	publisher  jobs.Publisher
	log        zerolog.Logger
	now        func() time.Time
}

// New creates an Assistant. publisher may be nil, which disables background
// insight refreshes.
func New(st store.Store, extractor *Extractor, dispatcher *Dispatcher, summarizer *Summarizer, sms *SMSParser, publisher jobs.Publisher, log zerolog.Logger) *Assistant {
	return &Assistant{
		store:      st,
		extractor:  extractor,
		dispatcher: dispatcher,
		summarizer: summarizer,
		sms:        sms,
		publisher:  publisher,
		log:        log,
		now:        time.Now,
	}
}

// HandleMessage runs one user message through the full pipeline and returns
// the reply. language is the request's declared reply language; empty falls
// back to the stored profile. Mutating outcomes schedule a background
// insight refresh.
func (a *Assistant) HandleMessage(ctx context.Context, userID, message, language string) Result {
	today := a.now()

	intent := a.extractor.Extract(ctx, message, today)
	action := Normalize(intent, today)
	result := a.dispatcher.Dispatch(ctx, action, userID, message, language)

	if mutationTags[result.Tag] {
		a.scheduleRefresh(ctx, userID, result.Tag)
	}
	return result
}

// scheduleRefresh enqueues an insight refresh. Best effort: a full queue or
// closed publisher only logs, the user-facing result is already decided.
func (a *Assistant) scheduleRefresh(ctx context.Context, userID, trigger string) {
	if a.publisher == nil {
		return
	}
	job := &jobs.RefreshInsightsJob{UserID: userID, Trigger: trigger}
	if err := a.publisher.PublishRefreshInsights(ctx, job); err != nil {
		a.log.Warn().Err(err).Str("user_id", userID).Msg("Failed to schedule insight refresh")
	}
}

// Insights returns the user's current insight report.
func (a *Assistant) Insights(ctx context.Context, userID string) (InsightReport, error) {
	fc, err := BuildFinancialContext(ctx, a.store, userID, a.now())
	if err != nil {
		return InsightReport{}, fmt.Errorf("Insights: %w", err)
	}
	return a.summarizer.Insights(ctx, fc, a.now()), nil
}

// RefreshInsights regenerates the user's insights from current data and
// persists them, replacing whatever was stored before. Called by the
// background worker after mutating commands, so it must not serve the
// pre-mutation cached report.
func (a *Assistant) RefreshInsights(ctx context.Context, userID string) error {
	now := a.now()

	fc, err := BuildFinancialContext(ctx, a.store, userID, now)
	if err != nil {
		return fmt.Errorf("RefreshInsights: %w", err)
	}
	report := a.summarizer.RegenerateInsights(ctx, fc, now)

	stored := make([]*domain.Insight, 0, len(report.Insights))
	for _, item := range report.Insights {
		stored = append(stored, &domain.Insight{
			ID:          uuid.NewString(),
			UserID:      userID,
			InsightType: domain.InsightType(item.Type),
			Content:     item.Message,
			GeneratedAt: now.UTC(),
		})
	}

	if err := a.store.ReplaceInsights(ctx, userID, stored); err != nil {
		return fmt.Errorf("RefreshInsights: %w", err)
	}
	return nil
}

// Forecast returns the end-of-month savings projection with explanation.
// A non-empty language overrides the stored profile language for the prose.
func (a *Assistant) Forecast(ctx context.Context, userID, language string) (Forecast, error) {
	today := a.now()
	fc, err := BuildFinancialContext(ctx, a.store, userID, today)
	if err != nil {
		return Forecast{}, fmt.Errorf("Forecast: %w", err)
	}
	if language != "" {
		fc.Language = language
	}
	return a.summarizer.Forecast(ctx, fc, today), nil
}

// Challenge returns a personalized daily saving challenge.
func (a *Assistant) Challenge(ctx context.Context, userID string) (Challenge, error) {
	fc, err := BuildFinancialContext(ctx, a.store, userID, a.now())
	if err != nil {
		return Challenge{}, fmt.Errorf("Challenge: %w", err)
	}
	return a.summarizer.Challenge(ctx, fc), nil
}

// ParseSMS extracts a transaction from bank SMS text and persists it when
// the parse clears the confidence floor. Returns the parse and, when one was
// written, the created transaction.
func (a *Assistant) ParseSMS(ctx context.Context, userID, smsText string) (SMSResult, *domain.Transaction, error) {
	today := a.now()
	result := a.sms.Parse(ctx, smsText, today)

	if !result.Persistable() {
		return result, nil, nil
	}

	txType := domain.TransactionExpense
	if normalizeLower(result.Type) == "credit" {
		txType = domain.TransactionIncome
	}

	now := today.UTC()
	tx := &domain.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Amount:      result.Amount,
		Category:    result.Category,
		Type:        txType,
		Description: result.Description,
		Date:        result.Date,
		Source:      domain.SourceSMS,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := a.store.InsertTransaction(ctx, tx); err != nil {
		return result, nil, fmt.Errorf("ParseSMS: %w", err)
	}

	a.scheduleRefresh(ctx, userID, TagTransactionAdded)
	return result, tx, nil
}

package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spennies/spennies/internal/domain"
	"github.com/spennies/spennies/internal/store"
)

// Dispatcher applies a normalized action to the user's records. It is a
// stateless transition function over the current store contents: every
// invocation re-reads what it needs and commits at most one record mutation.
type Dispatcher struct {
	store       store.Store
	categorizer *Categorizer
	chat        *ChatResponder
	log         zerolog.Logger
	now         func() time.Time
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(st store.Store, categorizer *Categorizer, chat *ChatResponder, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		store:       st,
		categorizer: categorizer,
		chat:        chat,
		log:         log,
		now:         time.Now,
	}
}

// Dispatch routes the action to its handler. message is the original user
// text and language the declared reply language, both needed by the chat
// path. Persistence failures are caught here: the store's per-mutation
// transactions roll back, the caller gets a generic failure result, and
// internals go to the log only.
func (d *Dispatcher) Dispatch(ctx context.Context, action NormalizedAction, userID, message, language string) Result {
	var (
		res Result
		err error
	)

	switch action.Action {
	case ActionAddTransaction:
		res, err = d.addTransaction(ctx, action, userID)
	case ActionDeleteTransaction:
		res, err = d.deleteTransaction(ctx, action, userID)
	case ActionAddLoan:
		res, err = d.addLoan(ctx, action, userID)
	case ActionPayLoan:
		res, err = d.payLoan(ctx, action, userID)
	case ActionDeleteLoan:
		res, err = d.deleteLoan(ctx, action, userID)
	case ActionUpdateProfile:
		res, err = d.updateProfile(ctx, action, userID)
	case ActionUpdateBudget:
		res, err = d.updateBudget(ctx, action, userID)
	default:
		res, err = d.answerQuestion(ctx, userID, message, language)
	}

	if err != nil {
		d.log.Error().Err(err).
			Str("user_id", userID).
			Str("action", string(action.Action)).
			Msg("Dispatch failed")
		return Result{Text: "Something went wrong, please try again.", Tag: TagError}
	}
	return res
}

func (d *Dispatcher) addTransaction(ctx context.Context, action NormalizedAction, userID string) (Result, error) {
	if action.Amount <= 0 {
		// Never write a zero-amount record; still reply conversationally.
		return Result{
			Text: "I couldn't find a valid amount in that. Try something like 'Spent 50 on chai'.",
			Tag:  TagNone,
		}, nil
	}

	category := d.categorizer.Categorize(ctx, action.Description, action.Amount)

	now := d.now().UTC()
	tx := &domain.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Amount:      action.Amount,
		Category:    category.Category,
		Type:        action.Type,
		Description: action.Description,
		Date:        action.Date,
		Source:      domain.SourceManual,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := d.store.InsertTransaction(ctx, tx); err != nil {
		return Result{}, fmt.Errorf("addTransaction: %w", err)
	}

	typeWord := "expense"
	if tx.Type == domain.TransactionIncome {
		typeWord = "income"
	}
	return Result{
		Text: fmt.Sprintf("✅ Added %s of ₹%.0f.", typeWord, tx.Amount),
		Tag:  TagTransactionAdded,
		Data: map[string]string{"transaction_id": tx.ID},
	}, nil
}

func (d *Dispatcher) deleteTransaction(ctx context.Context, action NormalizedAction, userID string) (Result, error) {
	filter := store.TransactionFilter{Description: action.Description}
	if action.Amount > 0 {
		amount := action.Amount
		filter.Amount = &amount
	}

	match, err := d.store.FindLatestMatch(ctx, userID, filter)
	if err != nil {
		return Result{}, fmt.Errorf("deleteTransaction: %w", err)
	}
	if match == nil {
		return Result{Text: "❌ Transaction not found.", Tag: TagNone}, nil
	}

	if err := d.store.DeleteTransaction(ctx, userID, match.ID); err != nil {
		return Result{}, fmt.Errorf("deleteTransaction: %w", err)
	}
	return Result{
		Text: fmt.Sprintf("🗑 Deleted: %s", match.Description),
		Tag:  TagTransactionDeleted,
	}, nil
}

func (d *Dispatcher) addLoan(ctx context.Context, action NormalizedAction, userID string) (Result, error) {
	if action.Amount <= 0 {
		return Result{
			Text: "I couldn't find the loan amount. Try 'Loan taken 5000 from Ramesh'.",
			Tag:  TagNone,
		}, nil
	}

	now := d.now().UTC()
	loan := &domain.Loan{
		ID:           uuid.NewString(),
		UserID:       userID,
		LenderName:   action.Lender,
		Amount:       action.Amount,
		DateTaken:    action.Date,
		DueDate:      action.DueDate,
		ReminderDays: 3,
		CreatedAt:    now,
	}
	if err := d.store.InsertLoan(ctx, loan); err != nil {
		return Result{}, fmt.Errorf("addLoan: %w", err)
	}
	return Result{
		Text: fmt.Sprintf("✅ Loan of ₹%.0f from %s added.", loan.Amount, loan.LenderName),
		Tag:  TagLoanUpdated,
		Data: map[string]string{"loan_id": loan.ID},
	}, nil
}

func (d *Dispatcher) payLoan(ctx context.Context, action NormalizedAction, userID string) (Result, error) {
	loan, err := d.store.FindLoanByLender(ctx, userID, action.Lender, true)
	if err != nil {
		return Result{}, fmt.Errorf("payLoan: %w", err)
	}
	if loan == nil {
		// Includes the already-paid case: no unpaid match means no-op.
		return Result{Text: "❌ No active loan found.", Tag: TagNone}, nil
	}

	if err := d.store.MarkLoanPaid(ctx, userID, loan.ID, d.now().UTC()); err != nil {
		return Result{}, fmt.Errorf("payLoan: %w", err)
	}
	return Result{Text: "🎉 Loan marked paid.", Tag: TagLoanUpdated}, nil
}

func (d *Dispatcher) deleteLoan(ctx context.Context, action NormalizedAction, userID string) (Result, error) {
	loan, err := d.store.FindLoanByLender(ctx, userID, action.Lender, false)
	if err != nil {
		return Result{}, fmt.Errorf("deleteLoan: %w", err)
	}
	if loan == nil {
		return Result{Text: "❌ Loan not found.", Tag: TagNone}, nil
	}

	if err := d.store.DeleteLoan(ctx, userID, loan.ID); err != nil {
		return Result{}, fmt.Errorf("deleteLoan: %w", err)
	}
	return Result{Text: "🗑 Loan deleted.", Tag: TagLoanUpdated}, nil
}

func (d *Dispatcher) updateProfile(ctx context.Context, action NormalizedAction, userID string) (Result, error) {
	user, err := d.store.GetUser(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("updateProfile: %w", err)
	}

	switch action.Field {
	case domain.ProfileFieldName:
		user.Name = action.Value
	case domain.ProfileFieldJobType:
		user.JobType = normalizeLower(action.Value)
	case domain.ProfileFieldSavingsTarget:
		user.SavingsTarget = action.ValueNumber
	default:
		// Unknown fields are silently ignored.
		return Result{Text: "Nothing to update there.", Tag: TagNone}, nil
	}

	user.UpdatedAt = d.now().UTC()
	if err := d.store.UpdateUserProfile(ctx, user); err != nil {
		return Result{}, fmt.Errorf("updateProfile: %w", err)
	}
	return Result{Text: "✅ Profile updated.", Tag: TagProfileUpdated}, nil
}

func (d *Dispatcher) updateBudget(ctx context.Context, action NormalizedAction, userID string) (Result, error) {
	if action.Amount <= 0 {
		return Result{
			Text: "I couldn't find the budget amount. Try 'Set food budget to 5000'.",
			Tag:  TagNone,
		}, nil
	}

	now := d.now().UTC()
	est := &domain.Estimate{
		ID:              uuid.NewString(),
		UserID:          userID,
		Category:        action.Category,
		EstimatedAmount: action.Amount,
		Month:           int(now.Month()),
		Year:            now.Year(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := d.store.UpsertEstimate(ctx, est); err != nil {
		return Result{}, fmt.Errorf("updateBudget: %w", err)
	}
	return Result{
		Text: fmt.Sprintf("✅ %s budget set to ₹%.0f.", est.Category, est.EstimatedAmount),
		Tag:  TagBudgetUpdated,
	}, nil
}

func (d *Dispatcher) answerQuestion(ctx context.Context, userID, message, language string) (Result, error) {
	fc, err := BuildFinancialContext(ctx, d.store, userID, d.now())
	if err != nil {
		return Result{}, fmt.Errorf("answerQuestion: %w", err)
	}
	if language != "" {
		// A declared request language beats the stored profile language.
		fc.Language = language
	}

	reply := d.chat.Respond(ctx, fc, message)
	return Result{Text: reply, Tag: TagQueryAnswered}, nil
}

func normalizeLower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

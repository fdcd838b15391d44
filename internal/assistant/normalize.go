package assistant

import (
	"strings"
	"time"

	"github.com/spennies/spennies/internal/domain"
)

const (
	defaultLender      = "Unknown"
	defaultDescription = "Expense"
	loanDueDays        = 7
)

// Normalize validates and coerces an extracted Intent into a
// NormalizedAction. It never rejects: invalid fields are replaced by policy
// defaults (recorded in Defaulted), and amounts that stay at or below zero
// are left for the Dispatcher to treat as "reply but do not persist".
func Normalize(intent Intent, today time.Time) NormalizedAction {
	action := NormalizedAction{Action: intent.Action}

	switch intent.Action {
	case ActionAddTransaction:
		action.Amount = normalizeAmount(intent, &action)
		action.Type = domain.ParseTransactionType(intent.Type)
		if !isKnownType(intent.Type) {
			action.markDefault("type")
		}
		action.Description = intent.Description
		if action.Description == "" {
			action.Description = defaultDescription
			action.markDefault("description")
		}
		action.Date = normalizeDate(intent.Date, today, "date", &action)

	case ActionDeleteTransaction:
		if intent.HasAmount && intent.Amount > 0 {
			action.Amount = intent.Amount
		}
		action.Description = intent.Description

	case ActionAddLoan:
		action.Amount = normalizeAmount(intent, &action)
		action.Lender = intent.Lender
		if action.Lender == "" {
			action.Lender = defaultLender
			action.markDefault("lender")
		}
		action.DueDate = normalizeDate(intent.DueDate, today.AddDate(0, 0, loanDueDays), "due_date", &action)
		action.Date = today

	case ActionPayLoan, ActionDeleteLoan:
		action.Lender = intent.Lender

	case ActionUpdateProfile:
		action.Field = intent.Field
		action.Value = intent.Value
		action.ValueNumber = intent.ValueNumber

	case ActionUpdateBudget:
		action.Amount = normalizeAmount(intent, &action)
		action.Category = intent.Category
		if action.Category == "" {
			action.Category = "Other"
			action.markDefault("category")
		}
	}

	return action
}

// normalizeAmount keeps positive amounts and zeroes everything else.
func normalizeAmount(intent Intent, action *NormalizedAction) float64 {
	if !intent.HasAmount || intent.Amount <= 0 {
		action.markDefault("amount")
		return 0
	}
	return intent.Amount
}

// normalizeDate parses strict YYYY-MM-DD and substitutes fallback on any
// failure. Relative phrases are resolved by the extraction prompt, not here.
func normalizeDate(raw string, fallback time.Time, field string, action *NormalizedAction) time.Time {
	if raw != "" {
		if d, err := time.Parse("2006-01-02", raw); err == nil {
			return d
		}
	}
	action.markDefault(field)
	return fallback
}

// isKnownType reports whether the raw type text already names a member of
// the closed set; anything else is defaulted to EXPENSE.
func isKnownType(raw string) bool {
	switch domain.TransactionType(strings.ToUpper(strings.TrimSpace(raw))) {
	case domain.TransactionIncome, domain.TransactionExpense:
		return true
	default:
		return false
	}
}

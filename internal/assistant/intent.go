package assistant

import (
	"time"

	"github.com/spennies/spennies/internal/domain"
)

// Action identifies what the user asked the assistant to do. The string
// values are the exact "action" labels the model is prompted to emit.
type Action string

const (
	ActionChat              Action = "chat"
	ActionAddTransaction    Action = "add"
	ActionDeleteTransaction Action = "delete"
	ActionAddLoan           Action = "add_loan"
	ActionPayLoan           Action = "pay_loan"
	ActionDeleteLoan        Action = "delete_loan"
	ActionUpdateProfile     Action = "update_profile"
	ActionUpdateBudget      Action = "update_budget"
)

// knownActions is the closed set accepted from the model. Anything else is
// treated as chat.
var knownActions = map[Action]bool{
	ActionChat:              true,
	ActionAddTransaction:    true,
	ActionDeleteTransaction: true,
	ActionAddLoan:           true,
	ActionPayLoan:           true,
	ActionDeleteLoan:        true,
	ActionUpdateProfile:     true,
	ActionUpdateBudget:      true,
}

// Intent is the loosely-typed result of extraction. Fields are populated
// permissively from unverified model output; only the Normalizer decides
// what is actually usable. Intents live for one request and are never
// persisted.
type Intent struct {
	Action      Action
	Amount      float64 // 0 when missing or unparseable
	HasAmount   bool
	Description string
	Type        string // raw "income"/"expense" text from the model
	Date        string // raw YYYY-MM-DD text from the model
	Lender      string
	DueDate     string
	Field       string // update_profile target field
	Value       string // update_profile value as text
	ValueNumber float64
	Category    string // update_budget category
}

// ChatIntent is the universal safe fallback: any failure upstream of the
// dispatcher resolves to it.
func ChatIntent() Intent {
	return Intent{Action: ActionChat}
}

// NormalizedAction is an Intent after validation: amounts positive or zero,
// dates concrete, enums in their closed sets. Defaulted records each field
// whose value was substituted by policy rather than supplied by the model.
type NormalizedAction struct {
	Action      Action
	Amount      float64
	Description string
	Type        domain.TransactionType
	Date        time.Time
	Lender      string
	DueDate     time.Time
	Field       string
	Value       string
	ValueNumber float64
	Category    string

	Defaulted map[string]bool
}

// UsedDefault reports whether the named field was substituted during
// normalization.
func (a *NormalizedAction) UsedDefault(field string) bool {
	return a.Defaulted[field]
}

func (a *NormalizedAction) markDefault(field string) {
	if a.Defaulted == nil {
		a.Defaulted = make(map[string]bool)
	}
	a.Defaulted[field] = true
}

// Result tags reported to the caller.
const (
	TagTransactionAdded   = "transaction_added"
	TagTransactionDeleted = "transaction_deleted"
	TagLoanUpdated        = "loan_updated"
	TagProfileUpdated     = "profile_updated"
	TagBudgetUpdated      = "budget_updated"
	TagQueryAnswered      = "query_answered"
	TagNone               = "none"
	TagError              = "error"
)

// Result is what a dispatched command returns to the caller boundary.
type Result struct {
	Text string
	Tag  string
	Data map[string]string
}

package domain

import (
	"time"
)

// TransactionType is the direction of money movement.
type TransactionType string

const (
	TransactionIncome  TransactionType = "INCOME"
	TransactionExpense TransactionType = "EXPENSE"
)

// TransactionSource records how a transaction entered the system.
type TransactionSource string

const (
	SourceManual TransactionSource = "MANUAL"
	SourceSMS    TransactionSource = "SMS"
)

// Categories form the closed set the categorizer is allowed to pick from.
// Free-form categories coming from users directly are stored as-is.
var Categories = []string{
	"Food",
	"Transport",
	"Bills",
	"Shopping",
	"Entertainment",
	"Healthcare",
	"Other",
}

// Transaction is a single income or expense record owned by a user.
// Invariants: Amount > 0, Type is INCOME or EXPENSE.
type Transaction struct {
	ID          string
	UserID      string
	Amount      float64
	Category    string
	Type        TransactionType
	Description string
	Date        time.Time
	Source      TransactionSource
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsExpense reports whether the transaction moves money out.
func (t *Transaction) IsExpense() bool {
	return t.Type == TransactionExpense
}

// ParseTransactionType coerces a free-form type string to the closed set.
// Unknown values fall back to EXPENSE.
func ParseTransactionType(s string) TransactionType {
	switch TransactionType(normalizeEnum(s)) {
	case TransactionIncome:
		return TransactionIncome
	default:
		return TransactionExpense
	}
}

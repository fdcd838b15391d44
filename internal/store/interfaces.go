package store

import (
	"context"
	"time"

	"github.com/spennies/spennies/internal/domain"
)

// TransactionFilter narrows transaction lookups for delete/update commands.
// Zero values mean "not filtered".
type TransactionFilter struct {
	Amount      *float64 // exact match when set
	Description string   // case-insensitive substring when non-empty
}

// MonthTotals is the aggregate income/expense for one calendar month.
type MonthTotals struct {
	Income  float64
	Expense float64
}

// CategoryTotal is the expense total for one category in a month.
type CategoryTotal struct {
	Category string
	Total    float64
}

// UserRepository provides access to user profiles.
type UserRepository interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUserProfile(ctx context.Context, u *domain.User) error
	ListUserIDs(ctx context.Context) ([]string, error)
}

// TransactionRepository provides owner-scoped transaction operations.
// Every mutation is transactional: the full effect commits or nothing does.
type TransactionRepository interface {
	InsertTransaction(ctx context.Context, t *domain.Transaction) error
	DeleteTransaction(ctx context.Context, userID, id string) error
	// FindLatestMatch returns the most recent transaction matching the
	// filter, ordered by date then creation time descending, or nil when
	// nothing matches.
	FindLatestMatch(ctx context.Context, userID string, f TransactionFilter) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, userID string, limit int) ([]*domain.Transaction, error)
	MonthlyTotals(ctx context.Context, userID string, monthStart time.Time) (MonthTotals, error)
	MonthlyCategoryTotals(ctx context.Context, userID string, monthStart time.Time) ([]CategoryTotal, error)
	TopExpenses(ctx context.Context, userID string, monthStart time.Time, limit int) ([]*domain.Transaction, error)
}

// LoanRepository provides owner-scoped loan operations.
type LoanRepository interface {
	InsertLoan(ctx context.Context, l *domain.Loan) error
	DeleteLoan(ctx context.Context, userID, id string) error
	// FindLoanByLender returns the first loan whose lender name contains the
	// given substring (case-insensitive). unpaidOnly restricts the search to
	// open loans. Returns nil when nothing matches.
	FindLoanByLender(ctx context.Context, userID, lender string, unpaidOnly bool) (*domain.Loan, error)
	MarkLoanPaid(ctx context.Context, userID, id string, paidAt time.Time) error
	ListOpenLoans(ctx context.Context, userID string) ([]*domain.Loan, error)
	ListLoans(ctx context.Context, userID string) ([]*domain.Loan, error)
	ListLoansDue(ctx context.Context, today time.Time) ([]*domain.Loan, error)
}

// EstimateRepository provides owner-scoped budget estimates.
type EstimateRepository interface {
	UpsertEstimate(ctx context.Context, e *domain.Estimate) error
	ListEstimates(ctx context.Context, userID string, month, year int) ([]*domain.Estimate, error)
}

// InsightRepository persists generated insights.
type InsightRepository interface {
	ReplaceInsights(ctx context.Context, userID string, insights []*domain.Insight) error
	ListInsights(ctx context.Context, userID string) ([]*domain.Insight, error)
}

// Store is the full persistence surface consumed by the assistant and the
// HTTP handlers.
type Store interface {
	UserRepository
	TransactionRepository
	LoanRepository
	EstimateRepository
	InsightRepository
	Close() error
}

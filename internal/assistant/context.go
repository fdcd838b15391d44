package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spennies/spennies/internal/domain"
	"github.com/spennies/spennies/internal/store"
)

// recentTransactionLimit bounds how many transactions enter a prompt.
const recentTransactionLimit = 10

// FinancialContext is a transient snapshot of one user's month, assembled
// per-request for prompting and the deterministic fallback arithmetic.
// Never persisted.
type FinancialContext struct {
	UserID   string
	Name     string
	JobType  string
	Language string
	Tone     string

	MonthlyIncome  float64
	MonthlyExpense float64
	SavingsTarget  float64

	CategoryTotals     []store.CategoryTotal
	RecentTransactions []*domain.Transaction
	TopExpenses        []*domain.Transaction
	OpenLoans          []*domain.Loan
	BudgetLimits       []*domain.Estimate
}

// MonthlySavings is income minus expenses so far this month.
func (fc *FinancialContext) MonthlySavings() float64 {
	return fc.MonthlyIncome - fc.MonthlyExpense
}

// IsNewUser reports whether the user has recorded nothing this month. The
// summarizer skips model calls entirely for new users.
func (fc *FinancialContext) IsNewUser() bool {
	return fc.MonthlyIncome == 0 && fc.MonthlyExpense == 0
}

// BuildFinancialContext assembles the monthly snapshot from the store. All
// numbers here are exact arithmetic over stored records.
func BuildFinancialContext(ctx context.Context, st store.Store, userID string, today time.Time) (*FinancialContext, error) {
	user, err := st.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("BuildFinancialContext: %w", err)
	}

	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())

	totals, err := st.MonthlyTotals(ctx, userID, monthStart)
	if err != nil {
		return nil, fmt.Errorf("BuildFinancialContext: %w", err)
	}
	categories, err := st.MonthlyCategoryTotals(ctx, userID, monthStart)
	if err != nil {
		return nil, fmt.Errorf("BuildFinancialContext: %w", err)
	}
	recent, err := st.ListTransactions(ctx, userID, recentTransactionLimit)
	if err != nil {
		return nil, fmt.Errorf("BuildFinancialContext: %w", err)
	}
	top, err := st.TopExpenses(ctx, userID, monthStart, 3)
	if err != nil {
		return nil, fmt.Errorf("BuildFinancialContext: %w", err)
	}
	loans, err := st.ListOpenLoans(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("BuildFinancialContext: %w", err)
	}
	limits, err := st.ListEstimates(ctx, userID, int(today.Month()), today.Year())
	if err != nil {
		return nil, fmt.Errorf("BuildFinancialContext: %w", err)
	}

	target := user.SavingsTarget
	if target <= 0 && totals.Income > 0 {
		// Default the goal to 20% of income when the user never set one.
		target = totals.Income * 0.2
	}

	return &FinancialContext{
		UserID:             user.ID,
		Name:               user.Name,
		JobType:            user.JobType,
		Language:           user.Language,
		Tone:               user.AITone,
		MonthlyIncome:      totals.Income,
		MonthlyExpense:     totals.Expense,
		SavingsTarget:      target,
		CategoryTotals:     categories,
		RecentTransactions: recent,
		TopExpenses:        top,
		OpenLoans:          loans,
		BudgetLimits:       limits,
	}, nil
}

func (fc *FinancialContext) recentTransactionsText() string {
	if len(fc.RecentTransactions) == 0 {
		return "N/A"
	}
	var b strings.Builder
	for _, t := range fc.RecentTransactions {
		fmt.Fprintf(&b, "- %s: ₹%.0f\n", t.Description, t.Amount)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (fc *FinancialContext) openLoansText() string {
	if len(fc.OpenLoans) == 0 {
		return "N/A"
	}
	var b strings.Builder
	for _, l := range fc.OpenLoans {
		fmt.Fprintf(&b, "- ₹%.0f to %s\n", l.Amount, l.LenderName)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (fc *FinancialContext) budgetLimitsText() string {
	if len(fc.BudgetLimits) == 0 {
		return "No limits set"
	}
	var b strings.Builder
	for _, e := range fc.BudgetLimits {
		fmt.Fprintf(&b, "- %s: ₹%.0f\n", e.Category, e.EstimatedAmount)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (fc *FinancialContext) categoryBreakdownText() string {
	if len(fc.CategoryTotals) == 0 {
		return "No category expenses recorded this month."
	}
	var b strings.Builder
	for _, ct := range fc.CategoryTotals {
		fmt.Fprintf(&b, "- %s: ₹%.0f\n", ct.Category, ct.Total)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (fc *FinancialContext) topExpensesText() string {
	if len(fc.TopExpenses) == 0 {
		return "No high-value expenses recorded this month."
	}
	var b strings.Builder
	for _, t := range fc.TopExpenses {
		desc := t.Description
		if desc == "" {
			desc = t.Category
		}
		fmt.Fprintf(&b, "- ₹%.0f on %s\n", t.Amount, desc)
	}
	return strings.TrimRight(b.String(), "\n")
}

package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spennies/spennies/internal/domain"
)

func TestDispatch_AddTransaction(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s)
	gw := &fakeCompleter{responses: []string{`{"category": "Food", "confidence": 0.9}`}}
	d := newTestDispatcher(s, gw)
	ctx := context.Background()

	action := NormalizedAction{
		Action:      ActionAddTransaction,
		Amount:      50,
		Description: "chai",
		Type:        domain.TransactionExpense,
		Date:        time.Now().UTC(),
	}
	res := d.Dispatch(ctx, action, u.ID, "Spent 50 on chai", "")

	if res.Tag != TagTransactionAdded {
		t.Fatalf("Tag = %q, want %q (text: %s)", res.Tag, TagTransactionAdded, res.Text)
	}
	if res.Data["transaction_id"] == "" {
		t.Error("expected transaction_id in result data")
	}

	txs, err := s.ListTransactions(ctx, u.ID, 10)
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected 1 persisted transaction, got %d", len(txs))
	}
	if txs[0].Category != "Food" {
		t.Errorf("Category = %q, want Food from categorizer", txs[0].Category)
	}
}

func TestDispatch_AddTransactionZeroAmountWritesNothing(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s)
	gw := &fakeCompleter{}
	d := newTestDispatcher(s, gw)
	ctx := context.Background()

	action := NormalizedAction{Action: ActionAddTransaction, Amount: 0, Description: "chai", Type: domain.TransactionExpense, Date: time.Now()}
	res := d.Dispatch(ctx, action, u.ID, "spent on chai", "")

	if res.Tag != TagNone {
		t.Errorf("Tag = %q, want %q", res.Tag, TagNone)
	}
	txs, err := s.ListTransactions(ctx, u.ID, 10)
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("expected no persisted transactions, got %d", len(txs))
	}
	if gw.callCount() != 0 {
		t.Error("categorizer must not be called for a zero amount")
	}
}

func TestDispatch_AddTransactionCategorizerFallback(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s)
	gw := &fakeCompleter{err: errors.New("quota exceeded")}
	d := newTestDispatcher(s, gw)
	ctx := context.Background()

	action := NormalizedAction{Action: ActionAddTransaction, Amount: 80, Description: "mystery", Type: domain.TransactionExpense, Date: time.Now()}
	res := d.Dispatch(ctx, action, u.ID, "mystery 80", "")

	if res.Tag != TagTransactionAdded {
		t.Fatalf("Tag = %q, want add to succeed despite categorizer failure", res.Tag)
	}
	txs, _ := s.ListTransactions(ctx, u.ID, 10)
	if len(txs) != 1 || txs[0].Category != "Other" {
		t.Errorf("expected fallback category Other, got %+v", txs)
	}
}

func TestDispatch_DeleteTransactionNotFound(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s)
	d := newTestDispatcher(s, &fakeCompleter{})

	action := NormalizedAction{Action: ActionDeleteTransaction, Description: "nonexistent"}
	res := d.Dispatch(context.Background(), action, u.ID, "delete nonexistent", "")

	if res.Tag != TagNone {
		t.Errorf("Tag = %q, want %q", res.Tag, TagNone)
	}
	if res.Text != "❌ Transaction not found." {
		t.Errorf("Text = %q", res.Text)
	}
}

func TestDispatch_DeleteTransactionLatestMatch(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s)
	gw := &fakeCompleter{responses: []string{`{"category": "Food", "confidence": 0.9}`}}
	d := newTestDispatcher(s, gw)
	ctx := context.Background()

	base := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()
	older := &domain.Transaction{ID: uuid.NewString(), UserID: u.ID, Amount: 50, Category: "Food", Type: domain.TransactionExpense, Description: "chai", Date: base, Source: domain.SourceManual, CreatedAt: now, UpdatedAt: now}
	newer := &domain.Transaction{ID: uuid.NewString(), UserID: u.ID, Amount: 50, Category: "Food", Type: domain.TransactionExpense, Description: "chai", Date: base.AddDate(0, 0, 3), Source: domain.SourceManual, CreatedAt: now, UpdatedAt: now}
	for _, tx := range []*domain.Transaction{older, newer} {
		if err := s.InsertTransaction(ctx, tx); err != nil {
			t.Fatalf("InsertTransaction failed: %v", err)
		}
	}

	action := NormalizedAction{Action: ActionDeleteTransaction, Amount: 50, Description: "chai"}
	res := d.Dispatch(ctx, action, u.ID, "delete the 50 chai", "")

	if res.Tag != TagTransactionDeleted {
		t.Fatalf("Tag = %q, want %q", res.Tag, TagTransactionDeleted)
	}
	remaining, _ := s.ListTransactions(ctx, u.ID, 10)
	if len(remaining) != 1 || remaining[0].ID != older.ID {
		t.Errorf("expected the newer record deleted, remaining %+v", remaining)
	}
}

func TestDispatch_PayLoanIdempotent(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s)
	d := newTestDispatcher(s, &fakeCompleter{})
	ctx := context.Background()
	now := time.Now().UTC()

	loan := &domain.Loan{
		ID: uuid.NewString(), UserID: u.ID, LenderName: "Ramesh Kumar",
		Amount: 5000, DateTaken: now, DueDate: now.AddDate(0, 0, 7),
		ReminderDays: 3, CreatedAt: now,
	}
	if err := s.InsertLoan(ctx, loan); err != nil {
		t.Fatalf("InsertLoan failed: %v", err)
	}

	action := NormalizedAction{Action: ActionPayLoan, Lender: "ramesh"}

	res := d.Dispatch(ctx, action, u.ID, "paid back ramesh", "")
	if res.Tag != TagLoanUpdated {
		t.Fatalf("first pay: Tag = %q, want %q", res.Tag, TagLoanUpdated)
	}

	// Second identical command must be a harmless no-op.
	res = d.Dispatch(ctx, action, u.ID, "paid back ramesh", "")
	if res.Tag != TagNone {
		t.Errorf("second pay: Tag = %q, want %q", res.Tag, TagNone)
	}
	if res.Text != "❌ No active loan found." {
		t.Errorf("second pay: Text = %q", res.Text)
	}

	all, _ := s.ListLoans(ctx, u.ID)
	if len(all) != 1 || !all[0].IsPaid {
		t.Errorf("loan state corrupted by repeat pay: %+v", all)
	}
}

func TestDispatch_PayLoanNoLoans(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s)
	d := newTestDispatcher(s, &fakeCompleter{})

	res := d.Dispatch(context.Background(), NormalizedAction{Action: ActionPayLoan, Lender: "anyone"}, u.ID, "paid anyone", "")
	if res.Tag != TagNone || res.Text != "❌ No active loan found." {
		t.Errorf("got tag=%q text=%q", res.Tag, res.Text)
	}
}

func TestDispatch_UpdateProfile(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s)
	d := newTestDispatcher(s, &fakeCompleter{})
	ctx := context.Background()

	tests := []struct {
		name   string
		action NormalizedAction
		check  func(t *testing.T, u *domain.User)
		tag    string
	}{
		{
			name:   "name",
			action: NormalizedAction{Action: ActionUpdateProfile, Field: domain.ProfileFieldName, Value: "Suresh"},
			check:  func(t *testing.T, u *domain.User) { mustEqual(t, u.Name, "Suresh") },
			tag:    TagProfileUpdated,
		},
		{
			name:   "job type lowercased",
			action: NormalizedAction{Action: ActionUpdateProfile, Field: domain.ProfileFieldJobType, Value: "Delivery"},
			check:  func(t *testing.T, u *domain.User) { mustEqual(t, u.JobType, "delivery") },
			tag:    TagProfileUpdated,
		},
		{
			name:   "savings target",
			action: NormalizedAction{Action: ActionUpdateProfile, Field: domain.ProfileFieldSavingsTarget, Value: "8000", ValueNumber: 8000},
			check:  func(t *testing.T, u *domain.User) { mustEqualF(t, u.SavingsTarget, 8000) },
			tag:    TagProfileUpdated,
		},
		{
			name:   "unknown field ignored",
			action: NormalizedAction{Action: ActionUpdateProfile, Field: "password", Value: "hunter2"},
			check:  func(t *testing.T, u *domain.User) {},
			tag:    TagNone,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := d.Dispatch(ctx, tc.action, u.ID, "update", "")
			if res.Tag != tc.tag {
				t.Fatalf("Tag = %q, want %q", res.Tag, tc.tag)
			}
			got, err := s.GetUser(ctx, u.ID)
			if err != nil {
				t.Fatalf("GetUser failed: %v", err)
			}
			tc.check(t, got)
		})
	}
}

func TestDispatch_UpdateBudget(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s)
	d := newTestDispatcher(s, &fakeCompleter{})
	ctx := context.Background()

	res := d.Dispatch(ctx, NormalizedAction{Action: ActionUpdateBudget, Amount: 3000, Category: "Food"}, u.ID, "food budget 3000", "")
	if res.Tag != TagBudgetUpdated {
		t.Fatalf("Tag = %q, want %q", res.Tag, TagBudgetUpdated)
	}

	now := time.Now()
	ests, err := s.ListEstimates(ctx, u.ID, int(now.Month()), now.Year())
	if err != nil {
		t.Fatalf("ListEstimates failed: %v", err)
	}
	if len(ests) != 1 || ests[0].EstimatedAmount != 3000 {
		t.Errorf("expected one Food estimate of 3000, got %+v", ests)
	}
}

func TestDispatch_ChatFallback(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s)
	gw := &fakeCompleter{responses: []string{"You spent most on food this week."}}
	d := newTestDispatcher(s, gw)

	res := d.Dispatch(context.Background(), NormalizedAction{Action: ActionChat}, u.ID, "where did my money go?", "")
	if res.Tag != TagQueryAnswered {
		t.Fatalf("Tag = %q, want %q", res.Tag, TagQueryAnswered)
	}
	if res.Text != "You spent most on food this week." {
		t.Errorf("Text = %q", res.Text)
	}
}

func TestDispatch_ChatGatewayDown(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s)
	gw := &fakeCompleter{err: errors.New("unavailable")}
	d := newTestDispatcher(s, gw)

	res := d.Dispatch(context.Background(), NormalizedAction{Action: ActionChat}, u.ID, "how am I doing?", "")
	if res.Tag != TagQueryAnswered {
		t.Fatalf("Tag = %q, want %q", res.Tag, TagQueryAnswered)
	}
	if res.Text != chatFallbackText {
		t.Errorf("Text = %q, want fallback", res.Text)
	}
}

func TestDispatch_ChatDeclaredLanguageWins(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s) // profile language is en
	gw := &fakeCompleter{responses: []string{"आपने खाने पर सबसे ज़्यादा खर्च किया।"}}
	d := newTestDispatcher(s, gw)

	res := d.Dispatch(context.Background(), NormalizedAction{Action: ActionChat}, u.ID, "where did my money go?", "hi")
	if res.Tag != TagQueryAnswered {
		t.Fatalf("Tag = %q, want %q", res.Tag, TagQueryAnswered)
	}
	if len(gw.prompts) != 1 || !strings.Contains(gw.prompts[0], "Respond in Hindi") {
		t.Errorf("chat prompt should carry the declared language, got %d prompts", len(gw.prompts))
	}
}

func TestDispatch_ChatProfileLanguageDefault(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s)
	gw := &fakeCompleter{responses: []string{"You spent most on food."}}
	d := newTestDispatcher(s, gw)

	d.Dispatch(context.Background(), NormalizedAction{Action: ActionChat}, u.ID, "where did my money go?", "")
	if len(gw.prompts) != 1 || !strings.Contains(gw.prompts[0], "Respond in English") {
		t.Errorf("chat prompt should fall back to the stored profile language")
	}
}

func TestCategorize_OutOfSetLabel(t *testing.T) {
	gw := &fakeCompleter{responses: []string{`{"category": "Cryptocurrency", "confidence": 0.95}`}}
	c := NewCategorizer(gw, testLogger())

	got := c.Categorize(context.Background(), "bought bitcoin", 1000)
	if got.Category != "Other" || got.Confidence != 0.5 {
		t.Errorf("got %+v, want fallback Other/0.5", got)
	}
}

func TestCategorize_CanonicalizesCase(t *testing.T) {
	gw := &fakeCompleter{responses: []string{`{"category": "food", "confidence": 0.8}`}}
	c := NewCategorizer(gw, testLogger())

	got := c.Categorize(context.Background(), "chai", 20)
	if got.Category != "Food" {
		t.Errorf("Category = %q, want canonical Food", got.Category)
	}
}

func mustEqual(t *testing.T, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func mustEqualF(t *testing.T, got, want float64) {
	t.Helper()
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

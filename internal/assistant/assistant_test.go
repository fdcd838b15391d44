package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spennies/spennies/internal/cache"
	"github.com/spennies/spennies/internal/domain"
	"github.com/spennies/spennies/internal/jobs"
	"github.com/spennies/spennies/internal/store"
)

func newTestAssistant(s *store.SQLiteStore, gw *fakeCompleter, pub *fakePublisher) *Assistant {
	log := testLogger()
	summarizer := NewSummarizer(gw, (*cache.RedisCache)(nil), time.Minute, log)
	// A nil *fakePublisher must become a nil interface, not a typed nil.
	var publisher jobs.Publisher
	if pub != nil {
		publisher = pub
	}
	return New(
		s,
		NewExtractor(gw, log),
		NewDispatcher(s, NewCategorizer(gw, log), NewChatResponder(gw, log), log),
		summarizer,
		NewSMSParser(gw, log),
		publisher,
		log,
	)
}

func TestHandleMessage_SpentOnChai(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s)
	gw := &fakeCompleter{responses: []string{
		`{"action": "add", "amount": 50, "description": "chai", "type": "expense"}`,
		`{"category": "Food", "confidence": 0.9}`,
	}}
	pub := &fakePublisher{}
	a := newTestAssistant(s, gw, pub)
	ctx := context.Background()

	res := a.HandleMessage(ctx, u.ID, "Spent 50 on chai", "")

	if res.Tag != TagTransactionAdded {
		t.Fatalf("Tag = %q (text %q), want %q", res.Tag, res.Text, TagTransactionAdded)
	}
	if !strings.Contains(res.Text, "50") {
		t.Errorf("reply %q should echo the amount", res.Text)
	}

	txs, err := s.ListTransactions(ctx, u.ID, 10)
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected 1 persisted transaction, got %d", len(txs))
	}
	if txs[0].Amount != 50 || txs[0].Category != "Food" || txs[0].Type != domain.TransactionExpense {
		t.Errorf("persisted transaction wrong: %+v", txs[0])
	}

	published := pub.published()
	if len(published) != 1 || published[0].UserID != u.ID {
		t.Errorf("expected one insight refresh for %s, got %+v", u.ID, published)
	}
	if published[0].Trigger != TagTransactionAdded {
		t.Errorf("Trigger = %q, want %q", published[0].Trigger, TagTransactionAdded)
	}
}

func TestHandleMessage_PaidLoanToRamesh(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s)
	ctx := context.Background()
	now := time.Now().UTC()

	loan := &domain.Loan{
		ID: uuid.NewString(), UserID: u.ID, LenderName: "Ramesh",
		Amount: 5000, DateTaken: now, DueDate: now.AddDate(0, 0, 7),
		ReminderDays: 3, CreatedAt: now,
	}
	if err := s.InsertLoan(ctx, loan); err != nil {
		t.Fatalf("InsertLoan failed: %v", err)
	}

	gw := &fakeCompleter{responses: []string{`{"action": "pay_loan", "lender": "Ramesh"}`}}
	pub := &fakePublisher{}
	a := newTestAssistant(s, gw, pub)

	res := a.HandleMessage(ctx, u.ID, "Paid loan to Ramesh", "")
	if res.Tag != TagLoanUpdated {
		t.Fatalf("Tag = %q (text %q), want %q", res.Tag, res.Text, TagLoanUpdated)
	}

	all, _ := s.ListLoans(ctx, u.ID)
	if len(all) != 1 || !all[0].IsPaid {
		t.Errorf("loan not marked paid: %+v", all)
	}
	if len(pub.published()) != 1 {
		t.Error("expected an insight refresh after loan payment")
	}
}

func TestHandleMessage_GatewayDownIsStillConversational(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s)
	gw := &fakeCompleter{err: errors.New("unavailable")}
	pub := &fakePublisher{}
	a := newTestAssistant(s, gw, pub)

	res := a.HandleMessage(context.Background(), u.ID, "Spent 50 on chai", "")

	if res.Tag != TagQueryAnswered {
		t.Fatalf("Tag = %q, want chat fallthrough", res.Tag)
	}
	if res.Text != chatFallbackText {
		t.Errorf("Text = %q, want fallback", res.Text)
	}

	txs, _ := s.ListTransactions(context.Background(), u.ID, 10)
	if len(txs) != 0 {
		t.Error("nothing may be persisted when extraction fails")
	}
	if len(pub.published()) != 0 {
		t.Error("no refresh may be scheduled for a chat reply")
	}
}

func TestHandleMessage_NilPublisher(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s)
	gw := &fakeCompleter{responses: []string{
		`{"action": "add", "amount": 20, "description": "chai", "type": "expense"}`,
		`{"category": "Food", "confidence": 0.9}`,
	}}
	a := newTestAssistant(s, gw, nil)

	res := a.HandleMessage(context.Background(), u.ID, "chai 20", "")
	if res.Tag != TagTransactionAdded {
		t.Errorf("Tag = %q, want add to work without a publisher", res.Tag)
	}
}

func TestRefreshInsights_PersistsFallback(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s)
	ctx := context.Background()
	now := time.Now().UTC()

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	tx := &domain.Transaction{
		ID: uuid.NewString(), UserID: u.ID, Amount: 500, Category: "Food",
		Type: domain.TransactionExpense, Description: "groceries", Date: monthStart,
		Source: domain.SourceManual, CreatedAt: now, UpdatedAt: now,
	}
	if err := s.InsertTransaction(ctx, tx); err != nil {
		t.Fatalf("InsertTransaction failed: %v", err)
	}

	gw := &fakeCompleter{err: errors.New("unavailable")}
	a := newTestAssistant(s, gw, nil)

	if err := a.RefreshInsights(ctx, u.ID); err != nil {
		t.Fatalf("RefreshInsights failed: %v", err)
	}

	stored, err := s.ListInsights(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListInsights failed: %v", err)
	}
	if len(stored) != 3 {
		t.Errorf("expected 3 fallback insights stored, got %d", len(stored))
	}
}

func TestRefreshInsights_RegeneratesPastWarmCache(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s)
	ctx := context.Background()
	now := time.Now().UTC()

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	seed := &domain.Transaction{
		ID: uuid.NewString(), UserID: u.ID, Amount: 100, Category: "Food",
		Type: domain.TransactionExpense, Description: "chai", Date: monthStart,
		Source: domain.SourceManual, CreatedAt: now, UpdatedAt: now,
	}
	if err := s.InsertTransaction(ctx, seed); err != nil {
		t.Fatalf("InsertTransaction failed: %v", err)
	}

	gw := &fakeCompleter{responses: []string{
		`{"insights": [{"type": "info", "message": "before mutation"}], "tip": "Tip"}`,
		`{"action": "add", "amount": 900, "description": "new phone", "type": "expense"}`,
		`{"category": "Shopping", "confidence": 0.9}`,
		`{"insights": [{"type": "warning", "message": "after mutation"}], "tip": "Tip"}`,
	}}
	c := newMapCache()
	log := testLogger()
	a := New(
		s,
		NewExtractor(gw, log),
		NewDispatcher(s, NewCategorizer(gw, log), NewChatResponder(gw, log), log),
		NewSummarizer(gw, c, time.Minute, log),
		NewSMSParser(gw, log),
		nil,
		log,
	)

	// Warm the day's cache before anything changes.
	first, err := a.Insights(ctx, u.ID)
	if err != nil {
		t.Fatalf("Insights failed: %v", err)
	}
	if first.Insights[0].Message != "before mutation" {
		t.Fatalf("warm-up report = %q", first.Insights[0].Message)
	}

	res := a.HandleMessage(ctx, u.ID, "Spent 900 on a new phone", "")
	if res.Tag != TagTransactionAdded {
		t.Fatalf("Tag = %q, want %q", res.Tag, TagTransactionAdded)
	}

	if err := a.RefreshInsights(ctx, u.ID); err != nil {
		t.Fatalf("RefreshInsights failed: %v", err)
	}
	if gw.callCount() != 4 {
		t.Fatalf("gateway called %d times, want 4 (refresh must not serve the cached report)", gw.callCount())
	}

	stored, err := s.ListInsights(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListInsights failed: %v", err)
	}
	if len(stored) != 1 || stored[0].Content != "after mutation" {
		t.Errorf("persisted insights still pre-mutation: %+v", stored)
	}

	// The read path now serves the regenerated report from cache.
	after, err := a.Insights(ctx, u.ID)
	if err != nil {
		t.Fatalf("Insights failed: %v", err)
	}
	if after.Insights[0].Message != "after mutation" {
		t.Errorf("read after refresh = %q, want the fresh report", after.Insights[0].Message)
	}
	if gw.callCount() != 4 {
		t.Errorf("read after refresh should hit the cache, calls = %d", gw.callCount())
	}
}

func TestParseSMS_PersistsConfidentDebit(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s)
	gw := &fakeCompleter{responses: []string{
		`{"amount": 450, "merchant": "Zomato", "type": "debit", "category": "Food", "description": "Zomato order", "confidence": 0.92}`,
	}}
	pub := &fakePublisher{}
	a := newTestAssistant(s, gw, pub)
	ctx := context.Background()

	result, tx, err := a.ParseSMS(ctx, u.ID, "INR 450 debited for Zomato")
	if err != nil {
		t.Fatalf("ParseSMS failed: %v", err)
	}
	if tx == nil {
		t.Fatal("expected a persisted transaction")
	}
	if tx.Source != domain.SourceSMS {
		t.Errorf("Source = %q, want SMS", tx.Source)
	}
	if tx.Type != domain.TransactionExpense {
		t.Errorf("Type = %q, want EXPENSE for debit", tx.Type)
	}
	if result.Amount != 450 {
		t.Errorf("Amount = %v, want 450", result.Amount)
	}
	if len(pub.published()) != 1 {
		t.Error("expected an insight refresh after SMS ingest")
	}
}

func TestParseSMS_CreditBecomesIncome(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s)
	gw := &fakeCompleter{responses: []string{
		`{"amount": 1200, "merchant": "Uber", "type": "credit", "category": "Other", "description": "Weekly payout", "confidence": 0.9}`,
	}}
	a := newTestAssistant(s, gw, nil)

	_, tx, err := a.ParseSMS(context.Background(), u.ID, "INR 1200 credited from Uber")
	if err != nil {
		t.Fatalf("ParseSMS failed: %v", err)
	}
	if tx == nil || tx.Type != domain.TransactionIncome {
		t.Errorf("credit should persist as income, got %+v", tx)
	}
}

func TestParseSMS_LowConfidenceNotPersisted(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s)
	gw := &fakeCompleter{responses: []string{
		`{"amount": 450, "merchant": "Zomato", "type": "debit", "category": "Food", "confidence": 0.4}`,
	}}
	pub := &fakePublisher{}
	a := newTestAssistant(s, gw, pub)
	ctx := context.Background()

	result, tx, err := a.ParseSMS(ctx, u.ID, "maybe a transaction?")
	if err != nil {
		t.Fatalf("ParseSMS failed: %v", err)
	}
	if tx != nil {
		t.Error("low-confidence parse must not persist")
	}
	if result.Persistable() {
		t.Error("Persistable() should be false at confidence 0.4")
	}

	txs, _ := s.ListTransactions(ctx, u.ID, 10)
	if len(txs) != 0 {
		t.Errorf("store should be untouched, found %d transactions", len(txs))
	}
	if len(pub.published()) != 0 {
		t.Error("no refresh for an unpersisted parse")
	}
}

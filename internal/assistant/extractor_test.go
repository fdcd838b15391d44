package assistant

import (
	"context"
	"errors"
	"testing"
	"time"
)

var extractToday = time.Date(2024, 11, 15, 12, 0, 0, 0, time.UTC)

func TestExtract_AddTransaction(t *testing.T) {
	gw := &fakeCompleter{responses: []string{
		`{"action": "add", "amount": 50, "description": "chai", "type": "expense", "date": "2024-11-15"}`,
	}}
	e := NewExtractor(gw, testLogger())

	intent := e.Extract(context.Background(), "Spent 50 on chai", extractToday)

	if intent.Action != ActionAddTransaction {
		t.Fatalf("Action = %q, want %q", intent.Action, ActionAddTransaction)
	}
	if !intent.HasAmount || intent.Amount != 50 {
		t.Errorf("Amount = %v (has=%v), want 50", intent.Amount, intent.HasAmount)
	}
	if intent.Description != "chai" {
		t.Errorf("Description = %q, want chai", intent.Description)
	}
}

func TestExtract_FencedAndWrappedJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"markdown fence", "```json\n{\"action\": \"pay_loan\", \"lender\": \"Ramesh\"}\n```"},
		{"bare fence", "```\n{\"action\": \"pay_loan\", \"lender\": \"Ramesh\"}\n```"},
		{"surrounding prose", "Sure, here you go: {\"action\": \"pay_loan\", \"lender\": \"Ramesh\"} hope that helps!"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gw := &fakeCompleter{responses: []string{tc.raw}}
			e := NewExtractor(gw, testLogger())

			intent := e.Extract(context.Background(), "Paid back Ramesh", extractToday)
			if intent.Action != ActionPayLoan {
				t.Errorf("Action = %q, want %q", intent.Action, ActionPayLoan)
			}
			if intent.Lender != "Ramesh" {
				t.Errorf("Lender = %q, want Ramesh", intent.Lender)
			}
		})
	}
}

func TestExtract_DegradesToChat(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		err  error
	}{
		{"gateway error", "", errors.New("deadline exceeded")},
		{"empty response", "", nil},
		{"plain prose", "I could not understand that request.", nil},
		{"broken json", `{"action": "add", "amount":`, nil},
		{"unknown action", `{"action": "transfer_funds", "amount": 100}`, nil},
		{"json array", `[{"action": "add"}]`, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gw := &fakeCompleter{responses: []string{tc.raw}, err: tc.err}
			e := NewExtractor(gw, testLogger())

			intent := e.Extract(context.Background(), "whatever", extractToday)
			if intent.Action != ActionChat {
				t.Errorf("Action = %q, want chat fallback", intent.Action)
			}
		})
	}
}

func TestExtract_NumericStringAmount(t *testing.T) {
	gw := &fakeCompleter{responses: []string{
		`{"action": "add", "amount": "250", "description": "fuel", "type": "expense"}`,
	}}
	e := NewExtractor(gw, testLogger())

	intent := e.Extract(context.Background(), "fuel 250", extractToday)
	if !intent.HasAmount || intent.Amount != 250 {
		t.Errorf("Amount = %v (has=%v), want coerced 250", intent.Amount, intent.HasAmount)
	}
}

func TestStripFences(t *testing.T) {
	got := stripFences("```json\n{\"a\": 1}\n```")
	if got != `{"a": 1}` {
		t.Errorf("stripFences = %q", got)
	}
	if stripFences("no fences") != "no fences" {
		t.Error("unfenced text should pass through")
	}
}

package domain

import (
	"time"
)

// Loan is an informal loan taken by a user from a named lender.
// Invariants: DueDate >= DateTaken; PaidDate is set iff IsPaid is true.
type Loan struct {
	ID           string
	UserID       string
	LenderName   string
	Amount       float64
	Purpose      string
	DateTaken    time.Time
	DueDate      time.Time
	InterestRate float64
	ReminderDays int
	IsPaid       bool
	PaidDate     *time.Time
	CreatedAt    time.Time
}

// DueWithin reports whether an unpaid loan falls due within the reminder
// window ending at the loan's due date.
func (l *Loan) DueWithin(today time.Time) bool {
	if l.IsPaid {
		return false
	}
	days := l.ReminderDays
	if days <= 0 {
		days = 3
	}
	windowStart := l.DueDate.AddDate(0, 0, -days)
	return !today.Before(windowStart) && !today.After(l.DueDate)
}

package domain

import (
	"strings"
	"time"
)

// User is an account holder. Profile fields feed the assistant's prompts.
type User struct {
	ID            string
	Email         string
	Name          string
	JobType       string
	Language      string
	AITone        string
	AvgIncome     float64
	SavingsTarget float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Profile fields the assistant is allowed to update by name.
const (
	ProfileFieldName          = "name"
	ProfileFieldJobType       = "job_type"
	ProfileFieldSavingsTarget = "savings_target"
)

// Estimate is a per-category monthly budget limit.
type Estimate struct {
	ID              string
	UserID          string
	Category        string
	EstimatedAmount float64
	Month           int
	Year            int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// InsightType classifies a stored insight.
type InsightType string

const (
	InsightWarning InsightType = "warning"
	InsightSuccess InsightType = "success"
	InsightInfo    InsightType = "info"
)

// Insight is one piece of generated advice persisted for a user.
type Insight struct {
	ID          string
	UserID      string
	InsightType InsightType
	Content     string
	GeneratedAt time.Time
}

func normalizeEnum(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spennies/spennies/internal/cache"
	"github.com/spennies/spennies/internal/gateway"
)

// InsightItem is one piece of generated advice.
type InsightItem struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// InsightReport is the full insights payload for a user's month.
type InsightReport struct {
	Insights []InsightItem `json:"insights"`
	Tip      string        `json:"tip"`
}

// Summarizer produces prose over exact monthly arithmetic: insights,
// forecasts and challenges. Read-only; every generation failure resolves to
// a deterministic locally computed payload.
type Summarizer struct {
	gw    gateway.TextCompleter
	cache cache.ResponseCache
	ttl   time.Duration
	log   zerolog.Logger
}

// NewSummarizer creates a Summarizer. cache may be a nil *cache.RedisCache,
// which disables caching.
func NewSummarizer(gw gateway.TextCompleter, c cache.ResponseCache, ttl time.Duration, log zerolog.Logger) *Summarizer {
	return &Summarizer{gw: gw, cache: c, ttl: ttl, log: log}
}

// onboardingReport is returned for users with no recorded activity. The
// gateway is never called for them.
func onboardingReport() InsightReport {
	return InsightReport{
		Insights: []InsightItem{{
			Type:    "info",
			Message: "Welcome! Add your first income or expense to unlock personalized AI insights.",
		}},
		Tip: "Start tracking daily small expenses.",
	}
}

// Insights generates the user's monthly insight report, serving the day's
// cached report when one exists.
func (s *Summarizer) Insights(ctx context.Context, fc *FinancialContext, today time.Time) InsightReport {
	if fc.IsNewUser() {
		return onboardingReport()
	}

	cacheKey := insightsCacheKey(fc.UserID, today)
	if cached, ok := s.cache.Get(ctx, cacheKey); ok {
		var report InsightReport
		if err := json.Unmarshal([]byte(cached), &report); err == nil {
			return report
		}
	}

	return s.freshInsights(ctx, fc, cacheKey)
}

// RegenerateInsights builds a report from the current financials, ignoring
// any cached one, and replaces the cache entry so read paths stop serving
// pre-mutation advice.
func (s *Summarizer) RegenerateInsights(ctx context.Context, fc *FinancialContext, today time.Time) InsightReport {
	if fc.IsNewUser() {
		return onboardingReport()
	}
	return s.freshInsights(ctx, fc, insightsCacheKey(fc.UserID, today))
}

func (s *Summarizer) freshInsights(ctx context.Context, fc *FinancialContext, cacheKey string) InsightReport {
	report, ok := s.generateInsights(ctx, fc)
	if !ok {
		// A cached report may describe data that no longer exists; drop it
		// rather than let it outlive the failure.
		s.cache.Delete(ctx, cacheKey)
		return s.fallbackInsights(fc)
	}

	if payload, err := json.Marshal(report); err == nil {
		s.cache.Set(ctx, cacheKey, string(payload), s.ttl)
	}
	return report
}

func insightsCacheKey(userID string, today time.Time) string {
	return fmt.Sprintf("insights:%s:%s", userID, today.Format("2006-01-02"))
}

func (s *Summarizer) generateInsights(ctx context.Context, fc *FinancialContext) (InsightReport, bool) {
	raw, err := s.gw.Complete(ctx, buildInsightsPrompt(fc))
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", fc.UserID).Msg("Insight generation degraded to fallback")
		return InsightReport{}, false
	}

	obj, ok := decodeModelObject(raw)
	if !ok {
		return InsightReport{}, false
	}

	items, ok := obj["insights"].([]interface{})
	if !ok {
		return InsightReport{}, false
	}
	tip := looseString(obj["tip"])
	if tip == "" {
		return InsightReport{}, false
	}

	report := InsightReport{Tip: tip}
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		msg := looseString(m["message"])
		if msg == "" {
			continue
		}
		typ := looseString(m["type"])
		if typ != "warning" && typ != "success" && typ != "info" {
			typ = "info"
		}
		report.Insights = append(report.Insights, InsightItem{Type: typ, Message: msg})
		if len(report.Insights) == 3 {
			break
		}
	}

	if len(report.Insights) == 0 {
		return InsightReport{}, false
	}
	return report, true
}

// fallbackInsights derives a report from the arithmetic facts alone.
func (s *Summarizer) fallbackInsights(fc *FinancialContext) InsightReport {
	shortfall := fc.SavingsTarget - fc.MonthlySavings()
	headline := "You are on track!"
	if shortfall > 0 {
		headline = fmt.Sprintf("You are ₹%.0f away from goal.", shortfall)
	}

	return InsightReport{
		Insights: []InsightItem{
			{Type: "warning", Message: headline},
			{Type: "info", Message: "Track expenses daily."},
			{Type: "success", Message: "Great start!"},
		},
		Tip: "Save small amounts daily to build a big safety net.",
	}
}

package assistant

import (
	"context"
	"math"
	"time"
)

const forecastFallbackText = "Keep tracking to get better predictions!"

// Projection is the deterministic end-of-month savings estimate. All fields
// are exact arithmetic over stored data; no model output is involved.
type Projection struct {
	ProjectedSavings float64 `json:"projected_savings"`
	SavingsTarget    float64 `json:"savings_target"`
	OnTrack          bool    `json:"on_track"`
	DaysElapsed      int     `json:"days_elapsed"`
	DaysInMonth      int     `json:"days_in_month"`
}

// Forecast pairs the projection with a prose explanation.
type Forecast struct {
	Projection
	Explanation string `json:"explanation"`
}

// ComputeProjection extrapolates the month's spending from the daily average
// so far.
func ComputeProjection(fc *FinancialContext, today time.Time) Projection {
	daysInMonth := time.Date(today.Year(), today.Month()+1, 0, 0, 0, 0, 0, today.Location()).Day()
	daysElapsed := today.Day()

	projectedSavings := fc.MonthlyIncome
	if daysElapsed > 0 {
		dailyAvg := fc.MonthlyExpense / float64(daysElapsed)
		projectedSavings = fc.MonthlyIncome - dailyAvg*float64(daysInMonth)
	}

	return Projection{
		ProjectedSavings: math.Round(projectedSavings*100) / 100,
		SavingsTarget:    fc.SavingsTarget,
		OnTrack:          projectedSavings >= fc.SavingsTarget,
		DaysElapsed:      daysElapsed,
		DaysInMonth:      daysInMonth,
	}
}

// Forecast computes the projection and asks the model to explain it. A
// failed generation keeps the numbers and substitutes a fixed explanation.
func (s *Summarizer) Forecast(ctx context.Context, fc *FinancialContext, today time.Time) Forecast {
	projection := ComputeProjection(fc, today)

	explanation, err := s.gw.Complete(ctx, buildForecastPrompt(fc, projection))
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", fc.UserID).Msg("Forecast explanation degraded to fallback")
		explanation = forecastFallbackText
	}

	return Forecast{Projection: projection, Explanation: explanation}
}

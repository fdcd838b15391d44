package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spennies/spennies/internal/assistant"
	"github.com/spennies/spennies/internal/cache"
	"github.com/spennies/spennies/internal/config"
	"github.com/spennies/spennies/internal/gateway"
	"github.com/spennies/spennies/internal/logger"
	"github.com/spennies/spennies/internal/store"
)

// The worker runs the scheduled maintenance the API process does not: loan
// due-date reminders and periodic insight regeneration for every user.
func main() {
	_ = godotenv.Load()

	log := logger.New()
	cfg := config.Load()

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.NewSQLiteStore(cfg.SQLiteDBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer st.Close()

	gw, err := gateway.NewGeminiGateway(ctx, cfg.GeminiModel, cfg.GatewayTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini gateway")
	}

	var respCache *cache.RedisCache
	if cfg.RedisAddr != "" {
		respCache = cache.NewRedisCache(cfg.RedisAddr)
		if err := respCache.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("Redis unreachable - continuing without response cache")
			respCache = nil
		}
	}

	summarizer := assistant.NewSummarizer(gw, respCache, cfg.CacheTTL, log)
	dispatcher := assistant.NewDispatcher(st, assistant.NewCategorizer(gw, log), assistant.NewChatResponder(gw, log), log)
	bot := assistant.New(
		st,
		assistant.NewExtractor(gw, log),
		dispatcher,
		summarizer,
		assistant.NewSMSParser(gw, log),
		nil,
		log,
	)

	log.Info().Dur("interval", cfg.ReminderInterval).Msg("Starting worker service")

	ticker := time.NewTicker(cfg.ReminderInterval)
	defer ticker.Stop()

	// One pass at startup so a restart never silently skips a cycle.
	runCycle(ctx, st, bot, log)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			runCycle(ctx, st, bot, log)
		case <-quit:
			log.Info().Msg("Shutting down worker service...")
			cancel()
			log.Info().Msg("Worker service exited")
			return
		}
	}
}

func runCycle(ctx context.Context, st *store.SQLiteStore, bot *assistant.Assistant, log zerolog.Logger) {
	scanLoanReminders(ctx, st, log)
	refreshAllInsights(ctx, st, bot, log)
}

// scanLoanReminders logs every loan inside its reminder window. Delivery
// (push, SMS) hangs off this log stream via the infra log shipper.
func scanLoanReminders(ctx context.Context, st *store.SQLiteStore, log zerolog.Logger) {
	due, err := st.ListLoansDue(ctx, time.Now())
	if err != nil {
		log.Error().Err(err).Msg("Loan reminder scan failed")
		return
	}

	for _, loan := range due {
		log.Info().
			Str("user_id", loan.UserID).
			Str("loan_id", loan.ID).
			Str("lender", loan.LenderName).
			Float64("amount", loan.Amount).
			Time("due_date", loan.DueDate).
			Msg("Loan repayment reminder")
	}

	log.Info().Int("due", len(due)).Msg("Loan reminder scan completed")
}

func refreshAllInsights(ctx context.Context, st *store.SQLiteStore, bot *assistant.Assistant, log zerolog.Logger) {
	userIDs, err := st.ListUserIDs(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list users for insight refresh")
		return
	}

	refreshed := 0
	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return
		}
		if err := bot.RefreshInsights(ctx, userID); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Insight refresh failed")
			continue
		}
		refreshed++
	}

	log.Info().Int("users", refreshed).Msg("Insight refresh cycle completed")
}

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spennies/spennies/internal/assistant"
	"github.com/spennies/spennies/internal/cache"
	"github.com/spennies/spennies/internal/config"
	"github.com/spennies/spennies/internal/domain"
	"github.com/spennies/spennies/internal/gateway"
	"github.com/spennies/spennies/internal/logger"
	"github.com/spennies/spennies/internal/store"
)

func main() {
	_ = godotenv.Load()
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "chat":
		runChat(log)
	case "register":
		runRegister(log)
	case "insights":
		runInsights(log)
	case "forecast":
		runForecast(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Spennies CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  chat      Talk to the assistant interactively")
	fmt.Println("  register  Create a user account")
	fmt.Println("  insights  Print the current AI insights")
	fmt.Println("  forecast  Print the end-of-month savings forecast")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// buildAssistant wires the full pipeline against the configured store and
// gateway. No job queue: CLI insight reads are always computed live.
func buildAssistant(ctx context.Context, log zerolog.Logger) (*assistant.Assistant, *store.SQLiteStore) {
	cfg := config.Load()

	st, err := store.NewSQLiteStore(cfg.SQLiteDBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}

	gw, err := gateway.NewGeminiGateway(ctx, cfg.GeminiModel, cfg.GatewayTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini gateway")
	}

	summarizer := assistant.NewSummarizer(gw, (*cache.RedisCache)(nil), cfg.CacheTTL, log)
	dispatcher := assistant.NewDispatcher(st, assistant.NewCategorizer(gw, log), assistant.NewChatResponder(gw, log), log)

	return assistant.New(
		st,
		assistant.NewExtractor(gw, log),
		dispatcher,
		summarizer,
		assistant.NewSMSParser(gw, log),
		nil,
		log,
	), st
}

func runChat(log zerolog.Logger) {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	userID := fs.String("user", "", "User ID to chat as")
	lang := fs.String("lang", "", "Reply language override (en, hi, mr)")
	fs.Parse(os.Args[2:])

	if *userID == "" {
		log.Fatal().Msg("Error: --user is required")
	}

	ctx := logger.WithContext(context.Background(), log)
	bot, st := buildAssistant(ctx, log)
	defer st.Close()

	if _, err := st.GetUser(ctx, *userID); err != nil {
		log.Fatal().Err(err).Msg("Unknown user")
	}

	fmt.Println("Chatting with Spennies. Type 'quit' to exit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		result := bot.HandleMessage(ctx, *userID, line, *lang)
		fmt.Println(result.Text)
	}
}

func runRegister(log zerolog.Logger) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "Email address")
	name := fs.String("name", "", "Display name")
	jobType := fs.String("job", "", "Job type (driver, delivery, freelancer, ...)")
	target := fs.Float64("target", 0, "Monthly savings target")
	fs.Parse(os.Args[2:])

	if *email == "" {
		log.Fatal().Msg("Error: --email is required")
	}

	ctx := logger.WithContext(context.Background(), log)
	cfg := config.Load()

	st, err := store.NewSQLiteStore(cfg.SQLiteDBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer st.Close()

	now := time.Now().UTC()
	user := &domain.User{
		ID:            uuid.NewString(),
		Email:         *email,
		Name:          *name,
		JobType:       *jobType,
		SavingsTarget: *target,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := st.CreateUser(ctx, user); err != nil {
		log.Fatal().Err(err).Msg("Failed to create user")
	}

	fmt.Printf("Created user %s\n", user.ID)
}

func runInsights(log zerolog.Logger) {
	fs := flag.NewFlagSet("insights", flag.ExitOnError)
	userID := fs.String("user", "", "User ID")
	fs.Parse(os.Args[2:])

	if *userID == "" {
		log.Fatal().Msg("Error: --user is required")
	}

	ctx := logger.WithContext(context.Background(), log)
	bot, st := buildAssistant(ctx, log)
	defer st.Close()

	report, err := bot.Insights(ctx, *userID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build insights")
	}

	for _, item := range report.Insights {
		fmt.Printf("[%s] %s\n", item.Type, item.Message)
	}
	fmt.Printf("Tip: %s\n", report.Tip)
}

func runForecast(log zerolog.Logger) {
	fs := flag.NewFlagSet("forecast", flag.ExitOnError)
	userID := fs.String("user", "", "User ID")
	fs.Parse(os.Args[2:])

	if *userID == "" {
		log.Fatal().Msg("Error: --user is required")
	}

	ctx := logger.WithContext(context.Background(), log)
	bot, st := buildAssistant(ctx, log)
	defer st.Close()

	forecast, err := bot.Forecast(ctx, *userID, "")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build forecast")
	}

	fmt.Printf("Projected savings: ₹%.0f (target ₹%.0f)\n", forecast.ProjectedSavings, forecast.SavingsTarget)
	fmt.Printf("Day %d of %d\n", forecast.DaysElapsed, forecast.DaysInMonth)
	if forecast.OnTrack {
		fmt.Println("Status: on track")
	} else {
		fmt.Println("Status: off track")
	}
	fmt.Println(forecast.Explanation)
}

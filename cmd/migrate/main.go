package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spennies/spennies/internal/config"
	"github.com/spennies/spennies/internal/logger"
	"github.com/spennies/spennies/internal/store"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()
	cfg := config.Load()

	dbPath := flag.String("db", cfg.SQLiteDBPath, "Path to the SQLite database file")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -db is required (or set SQLITE_DB_PATH)")
		os.Exit(1)
	}

	log.Info().Str("db", *dbPath).Msg("Applying migrations")

	if err := store.RunMigrations(*dbPath); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}

	fmt.Println("Database is up to date.")
}

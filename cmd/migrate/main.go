package main

import (
	"flag"

	"github.com/askpage/askpage/internal/config"
	"github.com/askpage/askpage/internal/repository/postgres"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	source := flag.String("source", "file://migrations", "migration source URL")
	flag.Parse()

	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	log.Info().
		Str("host", cfg.Database.Host).
		Int("port", cfg.Database.Port).
		Str("database", cfg.Database.Database).
		Msg("Running database migrations")

	if err := postgres.RunMigrations(cfg.Database.DSN(), *source); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
}

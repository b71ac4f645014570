package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"chatter/config"
	"chatter/internal/database"
	"chatter/internal/di"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	log.Logger = logger

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := db.Migrate(); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	sqlDB, err := db.SQL()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to get database instance")
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing database connection")
		}
	}()

	server, err := di.InitializeServer(cfg, sqlDB, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize server")
	}

	if err := server.Run(":" + cfg.Port); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

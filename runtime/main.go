package main

import (
	"os"

	"github.com/alphabatem/common/context"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lac-hong-legacy/devscope/services"
)

// @title DevScope API
// @version 1.0
// @description Rate-limited submission gateway and progressive developer analysis.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("No .env file found, using environment")
	}

	ctx, err := context.NewCtx(
		&services.ConfigService{},
		&services.RedisService{},
		&services.DatabaseService{},
		&services.ArchiveService{},
		&services.MonitoringService{},

		&services.IdentityService{},
		&services.AuthMiddleware{},
		&services.AnalysisService{},
		&services.PollingService{},
		&services.RateLimitService{},

		&services.HttpService{},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure services")
		return
	}

	err = ctx.Run()
	if err != nil {
		log.Fatal().Err(err).Msg("Service exited")
		return
	}
}

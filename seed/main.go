package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lac-hong-legacy/devscope/dto"
	"github.com/lac-hong-legacy/devscope/model"
	"github.com/lac-hong-legacy/devscope/normalizer"
	"github.com/lac-hong-legacy/devscope/services"
	"github.com/lac-hong-legacy/devscope/shared"
	"github.com/lac-hong-legacy/devscope/tracker"
)

// demoPayload is a settled two-contestant event in the current upstream
// shape, including the aggregate pseudo ecosystem.
const demoPayload = `{
	"id": "demo-upstream",
	"type": "event",
	"description": "Demo hackathon",
	"status": "completed",
	"request_data": ["https://github.com/octocat", "torvalds"],
	"data": {"users": [
		{"actor_id": "583231", "status": "completed", "ecosystem_scores": [
			{"ecosystem": "ALL", "total_score": 41, "status": "completed", "repos": []},
			{"ecosystem": "Ethereum", "total_score": 32.5, "status": "completed", "repos": [{"repo_name": "octocat/hello-world", "score": 20}, {"repo_name": "octocat/Spoon-Knife", "score": 12.5}]},
			{"ecosystem": "Solana", "total_score": 8.5, "status": "completed", "repos": [{"repo_name": "octocat/linguist", "score": 8.5}]}
		]},
		{"actor_id": "1024025", "status": "completed", "ecosystem_scores": [
			{"ecosystem": "Ethereum", "total_score": 0, "status": "completed", "repos": []},
			{"ecosystem": "Solana", "total_score": 3, "status": "completed", "repos": [{"fullName": "torvalds/linux", "score": "3"}]}
		]}
	]},
	"github": {"users": [
		{"id": 583231, "login": "octocat", "name": "The Octocat", "avatar_url": "https://avatars.githubusercontent.com/u/583231", "html_url": "https://github.com/octocat", "followers": 9000, "public_repos": 8},
		{"id": 1024025, "login": "torvalds", "name": "Linus Torvalds", "avatar_url": "https://avatars.githubusercontent.com/u/1024025", "html_url": "https://github.com/torvalds", "followers": 200000, "public_repos": 7}
	]}
}`

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, using system environment variables")
	}

	var (
		dbPath = flag.String("db", "", "Database path (overrides DB_DATABASE env var)")
		owner  = flag.String("owner", "demo-user", "Owner user id of the seeded event")
	)
	flag.Parse()

	databasePath := *dbPath
	if databasePath == "" {
		databasePath = os.Getenv("DB_DATABASE")
		if databasePath == "" {
			databasePath = "devscope.db"
		}
	}

	db, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	log.Info().Str("path", databasePath).Msg("Connected to database")

	ds, err := services.NewDatabaseService(db, 0)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	job, err := demoJob(*owner)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build demo job")
	}
	if _, err := ds.Jobs().CreateJob(context.Background(), job); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed demo job")
	}

	log.Info().Str("job_id", job.ID).Msg("Seeded demo event")
}

func demoJob(owner string) (*model.AnalysisJob, error) {
	snapshot := normalizer.NormalizePartial([]byte(demoPayload))
	partial, err := shared.JSON().Marshal(tracker.Merge(nil, snapshot.Contestants))
	if err != nil {
		return nil, err
	}
	requestData, err := shared.JSON().Marshal([]string{"https://github.com/octocat", "torvalds"})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &model.AnalysisJob{
		Type:         string(dto.JobTypeEvent),
		OwnerID:      owner,
		Description:  "Demo hackathon",
		RequestData:  string(requestData),
		UpstreamID:   "demo-upstream",
		Status:       string(dto.StatusCompleted),
		Snapshot:     demoPayload,
		Partial:      string(partial),
		PollCount:    1,
		LastPolledAt: &now,
		CompletedAt:  &now,
	}, nil
}

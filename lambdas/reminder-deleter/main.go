package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"

	"github.com/Slimo300/Smart-Reminder/pkg/features/config"
	"github.com/Slimo300/Smart-Reminder/pkg/features/logging"
	reminderdeleter "github.com/Slimo300/Smart-Reminder/pkg/handlers/reminder-deleter"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Setup(cfg.LogLevel, "reminder-deleter")

	if err := cfg.RequireTable(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	awsCfg, err := cfg.AWS(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load aws config")
	}

	handler := reminderdeleter.Handler{
		DynamoClient: cfg.DynamoClient(awsCfg),
		TableName:    cfg.TableName,
	}

	lambda.Start(handler.Handle)
}

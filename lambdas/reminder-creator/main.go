package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Slimo300/Smart-Reminder/pkg/features/config"
	"github.com/Slimo300/Smart-Reminder/pkg/features/logging"
	remindercreator "github.com/Slimo300/Smart-Reminder/pkg/handlers/reminder-creator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Setup(cfg.LogLevel, "reminder-creator")

	if err := cfg.RequireTable(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	awsCfg, err := cfg.AWS(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load aws config")
	}

	handler := remindercreator.Handler{
		DynamoClient: cfg.DynamoClient(awsCfg),
		TableName:    cfg.TableName,
		Validator:    validator.New(),
		NewID:        uuid.NewString,
	}

	lambda.Start(handler.Handle)
}

package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/rs/zerolog/log"

	"github.com/Slimo300/Smart-Reminder/pkg/features/config"
	"github.com/Slimo300/Smart-Reminder/pkg/features/logging"
	"github.com/Slimo300/Smart-Reminder/pkg/features/notifier"
	remindersender "github.com/Slimo300/Smart-Reminder/pkg/handlers/reminder-sender"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Setup(cfg.LogLevel, "reminder-sender")

	if err := cfg.RequireTable(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	awsCfg, err := cfg.AWS(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load aws config")
	}

	handler := remindersender.Handler{
		DynamoClient: cfg.DynamoClient(awsCfg),
		TableName:    cfg.TableName,
		Notifier: &notifier.Notifier{
			SesClient:     ses.NewFromConfig(awsCfg),
			SnsClient:     sns.NewFromConfig(awsCfg),
			EmailSender:   cfg.EmailSender,
			PushTargetArn: cfg.PushTargetArn,
		},
	}

	lambda.Start(handler.Handle)
}

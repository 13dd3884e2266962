// Package config reads the lambda configuration from the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// RetentionWindowMillis is how long a sent reminder is kept before the
// cleaner removes it (30 days). It is not configurable.
const RetentionWindowMillis int64 = 30 * 24 * 60 * 60 * 1000

var ErrNoTableName = errors.New("DYNAMO_TABLE_NAME is not set")

type Config struct {
	TableName      string `koanf:"dynamo_table_name"`
	DynamoEndpoint string `koanf:"dynamo_endpoint"`
	EmailSender    string `koanf:"email_sender"`
	PushTargetArn  string `koanf:"push_notification_arn"`
	LogLevel       string `koanf:"log_level"`
}

var knownKeys = map[string]bool{
	"dynamo_table_name":     true,
	"dynamo_endpoint":       true,
	"email_sender":          true,
	"push_notification_arn": true,
	"log_level":             true,
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"dynamo_table_name":     "",
		"dynamo_endpoint":       "",
		"email_sender":          "",
		"push_notification_arn": "",
		"log_level":             "info",
	}
}

// Load layers the environment over the defaults. Unknown variables are ignored.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		key := strings.ToLower(s)
		if !knownKeys[key] {
			return ""
		}
		return key
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// RequireTable is called by every lambda that talks to the reminders table.
func (c *Config) RequireTable() error {
	if c.TableName == "" {
		return ErrNoTableName
	}
	return nil
}

// AWS loads the shared AWS configuration (region, credentials).
func (c *Config) AWS(ctx context.Context) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx)
}

// DynamoClient creates a DynamoDB client, pointed at DYNAMO_ENDPOINT
// when running against DynamoDB Local.
func (c *Config) DynamoClient(awsCfg aws.Config) *dynamodb.Client {
	return dynamodb.NewFromConfig(awsCfg, c.DynamoOptions)
}

func (c *Config) DynamoOptions(o *dynamodb.Options) {
	if c.DynamoEndpoint != "" {
		o.BaseEndpoint = aws.String(c.DynamoEndpoint)
	}
}

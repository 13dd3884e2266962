// Package remindercleaner permanently removes reminders that were sent
// more than the retention window ago.
//
// The sweep runs in two phases. First every eligible key is discovered by
// following the Scan continuation token until the table is exhausted, then
// the keys are deleted in BatchWriteItem calls of at most BatchSize
// requests, one call at a time. Any error aborts the whole sweep; deletes
// are idempotent, so the next scheduled run picks up whatever is left.
package remindercleaner

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Slimo300/Smart-Reminder/pkg/features/config"
	"github.com/Slimo300/Smart-Reminder/pkg/features/dynamomapper"
	"github.com/Slimo300/Smart-Reminder/pkg/features/errors"
	"github.com/Slimo300/Smart-Reminder/pkg/features/reminder"
	"github.com/Slimo300/Smart-Reminder/pkg/features/response"
)

// BatchSize is the BatchWriteItem limit of DynamoDB.
const BatchSize = 25

type DynamoApiClient interface {
	dynamodb.ScanAPIClient
	BatchWriteItem(context.Context, *dynamodb.BatchWriteItemInput, ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

type Handler struct {
	DynamoClient DynamoApiClient
	TableName    string
	Now          func() time.Time
	// Logger defaults to the global zerolog logger.
	Logger       *zerolog.Logger
}

type Result struct {
	Deleted int `json:"deleted"`
}

func (h *Handler) Handle(ctx context.Context, _ events.CloudWatchEvent) (events.APIGatewayProxyResponse, error) {
	deleted, err := h.Sweep(ctx)
	if err != nil {
		return errors.Internal(err)
	}

	res, err := response.JSON(http.StatusOK, Result{Deleted: deleted})
	if err != nil {
		return errors.Internal(err)
	}
	return res, nil
}

// Sweep deletes every sent reminder whose triggerAt is at least
// config.RetentionWindowMillis in the past and returns how many keys it
// found.
func (h *Handler) Sweep(ctx context.Context) (int, error) {
	start := h.now()
	cutoff := start.UnixMilli() - config.RetentionWindowMillis

	keys, err := h.discover(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	batches, err := h.deleteInBatches(ctx, keys)
	if err != nil {
		return 0, err
	}

	h.logger().Info().
		Int("deleted", len(keys)).
		Int("batches", batches).
		Int64("cutoff", cutoff).
		Dur("duration", h.now().Sub(start)).
		Msg("reminder cleanup finished")

	return len(keys), nil
}

func (h *Handler) discover(ctx context.Context, cutoff int64) ([]map[string]types.AttributeValue, error) {
	paginator := dynamodb.NewScanPaginator(h.DynamoClient, &dynamodb.ScanInput{
		TableName:            aws.String(h.TableName),
		FilterExpression:     aws.String("#status = :sent AND #triggerAt <= :cutoff"),
		ProjectionExpression: aws.String("#userId, #reminderId"),
		ExpressionAttributeNames: map[string]string{
			"#status":     reminder.AttrStatus,
			"#triggerAt":  reminder.AttrTriggerAt,
			"#userId":     reminder.AttrUserID,
			"#reminderId": reminder.AttrReminderID,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sent":   &types.AttributeValueMemberS{Value: string(reminder.StatusSent)},
			":cutoff": &types.AttributeValueMemberN{Value: strconv.FormatInt(cutoff, 10)},
		},
	})

	keys := []map[string]types.AttributeValue{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scanning for expired reminders: %w", err)
		}
		for _, item := range page.Items {
			key, err := dynamomapper.KeyFromItem(item)
			if err != nil {
				return nil, err
			}
			keys = append(keys, key)
		}
	}

	return keys, nil
}

func (h *Handler) deleteInBatches(ctx context.Context, keys []map[string]types.AttributeValue) (int, error) {
	batches := 0
	for start := 0; start < len(keys); start += BatchSize {
		end := start + BatchSize
		if end > len(keys) {
			end = len(keys)
		}

		requests := make([]types.WriteRequest, 0, end-start)
		for _, key := range keys[start:end] {
			requests = append(requests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: key},
			})
		}

		out, err := h.DynamoClient.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				h.TableName: requests,
			},
		})
		if err != nil {
			return batches, fmt.Errorf("deleting batch %d: %w", batches+1, err)
		}
		batches++

		if out != nil && len(out.UnprocessedItems[h.TableName]) > 0 {
			// not retried, the next run finds them again
			h.logger().Warn().
				Int("count", len(out.UnprocessedItems[h.TableName])).
				Int("batch", batches).
				Msg("unprocessed items while deleting expired reminders")
		}
	}
	return batches, nil
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Handler) logger() *zerolog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return &log.Logger
}

// Package sundaeddb provides DynamoDB and DAX client utilities with common patterns
// for stream processing and data access.
package sundaeddb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sundaecli "github.com/SundaeSwap-finance/sundae-realtime/sundae-cli"
	"github.com/SundaeSwap-finance/sundae-realtime/sundae-ws/subscriptiondao"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodbstreams"
	"github.com/rs/zerolog"
	"github.com/savaki/ddb"
	"golang.org/x/sync/errgroup"
)

const pollInterval = time.Second

type BatchCallback func(ctx context.Context, event ddb.Event) error

type Handler struct {
	service sundaecli.Service
	Logger  zerolog.Logger

	onBatch BatchCallback
}

func NewBatchHandler(
	service sundaecli.Service,
	onBatch BatchCallback,
) *Handler {
	return &Handler{
		service: service,
		Logger:  sundaecli.Logger(service),
		onBatch: onBatch,
	}
}

// Subscriptions builds the subscriptions DAO from the DDB flags.
func Subscriptions(s *session.Session) (*subscriptiondao.DAO, error) {
	api, err := DynamoDBAPI(s)
	if err != nil {
		return nil, err
	}
	if DDBOpts.TableName != "" {
		return subscriptiondao.New(api, DDBOpts.TableName), nil
	}
	return subscriptiondao.Build(api, sundaecli.CommonOpts.Env), nil
}

func (h *Handler) Start() error {
	switch {
	case sundaecli.CommonOpts.Console:
		return h.handleRealtime()

	default:
		lambda.Start(h.HandleEvent)
	}
	return nil
}

func (h *Handler) HandleEvent(ctx context.Context, event ddb.Event) error {
	ctx = h.Logger.WithContext(ctx)
	h.Logger.Trace().Int("count", len(event.Records)).Msg("handling a batch of events")
	if err := h.onBatch(ctx, event); err != nil {
		h.Logger.Error().Err(err).Msg("unable to handle batch")
		return fmt.Errorf("unable to handle batch: %w", err)
	}
	return nil
}

func (h *Handler) handleRealtime() error {
	if DDBOpts.StreamTable == "" {
		return fmt.Errorf("--stream-table is required in console mode")
	}

	streams := dynamodbstreams.New(Session())
	ss, err := streams.ListStreams(&dynamodbstreams.ListStreamsInput{
		TableName: aws.String(DDBOpts.StreamTable),
	})
	if err != nil {
		return fmt.Errorf("unable to list streams for table %v: %w", DDBOpts.StreamTable, err)
	}
	if len(ss.Streams) != 1 {
		return fmt.Errorf("too few or too many streams (%v) for table %v", len(ss.Streams), DDBOpts.StreamTable)
	}
	stream := ss.Streams[0]

	var shards []*dynamodbstreams.Shard
	var lastShard *string
	for {
		ss, err := streams.DescribeStream(&dynamodbstreams.DescribeStreamInput{
			StreamArn:             stream.StreamArn,
			ExclusiveStartShardId: lastShard,
		})
		if err != nil {
			return fmt.Errorf("unable to describe stream %v: %w", *stream.StreamArn, err)
		}
		shards = append(shards, ss.StreamDescription.Shards...)
		if ss.StreamDescription.LastEvaluatedShardId == nil {
			break
		}
		lastShard = ss.StreamDescription.LastEvaluatedShardId
	}
	group, ctx := errgroup.WithContext(h.Logger.WithContext(context.Background()))
	group.SetLimit(256)

	h.Logger.Info().Str("tableName", DDBOpts.StreamTable).Int("shardCount", len(shards)).Msg("responding to stream events")

	for _, shard := range shards {
		shard := shard
		group.Go(func() error {
			// Only new changes matter to live subscribers.
			it, err := streams.GetShardIteratorWithContext(ctx, &dynamodbstreams.GetShardIteratorInput{
				StreamArn:         stream.StreamArn,
				ShardId:           shard.ShardId,
				ShardIteratorType: aws.String(dynamodbstreams.ShardIteratorTypeLatest),
			})
			if err != nil {
				return fmt.Errorf("unable to get shard iterator: %w", err)
			}

			for it.ShardIterator != nil {
				records, err := streams.GetRecordsWithContext(ctx, &dynamodbstreams.GetRecordsInput{
					ShardIterator: it.ShardIterator,
				})
				if err != nil {
					return fmt.Errorf("unable to get records: %w", err)
				}
				if len(records.Records) == 0 {
					select {
					case <-ctx.Done():
						return ctx.Err()
					case <-time.After(pollInterval):
					}
				} else {
					// Reserialize to the ddb event type, as it's nicer to work with
					raw, err := json.Marshal(struct {
						Records []*dynamodbstreams.Record `json:"Records"`
					}{records.Records})
					if err != nil {
						return fmt.Errorf("unable to marshal records: %w", err)
					}
					var event ddb.Event
					if err := json.Unmarshal(raw, &event); err != nil {
						return fmt.Errorf("unable to unmarshal records: %w", err)
					}
					if err := h.onBatch(ctx, event); err != nil {
						h.Logger.Error().Err(err).Str("shard", aws.StringValue(shard.ShardId)).Msg("unable to handle batch")
					}
				}
				it.ShardIterator = records.NextShardIterator
			}
			return nil
		})
	}
	return group.Wait()
}

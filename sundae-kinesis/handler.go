// Package sundaekinesis provides utilities for building AWS Kinesis consumers,
// either as a Lambda trigger or, in console mode, as a long running reader.
package sundaekinesis

import (
	"context"
	"fmt"

	sundaecli "github.com/SundaeSwap-finance/sundae-realtime/sundae-cli"
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	consumer "github.com/harlow/kinesis-consumer"
	"github.com/rs/zerolog"
)

type HandleMessageCallback func(ctx context.Context, record events.KinesisEventRecord) error

type Handler struct {
	Service sundaecli.Service
	Logger  zerolog.Logger

	defaultStream string
	handleMessage HandleMessageCallback
}

// NewGenericHandler creates a handler that passes each record to handleMessage.
// defaultStream is read in console mode when --stream-name is not set.
func NewGenericHandler(
	service sundaecli.Service,
	defaultStream string,
	handleMessage HandleMessageCallback,
) *Handler {
	return &Handler{
		Service:       service,
		Logger:        sundaecli.Logger(service),
		defaultStream: defaultStream,
		handleMessage: handleMessage,
	}
}

func (h *Handler) Start() error {
	if !sundaecli.CommonOpts.Console {
		lambda.Start(h.HandleKinesisEvent)
		return nil
	}
	return h.handleRealtime()
}

// HandleKinesisEvent handles every record in the batch, continuing past
// failures, and reports the first failure so the batch is retried.
func (h *Handler) HandleKinesisEvent(ctx context.Context, event events.KinesisEvent) error {
	ctx = h.Logger.WithContext(ctx)
	var first error
	for _, r := range event.Records {
		if err := h.handleMessage(ctx, r); err != nil {
			h.Logger.Error().Err(err).
				Str("event_id", r.EventID).
				Msg("failed to process kinesis record")
			if first == nil {
				first = err
			}
		}
	}
	return first
}

func (h *Handler) handleRealtime() error {
	streamName := KinesisOpts.StreamName
	if streamName == "" {
		streamName = h.defaultStream
	}
	var options []consumer.Option
	if KinesisOpts.Replay {
		options = append(options, consumer.WithShardIteratorType("TRIM_HORIZON"))
	} else {
		options = append(options, consumer.WithShardIteratorType("LATEST"))
	}
	c, err := consumer.New(streamName, options...)
	if err != nil {
		return fmt.Errorf("unable to create consumer for stream %v: %w", streamName, err)
	}

	ctx := h.Logger.WithContext(context.Background())
	callback := func(record *consumer.Record) error {
		er := events.KinesisEventRecord{
			EventID: aws.StringValue(record.SequenceNumber),
			Kinesis: events.KinesisRecord{Data: record.Data},
		}
		if err := h.handleMessage(ctx, er); err != nil {
			h.Logger.Error().Err(err).Str("event_id", er.EventID).Msg("failed to process kinesis record")
		}
		return nil
	}
	h.Logger.Info().Str("stream", streamName).Msg("listening")
	return c.Scan(ctx, callback)
}

package sundaews

import (
	"context"
	"errors"
	"fmt"
	"time"

	sundaecli "github.com/SundaeSwap-finance/sundae-realtime/sundae-cli"
	"github.com/SundaeSwap-finance/sundae-realtime/sundae-ws/subscriptiondao"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds the number of in-flight posts per broadcast.
const DefaultConcurrency = 50

// Result distinguishes the successful ends of a broadcast cycle.
type Result int

const (
	ResultSent Result = iota
	ResultNoRecipients
	ResultMalformedEvent
	ResultFailed
)

func (r Result) String() string {
	switch r {
	case ResultSent:
		return "sent"
	case ResultNoRecipients:
		return "no-recipients"
	case ResultMalformedEvent:
		return "malformed-event"
	case ResultFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Report summarises one broadcast cycle.
type Report struct {
	Result    Result `json:"-"`
	Status    string `json:"result"`
	Matched   int    `json:"matched"`
	Delivered int    `json:"delivered"`
	Gone      int    `json:"gone"`
}

// MetricsRecorder is satisfied by sundaecli.Metrics.
type MetricsRecorder interface {
	Event(ctx context.Context, name sundaecli.MetricName, dimensions ...map[sundaecli.DimensionName]string)
	Count(ctx context.Context, name sundaecli.MetricName, n int, dimensions ...map[sundaecli.DimensionName]string)
	Timing(ctx context.Context, name sundaecli.MetricName, start time.Time, dimensions ...map[sundaecli.DimensionName]string)
}

// Broadcaster fans change events out to the connections subscribed to them.
type Broadcaster struct {
	Registry    Registry
	Sender      Sender
	TopicKey    string
	Logger      zerolog.Logger
	Metrics     MetricsRecorder // optional
	Concurrency int             // max concurrent posts (default 50)
}

var listAttributes = []string{
	subscriptiondao.AttrConnectionID,
	subscriptiondao.AttrTopicKey,
	subscriptiondao.AttrTopicValue,
}

// Broadcast runs one cycle for event. Every matched connection gets exactly one
// post. Gone connections are evicted from the registry; any other delivery
// failure fails the cycle once all posts have settled.
func (b *Broadcaster) Broadcast(ctx context.Context, event Event) (report Report, err error) {
	defer func(begin time.Time) {
		if err != nil {
			report.Result = ResultFailed
		}
		report.Status = report.Result.String()
		b.record(ctx, report, begin)
	}(time.Now())

	logger := b.Logger.With().
		Str("source", event.Source).
		Str("event_id", event.ID).
		Logger()

	value, ok := event.TopicValue(b.TopicKey)
	if !ok {
		logger.Error().Str("real_time_item_key", b.TopicKey).Msg("no real time item key found in the event")
		return Report{Result: ResultMalformedEvent}, nil
	}
	logger = logger.With().Str("real_time_item_id", value).Logger()

	subs, err := b.Registry.ListAll(ctx, listAttributes...)
	if err != nil {
		return Report{}, fmt.Errorf("listing subscriptions: %w", err)
	}

	matched, err := Filter(event, b.TopicKey, subs)
	if err != nil {
		return Report{Result: ResultMalformedEvent}, nil
	}
	if len(matched) == 0 {
		logger.Debug().Int("subscriptions", len(subs)).Msg("no connections found")
		return Report{Result: ResultNoRecipients}, nil
	}

	payload, err := event.Payload()
	if err != nil {
		return Report{}, err
	}

	logger.Debug().Int("subscribers", len(matched)).Msg("dispatching event")

	concurrency := b.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	// No shared context: one failure must not cancel the other posts.
	var g errgroup.Group
	g.SetLimit(concurrency)

	outcomes := make([]OutcomeKind, len(matched))
	for i, sub := range matched {
		i, connID := i, sub.ConnectionID
		g.Go(func() error {
			kind, err := b.deliver(ctx, logger, connID, payload)
			outcomes[i] = kind
			return err
		})
	}
	err = g.Wait()

	report = Report{Result: ResultSent, Matched: len(matched)}
	for _, kind := range outcomes {
		switch kind {
		case Delivered:
			report.Delivered++
		case Gone:
			report.Gone++
		}
	}
	if err != nil {
		return report, err
	}

	logger.Info().
		Int("delivered", report.Delivered).
		Int("gone", report.Gone).
		Msg("real time event sent")
	return report, nil
}

func (b *Broadcaster) deliver(ctx context.Context, logger zerolog.Logger, connID string, payload []byte) (OutcomeKind, error) {
	outcome := b.Sender.Send(ctx, connID, payload)
	switch outcome.Kind {
	case Delivered:
		return Delivered, nil

	case Gone:
		logger.Info().Str("connection_id", connID).Msg("found stale connection, deleting")
		if err := b.Registry.Delete(ctx, connID); err != nil {
			return Gone, fmt.Errorf("evicting stale connection %v: %w", connID, err)
		}
		return Gone, nil

	default:
		logger.Error().Err(outcome.Err).Str("connection_id", connID).Msg("failed to post to connection")
		return Failed, &DeliveryError{ConnectionID: connID, Err: outcome.Err}
	}
}

// BroadcastAll runs one cycle per event, in order. A failing cycle does not
// stop the remaining ones; all failures are returned together.
func (b *Broadcaster) BroadcastAll(ctx context.Context, events ...Event) error {
	var errs []error
	for _, event := range events {
		if _, err := b.Broadcast(ctx, event); err != nil {
			b.Logger.Error().Err(err).Str("event_id", event.ID).Msg("broadcast failed")
			errs = append(errs, fmt.Errorf("broadcasting event %v: %w", event.ID, err))
		}
	}
	return errors.Join(errs...)
}

func (b *Broadcaster) record(ctx context.Context, report Report, begin time.Time) {
	if b.Metrics == nil {
		return
	}
	dimensions := map[sundaecli.DimensionName]string{sundaecli.ResultDimension: report.Result.String()}
	b.Metrics.Event(ctx, sundaecli.BroadcastCycleMetric, dimensions)
	b.Metrics.Timing(ctx, sundaecli.BroadcastDurationMetric, begin)
	if report.Delivered > 0 {
		b.Metrics.Count(ctx, sundaecli.DeliveredMetric, report.Delivered)
	}
	if report.Gone > 0 {
		b.Metrics.Count(ctx, sundaecli.EvictedMetric, report.Gone)
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"

	sundaecli "github.com/SundaeSwap-finance/sundae-realtime/sundae-cli"
	sundaeddb "github.com/SundaeSwap-finance/sundae-realtime/sundae-ddb"
	sundaekinesis "github.com/SundaeSwap-finance/sundae-realtime/sundae-kinesis"
	sundaews "github.com/SundaeSwap-finance/sundae-realtime/sundae-ws"
	"github.com/SundaeSwap-finance/sundae-realtime/sundae-ws/apigw"
	"github.com/SundaeSwap-finance/sundae-realtime/sundae-ws/publish"
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

var service = sundaecli.NewService("sundae-realtime-kinesis")

func main() {
	var flags []cli.Flag
	flags = append(flags, sundaecli.CommonFlags...)
	flags = append(flags, sundaeddb.DDBFlags...)
	flags = append(flags, sundaekinesis.KinesisFlags...)
	flags = append(flags, sundaews.RealtimeFlags...)

	app := sundaecli.App(service, action, flags...)
	err := app.Run(os.Args)
	if err != nil {
		log.Fatalln(err)
	}
}

func action(_ *cli.Context) error {
	sess := sundaeddb.Session()

	config, err := sundaews.LoadConfig(sess, sundaews.RoleBroadcast)
	if err != nil {
		return err
	}
	if config.Endpoint == "" {
		return fmt.Errorf("invalid configuration: --ws-endpoint is not set")
	}

	registry, err := sundaeddb.Subscriptions(sess)
	if err != nil {
		return err
	}

	broadcaster := &sundaews.Broadcaster{
		Registry:    registry,
		Sender:      apigw.Build(sess, config.Endpoint),
		TopicKey:    config.TopicKey,
		Logger:      sundaecli.Logger(service),
		Concurrency: sundaews.RealtimeOpts.Concurrency,
	}
	if !sundaecli.CommonOpts.Dry {
		broadcaster.Metrics = sundaecli.NewMetrics(service, cloudwatch.New(sess))
	}

	handler := sundaekinesis.NewGenericHandler(service, publish.StreamName(sundaecli.CommonOpts.Env), handleRecord(broadcaster))
	return handler.Start()
}

func handleRecord(broadcaster *sundaews.Broadcaster) sundaekinesis.HandleMessageCallback {
	return func(ctx context.Context, record events.KinesisEventRecord) error {
		envelope, err := publish.Decode(record.Kinesis.Data)
		if err != nil {
			// A record that can never be decoded must not block the shard.
			zerolog.Ctx(ctx).Warn().Err(err).Str("event_id", record.EventID).Msg("skipping malformed record")
			return nil
		}
		event := envelope.Event()
		if event.ID == "" {
			event.ID = record.EventID
		}
		_, err = broadcaster.Broadcast(ctx, event)
		return err
	}
}

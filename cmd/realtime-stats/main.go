package main

import (
	"context"
	"log"
	"os"
	"time"

	sundaecli "github.com/SundaeSwap-finance/sundae-realtime/sundae-cli"
	sundaecron "github.com/SundaeSwap-finance/sundae-realtime/sundae-cron"
	sundaeddb "github.com/SundaeSwap-finance/sundae-realtime/sundae-ddb"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

var service = sundaecli.NewService("sundae-realtime-stats")

func main() {
	var flags []cli.Flag
	flags = append(flags, sundaecli.CommonFlags...)
	flags = append(flags, sundaeddb.DDBFlags...)

	app := sundaecli.App(service, action, flags...)
	err := app.Run(os.Args)
	if err != nil {
		log.Fatalln(err)
	}
}

func action(_ *cli.Context) error {
	sess := sundaeddb.Session()
	registry, err := sundaeddb.Subscriptions(sess)
	if err != nil {
		return err
	}
	metrics := sundaecli.NewMetrics(service, cloudwatch.New(sess))

	handler := sundaecron.NewHandler(service, func(ctx context.Context) error {
		count, err := registry.Count(ctx)
		if err != nil {
			return err
		}
		zerolog.Ctx(ctx).Info().Int64("subscriptions", count).Time("at", time.Now()).Msg("counted subscriptions")
		if !sundaecli.CommonOpts.Dry {
			metrics.Gauge(ctx, sundaecli.SubscriptionsMetric, float64(count))
		}
		return nil
	})
	return handler.Start()
}

package main

import (
	"fmt"
	"log"
	"os"

	sundaecli "github.com/SundaeSwap-finance/sundae-realtime/sundae-cli"
	sundaeddb "github.com/SundaeSwap-finance/sundae-realtime/sundae-ddb"
	sundaews "github.com/SundaeSwap-finance/sundae-realtime/sundae-ws"
	"github.com/SundaeSwap-finance/sundae-realtime/sundae-ws/apigw"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/urfave/cli/v2"
)

var service = sundaecli.NewService("sundae-realtime-stream")

func main() {
	var flags []cli.Flag
	flags = append(flags, sundaecli.CommonFlags...)
	flags = append(flags, sundaeddb.DDBFlags...)
	flags = append(flags, sundaeddb.StreamFlags...)
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

	handler := sundaeddb.NewBatchHandler(service, broadcaster.HandleStream)
	return handler.Start()
}

package main

import (
	"context"
	"log"
	"os"
	"time"

	sundaecli "github.com/SundaeSwap-finance/sundae-realtime/sundae-cli"
	sundaeddb "github.com/SundaeSwap-finance/sundae-realtime/sundae-ddb"
	sundaereport "github.com/SundaeSwap-finance/sundae-realtime/sundae-report"
	sundaews "github.com/SundaeSwap-finance/sundae-realtime/sundae-ws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/urfave/cli/v2"
)

var service = sundaecli.NewService("sundae-realtime-report")

func main() {
	var flags []cli.Flag
	flags = append(flags, sundaecli.CommonFlags...)
	flags = append(flags, sundaeddb.DDBFlags...)
	flags = append(flags, sundaereport.ReportFlags...)

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

	handler := sundaereport.NewHandler(service, s3.New(sess), "subscriptions", func(ctx context.Context) (interface{}, error) {
		return sundaews.Summarize(ctx, registry, time.Now().UTC())
	})
	return handler.Start()
}

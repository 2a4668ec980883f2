package main

import (
	"fmt"
	"log"
	"os"

	sundaecli "github.com/SundaeSwap-finance/sundae-realtime/sundae-cli"
	sundaeddb "github.com/SundaeSwap-finance/sundae-realtime/sundae-ddb"
	sundaerest "github.com/SundaeSwap-finance/sundae-realtime/sundae-rest"
	sundaews "github.com/SundaeSwap-finance/sundae-realtime/sundae-ws"
	"github.com/SundaeSwap-finance/sundae-realtime/sundae-ws/admin"
	"github.com/SundaeSwap-finance/sundae-realtime/sundae-ws/apigw"
	"github.com/SundaeSwap-finance/sundae-realtime/sundae-ws/publish"
	"github.com/go-chi/chi/v5"
	"github.com/urfave/cli/v2"
)

var service = sundaecli.NewService("sundae-realtime-admin")

func main() {
	var flags []cli.Flag
	flags = append(flags, sundaecli.CommonFlags...)
	flags = append(flags, sundaecli.PortFlag(8081))
	flags = append(flags, sundaeddb.DDBFlags...)
	flags = append(flags, sundaews.RealtimeFlags...)

	app := sundaecli.App(service, action, flags...)
	err := app.Run(os.Args)
	if err != nil {
		log.Fatalln(err)
	}
}

func action(_ *cli.Context) error {
	logger := sundaecli.Logger(service)
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

	api := &admin.API{
		Registry: registry,
		Broadcaster: &sundaews.Broadcaster{
			Registry:    registry,
			Sender:      apigw.Build(sess, config.Endpoint),
			TopicKey:    config.TopicKey,
			Logger:      logger,
			Concurrency: sundaews.RealtimeOpts.Concurrency,
		},
		Publisher: publish.Build(sess, sundaecli.CommonOpts.Env, config.TopicKey),
	}

	router := sundaerest.Middlewares(logger, chi.NewRouter())
	api.Mount(router)
	return sundaerest.Webserver(logger, router)
}

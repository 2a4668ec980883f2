package main

import (
	"log"
	"os"

	sundaecli "github.com/SundaeSwap-finance/sundae-realtime/sundae-cli"
	sundaeddb "github.com/SundaeSwap-finance/sundae-realtime/sundae-ddb"
	sundaerest "github.com/SundaeSwap-finance/sundae-realtime/sundae-rest"
	sundaews "github.com/SundaeSwap-finance/sundae-realtime/sundae-ws"
	"github.com/SundaeSwap-finance/sundae-realtime/sundae-ws/admin"
	"github.com/SundaeSwap-finance/sundae-realtime/sundae-ws/localws"
	"github.com/SundaeSwap-finance/sundae-realtime/sundae-ws/subscriptiondao"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/go-chi/chi/v5"
	"github.com/urfave/cli/v2"
)

var service = sundaecli.NewService("sundae-realtime-ws")

func main() {
	var flags []cli.Flag
	flags = append(flags, sundaecli.CommonFlags...)
	flags = append(flags, sundaecli.PortFlag(8080))
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

	config, err := sundaews.LoadConfig(sess, sundaews.RoleConnect)
	if err != nil {
		return err
	}

	var registry sundaews.Registry
	if sundaecli.CommonOpts.Console && sundaeddb.DDBOpts.TableName == "" && sundaeddb.DDBOpts.Endpoint == "" {
		logger.Info().Msg("no table configured, keeping subscriptions in memory")
		registry = subscriptiondao.NewMemory()
	} else {
		dao, err := sundaeddb.Subscriptions(sess)
		if err != nil {
			return err
		}
		registry = dao
	}

	lifecycle := &sundaews.Lifecycle{
		Registry: registry,
		Config:   config,
		Logger:   logger,
	}

	if !sundaecli.CommonOpts.Console {
		handler := &sundaews.Handler{Lifecycle: lifecycle, Logger: logger}
		lambda.Start(handler.HandleEvent)
		return nil
	}

	// Console mode stands in for API Gateway: sockets on /ws, broadcasts via POST /events.
	hub := localws.NewHub(lifecycle, logger)
	api := &admin.API{
		Registry: registry,
		Broadcaster: &sundaews.Broadcaster{
			Registry:    registry,
			Sender:      hub,
			TopicKey:    config.TopicKey,
			Logger:      logger,
			Concurrency: sundaews.RealtimeOpts.Concurrency,
		},
	}

	router := sundaerest.Middlewares(logger, chi.NewRouter())
	router.Handle("/ws", hub)
	api.Mount(router)
	return sundaerest.Webserver(logger, router)
}

package sundaekinesis

import (
	sundaecli "github.com/SundaeSwap-finance/sundae-realtime/sundae-cli"
	"github.com/urfave/cli/v2"
)

var KinesisOpts struct {
	StreamName string
	Replay     bool
}

var StreamNameFlag = sundaecli.StringFlag("stream-name", "The stream name to read records from", &KinesisOpts.StreamName)
var ReplayFlag = sundaecli.BoolFlag("replay", "Whether to replay from the beginning, or start from the next message", &KinesisOpts.Replay)

var KinesisFlags = []cli.Flag{
	StreamNameFlag,
	ReplayFlag,
}

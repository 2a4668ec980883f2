package sundaeddb

import (
	sundaecli "github.com/SundaeSwap-finance/sundae-realtime/sundae-cli"
	"github.com/urfave/cli/v2"
)

var DDBOpts struct {
	DAXCluster  string
	Endpoint    string
	Region      string
	TableName   string
	StreamTable string
}

var DAXClusterFlag = sundaecli.StringFlag("dax-cluster", "The DAX cluster to connect to", &DDBOpts.DAXCluster)
var EndpointFlag = sundaecli.StringFlag("dynamodb-endpoint", "Override the DynamoDB endpoint, e.g. http://localhost:8000 for DynamoDB Local", &DDBOpts.Endpoint)
var RegionFlag = sundaecli.StringFlag("region", "The AWS region of the subscriptions table", &DDBOpts.Region, "us-east-2")
var TableNameFlag = sundaecli.StringFlag("table-name", "The subscriptions table; defaults to the table for --env", &DDBOpts.TableName)

var StreamTableFlag = sundaecli.StringFlag("stream-table", "The table whose stream is read in console mode", &DDBOpts.StreamTable)

var DDBFlags = []cli.Flag{
	DAXClusterFlag,
	EndpointFlag,
	RegionFlag,
	TableNameFlag,
}

var StreamFlags = []cli.Flag{
	StreamTableFlag,
}

package sundaeddb

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
)

// Session returns an AWS session for the region selected by --region.
func Session() *session.Session {
	config := aws.NewConfig()
	if DDBOpts.Region != "" {
		config = config.WithRegion(DDBOpts.Region)
	}
	return session.Must(session.NewSession(config))
}

// Package apigw posts real time events to API Gateway WebSocket connections.
package apigw

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	sundaews "github.com/SundaeSwap-finance/sundae-realtime/sundae-ws"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/apigatewaymanagementapi"
	"github.com/aws/aws-sdk-go/service/apigatewaymanagementapi/apigatewaymanagementapiiface"
)

// PostTimeout bounds a single PostToConnection call.
const PostTimeout = 10 * time.Second

// Sender implements sundaews.Sender on top of the API Gateway Management API.
type Sender struct {
	client apigatewaymanagementapiiface.ApiGatewayManagementApiAPI
}

// New creates a Sender using the given management API client.
func New(client apigatewaymanagementapiiface.ApiGatewayManagementApiAPI) *Sender {
	return &Sender{client: client}
}

// Build creates a Sender for the management endpoint of a deployed stage,
// e.g. https://{api-id}.execute-api.{region}.amazonaws.com/{stage}.
func Build(s *session.Session, endpoint string) *Sender {
	config := aws.NewConfig().
		WithEndpoint(endpoint).
		WithHTTPClient(&http.Client{Timeout: PostTimeout})
	return New(apigatewaymanagementapi.New(s, config))
}

// Send posts payload to the connection.
func (s *Sender) Send(ctx context.Context, connectionID string, payload []byte) sundaews.Outcome {
	_, err := s.client.PostToConnectionWithContext(ctx, &apigatewaymanagementapi.PostToConnectionInput{
		ConnectionId: aws.String(connectionID),
		Data:         payload,
	})
	switch {
	case err == nil:
		return sundaews.DeliveredOutcome()
	case IsGone(err):
		return sundaews.GoneOutcome()
	default:
		return sundaews.FailedOutcome(err)
	}
}

// IsGone checks if the error is a GoneException (HTTP 410), indicating the
// WebSocket connection no longer exists.
func IsGone(err error) bool {
	if err == nil {
		return false
	}
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) && reqErr.StatusCode() == http.StatusGone {
		return true
	}
	var awsErr awserr.Error
	if errors.As(err, &awsErr) && awsErr.Code() == apigatewaymanagementapi.ErrCodeGoneException {
		return true
	}
	return strings.Contains(err.Error(), apigatewaymanagementapi.ErrCodeGoneException)
}

package apigw

import (
	"context"
	"errors"
	"fmt"
	"testing"

	sundaews "github.com/SundaeSwap-finance/sundae-realtime/sundae-ws"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/apigatewaymanagementapi"
	"github.com/aws/aws-sdk-go/service/apigatewaymanagementapi/apigatewaymanagementapiiface"
	"github.com/tj/assert"
)

type mockClient struct {
	apigatewaymanagementapiiface.ApiGatewayManagementApiAPI
	err   error
	input *apigatewaymanagementapi.PostToConnectionInput
}

func (m *mockClient) PostToConnectionWithContext(_ aws.Context, input *apigatewaymanagementapi.PostToConnectionInput, _ ...request.Option) (*apigatewaymanagementapi.PostToConnectionOutput, error) {
	m.input = input
	return &apigatewaymanagementapi.PostToConnectionOutput{}, m.err
}

func TestSend(t *testing.T) {
	gone := awserr.NewRequestFailure(awserr.New(apigatewaymanagementapi.ErrCodeGoneException, "gone", nil), 410, "req-1")

	testCases := map[string]struct {
		err  error
		want sundaews.OutcomeKind
	}{
		"delivered":     {want: sundaews.Delivered},
		"gone":          {err: gone, want: sundaews.Gone},
		"wrapped gone":  {err: fmt.Errorf("post: %w", gone), want: sundaews.Gone},
		"throttled":     {err: awserr.NewRequestFailure(awserr.New("LimitExceededException", "slow down", nil), 429, "req-2"), want: sundaews.Failed},
		"network error": {err: errors.New("connection reset"), want: sundaews.Failed},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			client := &mockClient{err: tc.err}
			outcome := New(client).Send(context.Background(), "abc", []byte(`{"vehicleId":"V1"}`))

			assert.Equal(t, tc.want, outcome.Kind)
			assert.Equal(t, "abc", aws.StringValue(client.input.ConnectionId))
			assert.Equal(t, []byte(`{"vehicleId":"V1"}`), client.input.Data)
			if tc.want == sundaews.Failed {
				assert.Equal(t, tc.err, outcome.Err)
			} else {
				assert.Nil(t, outcome.Err)
			}
		})
	}
}

func TestIsGone(t *testing.T) {
	assert.False(t, IsGone(nil))
	assert.False(t, IsGone(errors.New("boom")))
	assert.True(t, IsGone(awserr.New(apigatewaymanagementapi.ErrCodeGoneException, "gone", nil)))
	assert.True(t, IsGone(awserr.NewRequestFailure(awserr.New("Unknown", "", nil), 410, "req")))
	assert.True(t, IsGone(errors.New("GoneException: connection gone")))
}

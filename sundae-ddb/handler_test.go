package sundaeddb

import (
	"context"
	"errors"
	"testing"

	sundaecli "github.com/SundaeSwap-finance/sundae-realtime/sundae-cli"
	"github.com/savaki/ddb"
	"github.com/tj/assert"
)

func TestHandleEvent(t *testing.T) {
	var batches int
	handler := NewBatchHandler(sundaecli.Service{Name: "test"}, func(context.Context, ddb.Event) error {
		batches++
		return nil
	})
	assert.NoError(t, handler.HandleEvent(context.Background(), ddb.Event{}))
	assert.Equal(t, 1, batches)

	boom := errors.New("boom")
	handler = NewBatchHandler(sundaecli.Service{Name: "test"}, func(context.Context, ddb.Event) error {
		return boom
	})
	err := handler.HandleEvent(context.Background(), ddb.Event{})
	assert.True(t, errors.Is(err, boom))
}

func TestSubscriptionsTableName(t *testing.T) {
	saved, savedEnv := DDBOpts, sundaecli.CommonOpts.Env
	defer func() { DDBOpts, sundaecli.CommonOpts.Env = saved, savedEnv }()

	DDBOpts.Region = "us-east-2"
	sundaecli.CommonOpts.Env = "dev"

	DDBOpts.TableName = ""
	dao, err := Subscriptions(Session())
	assert.NoError(t, err)
	assert.Equal(t, "dev-sundae-realtime--connections", dao.TableName())

	DDBOpts.TableName = "custom"
	dao, err = Subscriptions(Session())
	assert.NoError(t, err)
	assert.Equal(t, "custom", dao.TableName())
}
